package model

import (
	"strings"
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"size:250;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:250;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Prepare() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}
