package model

import (
	"net/url"
	"strings"
	"time"
)

const mapEmbedURL = "https://maps.google.com/maps?q=%s&t=&z=13&ie=UTF8&iwloc=&output=embed"

type Cafe struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:250;not null;uniqueIndex"`
	MapURL       string    `json:"map_url" gorm:"size:500;not null"`
	ImgURL       string    `json:"img_url" gorm:"size:500;not null"`
	Location     string    `json:"location" gorm:"size:250;not null"`
	Seats        string    `json:"seats" gorm:"size:250;not null"`
	HasToilet    bool      `json:"has_toilet" gorm:"not null"`
	HasWifi      bool      `json:"has_wifi" gorm:"not null"`
	HasSockets   bool      `json:"has_sockets" gorm:"not null"`
	CanTakeCalls bool      `json:"can_take_calls" gorm:"not null"`
	CoffeePrice  string    `json:"coffee_price" gorm:"size:250"`
	OwnerID      uint      `json:"owner_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Cafe) Prepare() {
	c.Name = strings.TrimSpace(c.Name)
	c.MapURL = strings.TrimSpace(c.MapURL)
	c.ImgURL = strings.TrimSpace(c.ImgURL)
	c.Location = strings.TrimSpace(c.Location)
	c.Seats = strings.TrimSpace(c.Seats)
	c.CoffeePrice = strings.TrimSpace(c.CoffeePrice)
}

// MapLink returns the embeddable Google Maps URL for the cafe's name and location.
func (c *Cafe) MapLink() string {
	words := strings.Fields(c.Name + " " + c.Location)
	q := strings.ReplaceAll(strings.Join(words, " "), "&", "and")
	return strings.Replace(mapEmbedURL, "%s", url.PathEscape(q), 1)
}

// OwnedBy reports whether userID created the cafe.
func (c *Cafe) OwnedBy(userID uint) bool {
	return userID != 0 && c.OwnerID == userID
}
