package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "session"

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the numeric user id stored in the subject claim.
func (c *SessionClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid subject in session token")
	}
	return uint(id), nil
}

type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue signs a session token for the user.
func (m *SessionManager) Issue(userID uint, email string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates the signature and expiry of a session token.
func (m *SessionManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("error parsing session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// NeedsRenewal reports whether less than half of the session lifetime is left.
func (m *SessionManager) NeedsRenewal(claims *SessionClaims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Sub(m.now()) < m.ttl/2
}

// Login issues a token and writes it as the session cookie.
func (m *SessionManager) Login(c *gin.Context, userID uint, email string) error {
	token, err := m.Issue(userID, email)
	if err != nil {
		return err
	}
	m.setCookie(c, token, int(m.ttl.Seconds()))
	c.Set(ContextUserID, userID)
	c.Set(ContextEmail, email)
	return nil
}

// Logout expires the session cookie.
func (m *SessionManager) Logout(c *gin.Context) {
	m.setCookie(c, "", -1)
	c.Set(ContextUserID, nil)
}

func (m *SessionManager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", m.secure, true)
}
