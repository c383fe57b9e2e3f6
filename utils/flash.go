package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	FlashCookieName = "flash"

	FlashDanger  = "danger"
	FlashInfo    = "info"
	FlashSuccess = "success"

	// MaxFlashCookieSize keeps the encoded cookie well under the 4096 byte browser limit.
	MaxFlashCookieSize = 3500
	maxFlashMessage    = 500

	contextFlashes       = "flashes"
	contextSecureCookies = "secure_cookies"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// AddFlash queues a message for the next page the client renders. When the
// cookie would grow past MaxFlashCookieSize the oldest messages are dropped.
func AddFlash(c *gin.Context, category, message string) {
	var pending []Flash
	if v, ok := c.Get(contextFlashes); ok {
		pending, _ = v.([]Flash)
	}
	if len(message) > maxFlashMessage {
		message = message[:maxFlashMessage] + "..."
	}
	pending = append(pending, Flash{Category: category, Message: message})
	c.Set(contextFlashes, pending)

	value, err := encodeFlashes(pending)
	if err != nil {
		return
	}
	setFlashCookie(c, value, 0)
}

func encodeFlashes(flashes []Flash) (string, error) {
	for {
		raw, err := json.Marshal(flashes)
		if err != nil {
			return "", err
		}
		value := base64.RawURLEncoding.EncodeToString(raw)
		if len(value) <= MaxFlashCookieSize || len(flashes) == 1 {
			return value, nil
		}
		flashes = flashes[1:]
	}
}

// PopFlashes returns the messages carried by the request and clears the cookie.
func PopFlashes(c *gin.Context) []Flash {
	var flashes []Flash
	cookie, err := c.Cookie(FlashCookieName)
	hadCookie := err == nil && cookie != ""
	if hadCookie {
		if raw, err := base64.RawURLEncoding.DecodeString(cookie); err == nil {
			_ = json.Unmarshal(raw, &flashes)
		}
	}

	var pending []Flash
	if v, ok := c.Get(contextFlashes); ok {
		pending, _ = v.([]Flash)
		c.Set(contextFlashes, nil)
	}
	flashes = append(flashes, pending...)

	if hadCookie || len(pending) > 0 {
		setFlashCookie(c, "", -1)
	}
	return flashes
}

func setFlashCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookieName, value, maxAge, "/", "", c.GetBool(contextSecureCookies), true)
}
