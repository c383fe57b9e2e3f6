package utils

import (
	"net/http"

	"cafefinder/logging"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// SessionMiddleware loads the session cookie into the context. A bad or expired
// cookie is dropped and the request continues anonymously.
func (m *SessionManager) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextSecureCookies, m.secure)

		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		claims, err := m.Parse(cookie)
		if err != nil {
			logging.FromContext(c).WithError(err).Debug("discarding session cookie")
			m.Logout(c)
			c.Next()
			return
		}

		userID, _ := claims.UserID()
		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, claims.Email)

		if m.NeedsRenewal(claims) {
			if err := m.Login(c, userID, claims.Email); err != nil {
				logging.FromContext(c).WithError(err).Warn("failed to renew session")
			}
		}

		c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			AddFlash(c, FlashInfo, "Please log in to access this page.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the logged-in user's id.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// CurrentEmail returns the logged-in user's email.
func CurrentEmail(c *gin.Context) string {
	if _, ok := CurrentUserID(c); !ok {
		return ""
	}
	return c.GetString(ContextEmail)
}
