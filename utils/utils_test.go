package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour, false)

	token, err := m.Issue(42, "ada@example.com")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.False(t, m.NeedsRenewal(claims))
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour, false)
	other := NewSessionManager("fedcba9876543210", time.Hour, false)

	token, err := other.Issue(1, "ada@example.com")
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.Error(t, err)

	_, err = m.Parse(token[:len(token)-2] + "xx")
	assert.Error(t, err)
}

func TestSessionExpiryAndRenewal(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour, false)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, err := m.Issue(1, "ada@example.com")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(40 * time.Minute) }
	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.True(t, m.NeedsRenewal(claims))

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestSessionMiddleware(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour, false)
	r := gin.New()
	r.Use(m.SessionMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, "%d %s", id, CurrentEmail(c))
	})
	r.GET("/private", RequireLogin(), func(c *gin.Context) { c.String(http.StatusOK, "secret") })

	token, err := m.Issue(7, "ada@example.com")
	require.NoError(t, err)

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "7 ada@example.com", rec.Body.String())
	})

	t.Run("garbage cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-jwt"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "anonymous", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=;")
	})

	t.Run("anonymous visitor is redirected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), FlashCookieName+"=")
	})
}

func TestFlashesSurviveOneRedirect(t *testing.T) {
	r := gin.New()
	r.POST("/act", func(c *gin.Context) {
		AddFlash(c, FlashDanger, "first")
		AddFlash(c, FlashInfo, "second")
		c.Redirect(http.StatusFound, "/show")
	})
	r.GET("/show", func(c *gin.Context) {
		var parts []string
		for _, f := range PopFlashes(c) {
			parts = append(parts, f.Category+":"+f.Message)
		}
		c.String(http.StatusOK, strings.Join(parts, ","))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/act", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	flash := cookies[len(cookies)-1]
	require.Equal(t, FlashCookieName, flash.Name)

	req := httptest.NewRequest(http.MethodGet, "/show", nil)
	req.AddCookie(flash)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "danger:first,info:second", rec.Body.String())
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestFlashCookieStaysUnderSizeLimit(t *testing.T) {
	r := gin.New()
	r.POST("/act", func(c *gin.Context) {
		for i := 0; i < 80; i++ {
			AddFlash(c, FlashInfo, "Skipped row "+strconv.Itoa(i)+": "+strings.Repeat("x", 60))
		}
		AddFlash(c, FlashSuccess, "Imported 1 cafes.")
		AddFlash(c, FlashInfo, strings.Repeat("y", 5000))
		c.Redirect(http.StatusFound, "/")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/act", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]
	require.Equal(t, FlashCookieName, last.Name)
	assert.LessOrEqual(t, len(last.Value), MaxFlashCookieSize)

	raw, err := base64.RawURLEncoding.DecodeString(last.Value)
	require.NoError(t, err)
	var flashes []Flash
	require.NoError(t, json.Unmarshal(raw, &flashes))
	require.GreaterOrEqual(t, len(flashes), 2)
	assert.Equal(t, "Imported 1 cafes.", flashes[len(flashes)-2].Message)
	assert.True(t, strings.HasSuffix(flashes[len(flashes)-1].Message, "..."))
}

func TestFlashCookieFollowsSecureSetting(t *testing.T) {
	for _, secure := range []bool{true, false} {
		m := NewSessionManager("0123456789abcdef", time.Hour, secure)
		r := gin.New()
		r.Use(m.SessionMiddleware())
		r.GET("/private", RequireLogin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, FlashCookieName, cookies[0].Name)
		assert.Equal(t, secure, cookies[0].Secure)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	rl.Cleanup(-time.Second)
	assert.Equal(t, 0, rl.size())
}

func TestRateLimiterMiddlewareOnlyLimitsPosts(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.Use(rl.Middleware())
	r.Any("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := func(method string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, "/login", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, codes(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, codes(http.MethodPost))
	assert.Equal(t, http.StatusOK, codes(http.MethodGet))
}
