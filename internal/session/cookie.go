package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docfill/internal/config"
)

// ContextKey is the gin context key holding the current session id.
const ContextKey = "session_id"

// Cookies reads and writes the session cookie on gin requests.
type Cookies struct {
	tokens *Tokens
	name   string
	secure bool
}

// NewCookies creates a cookie helper from the session config.
func NewCookies(tokens *Tokens, cfg config.SessionConfig) *Cookies {
	return &Cookies{tokens: tokens, name: cfg.CookieName, secure: cfg.CookieSecure}
}

// Resolve returns the session id carried by the request cookie. A missing,
// expired or tampered cookie yields a fresh id and fresh=true.
func (k *Cookies) Resolve(c *gin.Context) (id string, fresh bool) {
	raw, err := c.Cookie(k.name)
	if err == nil && raw != "" {
		if id, err := k.tokens.Parse(raw); err == nil {
			return id, false
		}
	}
	return NewID(), true
}

// Write sets a freshly signed cookie for id, extending its expiry.
func (k *Cookies) Write(c *gin.Context, id string) error {
	token, expiry, err := k.tokens.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     k.name,
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(time.Until(expiry).Seconds()),
		HttpOnly: true,
		Secure:   k.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear drops any session cookie already queued on the response and tells
// the client to delete its copy.
func (k *Cookies) Clear(c *gin.Context) {
	header := c.Writer.Header()
	kept := header.Values("Set-Cookie")[:0:0]
	for _, v := range header.Values("Set-Cookie") {
		if cookie, err := http.ParseSetCookie(v); err == nil && cookie.Name == k.name {
			continue
		}
		kept = append(kept, v)
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     k.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ContextKey, "")
}

// ID returns the session id resolved for this request.
func ID(c *gin.Context) string {
	return c.GetString(ContextKey)
}
