package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfill/internal/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret",
		TTL:        time.Hour,
		CookieName: "docfill.sid",
		Issuer:     "docfill",
	}
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens(testSessionConfig())
	id := NewID()

	signed, expiry, err := tokens.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	got, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens(testSessionConfig())
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return start }

	signed, _, err := tokens.Issue(NewID())
	require.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(time.Hour + time.Minute) }
	_, err = tokens.Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	signed, _, err := NewTokens(testSessionConfig()).Issue(NewID())
	require.NoError(t, err)

	other := testSessionConfig()
	other.Secret = "another-secret"
	_, err = NewTokens(other).Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsForeignAudience(t *testing.T) {
	cfg := testSessionConfig()
	claims := jwt.RegisteredClaims{
		Subject:   NewID(),
		Issuer:    cfg.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Audience:  jwt.ClaimStrings{"access"},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = NewTokens(cfg).Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsNonUUIDSubject(t *testing.T) {
	tokens := NewTokens(testSessionConfig())
	signed, _, err := tokens.Issue("not-a-uuid")
	require.NoError(t, err)

	_, err = tokens.Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := NewTokens(testSessionConfig()).Parse("garbage")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCookies_ResolveRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testSessionConfig()
	cookies := NewCookies(NewTokens(cfg), cfg)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	id, fresh := cookies.Resolve(c)
	assert.True(t, fresh)
	require.NoError(t, cookies.Write(c, id))

	issued := w.Result().Cookies()
	require.Len(t, issued, 1)
	assert.Equal(t, "docfill.sid", issued[0].Name)
	assert.True(t, issued[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, issued[0].SameSite)

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(issued[0])

	got, fresh := cookies.Resolve(c2)
	assert.False(t, fresh)
	assert.Equal(t, id, got)
}

func TestCookies_ResolveTamperedCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testSessionConfig()
	cookies := NewCookies(NewTokens(cfg), cfg)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "forged"})

	id, fresh := cookies.Resolve(c)

	assert.True(t, fresh)
	assert.NotEmpty(t, id)
}

func TestCookies_ClearReplacesQueuedCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testSessionConfig()
	cookies := NewCookies(NewTokens(cfg), cfg)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Writer.Header().Add("Set-Cookie", "other=1; Path=/")
	require.NoError(t, cookies.Write(c, NewID()))

	cookies.Clear(c)

	issued := w.Result().Cookies()
	require.Len(t, issued, 2)
	assert.Equal(t, "other", issued[0].Name)
	assert.Equal(t, cfg.CookieName, issued[1].Name)
	assert.Empty(t, issued[1].Value)
	assert.Equal(t, -1, issued[1].MaxAge)
	assert.Empty(t, ID(c))
}
