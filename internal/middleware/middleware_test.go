package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docfill/internal/config"
	"docfill/internal/logger"
	"docfill/internal/middleware"
	"docfill/internal/port"
	"docfill/internal/session"
	"docfill/internal/session/memory"
	"docfill/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(middleware.ContextKeyRequestID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestLogger_LogsRequestWithRequestID(t *testing.T) {
	log := logger.NewTestLogger()
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log))
	r.GET("/missing", func(c *gin.Context) {
		logger.FromContext(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	inner, ok := log.Find("inside handler")
	require.True(t, ok)
	assert.Equal(t, "req-1", inner.Fields["request_id"])

	entry, ok := log.Find("request completed")
	require.True(t, ok)
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, "/missing", entry.Fields["path"])
	assert.EqualValues(t, http.StatusNotFound, entry.Fields["status"])
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	log := logger.NewTestLogger()
	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	_, logged := log.Find("panic recovered")
	assert.True(t, logged)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

var sessionCfg = config.SessionConfig{
	Secret:     "test-secret",
	TTL:        time.Hour,
	CookieName: "docfill.sid",
	Issuer:     "docfill",
}

func sessionRouter(t *testing.T, store port.SessionStore) (*gin.Engine, *string) {
	t.Helper()
	cookies := session.NewCookies(session.NewTokens(sessionCfg), sessionCfg)

	var seen string
	r := gin.New()
	r.Use(middleware.Session(cookies, store, logger.NewNop()))
	r.GET("/", func(c *gin.Context) {
		seen = session.ID(c)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestSession_IssuesAndReusesCookie(t *testing.T) {
	store := memory.NewStore(time.Hour)
	r, seen := sessionRouter(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	first := *seen
	require.NotEmpty(t, first)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "docfill.sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 1, store.Len(), "a new session is registered with the store")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, *seen)
	assert.Len(t, w.Result().Cookies(), 1, "cookie is re-issued on every response")
	assert.Equal(t, 1, store.Len())
}

func TestSession_InvalidCookieStartsNewSession(t *testing.T) {
	r, seen := sessionRouter(t, memory.NewStore(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "docfill.sid", Value: "not-a-token"})
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, *seen)
	assert.NotEqual(t, "not-a-token", *seen)
}

func TestSession_DestroyedIDIsNotReused(t *testing.T) {
	store := memory.NewStore(time.Hour)
	r, seen := sessionRouter(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	first := *seen
	old := w.Result().Cookies()[0]

	require.NoError(t, store.Destroy(context.Background(), first))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(old)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, *seen)
	assert.NotEqual(t, first, *seen)
	issued := w.Result().Cookies()
	require.Len(t, issued, 1)
	subject, err := session.NewTokens(sessionCfg).Parse(issued[0].Value)
	require.NoError(t, err)
	assert.Equal(t, *seen, subject)
}

func TestSession_StoreFailureAborts(t *testing.T) {
	store := new(mocks.MockSessionStore)
	store.On("Get", mock.Anything, "s1").Return(nil, false, errors.New("connection refused"))
	r, seen := sessionRouter(t, store)

	token, _, err := session.NewTokens(sessionCfg).Issue("s1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "docfill.sid", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, *seen, "handler is not reached")
	assert.Contains(t, w.Body.String(), "SESSION_ERROR")
	store.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSession_EnsureFailureAborts(t *testing.T) {
	store := new(mocks.MockSessionStore)
	store.On("Ensure", mock.Anything, mock.AnythingOfType("string")).Return(nil, errors.New("connection refused"))
	r, _ := sessionRouter(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies())
	store.AssertExpectations(t)
}
