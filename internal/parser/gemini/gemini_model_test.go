package gemini_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfill/internal/config"
	"docfill/internal/parser"
	"docfill/internal/parser/gemini"
	"docfill/internal/port"
)

func newTestModel(serverURL string) *gemini.Model {
	cfg := &config.ModelConfig{
		Provider:    "gemini",
		APIKey:      "test-gemini-key",
		Name:        "gemini-2.0-flash",
		TimeoutSecs: 30,
	}
	return gemini.NewModelWithEndpoint(cfg, serverURL)
}

func successResponse(texts ...string) map[string]interface{} {
	parts := make([]map[string]interface{}, len(texts))
	for i, t := range texts {
		parts[i] = map[string]interface{}{"text": t}
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": parts,
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		contents := reqBody["contents"].([]interface{})
		assert.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		parts := msg["parts"].([]interface{})
		assert.Len(t, parts, 2)
		assert.Equal(t, "extract please", parts[0].(map[string]interface{})["text"])

		inline := parts[1].(map[string]interface{})["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/jpeg", inline["mime_type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), inline["data"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse("```json\n", `{"name":"A"}`, "\n```"))
	}))
	defer server.Close()

	out, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt:   "extract please",
		Image:    image,
		MIMEType: "image/jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", out.Model)
	assert.Equal(t, "```json\n{\"name\":\"A\"}\n```", out.Text)
}

func TestGenerate_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/png",
	})

	var statusErr *parser.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.True(t, statusErr.RateLimited())
	assert.Contains(t, statusErr.Body, "quota exceeded")
	assert.Equal(t, 30*time.Second, statusErr.RetryAfter)
}

func TestGenerate_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/png",
	})

	var statusErr *parser.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, statusErr.Unauthorized())
}

func TestGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerate_EmptyParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(successResponse())
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/png",
	})

	assert.Error(t, err)
}

func TestGenerate_UnsupportedMimeType(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/gif",
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestGenerate_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestModel(url).Generate(context.Background(), port.ModelInput{
		Prompt: "p", Image: []byte("x"), MIMEType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling gemini API")
}

func TestFactory_RequiresAPIKey(t *testing.T) {
	_, err := gemini.Factory(context.Background(), &config.ModelConfig{Provider: "gemini"})

	assert.Error(t, err)
}

func TestFactory_RegisteredProvider(t *testing.T) {
	parser.RegisterProvider("gemini", gemini.Factory)

	m, err := parser.NewModel(context.Background(), &config.ModelConfig{Provider: "gemini", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &gemini.Model{}, m)

	_, err = parser.NewModel(context.Background(), &config.ModelConfig{Provider: "nope"})
	assert.Error(t, err)
}
