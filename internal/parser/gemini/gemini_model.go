package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docfill/internal/config"
	"docfill/internal/domain"
	"docfill/internal/parser"
	"docfill/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
	providerName = "gemini"
)

// Model implements port.VisionModel against the Gemini generateContent REST API.
type Model struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewModel creates a Gemini REST model. A non-empty cfg.Endpoint overrides
// the public API URL.
func NewModel(cfg *config.ModelConfig) *Model {
	return newModel(cfg, cfg.Endpoint)
}

// NewModelWithEndpoint creates a model pointing at a custom API endpoint (for testing).
func NewModelWithEndpoint(cfg *config.ModelConfig, endpoint string) *Model {
	return newModel(cfg, endpoint)
}

// Factory adapts NewModel to parser.ProviderFactory.
func Factory(_ context.Context, cfg *config.ModelConfig) (port.VisionModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	return NewModel(cfg), nil
}

func newModel(cfg *config.ModelConfig, endpoint string) *Model {
	model := cfg.Name
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Model{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (m *Model) Generate(ctx context.Context, input port.ModelInput) (*port.ModelOutput, error) {
	mimeType, err := toGeminiMimeType(input.MIMEType)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"text": input.Prompt,
					},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(input.Image),
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0.1,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := parser.NewStatusError(providerName, resp.StatusCode, respBody)
		statusErr.RetryAfter = time.Duration(parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))) * time.Second
		return nil, statusErr
	}

	text, err := extractText(respBody)
	if err != nil {
		return nil, err
	}
	return &port.ModelOutput{Text: text, Model: m.model}, nil
}

func toGeminiMimeType(contentType string) (string, error) {
	ft, ok := domain.AllowedContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type for analysis: %s", contentType)
	}
	return domain.AllowedFileTypes[ft], nil
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// extractText concatenates the text parts of the first candidate.
func extractText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("request blocked by gemini: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("empty response from API: no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from API: no text parts (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}
