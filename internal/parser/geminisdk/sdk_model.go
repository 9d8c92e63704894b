// Package geminisdk implements port.VisionModel with the official Gemini Go SDK.
package geminisdk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docfill/internal/config"
	"docfill/internal/domain"
	"docfill/internal/port"
)

const defaultModel = "gemini-2.0-flash"

// Model wraps a genai client bound to one model name.
type Model struct {
	client *genai.Client
	name   string
}

// NewModel creates an SDK-backed model. cfg.Endpoint, when set, overrides the API endpoint.
func NewModel(ctx context.Context, cfg *config.ModelConfig) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini-sdk: API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = defaultModel
	}
	return &Model{client: client, name: name}, nil
}

// Factory adapts NewModel to parser.ProviderFactory.
func Factory(ctx context.Context, cfg *config.ModelConfig) (port.VisionModel, error) {
	return NewModel(ctx, cfg)
}

func (m *Model) Generate(ctx context.Context, input port.ModelInput) (*port.ModelOutput, error) {
	ft, ok := domain.AllowedContentTypes[strings.ToLower(input.MIMEType)]
	if !ok {
		return nil, fmt.Errorf("unsupported content type for analysis: %s", input.MIMEType)
	}

	model := m.client.GenerativeModel(m.name)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Text(input.Prompt),
		genai.Blob{MIMEType: domain.AllowedFileTypes[ft], Data: input.Image},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}
	return &port.ModelOutput{Text: text, Model: m.name}, nil
}

// Close releases the underlying client.
func (m *Model) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("request blocked by gemini: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return sb.String(), nil
}
