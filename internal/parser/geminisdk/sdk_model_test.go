package geminisdk

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfill/internal/config"
)

func TestExtractTextFromResponse_JoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"name":`),
				genai.Blob{MIMEType: "image/png", Data: []byte("x")},
				genai.Text(`"A"}`),
			}}},
		},
	}

	text, err := extractTextFromResponse(resp)

	require.NoError(t, err)
	assert.Equal(t, `{"name":"A"}`, text)
}

func TestExtractTextFromResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"blocked", &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no text", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractTextFromResponse(tt.resp)
			assert.Error(t, err)
		})
	}
}

func TestNewModel_RequiresAPIKey(t *testing.T) {
	_, err := NewModel(context.Background(), &config.ModelConfig{Provider: "gemini-sdk"})

	assert.Error(t, err)
}
