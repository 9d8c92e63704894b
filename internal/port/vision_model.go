package port

import "context"

// ModelInput carries one image-plus-instruction request to a vision model.
type ModelInput struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// ModelOutput is the model's free-text answer. Text is expected, but not
// guaranteed, to hold a JSON object.
type ModelOutput struct {
	Text  string
	Model string
}

// VisionModel abstracts the external document-understanding model.
type VisionModel interface {
	Generate(ctx context.Context, input ModelInput) (*ModelOutput, error)
}
