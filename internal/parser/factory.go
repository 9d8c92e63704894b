package parser

import (
	"context"
	"fmt"

	"docfill/internal/config"
	"docfill/internal/port"
)

// ProviderFactory creates a VisionModel from the model config.
type ProviderFactory func(ctx context.Context, cfg *config.ModelConfig) (port.VisionModel, error)

// registry of model provider factories, populated via RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a model provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewModel creates a VisionModel using the factory registered for cfg.Provider.
func NewModel(ctx context.Context, cfg *config.ModelConfig) (port.VisionModel, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	return factory(ctx, cfg)
}
