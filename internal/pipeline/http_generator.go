package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// HTTPGenerator asks a remote diffusion-inpainting service for a
// colourised candidate image, constrained to the masked region and
// guided by the prompt.
type HTTPGenerator struct {
	client *inferenceClient
}

// NewHTTPGenerator creates a generator backed by the given endpoint.
func NewHTTPGenerator(url string, timeout time.Duration, logger *slog.Logger) *HTTPGenerator {
	return &HTTPGenerator{
		client: newInferenceClient(url, timeout, logger),
	}
}

// Generate returns the colourised candidate for img.
func (g *HTTPGenerator) Generate(ctx context.Context, img, mask image.Image, prompt string) (image.Image, error) {
	return g.client.call(ctx,
		map[string]image.Image{
			"image": img,
			"mask":  mask,
		},
		map[string]string{
			"prompt": prompt,
		},
	)
}
