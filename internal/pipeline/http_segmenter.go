package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// HTTPSegmenter asks a remote selfie-segmentation service for a
// foreground mask.
type HTTPSegmenter struct {
	client *inferenceClient
}

// NewHTTPSegmenter creates a segmenter backed by the given endpoint.
func NewHTTPSegmenter(url string, timeout time.Duration, logger *slog.Logger) *HTTPSegmenter {
	return &HTTPSegmenter{
		client: newInferenceClient(url, timeout, logger),
	}
}

// Segment returns a greyscale mask where white marks the subject. The
// service must return a mask with the input's dimensions.
func (s *HTTPSegmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	mask, err := s.client.call(ctx, map[string]image.Image{"image": img}, nil)
	if err != nil {
		return nil, err
	}

	if !mask.Bounds().Size().Eq(img.Bounds().Size()) {
		return nil, fmt.Errorf("segmenter returned mask of size %v for image of size %v",
			mask.Bounds().Size(), img.Bounds().Size())
	}

	return mask, nil
}
