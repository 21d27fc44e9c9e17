package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// inferenceClient posts images to an external model-serving endpoint
// and decodes the image it returns. Both HTTP stages share it; the
// heavyweight model lives behind the endpoint, so constructing a stage
// is cheap and the process holds no per-job state.
type inferenceClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func newInferenceClient(url string, timeout time.Duration, logger *slog.Logger) *inferenceClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &inferenceClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// call sends the named images and form fields as multipart/form-data
// and decodes the response body as an image.
func (c *inferenceClient) call(ctx context.Context, images map[string]image.Image, fields map[string]string) (image.Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, img := range images {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if err := png.Encode(part, img); err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request to %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Inference response",
		slog.String("url", c.url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("inference service %s returned status %d: %s", c.url, resp.StatusCode, bytes.TrimSpace(raw))
	}

	result, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}

	return result, nil
}
