package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"time"

	_ "image/png"
)

// The three pipeline capabilities. Each implementation is constructed
// once per worker process (model/session setup is amortised across all
// jobs) and must not retain per-job state between calls.

// Segmenter produces a greyscale mask isolating the subject. The mask
// dimensions match the input image.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (image.Image, error)
}

// Generator produces a colourised candidate image guided by a
// natural-language prompt.
type Generator interface {
	Generate(ctx context.Context, img, mask image.Image, prompt string) (image.Image, error)
}

// Postprocessor composites structural detail from the original with
// colour from the generated candidate and returns the final image.
type Postprocessor interface {
	Process(ctx context.Context, original, generated image.Image) (image.Image, error)
}

// Pipeline runs the three stages in fixed order for one job, owning
// image decode/encode around them.
type Pipeline struct {
	segmenter     Segmenter
	generator     Generator
	postprocessor Postprocessor
	logger        *slog.Logger
}

// New composes the three stages into a pipeline.
func New(segmenter Segmenter, generator Generator, postprocessor Postprocessor, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		segmenter:     segmenter,
		generator:     generator,
		postprocessor: postprocessor,
		logger:        logger,
	}
}

// Run reads the staged input image, runs segment -> generate ->
// postprocess, and writes the final JPEG to outputPath. The prompt is
// resolved from the style slug; unknown slugs fall back to the natural
// style.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath, style string) error {
	img, err := loadImage(inputPath)
	if err != nil {
		return fmt.Errorf("decode input image: %w", err)
	}

	start := time.Now()

	mask, err := p.segmenter.Segment(ctx, img)
	if err != nil {
		return fmt.Errorf("segmentation stage: %w", err)
	}

	prompt := PromptFor(style)

	generated, err := p.generator.Generate(ctx, img, mask, prompt)
	if err != nil {
		return fmt.Errorf("generation stage: %w", err)
	}

	final, err := p.postprocessor.Process(ctx, img, generated)
	if err != nil {
		return fmt.Errorf("postprocess stage: %w", err)
	}

	if err := saveJPEG(outputPath, final); err != nil {
		return fmt.Errorf("encode output image: %w", err)
	}

	p.logger.Info("Pipeline run complete",
		slog.String("style", style),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func saveJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
