package pipeline

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BlendPostprocessor merges the luminance channel of the original image
// with the chroma channels of the generated candidate, preserving fine
// structural detail while adopting the generated colours. An optional
// sharpening pass runs on the blended result.
type BlendPostprocessor struct {
	sharpen bool
}

// NewBlendPostprocessor creates the postprocessor. sharpen enables the
// final sharpening filter.
func NewBlendPostprocessor(sharpen bool) *BlendPostprocessor {
	return &BlendPostprocessor{sharpen: sharpen}
}

// Process blends generated colour onto the original's structure.
func (p *BlendPostprocessor) Process(_ context.Context, original, generated image.Image) (image.Image, error) {
	bounds := original.Bounds()

	// The generator may rescale its output; bring it back to the
	// original geometry before blending per pixel.
	if !generated.Bounds().Size().Eq(bounds.Size()) {
		generated = imaging.Resize(generated, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
	}

	genBounds := generated.Bounds()
	blended := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			or, og, ob, _ := original.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gr, gg, gb, _ := generated.At(genBounds.Min.X+x, genBounds.Min.Y+y).RGBA()

			luma, _, _ := color.RGBToYCbCr(uint8(or>>8), uint8(og>>8), uint8(ob>>8))
			_, cb, cr := color.RGBToYCbCr(uint8(gr>>8), uint8(gg>>8), uint8(gb>>8))

			// The RGB conversion clamps Y/Cb/Cr combinations that fall
			// outside the RGB gamut, so extremely saturated chroma can
			// pull the displayed luminance down a few steps.
			r, g, b := color.YCbCrToRGB(luma, cb, cr)
			blended.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}

	if p.sharpen {
		return imaging.Sharpen(blended, 0.8), nil
	}

	return blended, nil
}
