package redact

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	imgproc "github.com/disintegration/imaging"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

// DefaultKernelSize is the side of the square Gaussian kernel.
const DefaultKernelSize = 51

// Blurrer blurs image regions with a fixed Gaussian kernel.
// A Blurrer is immutable and safe for concurrent use.
type Blurrer struct {
	kernelSize int
	radius     float64
}

// NewBlurrer creates a Blurrer with a kernelSize x kernelSize Gaussian kernel.
// The kernel size must be odd and at least 1; a size of 1 leaves regions unchanged.
func NewBlurrer(kernelSize int) (*Blurrer, error) {
	if kernelSize < 1 || kernelSize%2 == 0 {
		return nil, fmt.Errorf("kernel size must be odd and >= 1, got %d", kernelSize)
	}
	// bild sizes its kernel as ceil(2*radius + 1)
	return &Blurrer{
		kernelSize: kernelSize,
		radius:     float64(kernelSize-1) / 2,
	}, nil
}

// KernelSize returns the configured kernel side length.
func (b *Blurrer) KernelSize() int {
	return b.kernelSize
}

// Apply returns a copy of img in which every region is replaced by a blurred
// version of its own pixels.
//
// Regions are processed in order, so an area covered by two regions is blurred
// twice. Pixels outside every region are copied unchanged. The output always has
// the same dimensions as the input.
func (b *Blurrer) Apply(img image.Image, regions []imaging.Region) (*image.NRGBA, error) {
	out := imgproc.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	for _, r := range regions {
		c := r.Clip(w, h)
		if c.Empty() {
			continue
		}
		if err := c.CheckBounds(w, h); err != nil {
			return nil, err
		}

		// Crop reads from the output so overlapping regions see earlier blurs
		patch := imaging.Crop(out, c)
		if b.radius > 0 {
			blurred := blur.Gaussian(patch, b.radius)
			draw.Draw(out, c.Rect(), blurred, image.Point{}, draw.Src)
		}
	}

	return out, nil
}
