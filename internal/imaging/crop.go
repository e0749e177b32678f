package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts a region from an image after clipping it to the image bounds.
//
// The result always starts at (0,0). A region that clips to zero area yields a
// 0x0 image rather than an error.
func Crop(img image.Image, r Region) *image.NRGBA {
	b := img.Bounds()
	c := r.Clip(b.Dx(), b.Dy())
	if c.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	return imaging.Crop(img, c.Rect().Add(b.Min))
}
