package redact

import (
	"fmt"
	"image"
	"image/color"
	"math"

	imgproc "github.com/disintegration/imaging"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

// Default heatmap compositing weights.
const (
	DefaultOriginalWeight = 0.7
	DefaultOverlayWeight  = 0.3
)

// HeatmapRenderer tints redacted regions with an indicator color.
// A HeatmapRenderer is immutable and safe for concurrent use.
type HeatmapRenderer struct {
	indicator      color.NRGBA
	originalWeight float64
	overlayWeight  float64
}

// NewHeatmapRenderer creates a renderer for the given hex indicator color and
// compositing weights. Both weights must be non-negative and sum to at most 1.
func NewHeatmapRenderer(hexColor string, originalWeight, overlayWeight float64) (*HeatmapRenderer, error) {
	c, err := imaging.ParseColor(hexColor)
	if err != nil {
		return nil, err
	}
	if originalWeight < 0 || overlayWeight < 0 {
		return nil, fmt.Errorf("heatmap weights must be non-negative, got %g and %g", originalWeight, overlayWeight)
	}
	if originalWeight+overlayWeight > 1+1e-9 {
		return nil, fmt.Errorf("heatmap weights sum to %g, must be <= 1", originalWeight+overlayWeight)
	}
	return &HeatmapRenderer{
		indicator:      c,
		originalWeight: originalWeight,
		overlayWeight:  overlayWeight,
	}, nil
}

// Render composites the indicator color over the union of the regions:
//
//	out = original*originalWeight + indicator*overlayWeight
//
// per color channel, rounded and saturated to [0, 255]. Pixels outside every
// region are copied unchanged, so an empty region list returns an exact copy.
// Overlapping regions are tinted once. Alpha is preserved.
func (h *HeatmapRenderer) Render(img image.Image, regions []imaging.Region) *image.NRGBA {
	out := imgproc.Clone(img)
	w, hgt := out.Bounds().Dx(), out.Bounds().Dy()

	mask := make([]bool, w*hgt)
	for _, r := range regions {
		c := r.Clip(w, hgt)
		for y := c.Y1; y < c.Y2; y++ {
			for x := c.X1; x < c.X2; x++ {
				mask[y*w+x] = true
			}
		}
	}

	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = AddWeighted(out.Pix[i], h.indicator.R, h.originalWeight, h.overlayWeight)
			out.Pix[i+1] = AddWeighted(out.Pix[i+1], h.indicator.G, h.originalWeight, h.overlayWeight)
			out.Pix[i+2] = AddWeighted(out.Pix[i+2], h.indicator.B, h.originalWeight, h.overlayWeight)
		}
	}

	return out
}

// AddWeighted returns a*alpha + b*beta rounded to the nearest integer and
// saturated to the uint8 range.
func AddWeighted(a, b uint8, alpha, beta float64) uint8 {
	v := math.Round(float64(a)*alpha + float64(b)*beta)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
