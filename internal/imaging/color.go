package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultIndicatorColor is the saturated red used to mark flagged regions.
const DefaultIndicatorColor = "#FF0000"

// ParseColor parses a "#RRGGBB" or "#RGB" hex string into an opaque color.
//
// The returned color has A=255; heatmap blending uses its own weights and
// ignores the alpha channel.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
