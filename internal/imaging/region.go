package imaging

import (
	"errors"
	"fmt"
	"image"
)

// ErrRegionBounds is returned when a region still lies outside the image after
// clipping. Clip makes this unreachable; seeing it means a caller skipped Clip.
var ErrRegionBounds = errors.New("region outside image bounds")

// Source identifies the detector that flagged a Region.
type Source string

const (
	SourceText   Source = "text"
	SourceObject Source = "object"
)

// Region represents a rectangular region within an image flagged for redaction.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
//
// Source records which detector produced the region. Nothing in the redaction
// or heatmap path depends on it; it exists for logs and reports.
type Region struct {
	X1     int    `json:"x1"`
	Y1     int    `json:"y1"`
	X2     int    `json:"x2"`
	Y2     int    `json:"y2"`
	Source Source `json:"source,omitempty"`
}

// Dx returns the region width, or 0 for inverted regions.
func (r Region) Dx() int {
	if r.X2 <= r.X1 {
		return 0
	}
	return r.X2 - r.X1
}

// Dy returns the region height, or 0 for inverted regions.
func (r Region) Dy() int {
	if r.Y2 <= r.Y1 {
		return 0
	}
	return r.Y2 - r.Y1
}

// Area returns the number of pixels covered by the region.
func (r Region) Area() int {
	return r.Dx() * r.Dy()
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Area() == 0
}

// Rect converts the region to an image.Rectangle.
//
// Unlike image.Rect, inverted coordinates are not swapped: an inverted region
// becomes an empty rectangle anchored at (X1, Y1).
func (r Region) Rect() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(r.X1, r.Y1),
		Max: image.Pt(r.X1+r.Dx(), r.Y1+r.Dy()),
	}
}

// Clip clamps the region to [0, width] x [0, height].
//
// A region partially outside the image is trimmed to the visible part. A region
// entirely outside degenerates to a zero-area region on the image edge, which
// every consumer treats as a no-op.
func (r Region) Clip(width, height int) Region {
	c := Region{
		X1:     clamp(r.X1, 0, width),
		Y1:     clamp(r.Y1, 0, height),
		X2:     clamp(r.X2, 0, width),
		Y2:     clamp(r.Y2, 0, height),
		Source: r.Source,
	}
	if c.X2 < c.X1 {
		c.X2 = c.X1
	}
	if c.Y2 < c.Y1 {
		c.Y2 = c.Y1
	}
	return c
}

// CheckBounds verifies the region lies within a width x height image.
func (r Region) CheckBounds(width, height int) error {
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > width || r.Y2 > height || r.X2 < r.X1 || r.Y2 < r.Y1 {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d) in %dx%d",
			ErrRegionBounds, r.X1, r.Y1, r.X2, r.Y2, width, height)
	}
	return nil
}

// Overlaps reports whether two regions share at least one pixel.
func (r Region) Overlaps(o Region) bool {
	return r.X1 < o.X2 && r.X2 > o.X1 && r.Y1 < o.Y2 && r.Y2 > o.Y1
}

// Union returns the smallest region containing both regions.
// The source of r is kept.
func (r Region) Union(o Region) Region {
	return Region{
		X1:     min(r.X1, o.X1),
		Y1:     min(r.Y1, o.Y1),
		X2:     max(r.X2, o.X2),
		Y2:     max(r.Y2, o.Y2),
		Source: r.Source,
	}
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Coalesce merges overlapping regions into their bounding unions.
//
// Empty regions are dropped and merging repeats until no two regions overlap,
// so a chain A-B-C where only neighbours touch still collapses into one region.
// Output order follows the first appearance of each merged group.
func Coalesce(regions []Region) []Region {
	merged := make([]Region, 0, len(regions))
	for _, r := range regions {
		if !r.Empty() {
			merged = append(merged, r)
		}
	}

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if merged[i].Overlaps(merged[j]) {
					merged[i] = merged[i].Union(merged[j])
					merged = append(merged[:j], merged[j+1:]...)
					changed = true
					j--
				}
			}
		}
	}

	return merged
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
