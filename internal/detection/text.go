package detection

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/ocr"
)

// RegionMode selects how a text match is turned into a region.
type RegionMode string

const (
	// RegionModeBand flags a full-width band at the top of the image for each
	// matching pattern. Address text is assumed to sit near the top of the frame.
	RegionModeBand RegionMode = "band"

	// RegionModeLines flags the bounding box of each OCR text line that matches
	// any pattern. Falls back to band mode when the engine returns no lines.
	RegionModeLines RegionMode = "lines"
)

// DefaultBandFraction is the share of image height covered by the text band.
const DefaultBandFraction = 0.2

// TextDetector runs OCR over an image and flags it when the recognized text
// matches any sensitive pattern.
type TextDetector struct {
	engine       ocr.Engine
	patterns     []Pattern
	bandFraction float64
	mode         RegionMode
}

// TextOption configures a TextDetector.
type TextOption func(*TextDetector)

// WithPatterns replaces the default pattern set.
func WithPatterns(patterns []Pattern) TextOption {
	return func(d *TextDetector) {
		d.patterns = patterns
	}
}

// WithBandFraction sets the height fraction of the band region.
func WithBandFraction(f float64) TextOption {
	return func(d *TextDetector) {
		d.bandFraction = f
	}
}

// WithRegionMode selects band or line regions.
func WithRegionMode(mode RegionMode) TextOption {
	return func(d *TextDetector) {
		d.mode = mode
	}
}

// NewTextDetector creates a text detector over the given OCR engine.
func NewTextDetector(engine ocr.Engine, opts ...TextOption) (*TextDetector, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: no OCR engine", ErrUnavailable)
	}

	d := &TextDetector{
		engine:       engine,
		patterns:     DefaultPatterns(),
		bandFraction: DefaultBandFraction,
		mode:         RegionModeBand,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.bandFraction <= 0 || d.bandFraction > 1 {
		return nil, fmt.Errorf("band fraction %g outside (0, 1]", d.bandFraction)
	}
	if d.mode != RegionModeBand && d.mode != RegionModeLines {
		return nil, fmt.Errorf("unknown region mode: %s", d.mode)
	}

	return d, nil
}

// Detect runs OCR on the image and matches the text against every pattern.
//
// In band mode each matching pattern appends the same region
// (0, 0, width, floor(height*bandFraction)); duplicates are kept so the
// region count equals the number of matching patterns. Images without text
// or without a match yield an empty result.
//
// OCR failures are returned as errors; an unavailable engine wraps ErrUnavailable.
func (d *TextDetector) Detect(img image.Image) (*Result, error) {
	res, err := d.engine.Recognize(img)
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}

	if strings.TrimSpace(res.Text) == "" {
		return Empty(), nil
	}

	matched := d.matchingPatterns(res.Text)
	if len(matched) == 0 {
		return Empty(), nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if d.mode == RegionModeLines && len(res.Lines) > 0 {
		if regions := d.lineRegions(res.Lines, width, height); len(regions) > 0 {
			return &Result{Regions: regions, Sensitive: true}, nil
		}
	}

	band := imaging.Region{
		X1:     0,
		Y1:     0,
		X2:     width,
		Y2:     int(float64(height) * d.bandFraction),
		Source: imaging.SourceText,
	}

	regions := make([]imaging.Region, 0, len(matched))
	for range matched {
		regions = append(regions, band)
	}

	return &Result{Regions: regions, Sensitive: true}, nil
}

// matchingPatterns returns the patterns found in text, in pattern order.
func (d *TextDetector) matchingPatterns(text string) []Pattern {
	matched := make([]Pattern, 0, len(d.patterns))
	for _, p := range d.patterns {
		if p.Matches(text) {
			matched = append(matched, p)
		}
	}
	return matched
}

// lineRegions returns one clipped region per OCR line that matches any pattern.
// A line joined across a wrap may miss a match that the full text catches;
// the caller falls back to the band in that case.
func (d *TextDetector) lineRegions(lines []ocr.TextLine, width, height int) []imaging.Region {
	regions := make([]imaging.Region, 0)
	for _, line := range lines {
		if len(d.matchingPatterns(line.Text)) == 0 {
			continue
		}
		r := imaging.Region{
			X1:     line.Bounds.X1,
			Y1:     line.Bounds.Y1,
			X2:     line.Bounds.X2,
			Y2:     line.Bounds.Y2,
			Source: imaging.SourceText,
		}.Clip(width, height)
		if !r.Empty() {
			regions = append(regions, r)
		}
	}
	return regions
}
