package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
)

// OutlineResult contains a preview image with region outlines.
type OutlineResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Regions     int    `json:"regions"`
}

// Outline draws a 2-pixel border around every region and labels it with its
// index, returning the result as a base64 PNG.
//
// It is a review aid: the pixels inside each region are left untouched so the
// flagged content stays visible. Regions are clipped before drawing.
func Outline(img image.Image, regions []Region, colorHex string) (*OutlineResult, error) {
	lineColor, err := ParseColor(colorHex)
	if err != nil {
		return nil, err
	}

	result := imaging.Clone(img)
	width, height := result.Bounds().Dx(), result.Bounds().Dy()

	labelColor := color.NRGBA{255, 255, 255, 255}
	bgColor := color.NRGBA{0, 0, 0, 180}

	for i, r := range regions {
		c := r.Clip(width, height)
		if c.Empty() {
			continue
		}
		drawBorder(result, c, 2, lineColor)
		drawLabel(result, c.X1+3, c.Y1+3, strconv.Itoa(i), labelColor, bgColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OutlineResult{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Regions:     len(regions),
	}, nil
}

// drawBorder paints the inner edge of r with the given thickness.
func drawBorder(img *image.NRGBA, r Region, thickness int, c color.NRGBA) {
	for y := r.Y1; y < r.Y2; y++ {
		for x := r.X1; x < r.X2; x++ {
			if x-r.X1 < thickness || r.X2-1-x < thickness || y-r.Y1 < thickness || r.Y2-1-y < thickness {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

// drawLabel draws a small digit label at the given position.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	// Simple 3x5 pixel font for digits
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	inBounds := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if px, py := x+dx, y+dy; inBounds(px, py) {
				img.SetNRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if px, py := cx+col, y+row; pixel == '1' && inBounds(px, py) {
					img.SetNRGBA(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}
