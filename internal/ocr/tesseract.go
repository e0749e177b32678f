package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// ErrUnavailable is returned when the Tesseract engine cannot be initialized,
// typically because the library or the language data is missing.
var ErrUnavailable = errors.New("ocr engine unavailable")

// PSMSingleBlock is Tesseract page segmentation mode 6: assume a single
// uniform block of text.
const PSMSingleBlock = int(gosseract.PSM_SINGLE_BLOCK)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextLine represents a recognized line of text with its location.
type TextLine struct {
	// Text is the recognized text content of the line.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this line in the image.
	Bounds Bounds `json:"bounds"`
}

// Result contains the results of text recognition on one image.
type Result struct {
	// Text is all recognized text as a single string with original spacing/newlines.
	Text string `json:"text"`

	// Lines contains line-level boxes when the engine was asked for them.
	// It may be empty even then if box extraction fails; Text is still valid.
	Lines []TextLine `json:"lines,omitempty"`
}

// Engine recognizes text in an in-memory image.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Engine interface {
	Recognize(img image.Image) (*Result, error)
}

// Options configures a Tesseract engine.
type Options struct {
	// Language is the Tesseract language code (e.g., "eng"). The corresponding
	// language data must be installed.
	Language string

	// TessdataPath overrides the directory holding *.traineddata files.
	// Empty uses Tesseract's compiled-in default or TESSDATA_PREFIX.
	TessdataPath string

	// PageSegMode is the Tesseract page segmentation mode (0-13).
	PageSegMode int

	// WithLines requests text-line bounding boxes in addition to the text.
	WithLines bool
}

// Tesseract is an Engine backed by the Tesseract OCR library via gosseract.
//
// gosseract clients are not safe for concurrent use, so every Recognize call
// creates and closes its own client. The Tesseract value itself is immutable
// and can be shared between pipeline workers.
type Tesseract struct {
	opts Options
}

// NewTesseract creates a Tesseract engine and verifies that it can run.
//
// The check runs recognition on a blank 8x8 image, which forces Tesseract to
// load the language data. Failure wraps ErrUnavailable so callers can treat a
// missing engine as fatal at startup instead of failing every image later.
func NewTesseract(opts Options) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = PSMSingleBlock
	}

	t := &Tesseract{opts: opts}

	probe := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range probe.Pix {
		probe.Pix[i] = 0xFF
	}
	if _, err := t.recognize(probe, false); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return t, nil
}

// Version returns the version string of the linked Tesseract library.
func (t *Tesseract) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Recognize converts the image to grayscale and runs OCR on it.
//
// Parameters:
//   - img: The image to read. It is not modified.
//
// Returns:
//   - *Result: The recognized text, plus line boxes if Options.WithLines is set.
//   - error: Non-nil if encoding or recognition fails.
func (t *Tesseract) Recognize(img image.Image) (*Result, error) {
	return t.recognize(imaging.Grayscale(img), t.opts.WithLines)
}

func (t *Tesseract) recognize(gray image.Image, withLines bool) (*Result, error) {
	// gosseract takes encoded bytes, not pixels
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPath != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPath); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(t.opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(t.opts.PageSegMode)); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{Text: text}
	if !withLines {
		return result, nil
	}

	// Return just text if boxes fail
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return result, nil
	}

	result.Lines = make([]TextLine, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		result.Lines = append(result.Lines, TextLine{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return result, nil
}
