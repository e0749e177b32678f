package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/ocr"
)

// fakeEngine returns a canned OCR result.
type fakeEngine struct {
	result *ocr.Result
	err    error
	calls  int
}

func (f *fakeEngine) Recognize(img image.Image) (*ocr.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestTextDetector_Detect(t *testing.T) {
	band := imaging.Region{X1: 0, Y1: 0, X2: 1000, Y2: 160, Source: imaging.SourceText}

	tests := []struct {
		name          string
		text          string
		wantRegions   []imaging.Region
		wantSensitive bool
	}{
		{
			name:          "street address",
			text:          "Visit us at 123 Main Street",
			wantRegions:   []imaging.Region{band},
			wantSensitive: true,
		},
		{
			name:          "case insensitive",
			text:          "42 ELM AVE",
			wantRegions:   []imaging.Region{band},
			wantSensitive: true,
		},
		{
			name:          "po box",
			text:          "P.O. Box 1234",
			wantRegions:   []imaging.Region{band},
			wantSensitive: true,
		},
		{
			name:          "address and zip give one band per pattern",
			text:          "123 Main St\nSpringfield 12345",
			wantRegions:   []imaging.Region{band, band},
			wantSensitive: true,
		},
		{
			name:          "all three patterns",
			text:          "12 Oak Rd, PO Box 7, 90210-1234",
			wantRegions:   []imaging.Region{band, band, band},
			wantSensitive: true,
		},
		{
			name:          "no match",
			text:          "Hello world",
			wantRegions:   []imaging.Region{},
			wantSensitive: false,
		},
		{
			name:          "whitespace only",
			text:          "  \n\t ",
			wantRegions:   []imaging.Region{},
			wantSensitive: false,
		},
		{
			name:          "empty",
			text:          "",
			wantRegions:   []imaging.Region{},
			wantSensitive: false,
		},
	}

	img := createTestImage(1000, 800, color.White)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewTextDetector(&fakeEngine{result: &ocr.Result{Text: tt.text}})
			if err != nil {
				t.Fatalf("NewTextDetector: %v", err)
			}

			got, err := d.Detect(img)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got.Sensitive != tt.wantSensitive {
				t.Errorf("Sensitive = %v, want %v", got.Sensitive, tt.wantSensitive)
			}
			if diff := cmp.Diff(tt.wantRegions, got.Regions); diff != "" {
				t.Errorf("regions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextDetector_BandTruncates(t *testing.T) {
	d, err := NewTextDetector(&fakeEngine{result: &ocr.Result{Text: "5 Pine Lane"}})
	if err != nil {
		t.Fatalf("NewTextDetector: %v", err)
	}

	// 0.2 * 33 = 6.6
	got, err := d.Detect(createTestImage(50, 33, color.White))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got.Regions) != 1 || got.Regions[0].Y2 != 6 {
		t.Errorf("expected band height 6, got %v", got.Regions)
	}
}

func TestTextDetector_BandFraction(t *testing.T) {
	d, err := NewTextDetector(
		&fakeEngine{result: &ocr.Result{Text: "12345"}},
		WithBandFraction(0.5),
	)
	if err != nil {
		t.Fatalf("NewTextDetector: %v", err)
	}

	got, err := d.Detect(createTestImage(200, 100, color.White))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	want := []imaging.Region{{X1: 0, Y1: 0, X2: 200, Y2: 50, Source: imaging.SourceText}}
	if diff := cmp.Diff(want, got.Regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestTextDetector_LinesMode(t *testing.T) {
	engine := &fakeEngine{result: &ocr.Result{
		Text: "ACME Corp\n123 Main Street\n",
		Lines: []ocr.TextLine{
			{Text: "ACME Corp", Bounds: ocr.Bounds{X1: 10, Y1: 10, X2: 200, Y2: 40}},
			{Text: "123 Main Street", Bounds: ocr.Bounds{X1: 10, Y1: 50, X2: 1200, Y2: 80}},
		},
	}}

	d, err := NewTextDetector(engine, WithRegionMode(RegionModeLines))
	if err != nil {
		t.Fatalf("NewTextDetector: %v", err)
	}

	got, err := d.Detect(createTestImage(1000, 800, color.White))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	// Line boxes are clipped to the frame
	want := []imaging.Region{{X1: 10, Y1: 50, X2: 1000, Y2: 80, Source: imaging.SourceText}}
	if diff := cmp.Diff(want, got.Regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestTextDetector_LinesModeFallsBackToBand(t *testing.T) {
	engine := &fakeEngine{result: &ocr.Result{Text: "123 Main Street"}}

	d, err := NewTextDetector(engine, WithRegionMode(RegionModeLines))
	if err != nil {
		t.Fatalf("NewTextDetector: %v", err)
	}

	got, err := d.Detect(createTestImage(1000, 800, color.White))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	want := []imaging.Region{{X1: 0, Y1: 0, X2: 1000, Y2: 160, Source: imaging.SourceText}}
	if diff := cmp.Diff(want, got.Regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestTextDetector_Errors(t *testing.T) {
	img := createTestImage(10, 10, color.White)

	t.Run("engine unavailable", func(t *testing.T) {
		d, _ := NewTextDetector(&fakeEngine{err: ocr.ErrUnavailable})
		_, err := d.Detect(img)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("recognition failure", func(t *testing.T) {
		d, _ := NewTextDetector(&fakeEngine{err: errors.New("boom")})
		_, err := d.Detect(img)
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, ErrUnavailable) {
			t.Errorf("plain failure should not wrap ErrUnavailable: %v", err)
		}
	})
}

func TestNewTextDetector_Validation(t *testing.T) {
	tests := []struct {
		name   string
		engine ocr.Engine
		opts   []TextOption
	}{
		{"nil engine", nil, nil},
		{"zero band", &fakeEngine{}, []TextOption{WithBandFraction(0)}},
		{"band above one", &fakeEngine{}, []TextOption{WithBandFraction(1.5)}},
		{"unknown mode", &fakeEngine{}, []TextOption{WithRegionMode("words")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTextDetector(tt.engine, tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern("plate", `[A-Z]{3}-\d{4}`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if !p.Matches("plate abc-1234 seen") {
		t.Error("expected case-insensitive match")
	}

	if _, err := CompilePattern("bad", `(`); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestDefaultPatterns_ReturnsCopy(t *testing.T) {
	a := DefaultPatterns()
	a[0] = Pattern{}
	b := DefaultPatterns()
	if b[0].Category != CategoryAddress {
		t.Errorf("DefaultPatterns shares backing array: got %q", b[0].Category)
	}
}
