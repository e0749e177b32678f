package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

type fakeModel struct {
	boxes  []Box
	err    error
	closed bool
}

func (m *fakeModel) Predict(img image.Image) ([]Box, error) {
	return m.boxes, m.err
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

func TestObjectDetector_Detect(t *testing.T) {
	tests := []struct {
		name          string
		boxes         []Box
		wantRegions   []imaging.Region
		wantSensitive bool
	}{
		{
			name:  "one plate",
			boxes: []Box{{X1: 400, Y1: 300, X2: 600, Y2: 500, Class: 2, Score: 0.9}},
			wantRegions: []imaging.Region{
				{X1: 400, Y1: 300, X2: 600, Y2: 500, Source: imaging.SourceObject},
			},
			wantSensitive: true,
		},
		{
			name:  "fractional coordinates truncate",
			boxes: []Box{{X1: 10.9, Y1: 20.5, X2: 30.99, Y2: 40.1}},
			wantRegions: []imaging.Region{
				{X1: 10, Y1: 20, X2: 30, Y2: 40, Source: imaging.SourceObject},
			},
			wantSensitive: true,
		},
		{
			name: "every class kept in order",
			boxes: []Box{
				{X1: 0, Y1: 0, X2: 5, Y2: 5, Class: 0},
				{X1: 5, Y1: 5, X2: 9, Y2: 9, Class: 7},
			},
			wantRegions: []imaging.Region{
				{X1: 0, Y1: 0, X2: 5, Y2: 5, Source: imaging.SourceObject},
				{X1: 5, Y1: 5, X2: 9, Y2: 9, Source: imaging.SourceObject},
			},
			wantSensitive: true,
		},
		{
			name:          "nothing found",
			boxes:         nil,
			wantRegions:   []imaging.Region{},
			wantSensitive: false,
		},
	}

	img := createTestImage(1000, 800, color.White)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewObjectDetector(&fakeModel{boxes: tt.boxes})
			if err != nil {
				t.Fatalf("NewObjectDetector: %v", err)
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

func TestObjectDetector_Errors(t *testing.T) {
	if _, err := NewObjectDetector(nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("nil model: expected ErrUnavailable, got %v", err)
	}

	d, _ := NewObjectDetector(&fakeModel{err: errors.New("bad tensor")})
	if _, err := d.Detect(createTestImage(4, 4, color.Black)); err == nil {
		t.Error("expected inference error")
	}
}

func TestObjectDetector_Close(t *testing.T) {
	m := &fakeModel{}
	d, _ := NewObjectDetector(m)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.closed {
		t.Error("model was not closed")
	}
}

func TestNewONNXModel_MissingFile(t *testing.T) {
	_, err := NewONNXModel(ONNXOptions{ModelPath: "testdata/does-not-exist.onnx"}, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestToCHW(t *testing.T) {
	img := createTestImage(20, 10, color.NRGBA{R: 255, G: 0, B: 51, A: 255})

	data := toCHW(img, 4, 4)
	if len(data) != 3*4*4 {
		t.Fatalf("len = %d, want %d", len(data), 48)
	}
	// Planes are R, G, B
	if data[0] != 1 || data[16] != 0 || data[32] != 0.2 {
		t.Errorf("unexpected first pixel: r=%v g=%v b=%v", data[0], data[16], data[32])
	}
}
