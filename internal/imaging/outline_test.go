package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestOutline(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	regions := []Region{
		{X1: 10, Y1: 10, X2: 60, Y2: 50},
		{X1: 90, Y1: 70, X2: 200, Y2: 200}, // clipped
	}

	res, err := Outline(img, regions, "#00FF00")
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if res.Width != 100 || res.Height != 80 || res.Regions != 2 || res.MimeType != "image/png" {
		t.Errorf("unexpected result metadata: %+v", res)
	}

	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}

	green := color.NRGBAModel.Convert(color.NRGBA{0, 255, 0, 255})
	if got := color.NRGBAModel.Convert(decoded.At(59, 30)); got != green {
		t.Errorf("right border pixel = %v, want green", got)
	}
	// Interior is untouched
	if got := color.NRGBAModel.Convert(decoded.At(40, 40)); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("interior pixel = %v, want white", got)
	}
	// Input is not modified
	if img.NRGBAAt(10, 10) != (color.NRGBA{255, 255, 255, 255}) {
		t.Error("Outline modified its input")
	}
}

func TestOutline_InvalidColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if _, err := Outline(img, nil, "not-a-color"); err == nil {
		t.Error("expected error for invalid color")
	}
}
