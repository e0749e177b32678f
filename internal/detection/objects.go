package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

// Box is a predicted bounding box in source-image pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
	Class          int
	Score          float32
}

// Model runs one forward inference pass and returns the boxes it predicts.
//
// Any confidence threshold or non-max suppression is the model's own business;
// the object detector takes every box it is given.
type Model interface {
	Predict(img image.Image) ([]Box, error)
	Close() error
}

// ObjectDetector flags one region per object a Model predicts.
type ObjectDetector struct {
	model Model
}

// NewObjectDetector creates an object detector over a loaded model.
func NewObjectDetector(model Model) (*ObjectDetector, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no model", ErrUnavailable)
	}
	return &ObjectDetector{model: model}, nil
}

// Detect runs the model once and converts every predicted box to a Region,
// regardless of class. Coordinates are truncated toward zero; boxes reaching
// past the frame are left as-is for the redaction step to clip.
func (d *ObjectDetector) Detect(img image.Image) (*Result, error) {
	boxes, err := d.model.Predict(img)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("object inference failed: %w", err)
	}

	regions := make([]imaging.Region, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, imaging.Region{
			X1:     int(b.X1),
			Y1:     int(b.Y1),
			X2:     int(b.X2),
			Y2:     int(b.Y2),
			Source: imaging.SourceObject,
		})
	}

	return &Result{Regions: regions, Sensitive: len(regions) > 0}, nil
}

// Close releases the underlying model.
func (d *ObjectDetector) Close() error {
	return d.model.Close()
}
