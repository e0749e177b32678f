package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a step of the per-image pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageDetect    Stage = "detect"
	StageMerge     Stage = "merge"
	StageRedact    Stage = "redact"
	StageVisualize Stage = "visualize"
	StageReport    Stage = "report"
	StageWrite     Stage = "write"
)

// Error kinds. Every StageError matches exactly one of these with errors.Is.
var (
	// ErrImageDecode means the input file is missing, unreadable, or not an image.
	ErrImageDecode = errors.New("image decode error")

	// ErrDetectorUnavailable means the OCR engine or the object model could not run.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrDetectionFailed means a detector ran but failed on this image.
	ErrDetectionFailed = errors.New("detection failed")

	// ErrRegionBounds means a region could not be reconciled with the image.
	ErrRegionBounds = errors.New("region out of bounds")

	// ErrArtifactWrite means the destination could not be created or written.
	ErrArtifactWrite = errors.New("artifact write error")
)

// StageError reports which stage failed for which image.
type StageError struct {
	Stage Stage
	Image string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v: %v", e.Image, e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageError(stage Stage, image string, kind, err error) *StageError {
	return &StageError{Stage: stage, Image: image, Kind: kind, Err: err}
}
