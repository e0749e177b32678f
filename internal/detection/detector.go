package detection

import (
	"errors"
	"image"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

// ErrUnavailable is wrapped by detector errors caused by a missing OCR engine
// or model rather than by the image being processed.
var ErrUnavailable = errors.New("detector unavailable")

// Result is a detector's output: the flagged regions in detection order plus
// whether any sensitive content was found.
type Result struct {
	Regions   []imaging.Region `json:"regions"`
	Sensitive bool             `json:"sensitive"`
}

// Empty returns a result with no regions and Sensitive=false.
func Empty() *Result {
	return &Result{Regions: []imaging.Region{}}
}

// Detector finds sensitive regions in an image.
//
// Implementations must not modify the image and must be safe for concurrent
// use when the pipeline runs with more than one worker.
type Detector interface {
	Detect(img image.Image) (*Result, error)
}

// Merge concatenates the region sequences of several results, preserving
// argument order and the order within each result.
//
// No deduplication or overlap resolution is performed: two detectors flagging
// the same area produce two regions. Nil results are skipped. The returned
// slice is never nil.
func Merge(results ...*Result) []imaging.Region {
	n := 0
	for _, r := range results {
		if r != nil {
			n += len(r.Regions)
		}
	}

	merged := make([]imaging.Region, 0, n)
	for _, r := range results {
		if r != nil {
			merged = append(merged, r.Regions...)
		}
	}
	return merged
}
