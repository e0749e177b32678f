package detection

import (
	"fmt"
	"sort"
)

// YOLO post-processing defaults, matching the detector library the models are
// exported from.
const (
	DefaultConfidence = 0.25
	DefaultIoU        = 0.7
)

// decodeYOLO converts a raw YOLOv8 output tensor into boxes.
//
// The tensor has shape [1, 4+C, N]: for each of N candidates, rows 0-3 hold
// the box center and size (cx, cy, w, h) in model-input pixels and rows 4..
// hold one score per class. Candidates whose best class score is below conf
// are dropped, coordinates are scaled by (scaleX, scaleY) back to the source
// image, and class-agnostic NMS with the given IoU threshold is applied.
func decodeYOLO(data []float32, shape []int64, conf, iou float64, scaleX, scaleY float64) ([]Box, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v (want [1, 4+classes, candidates])", shape)
	}
	rows, n := int(shape[1]), int(shape[2])
	if rows < 5 {
		return nil, fmt.Errorf("output has %d rows, need at least 5", rows)
	}
	if len(data) != rows*n {
		return nil, fmt.Errorf("output has %d values, shape %v needs %d", len(data), shape, rows*n)
	}

	at := func(row, i int) float64 { return float64(data[row*n+i]) }

	candidates := make([]Box, 0)
	for i := 0; i < n; i++ {
		bestClass, bestScore := 0, 0.0
		for c := 4; c < rows; c++ {
			if s := at(c, i); s > bestScore {
				bestClass, bestScore = c-4, s
			}
		}
		if bestScore < conf {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		candidates = append(candidates, Box{
			X1:    (cx - w/2) * scaleX,
			Y1:    (cy - h/2) * scaleY,
			X2:    (cx + w/2) * scaleX,
			Y2:    (cy + h/2) * scaleY,
			Class: bestClass,
			Score: float32(bestScore),
		})
	}

	return nms(candidates, iou), nil
}

// nms keeps the highest-scoring box of every group whose IoU exceeds the threshold.
// The result is ordered by descending score.
func nms(boxes []Box, threshold float64) []Box {
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Score > boxes[j].Score
	})

	kept := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		suppressed := false
		for _, k := range kept {
			if boxIoU(b, k) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}

func boxIoU(a, b Box) float64 {
	ix := min(a.X2, b.X2) - max(a.X1, b.X1)
	iy := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
