// Package detection finds the parts of an image that must be redacted.
//
// Two detectors implement the Detector interface:
//
//   - TextDetector runs OCR and matches the recognized text against address,
//     PO box, and zip code patterns. A match flags a full-width band across
//     the top of the image (or, in lines mode, the matching text lines).
//   - ObjectDetector runs a YOLO-style model and flags one region per
//     predicted box, whatever its class. ONNXModel is the production model,
//     backed by ONNX Runtime.
//
// Merge combines detector results into the region list consumed by the
// redaction and heatmap stages. It neither deduplicates nor resolves overlaps.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward, Y increases downward
//   - Regions use inclusive top-left and exclusive bottom-right
//
// Detectors may report regions reaching past the frame; clipping happens at
// redaction time.
package detection
