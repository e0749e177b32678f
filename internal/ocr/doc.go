// Package ocr provides Optical Character Recognition (OCR) functionality using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// Engine interface so the text detector can be tested with a fake engine and
// so another OCR backend can be substituted without touching the pipeline.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A custom tessdata directory can be supplied with Options.TessdataPath.
//
// # Recognition
//
// Recognize converts the image to grayscale and runs Tesseract with page
// segmentation mode 6 ("assume a single uniform block of text") unless
// configured otherwise. The full recognized text is always returned; line-level
// bounding boxes are returned only when Options.WithLines is set.
//
// # Error Handling
//
// NewTesseract probes the engine once and wraps failures in ErrUnavailable.
// Errors from Recognize are per-image and are not retried.
package ocr
