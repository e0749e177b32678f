// Package redact applies the irreversible region transforms of the pipeline
// and renders the heatmap that shows where they were applied.
//
// Blurrer replaces each region with a Gaussian blur of itself. HeatmapRenderer
// tints the same regions with an indicator color so a reviewer can see what was
// redacted. Both work on a copy; the input image is never modified.
//
// Regions are clipped to the image before use. A region entirely outside the
// frame clips to zero area and is skipped.
package redact
