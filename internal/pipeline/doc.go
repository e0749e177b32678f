// Package pipeline orchestrates one anonymization pass per image:
//
//	load -> detect -> merge -> redact + visualize -> report -> write
//
// Pipeline.Run performs the in-memory stages. Pipeline.Anonymize and
// Pipeline.Process additionally persist the artifact set:
//
//	{name}_original.jpg
//	{name}_blurred.jpg
//	{name}_heatmap.jpg
//	{name}_anonymization_report.txt
//
// where {name} is the input's base file name including its extension.
// Existing artifacts are overwritten.
//
// Every failure is returned as a *StageError naming the stage and the image;
// errors.Is matches it against the package sentinels. Pipeline.Batch runs many
// images on a bounded worker pool and keeps going past per-image failures.
package pipeline
