package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/metrics"
)

// DefaultJPEGQuality is the quality used for the three image artifacts.
const DefaultJPEGQuality = 95

// ReportHeader is the first line of every report.
const ReportHeader = "Anonymization Report:"

// ArtifactSet holds the paths of the files written for one image.
type ArtifactSet struct {
	Original string `json:"original"`
	Blurred  string `json:"blurred"`
	Heatmap  string `json:"heatmap"`
	Report   string `json:"report"`
}

// ArtifactPaths returns the artifact paths for an image name in outDir.
func ArtifactPaths(outDir, name string) ArtifactSet {
	base := filepath.Join(outDir, name)
	return ArtifactSet{
		Original: base + "_original.jpg",
		Blurred:  base + "_blurred.jpg",
		Heatmap:  base + "_heatmap.jpg",
		Report:   base + "_anonymization_report.txt",
	}
}

// ArtifactWriter persists the artifact set of one image.
type ArtifactWriter struct {
	quality int
}

// NewArtifactWriter creates a writer that encodes JPEGs at the given quality.
func NewArtifactWriter(jpegQuality int) (*ArtifactWriter, error) {
	if jpegQuality < 1 || jpegQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be in [1, 100], got %d", jpegQuality)
	}
	return &ArtifactWriter{quality: jpegQuality}, nil
}

// Write creates outDir if needed and writes the four artifacts, overwriting
// any previous run for the same name.
func (w *ArtifactWriter) Write(outDir, name string, original, blurred, heatmap image.Image, ms metrics.Metrics) (*ArtifactSet, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	set := ArtifactPaths(outDir, name)

	for _, a := range []struct {
		img  image.Image
		path string
	}{
		{original, set.Original},
		{blurred, set.Blurred},
		{heatmap, set.Heatmap},
	} {
		if err := imaging.SaveJPEG(a.img, a.path, w.quality); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, ms); err != nil {
		return nil, err
	}
	if err := os.WriteFile(set.Report, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &set, nil
}

// WriteReport writes the report header followed by one "name: value" line per
// indicator, in order. Integer indicators print as integers and the rest with
// four decimals.
func WriteReport(w io.Writer, ms metrics.Metrics) error {
	if _, err := fmt.Fprintln(w, ReportHeader); err != nil {
		return err
	}
	for _, m := range ms {
		if _, err := fmt.Fprintf(w, "%s: %s\n", m.Name, m); err != nil {
			return err
		}
	}
	return nil
}
