package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
)

// collectInputs expands directories into the supported images they contain.
// Files are passed through as given so an unreadable file still produces a
// per-image error instead of being dropped silently.
func collectInputs(inputs []string) ([]string, error) {
	var paths []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			// Let the pipeline report it as a decode error
			paths = append(paths, in)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, in)
			continue
		}
		found, err := imaging.ListImages(in)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", in, err)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}
