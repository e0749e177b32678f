// Package imaging provides the image primitives shared by the anonymization pipeline.
//
// This package covers loading and saving images, region geometry (clipping,
// overlap, coalescing), cropping, outlined review previews, and indicator
// color parsing. All operations
// work with standard Go image types and use a coordinate system where (0,0) is
// at the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Images returned by Load are normalized to start at (0,0), so a Region can be
// used directly as a pixel rectangle.
//
// # Clipping
//
// Detectors may report regions that extend past the image (object detectors
// commonly do near the frame edge). Region.Clip clamps a region to the image;
// a region entirely outside collapses to zero area and is skipped by every
// consumer. Clipping never fails.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Images it hands out are shared
// and must not be mutated; transforms in the redact package always work on a copy.
//
// # Error Handling
//
// Decode failures wrap ErrDecode; regions that violate bounds after clipping
// wrap ErrRegionBounds.
package imaging
