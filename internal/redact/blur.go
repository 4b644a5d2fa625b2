package redact

import (
	"fmt"
	"image"

	"redactshot/internal/config"
	"redactshot/internal/detect"
	"redactshot/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// BlurRegion destructively smooths the given sub-region of the bitmap in
// place with a Gaussian kernel. The box is clamped to the image bounds
// first; a region that is degenerate after clamping is silently skipped.
// Pixels outside the box are left untouched.
func BlurRegion(bitmap *safe.Mat, box detect.Box, cfg config.BlurConfig) error {
	if err := safe.ValidateMatForOperation(bitmap, "region blur"); err != nil {
		return fmt.Errorf("blur region: %w", err)
	}

	clamped := box.Clamp(bitmap.Cols(), bitmap.Rows())
	if !clamped.Valid() {
		// Degenerate after clamping: a no-op, not an error.
		return nil
	}

	kernel := image.Point{X: cfg.KernelWidth | 1, Y: cfg.KernelHeight | 1}
	sigma := cfg.Intensity
	if sigma <= 0 {
		sigma = config.DefaultBlurConfig().Intensity
	}

	return bitmap.WithRegion(clamped.Rect(), func(region *gocv.Mat) error {
		gocv.GaussianBlur(*region, region, kernel, sigma, sigma, gocv.BorderDefault)
		return nil
	})
}
