package capture

import (
	"errors"
	"fmt"
	"image"

	"redactshot/internal/opencv/conversion"
	"redactshot/internal/opencv/safe"

	"github.com/kbinani/screenshot"
)

// ErrCaptureFailed marks a failed screen grab. A capture failure is terminal
// for the current invocation; the pipeline never retries it.
var ErrCaptureFailed = errors.New("screen capture failed")

// Capture grabs the primary display and returns it as a pipeline bitmap.
func Capture() (*safe.Mat, error) {
	return CaptureDisplay(0)
}

// CaptureDisplay grabs the given display.
func CaptureDisplay(display int) (*safe.Mat, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("%w: no active displays found", ErrCaptureFailed)
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("%w: display %d out of range (have %d)", ErrCaptureFailed, display, n)
	}

	img, err := screenshot.CaptureDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return toMat(img)
}

// CaptureRect grabs an arbitrary screen rectangle.
func CaptureRect(bounds image.Rectangle) (*safe.Mat, error) {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: invalid region dimensions %dx%d", ErrCaptureFailed, bounds.Dx(), bounds.Dy())
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return toMat(img)
}

func toMat(img *image.RGBA) (*safe.Mat, error) {
	mat, err := conversion.ImageToMat(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return mat, nil
}
