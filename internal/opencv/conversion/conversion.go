package conversion

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"redactshot/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ImageToMat converts a standard Go image into a 3-channel BGR Mat, the pixel
// layout the rest of the pipeline assumes.
func ImageToMat(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("input image has invalid dimensions %dx%d", width, height)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	origin := rgba.Bounds().Min

	dst, err := safe.NewMat(height, width, gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("destination Mat creation failed: %w", err)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			offset := rgba.PixOffset(origin.X+x, origin.Y+y)
			r := rgba.Pix[offset]
			g := rgba.Pix[offset+1]
			b := rgba.Pix[offset+2]

			if err := dst.SetUCharAt3(y, x, 0, b); err != nil {
				dst.Close()
				return nil, fmt.Errorf("pixel write failed at (%d,%d): %w", x, y, err)
			}
			dst.SetUCharAt3(y, x, 1, g)
			dst.SetUCharAt3(y, x, 2, r)
		}
	}

	return dst, nil
}

// MatToImage converts a Mat back into a standard Go image.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()

	switch src.Channels() {
	case 1:
		return matToGray(src, rows, cols)
	case 3:
		return matToRGBA(src, rows, cols)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// EncodePNG serializes a Mat as PNG bytes for hand-off to the OCR engines.
func EncodePNG(src *safe.Mat) ([]byte, error) {
	img, err := MatToImage(src)
	if err != nil {
		return nil, fmt.Errorf("Mat conversion failed: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG encoding failed: %w", err)
	}

	return buf.Bytes(), nil
}

func matToGray(src *safe.Mat, rows, cols int) (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			value, err := src.GetUCharAt(y, x)
			if err != nil {
				return nil, fmt.Errorf("pixel access failed at (%d,%d): %w", x, y, err)
			}
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}

	return img, nil
}

func matToRGBA(src *safe.Mat, rows, cols int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b, err := src.GetUCharAt3(y, x, 0)
			if err != nil {
				return nil, fmt.Errorf("B channel access failed at (%d,%d): %w", x, y, err)
			}

			g, err := src.GetUCharAt3(y, x, 1)
			if err != nil {
				return nil, fmt.Errorf("G channel access failed at (%d,%d): %w", x, y, err)
			}

			r, err := src.GetUCharAt3(y, x, 2)
			if err != nil {
				return nil, fmt.Errorf("R channel access failed at (%d,%d): %w", x, y, err)
			}

			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img, nil
}
