package detect

import "image"

// Box is an axis-aligned rectangle in pixel coordinates. A Box is usable
// only when XMin < XMax and YMin < YMax; boxes violating that are discarded
// by callers, never corrected.
type Box struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// BoxFromRect converts a standard image rectangle.
func BoxFromRect(r image.Rectangle) Box {
	return Box{XMin: r.Min.X, YMin: r.Min.Y, XMax: r.Max.X, YMax: r.Max.Y}
}

// BoxFromQuad normalizes an arbitrary convex quadrilateral, as reported by
// scene-text engines, to its axis-aligned bounding box by taking min/max
// over all corner coordinates.
func BoxFromQuad(corners [4]image.Point) Box {
	box := Box{
		XMin: corners[0].X, YMin: corners[0].Y,
		XMax: corners[0].X, YMax: corners[0].Y,
	}
	for _, p := range corners[1:] {
		if p.X < box.XMin {
			box.XMin = p.X
		}
		if p.X > box.XMax {
			box.XMax = p.X
		}
		if p.Y < box.YMin {
			box.YMin = p.Y
		}
		if p.Y > box.YMax {
			box.YMax = p.Y
		}
	}
	return box
}

// Valid reports whether the box spans a non-empty area.
func (b Box) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// Clamp restricts the box to [0,width) x [0,height). The result may be
// degenerate; callers check Valid afterwards.
func (b Box) Clamp(width, height int) Box {
	if b.XMin < 0 {
		b.XMin = 0
	}
	if b.YMin < 0 {
		b.YMin = 0
	}
	if b.XMax > width {
		b.XMax = width
	}
	if b.YMax > height {
		b.YMax = height
	}
	return b
}

// Pad grows the box by n pixels on every side.
func (b Box) Pad(n int) Box {
	return Box{XMin: b.XMin - n, YMin: b.YMin - n, XMax: b.XMax + n, YMax: b.YMax + n}
}

// Rect converts back to a standard image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// IsDigits reports whether s is a non-empty run of decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TextDetection is the uniform output shape of every detector: a box, the
// recognized text, and a confidence in [0,1]. The confidence scale is
// detector-specific; scores from different detectors are never comparable
// and must be thresholded per detector.
type TextDetection struct {
	Box        Box
	Text       string
	Confidence float64
}
