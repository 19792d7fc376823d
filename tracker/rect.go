package tracker

import (
	"image"
	"math"
)

// Rect is a bounding box in normalized coordinates where (X1, Y1) is the top
// left corner and (X2, Y2) the bottom right, each in the range [0,1] relative
// to the frame width and height
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// NewRect creates a Rect from two corners, ordering them so X1<=X2 and Y1<=Y2
func NewRect(x1, y1, x2, y2 float64) Rect {

	if x2 < x1 {
		x1, x2 = x2, x1
	}

	if y2 < y1 {
		y1, y2 = y2, y1
	}

	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RectFromPixels converts a pixel space rectangle on a frame of the given
// height and width into normalized coordinates
func RectFromPixels(r image.Rectangle, height, width int) Rect {

	if height <= 0 || width <= 0 {
		return Rect{}
	}

	h := float64(height)
	w := float64(width)

	return NewRect(float64(r.Min.X)/w, float64(r.Min.Y)/h,
		float64(r.Max.X)/w, float64(r.Max.Y)/h)
}

// Width of the rect, zero for degenerate rects
func (r Rect) Width() float64 {
	return math.Max(0, r.X2-r.X1)
}

// Height of the rect, zero for degenerate rects
func (r Rect) Height() float64 {
	return math.Max(0, r.Y2-r.Y1)
}

// Area of the rect in normalized units
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// Center returns the normalized center point of the rect
func (r Rect) Center() (float64, float64) {
	return r.X1 + r.Width()/2, r.Y1 + r.Height()/2
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Area() <= 0
}

// Overlap calculates the Intersection over Union (IoU) of two rects.  The
// boolean result is false when the rects do not intersect, which includes
// rects that only touch along an edge.
func (r Rect) Overlap(other Rect) (float64, bool) {

	iw := math.Min(r.X2, other.X2) - math.Max(r.X1, other.X1)
	ih := math.Min(r.Y2, other.Y2) - math.Max(r.Y1, other.Y1)

	if iw <= 0 || ih <= 0 {
		return 0, false
	}

	inter := iw * ih
	union := r.Area() + other.Area() - inter

	if union <= 0 {
		return 0, false
	}

	return inter / union, true
}

// SizeRatio returns the area of r divided by the area of other.  The boolean
// result is false when other has no area.
func (r Rect) SizeRatio(other Rect) (float64, bool) {

	area := other.Area()

	if area <= 0 {
		return 0, false
	}

	return r.Area() / area, true
}

// Clamp limits the rect coordinates to the frame
func (r Rect) Clamp() Rect {
	return NewRect(clamp01(r.X1), clamp01(r.Y1), clamp01(r.X2), clamp01(r.Y2))
}

// Translate converts the rect to pixel coordinates for a frame of the given
// height and width
func (r Rect) Translate(height, width int) image.Rectangle {

	h := float64(height)
	w := float64(width)

	return image.Rect(
		int(math.Round(r.X1*w)), int(math.Round(r.Y1*h)),
		int(math.Round(r.X2*w)), int(math.Round(r.Y2*h)),
	)
}

// Xyah returns the rect as (center x, center y, aspect ratio, height)
func (r Rect) Xyah() [4]float64 {

	cx, cy := r.Center()
	h := r.Height()
	aspect := 0.0

	if h > 0 {
		aspect = r.Width() / h
	}

	return [4]float64{cx, cy, aspect, h}
}

// RectFromXyah creates a Rect from (center x, center y, aspect ratio, height)
func RectFromXyah(xyah [4]float64) Rect {

	w := xyah[2] * xyah[3]

	return NewRect(xyah[0]-w/2, xyah[1]-xyah[3]/2, xyah[0]+w/2, xyah[1]+xyah[3]/2)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
