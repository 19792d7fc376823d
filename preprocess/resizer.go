package preprocess

import (
	"image"
	"image/color"

	"github.com/swdee/go-objectdash/tracker"
	"gocv.io/x/gocv"
)

// LetterboxGray is the padding color YOLO models are trained with
var LetterboxGray = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Resizer letterboxes frames to a model input size and maps boxes found on
// the model input back onto the source frame
type Resizer struct {
	srcWidth  int
	srcHeight int
	dstWidth  int
	dstHeight int
	// scaled size of the source before padding
	resizeW int
	resizeH int
	xPad    int
	yPad    int
	scale   float64
	tmp     gocv.Mat
}

// NewResizer returns a resizer scaling srcWidth x srcHeight frames into a
// dstWidth x dstHeight model input while keeping the aspect ratio
func NewResizer(srcWidth, srcHeight, dstWidth, dstHeight int) *Resizer {

	r := &Resizer{
		srcWidth:  srcWidth,
		srcHeight: srcHeight,
		dstWidth:  dstWidth,
		dstHeight: dstHeight,
		tmp:       gocv.NewMat(),
	}

	r.calc()

	return r
}

// calc works out the scale and the padding either side of the scaled image
func (r *Resizer) calc() {

	scaleW := float64(r.dstWidth) / float64(r.srcWidth)
	scaleH := float64(r.dstHeight) / float64(r.srcHeight)

	r.resizeW = r.dstWidth
	r.resizeH = r.dstHeight
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(float64(r.srcHeight) * r.scale)
	} else {
		r.resizeW = int(float64(r.srcWidth) * r.scale)
	}

	r.xPad = (r.dstWidth - r.resizeW) / 2
	r.yPad = (r.dstHeight - r.resizeH) / 2
}

// LetterBoxResize scales src into dst and pads the remainder with clr
func (r *Resizer) LetterBoxResize(src gocv.Mat, dst *gocv.Mat, clr color.RGBA) {

	gocv.Resize(src, &r.tmp, image.Pt(r.resizeW, r.resizeH), 0, 0,
		gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tmp, dst,
		r.yPad, r.dstHeight-r.resizeH-r.yPad,
		r.xPad, r.dstWidth-r.resizeW-r.xPad,
		gocv.BorderConstant, clr)
}

// Unletterbox converts a box in model input pixels into a normalized rect on
// the source frame, clamped to the frame
func (r *Resizer) Unletterbox(x1, y1, x2, y2 float64) tracker.Rect {

	toSrc := func(v float64, pad int, size int) float64 {
		return (v - float64(pad)) / r.scale / float64(size)
	}

	return tracker.NewRect(
		toSrc(x1, r.xPad, r.srcWidth),
		toSrc(y1, r.yPad, r.srcHeight),
		toSrc(x2, r.xPad, r.srcWidth),
		toSrc(y2, r.yPad, r.srcHeight),
	).Clamp()
}

// Matches reports whether the resizer was built for frames of this size
func (r *Resizer) Matches(width, height int) bool {
	return r.srcWidth == width && r.srcHeight == height
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float64 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// Close frees the intermediate Mat
func (r *Resizer) Close() error {
	return r.tmp.Close()
}
