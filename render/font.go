package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// StatusFont returns the font used for frame level overlays such as the
// frame rate
func StatusFont() Font {
	f := DefaultFont()
	f.Face = gocv.FontHersheyPlain
	f.Scale = 1
	f.Color = Red
	f.Thickness = 2
	return f
}

// Text writes text with its baseline starting at pt
func Text(img *gocv.Mat, text string, pt image.Point, font Font) {
	gocv.PutTextWithParams(img, text, pt, font.Face, font.Scale, font.Color,
		font.Thickness, font.LineType, false)
}
