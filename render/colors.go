package render

import (
	"image/color"

	"github.com/swdee/go-objectdash/tracker"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}

	// Green marks annotations confirmed by a fresh detection
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	// Red marks annotations created on the last reconciliation
	Red = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// StatusColor returns the box color used for an annotation status
func StatusColor(s tracker.Status) color.RGBA {
	if s == tracker.Confirmed {
		return Green
	}
	return Red
}
