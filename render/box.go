package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-objectdash/tracker"
	"gocv.io/x/gocv"
)

// boxLabel holds the precalculated placement of a label drawn above a box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// AnnotationBoxes renders the bounding box and "label score" text of every
// tracked annotation whose score is at least minScore.  Boxes are colored by
// status, green for confirmed and red for new
func AnnotationBoxes(img *gocv.Mat, entries []tracker.Entry, minScore float64,
	font Font, lineThickness int) {

	height := img.Rows()
	width := img.Cols()

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(entries))

	for _, entry := range entries {

		anno := entry.Annotation

		if anno.Score < minScore {
			continue
		}

		useClr := StatusColor(entry.Status)

		rect := anno.Rect.Translate(height, width)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := fmt.Sprintf("%s %.2f", anno.Label.Name, anno.Score)
		boxLabels = append(boxLabels, placeLabel(rect, text, useClr, font, lineThickness))
	}

	// draw labels last so they are the top most layer and not crossed by
	// neighbouring boxes
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// placeLabel calculates where the label text and its background go for a box
func placeLabel(rect image.Rectangle, text string, clr color.RGBA, font Font,
	lineThickness int) boxLabel {

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// Calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (rect.Min.X + rect.Max.X) / 2

	case Right:
		centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	top := rect.Min.Y

	// keep labels of boxes touching the top edge inside the frame
	if top-textSize.Y-font.TopPad-font.BottomPad < 0 {
		top = textSize.Y + font.TopPad + font.BottomPad
	}

	return boxLabel{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, top),
		clr:     clr,
		text:    text,
		textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
	}
}
