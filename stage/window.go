package stage

import (
	"gocv.io/x/gocv"
)

// Window is a preview Sink that shows frames in a gocv window and asks the
// pipeline to stop when q is pressed
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays frame, returning false once the user presses q
func (w *Window) Show(frame gocv.Mat) bool {

	w.win.IMShow(frame)

	return w.win.WaitKey(1) != 'q'
}

// Close destroys the window
func (w *Window) Close() error {
	return w.win.Close()
}
