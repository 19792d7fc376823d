package stage

import (
	"fmt"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/swdee/go-objectdash/pipeline"
	"github.com/swdee/go-objectdash/render"
	"gocv.io/x/gocv"
)

// FPSCounter writes the instantaneous frame rate, measured as the time since
// the previous frame, in the top left corner
type FPSCounter struct {
	pipeline.Passthrough
	font  render.Font
	clock clock.Clock
	last  time.Time
}

// NewFPSCounter returns a counter that starts timing immediately
func NewFPSCounter() *FPSCounter {
	return newFPSCounter(clock.New())
}

func newFPSCounter(c clock.Clock) *FPSCounter {
	return &FPSCounter{
		font:  render.StatusFont(),
		clock: c,
		last:  c.Now(),
	}
}

// ApplyFirst draws on the first frame
func (f *FPSCounter) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return f.Apply(frame)
}

// Apply draws "<n> FPS" on frame
func (f *FPSCounter) Apply(frame gocv.Mat) (gocv.Mat, error) {
	render.Text(&frame, f.text(), image.Pt(10, 40), f.font)
	return frame, nil
}

func (f *FPSCounter) text() string {

	now := f.clock.Now()
	elapsed := now.Sub(f.last)
	f.last = now

	fps := 0

	if elapsed > 0 {
		fps = int(time.Second / elapsed)
	}

	return fmt.Sprintf("%d FPS", fps)
}
