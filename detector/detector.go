package detector

import (
	"context"

	"github.com/swdee/go-objectdash/tracker"
	"gocv.io/x/gocv"
)

// Detector finds objects on a frame.  Implementations may be slow, they are
// run on the Worker goroutine rather than the frame loop.
type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) (tracker.Batch, error)
	Close() error
}

// Func adapts a function to the Detector interface
type Func func(ctx context.Context, frame gocv.Mat) (tracker.Batch, error)

// Detect calls f
func (f Func) Detect(ctx context.Context, frame gocv.Mat) (tracker.Batch, error) {
	return f(ctx, frame)
}

// Close is a no-op
func (f Func) Close() error {
	return nil
}
