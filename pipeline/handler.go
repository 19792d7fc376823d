package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Handler is one stage of the frame pipeline.  ApplyFirst is called with the
// first frame only and Apply with every frame after it.  A handler may draw
// on the frame it is given and return it, or return a Mat it owns, callers
// never close returned frames.  Close is called exactly once at shutdown.
type Handler interface {
	ApplyFirst(frame gocv.Mat) (gocv.Mat, error)
	Apply(frame gocv.Mat) (gocv.Mat, error)
	Close() error
}

// Passthrough is a Handler returning frames unchanged, embed it to implement
// only the methods a handler needs
type Passthrough struct{}

// ApplyFirst returns frame unchanged
func (Passthrough) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return frame, nil
}

// Apply returns frame unchanged
func (Passthrough) Apply(frame gocv.Mat) (gocv.Mat, error) {
	return frame, nil
}

// Close does nothing
func (Passthrough) Close() error {
	return nil
}

// Chain runs handlers in order, each receiving the previous handler's output
type Chain struct {
	handlers  []Handler
	closeOnce sync.Once
	closeErr  error
}

// NewChain returns a chain of the given handlers
func NewChain(handlers ...Handler) *Chain {
	return &Chain{handlers: handlers}
}

// Append adds a handler to the end of the chain
func (c *Chain) Append(h Handler) {
	c.handlers = append(c.handlers, h)
}

// Len returns the number of handlers
func (c *Chain) Len() int {
	return len(c.handlers)
}

// ApplyFirst passes the first frame through every handler
func (c *Chain) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return c.run(frame, Handler.ApplyFirst)
}

// Apply passes a frame through every handler
func (c *Chain) Apply(frame gocv.Mat) (gocv.Mat, error) {
	return c.run(frame, Handler.Apply)
}

func (c *Chain) run(frame gocv.Mat,
	apply func(Handler, gocv.Mat) (gocv.Mat, error)) (gocv.Mat, error) {

	var err error

	for i, h := range c.handlers {
		if frame, err = apply(h, frame); err != nil {
			return frame, fmt.Errorf("handler %d (%T): %w", i, h, err)
		}
	}

	return frame, nil
}

// Close closes every handler in order, continuing past failures.  Only the
// first call has any effect.
func (c *Chain) Close() error {

	c.closeOnce.Do(func() {
		for i, h := range c.handlers {
			if err := h.Close(); err != nil {
				c.closeErr = multierr.Append(c.closeErr,
					fmt.Errorf("closing handler %d (%T): %w", i, h, err))
			}
		}
	})

	return c.closeErr
}
