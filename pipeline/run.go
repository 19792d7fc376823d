package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrNoFrames is returned when the source ends before the first frame
var ErrNoFrames = errors.New("source produced no frames")

// Source produces frames, *gocv.VideoCapture satisfies it
type Source interface {
	Read(m *gocv.Mat) bool
}

// Sink receives the final frame of each pass through the chain.  Returning
// false stops the run, eg: a preview window where the user pressed quit.
type Sink interface {
	Show(frame gocv.Mat) bool
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(frame gocv.Mat) bool

// Show calls f
func (f SinkFunc) Show(frame gocv.Mat) bool {
	return f(frame)
}

type runConfig struct {
	sink      Sink
	log       *zap.Logger
	maxFrames int
}

// RunOption configures Run
type RunOption func(*runConfig)

// WithSink sets the Sink given each output frame
func WithSink(s Sink) RunOption {
	return func(c *runConfig) {
		c.sink = s
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMaxFrames stops the run after n frames, zero means no limit
func WithMaxFrames(n int) RunOption {
	return func(c *runConfig) {
		c.maxFrames = n
	}
}

// Run reads frames from src and feeds them through chain until the source
// ends, a handler fails, the sink asks to stop or ctx is cancelled.  The
// chain is closed on every exit path.
func Run(ctx context.Context, src Source, chain *Chain, opts ...RunOption) (err error) {

	cfg := runConfig{log: zap.NewNop()}

	for _, opt := range opts {
		opt(&cfg)
	}

	frames := 0
	start := time.Now()

	defer func() {
		err = multierr.Append(err, chain.Close())

		cfg.log.Info("Pipeline stopped",
			zap.Int("frames", frames),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	if !src.Read(&frame) || frame.Empty() {
		return ErrNoFrames
	}

	out, err := chain.ApplyFirst(frame)

	if err != nil {
		return err
	}

	frames++

	if cfg.sink != nil && !cfg.sink.Show(out) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			cfg.log.Info("Pipeline interrupted", zap.Error(ctx.Err()))
			return nil
		default:
		}

		if cfg.maxFrames > 0 && frames >= cfg.maxFrames {
			return nil
		}

		if !src.Read(&frame) {
			return nil
		}

		if frame.Empty() {
			cfg.log.Debug("Skipping empty frame")
			continue
		}

		if out, err = chain.Apply(frame); err != nil {
			return err
		}

		frames++

		if cfg.sink != nil && !cfg.sink.Show(out) {
			return nil
		}
	}
}
