/*
Example tracking people on a webcam feed.  Detection runs on its own thread
while visual trackers keep the annotations on the people between detections.

Press q in the preview window to quit.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/swdee/go-objectdash/config"
	"github.com/swdee/go-objectdash/pipeline"
	"github.com/swdee/go-objectdash/stage"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

func main() {

	app := &cli.App{
		Name:  "webcam",
		Usage: "track objects on a webcam feed",
		Flags: append(config.Flags(),
			&cli.IntFlag{
				Name:  "frames",
				Usage: "stop after `N` frames, 0 runs until quit",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "do not open a preview window",
			},
		),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {

	log, err := newLogger(c.Bool(config.FlagDebug))

	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}

	defer log.Sync()

	cfg, err := config.FromCLI(c)

	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	capture, err := gocv.VideoCaptureDevice(cfg.Capture.Device)

	if err != nil {
		return fmt.Errorf("error opening camera %d: %w", cfg.Capture.Device, err)
	}

	defer capture.Close()

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Capture.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Capture.Height))

	chain, err := cfg.NewChain(log)

	if err != nil {
		return fmt.Errorf("error building pipeline: %w", err)
	}

	opts := []pipeline.RunOption{
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithMaxFrames(c.Int("frames")),
	}

	if !c.Bool("headless") {
		win := stage.NewWindow("frame")

		defer func() {
			err = multierr.Append(err, win.Close())
		}()

		opts = append(opts, pipeline.WithSink(win))
	}

	log.Info("Capturing", zap.Int("device", cfg.Capture.Device),
		zap.Int("width", cfg.Capture.Width), zap.Int("height", cfg.Capture.Height))

	return runPipeline(ctx, capture, chain, opts)
}

// runPipeline runs until the camera stops, q is pressed or a signal arrives
func runPipeline(ctx context.Context, src pipeline.Source, chain *pipeline.Chain,
	opts []pipeline.RunOption) error {

	err := pipeline.Run(ctx, src, chain, opts...)

	if ctx.Err() != nil {
		// interrupted
		return nil
	}

	return err
}
