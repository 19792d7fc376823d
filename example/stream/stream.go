/*
Example serving the annotated webcam feed as an MJPEG stream.  Open
http://localhost:8080/stream in a browser to view it.
*/
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swdee/go-objectdash/config"
	"github.com/swdee/go-objectdash/pipeline"
	"github.com/swdee/go-objectdash/stage"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

func main() {

	app := &cli.App{
		Name:  "stream",
		Usage: "serve tracked objects on a webcam feed as MJPEG",
		Flags: append(config.Flags(),
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   "localhost:8080",
				Usage:   "HTTP `ADDRESS` to serve on, format address:port",
			},
		),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {

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

	stream := stage.NewMJPEGStream()
	chain.Append(stream)

	mux := http.NewServeMux()
	mux.Handle("/stream", stream)

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Open browser and view video", zap.String("url",
			fmt.Sprintf("http://%s/stream", srv.Addr)))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	err = pipeline.Run(ctx, capture, chain, pipeline.WithLogger(log.Named("pipeline")))

	// stream clients never go idle so Shutdown would wait for its timeout
	if cerr := srv.Close(); cerr != nil {
		log.Warn("HTTP server close", zap.Error(cerr))
	}

	if ctx.Err() != nil {
		return nil
	}

	return err
}
