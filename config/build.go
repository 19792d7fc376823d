package config

import (
	"fmt"

	"github.com/swdee/go-objectdash/annotator"
	"github.com/swdee/go-objectdash/pipeline"
	"github.com/swdee/go-objectdash/stage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// NewChain builds the handler chain of the webcam command: optional
// background subtraction, the annotator, an optional frame rate overlay and
// optional AVI output, in that order
func (c Config) NewChain(log *zap.Logger) (chain *pipeline.Chain, err error) {

	if log == nil {
		log = zap.NewNop()
	}

	chain = pipeline.NewChain()

	// release whatever was built if a later stage fails
	defer func() {
		if err != nil {
			err = multierr.Append(err, chain.Close())
			chain = nil
		}
	}()

	if c.SubtractBG {
		chain.Append(stage.NewBackgroundSubtractor())
	}

	mgr, err := c.NewManager(log.Named("tracker"))

	if err != nil {
		return chain, err
	}

	det, err := c.NewDetector(log.Named("detector"))

	if err != nil {
		return chain, multierr.Append(err, mgr.Close())
	}

	workerOpts, err := c.WorkerOptions(log.Named("worker"))

	if err != nil {
		return chain, multierr.Combine(err, det.Close(), mgr.Close())
	}

	anno, err := annotator.New(det, mgr, c.AnnotatorConfig(),
		annotator.WithLogger(log.Named("annotator")),
		annotator.WithWorkerOptions(workerOpts...),
	)

	if err != nil {
		return chain, multierr.Combine(err, det.Close(), mgr.Close())
	}

	chain.Append(anno)

	if c.ShowFPS {
		chain.Append(stage.NewFPSCounter())
	}

	if c.AVIOut != "" {
		rec, err := stage.NewRecorder(c.AVIOut, c.Capture.Width, c.Capture.Height)

		if err != nil {
			return chain, fmt.Errorf("error creating AVI output: %w", err)
		}

		chain.Append(rec)
	}

	log.Info("Built pipeline",
		zap.Int("handlers", chain.Len()),
		zap.String("detector", c.Detector.Type),
		zap.String("tracker", c.Tracker),
		zap.String("matcher", c.Matcher),
	)

	return chain, nil
}
