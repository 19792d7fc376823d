package annotator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/swdee/go-objectdash/detector"
	"github.com/swdee/go-objectdash/pipeline"
	"github.com/swdee/go-objectdash/render"
	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrNoDetector is returned by New without a detector
	ErrNoDetector = errors.New("annotator requires a detector")
	// ErrNoManager is returned by New without a tracking manager
	ErrNoManager = errors.New("annotator requires a tracking manager")
)

// DefaultMinCropArea is the smallest crop, in pixels, that is exported
const DefaultMinCropArea = 400

// Config holds the annotator settings
type Config struct {
	// ClassOfInterest keeps only detections with this label name, empty keeps
	// every label
	ClassOfInterest string
	// MinConfidence is the lowest score drawn or exported.  Lower scoring
	// annotations are still tracked.
	MinConfidence float64
	// CropDir is where annotation crops are written, empty disables export
	CropDir string
	// MinCropArea is the smallest crop area in pixels that is exported
	MinCropArea int
	// TrailLength is the number of center points drawn behind each
	// annotation, zero disables trails
	TrailLength int
	// LineThickness of annotation boxes
	LineThickness int
}

// DefaultConfig returns settings that track people above 50% confidence
func DefaultConfig() Config {
	return Config{
		ClassOfInterest: "person",
		MinConfidence:   0.5,
		MinCropArea:     DefaultMinCropArea,
		LineThickness:   2,
	}
}

// Option configures an Annotator
type Option func(*Annotator)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Annotator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock sets the clock used to timestamp crops
func WithClock(c clock.Clock) Option {
	return func(a *Annotator) {
		a.clock = c
	}
}

// WithWorkerOptions passes options through to the detector worker
func WithWorkerOptions(opts ...detector.WorkerOption) Option {
	return func(a *Annotator) {
		a.workerOpts = append(a.workerOpts, opts...)
	}
}

// Annotator is the pipeline handler that keeps tracked annotations on every
// frame.  Detection runs on a Worker while trackers carry annotations across
// the frames in between.
type Annotator struct {
	cfg        Config
	det        detector.Detector
	worker     *detector.Worker
	workerOpts []detector.WorkerOption
	manager    *tracker.Manager
	trail      *tracker.Trail
	// detFrame is a copy of the frame the in flight detection runs on
	detFrame gocv.Mat
	font     render.Font
	style    render.TrailStyle
	stats    Stats
	clock    clock.Clock
	log      *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ pipeline.Handler = (*Annotator)(nil)

// Stats counts what the annotator has done
type Stats struct {
	Frames     int
	Results    int
	Failures   int
	Dispatched int
	Crops      int
}

// New starts a detector worker for det and returns an Annotator tracking
// with mgr.  The Annotator owns both and closes them on Close.
func New(det detector.Detector, mgr *tracker.Manager, cfg Config,
	opts ...Option) (*Annotator, error) {

	if det == nil {
		return nil, ErrNoDetector
	}

	if mgr == nil {
		return nil, ErrNoManager
	}

	if cfg.MinCropArea <= 0 {
		cfg.MinCropArea = DefaultMinCropArea
	}

	if cfg.LineThickness <= 0 {
		cfg.LineThickness = 1
	}

	if cfg.CropDir != "" {
		if err := os.MkdirAll(cfg.CropDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating crop directory: %w", err)
		}
	}

	a := &Annotator{
		cfg:      cfg,
		det:      det,
		manager:  mgr,
		trail:    tracker.NewTrail(cfg.TrailLength),
		detFrame: gocv.NewMat(),
		font:     render.DefaultFont(),
		style:    render.DefaultTrailStyle(),
		clock:    clock.New(),
		log:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.workerOpts = append(a.workerOpts, detector.WithWorkerLogger(a.log))
	a.worker = detector.NewWorker(det, a.workerOpts...)

	return a, nil
}

// ApplyFirst sends the first frame to the detector
func (a *Annotator) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	a.stats.Frames++
	a.dispatch(frame)
	return frame, nil
}

// Apply folds in a detection result when one is ready, otherwise steps the
// trackers onto frame, then draws the tracked annotations on frame
func (a *Annotator) Apply(frame gocv.Mat) (gocv.Mat, error) {

	a.stats.Frames++

	res, ok := a.worker.Poll()

	switch {
	case !ok:
		a.manager.Step(frame)

	case res.Err != nil:
		a.stats.Failures++
		a.log.Warn("Detection failed", zap.Uint64("seq", res.Seq), zap.Error(res.Err))

		a.manager.Step(frame)
		a.dispatch(frame)

	default:
		a.stats.Results++

		batch := res.Batch.FilterLabel(a.cfg.ClassOfInterest)

		// trackers start on the frame the detections were found in
		rec := a.manager.Reconcile(a.detFrame, batch)

		if rec.Skipped {
			a.manager.Step(frame)
		}

		if a.cfg.CropDir != "" {
			a.exportCrops(rec.Entries)
		}

		a.log.Debug("Detection result",
			zap.Uint64("seq", res.Seq),
			zap.Duration("latency", res.Latency),
			zap.Int("detections", len(res.Batch)),
			zap.Int("tracked", len(rec.Entries)),
			zap.Int("dropped", len(rec.Dropped)),
			zap.Bool("skipped", rec.Skipped),
		)

		a.dispatch(frame)
	}

	a.draw(&frame)

	return frame, nil
}

// dispatch keeps a copy of frame for reconciliation and hands it to the
// worker
func (a *Annotator) dispatch(frame gocv.Mat) {

	frame.CopyTo(&a.detFrame)

	if _, err := a.worker.Dispatch(frame); err != nil {
		a.log.Warn("Failed to dispatch frame", zap.Error(err))
		return
	}

	a.stats.Dispatched++
}

// draw renders trails and boxes of the current tracked set
func (a *Annotator) draw(frame *gocv.Mat) {

	entries := a.manager.Entries()

	if a.cfg.TrailLength > 0 {
		for _, e := range entries {
			a.trail.Add(e.Annotation, frame.Rows(), frame.Cols())
		}

		a.trail.Prune(a.manager.Tracked())
		render.Trail(frame, entries, a.trail, a.style)
	}

	render.AnnotationBoxes(frame, entries, a.cfg.MinConfidence, a.font,
		a.cfg.LineThickness)
}

// exportCrops writes the region of each confident annotation from the
// detection frame to CropDir
func (a *Annotator) exportCrops(entries []tracker.Entry) {

	if a.detFrame.Empty() {
		return
	}

	height := a.detFrame.Rows()
	width := a.detFrame.Cols()

	unix := a.clock.Now().Unix()

	for _, e := range entries {

		anno := e.Annotation

		if anno.Score < a.cfg.MinConfidence {
			continue
		}

		rect := anno.Rect.Clamp().Translate(height, width)

		if rect.Dx()*rect.Dy() < a.cfg.MinCropArea {
			continue
		}

		path := filepath.Join(a.cfg.CropDir, cropName(anno.Label.Name, unix))

		region := a.detFrame.Region(rect)

		if !gocv.IMWrite(path, region) {
			a.log.Warn("Failed to write crop", zap.String("path", path))
		} else {
			a.stats.Crops++
		}

		region.Close()
	}
}

// cropName is the file name of a crop taken at unix seconds
func cropName(label string, unix int64) string {
	return fmt.Sprintf("%s_%d.jpg", label, unix)
}

// Entries returns the tracked annotations as last drawn
func (a *Annotator) Entries() []tracker.Entry {
	return a.manager.Entries()
}

// Stats returns the annotator counters
func (a *Annotator) Stats() Stats {
	return a.stats
}

// Close stops the detector worker then releases the detector, trackers and
// buffers.  If the worker does not stop in time the detector is left open
// since it may still be in use.
func (a *Annotator) Close() error {

	a.closeOnce.Do(func() {

		err := a.worker.Stop()

		if err != nil {
			a.log.Warn("Leaving detector open", zap.Error(err))
		} else {
			err = a.det.Close()
		}

		a.closeErr = multierr.Combine(
			err,
			a.manager.Close(),
			a.detFrame.Close(),
		)

		a.trail.Reset()

		a.log.Info("Annotator closed",
			zap.Int("frames", a.stats.Frames),
			zap.Int("results", a.stats.Results),
			zap.Int("failures", a.stats.Failures),
			zap.Int("crops", a.stats.Crops),
		)
	})

	return a.closeErr
}
