package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swdee/go-objectdash"
	"github.com/swdee/go-objectdash/annotator"
	"github.com/swdee/go-objectdash/detector"
	"github.com/swdee/go-objectdash/postprocess"
	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/zap"
)

// maxFileSize is the largest config file Load accepts
const maxFileSize = 1 * 1024 * 1024

const (
	DetectorDNN    = "dnn"
	DetectorRemote = "remote"
)

// Config is the full configuration of the annotation pipeline.  Fields
// omitted from a config file keep their Default value.
type Config struct {
	MinConfidence    float64    `json:"min_confidence"`
	ClassOfInterest  string     `json:"class_of_interest"`
	SizeRatioBand    [2]float64 `json:"size_ratio_band"`
	OverlapThreshold float64    `json:"overlap_threshold"`
	EmptyBatch       string     `json:"empty_batch"`
	Tracker          string     `json:"tracker"`
	Matcher          string     `json:"matcher"`

	Capture  Capture  `json:"capture"`
	Detector Detector `json:"detector"`
	Worker   Worker   `json:"worker"`

	CropDir     string `json:"crop_dir"`
	AVIOut      string `json:"avi_out"`
	ShowFPS     bool   `json:"show_fps"`
	SubtractBG  bool   `json:"subtract_bg"`
	TrailLength int    `json:"trail_length"`
}

// Capture selects the camera
type Capture struct {
	Device int `json:"device"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detector selects and configures the object detector
type Detector struct {
	Type         string  `json:"type"`
	Model        string  `json:"model"`
	Config       string  `json:"config"`
	Labels       string  `json:"labels"`
	ModelType    string  `json:"model_type"`
	InputSize    int     `json:"input_size"`
	BoxThreshold float64 `json:"box_threshold"`
	NMSThreshold float64 `json:"nms_threshold"`
	Endpoint     string  `json:"endpoint"`
	// Timeout is a duration string such as "15s"
	Timeout string `json:"timeout"`
}

// Worker configures the detector worker thread
type Worker struct {
	// CPUCores pins the worker to cores, eg: "4-7", empty leaves it unpinned
	CPUCores string `json:"cpu_cores"`
}

// Default returns the configuration used when no file or flags override it
func Default() Config {

	p := tracker.DefaultMatchParams()
	pp := postprocess.COCOParams()

	return Config{
		MinConfidence:    0.5,
		ClassOfInterest:  "person",
		SizeRatioBand:    [2]float64{p.SizeRatioLow, p.SizeRatioHigh},
		OverlapThreshold: p.OverlapThreshold,
		EmptyBatch:       string(tracker.EmptyBatchClear),
		Tracker:          string(tracker.TrackerCSRT),
		Matcher:          string(tracker.MatcherGreedy),
		Capture: Capture{
			Device: 0,
			Width:  640,
			Height: 480,
		},
		Detector: Detector{
			Type:         DetectorDNN,
			ModelType:    "v8",
			InputSize:    640,
			BoxThreshold: float64(pp.BoxThreshold),
			NMSThreshold: float64(pp.NMSThreshold),
			Timeout:      "15s",
		},
		TrailLength: 0,
	}
}

// Load reads a JSON config file over the Default values and validates it
func Load(path string) (Config, error) {

	cfg := Default()

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fileInfo.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)",
			fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every value is usable
func (c Config) Validate() error {

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %f", c.MinConfidence)
	}

	if lo, hi := c.SizeRatioBand[0], c.SizeRatioBand[1]; lo <= 0 || hi < lo {
		return fmt.Errorf("size_ratio_band must be positive and ordered, got [%f, %f]", lo, hi)
	}

	if c.OverlapThreshold < 0 || c.OverlapThreshold >= 1 {
		return fmt.Errorf("overlap_threshold must be in [0, 1), got %f", c.OverlapThreshold)
	}

	if _, err := tracker.ParseEmptyBatchPolicy(c.EmptyBatch); err != nil {
		return err
	}

	if _, err := tracker.NewTrackerFactory(tracker.TrackerKind(c.Tracker)); err != nil {
		return err
	}

	if _, err := tracker.NewMatcher(tracker.MatcherKind(c.Matcher), c.MatchParams()); err != nil {
		return err
	}

	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("capture size must be positive, got %dx%d",
			c.Capture.Width, c.Capture.Height)
	}

	if c.TrailLength < 0 {
		return fmt.Errorf("trail_length must be non-negative, got %d", c.TrailLength)
	}

	if _, err := c.CPUMask(); err != nil {
		return err
	}

	return c.Detector.validate()
}

func (d Detector) validate() error {

	switch d.Type {
	case DetectorDNN:
		if d.InputSize <= 0 {
			return fmt.Errorf("detector input_size must be positive, got %d", d.InputSize)
		}

		if d.BoxThreshold < 0 || d.BoxThreshold > 1 || d.NMSThreshold < 0 || d.NMSThreshold > 1 {
			return errors.New("detector thresholds must be between 0 and 1")
		}

		if _, err := postprocess.NewDecoder(d.ModelType, postprocess.COCOParams()); err != nil {
			return err
		}

	case DetectorRemote:
		// endpoint is checked when the detector is built so it can be set
		// from the command line after loading
	default:
		return fmt.Errorf("unknown detector type: %q", d.Type)
	}

	if d.Timeout != "" {
		if _, err := time.ParseDuration(d.Timeout); err != nil {
			return fmt.Errorf("invalid detector timeout '%s': %w", d.Timeout, err)
		}
	}

	return nil
}

// MatchParams returns the matching gates
func (c Config) MatchParams() tracker.MatchParams {
	return tracker.MatchParams{
		SizeRatioLow:     c.SizeRatioBand[0],
		SizeRatioHigh:    c.SizeRatioBand[1],
		OverlapThreshold: c.OverlapThreshold,
	}
}

// CPUMask returns the worker core mask, zero when unpinned
func (c Config) CPUMask() (uintptr, error) {

	cores, err := objectdash.ParseCPUCores(c.Worker.CPUCores)

	if err != nil {
		return 0, err
	}

	return objectdash.CPUCoreMask(cores), nil
}

// NewManager builds the tracking manager
func (c Config) NewManager(log *zap.Logger) (*tracker.Manager, error) {

	factory, err := tracker.NewTrackerFactory(tracker.TrackerKind(c.Tracker))

	if err != nil {
		return nil, err
	}

	matcher, err := tracker.NewMatcher(tracker.MatcherKind(c.Matcher), c.MatchParams())

	if err != nil {
		return nil, err
	}

	policy, err := tracker.ParseEmptyBatchPolicy(c.EmptyBatch)

	if err != nil {
		return nil, err
	}

	return tracker.NewManager(factory,
		tracker.WithMatcher(matcher),
		tracker.WithEmptyBatchPolicy(policy),
		tracker.WithLogger(log),
	), nil
}

// NewDetector builds the configured detector
func (c Config) NewDetector(log *zap.Logger) (detector.Detector, error) {

	var timeout time.Duration

	if c.Detector.Timeout != "" {
		var err error

		if timeout, err = time.ParseDuration(c.Detector.Timeout); err != nil {
			return nil, fmt.Errorf("invalid detector timeout: %w", err)
		}
	}

	switch c.Detector.Type {
	case DetectorRemote:
		return detector.NewRemote(detector.RemoteConfig{
			Endpoint:      c.Detector.Endpoint,
			Timeout:       timeout,
			ConfThreshold: c.MinConfidence,
		}, log)

	case DetectorDNN:
		labels, err := objectdash.LoadLabels(c.Detector.Labels)

		if err != nil {
			return nil, err
		}

		params := postprocess.COCOParams()
		params.BoxThreshold = float32(c.Detector.BoxThreshold)
		params.NMSThreshold = float32(c.Detector.NMSThreshold)
		params.ObjectClassNum = len(labels)

		return detector.NewDNN(detector.DNNConfig{
			Model:     c.Detector.Model,
			Config:    c.Detector.Config,
			ModelType: c.Detector.ModelType,
			InputSize: c.Detector.InputSize,
			Labels:    labels,
			Params:    params,
		}, log)
	}

	return nil, fmt.Errorf("unknown detector type: %q", c.Detector.Type)
}

// AnnotatorConfig returns the annotator settings
func (c Config) AnnotatorConfig() annotator.Config {

	cfg := annotator.DefaultConfig()
	cfg.ClassOfInterest = c.ClassOfInterest
	cfg.MinConfidence = c.MinConfidence
	cfg.CropDir = c.CropDir
	cfg.TrailLength = c.TrailLength

	return cfg
}

// WorkerOptions returns the detector worker options
func (c Config) WorkerOptions(log *zap.Logger) ([]detector.WorkerOption, error) {

	mask, err := c.CPUMask()

	if err != nil {
		return nil, err
	}

	return []detector.WorkerOption{
		detector.WithCPUMask(mask),
		detector.WithWorkerLogger(log),
	}, nil
}
