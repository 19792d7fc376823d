package config

import (
	"github.com/urfave/cli/v2"
)

// Flag names shared by the example commands
const (
	FlagConfig          = "config"
	FlagDebug           = "debug"
	FlagDevice          = "device"
	FlagDetector        = "detector"
	FlagModel           = "model"
	FlagModelType       = "model-type"
	FlagLabels          = "labels"
	FlagEndpoint        = "endpoint"
	FlagMinConfidence   = "min-confidence"
	FlagClassOfInterest = "class"
	FlagTracker         = "tracker"
	FlagMatcher         = "matcher"
	FlagEmptyBatch      = "empty-batch"
	FlagCPUCores        = "cpu-cores"
	FlagCropDir         = "crop-dir"
	FlagAVIOut          = "avi-out"
	FlagShowFPS         = "show-fps"
	FlagSubtractBG      = "subtract-bg"
	FlagTrail           = "trail"
)

// Flags returns the command line flags that override config file values
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagConfig,
			Aliases: []string{"c"},
			Usage:   "Load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: "enable debug logging",
		},
		&cli.IntFlag{
			Name:  FlagDevice,
			Usage: "camera device `ID`",
		},
		&cli.StringFlag{
			Name:  FlagDetector,
			Usage: "detector type [dnn|remote]",
		},
		&cli.StringFlag{
			Name:    FlagModel,
			Aliases: []string{"m"},
			Usage:   "ONNX YOLO model `FILE`",
		},
		&cli.StringFlag{
			Name:    FlagModelType,
			Aliases: []string{"t"},
			Usage:   "version of YOLO model [v5|v8]",
		},
		&cli.StringFlag{
			Name:    FlagLabels,
			Aliases: []string{"l"},
			Usage:   "text `FILE` containing model labels",
		},
		&cli.StringFlag{
			Name:  FlagEndpoint,
			Usage: "base `URL` of a remote inference service",
		},
		&cli.Float64Flag{
			Name:  FlagMinConfidence,
			Usage: "minimum score of drawn and exported annotations",
		},
		&cli.StringFlag{
			Name:  FlagClassOfInterest,
			Usage: "label to track, empty tracks every label",
		},
		&cli.StringFlag{
			Name:  FlagTracker,
			Usage: "visual tracker [csrt|kcf|mil|kalman]",
		},
		&cli.StringFlag{
			Name:  FlagMatcher,
			Usage: "detection matcher [greedy|optimal]",
		},
		&cli.StringFlag{
			Name:  FlagEmptyBatch,
			Usage: "empty detection handling [clear|keep]",
		},
		&cli.StringFlag{
			Name:  FlagCPUCores,
			Usage: "CPU cores to pin the detector to, eg: 4-7",
		},
		&cli.StringFlag{
			Name:  FlagCropDir,
			Usage: "`DIR` to write annotation crops to",
		},
		&cli.StringFlag{
			Name:  FlagAVIOut,
			Usage: "AVI `FILE` to record annotated frames to",
		},
		&cli.BoolFlag{
			Name:  FlagShowFPS,
			Usage: "draw the frame rate",
		},
		&cli.BoolFlag{
			Name:  FlagSubtractBG,
			Usage: "mask out the stationary background",
		},
		&cli.IntFlag{
			Name:  FlagTrail,
			Usage: "number of points in each annotation trail, 0 disables",
		},
	}
}

// FromCLI loads the config file named by the config flag, or the Default
// when none is given, then applies every flag set on the command line
func FromCLI(c *cli.Context) (Config, error) {

	cfg := Default()

	if path := c.String(FlagConfig); path != "" {
		var err error

		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}

	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	setInt(FlagDevice, &cfg.Capture.Device)
	setString(FlagDetector, &cfg.Detector.Type)
	setString(FlagModel, &cfg.Detector.Model)
	setString(FlagModelType, &cfg.Detector.ModelType)
	setString(FlagLabels, &cfg.Detector.Labels)
	setString(FlagEndpoint, &cfg.Detector.Endpoint)
	setString(FlagClassOfInterest, &cfg.ClassOfInterest)
	setString(FlagTracker, &cfg.Tracker)
	setString(FlagMatcher, &cfg.Matcher)
	setString(FlagEmptyBatch, &cfg.EmptyBatch)
	setString(FlagCPUCores, &cfg.Worker.CPUCores)
	setString(FlagCropDir, &cfg.CropDir)
	setString(FlagAVIOut, &cfg.AVIOut)
	setBool(FlagShowFPS, &cfg.ShowFPS)
	setBool(FlagSubtractBG, &cfg.SubtractBG)
	setInt(FlagTrail, &cfg.TrailLength)

	if c.IsSet(FlagMinConfidence) {
		cfg.MinConfidence = c.Float64(FlagMinConfidence)
	}

	return cfg, cfg.Validate()
}
