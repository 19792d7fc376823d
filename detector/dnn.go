package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/swdee/go-objectdash/postprocess"
	"github.com/swdee/go-objectdash/preprocess"
	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// DNNConfig configures a DNN detector
type DNNConfig struct {
	// Model is the network weights file, eg: yolov8n.onnx
	Model string
	// Config is the optional network config file for frameworks needing one
	Config string
	// ModelType is the YOLO output format, v5 or v8
	ModelType string
	// InputSize is the square pixel size of the Model input
	InputSize int
	Labels    []tracker.Label
	Params    postprocess.Params
}

// DNN runs a YOLO Model with the OpenCV DNN module on the CPU
type DNN struct {
	net         gocv.Net
	decoder     postprocess.Decoder
	labels      []tracker.Label
	inputSize   int
	resizer     *preprocess.Resizer
	letterboxed gocv.Mat
	log         *zap.Logger
	mu          sync.Mutex
}

// NewDNN loads the network described by cfg
func NewDNN(cfg DNNConfig, log *zap.Logger) (*DNN, error) {

	if log == nil {
		log = zap.NewNop()
	}

	if cfg.InputSize <= 0 {
		return nil, errors.New("model input size must be positive")
	}

	decoder, err := postprocess.NewDecoder(cfg.ModelType, cfg.Params)

	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(cfg.Model, cfg.Config)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.Model)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Info("Loaded detection model",
		zap.String("model", cfg.Model),
		zap.String("type", cfg.ModelType),
		zap.Int("input", cfg.InputSize),
		zap.Int("labels", len(cfg.Labels)),
	)

	return &DNN{
		net:         net,
		decoder:     decoder,
		labels:      cfg.Labels,
		inputSize:   cfg.InputSize,
		letterboxed: gocv.NewMat(),
		log:         log,
	}, nil
}

// Detect letterboxes frame to the Model input, runs a forward pass and
// decodes the output into detections
func (d *DNN) Detect(ctx context.Context, frame gocv.Mat) (tracker.Batch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	// the resizer is built lazily as the capture size is only known once
	// frames arrive
	if d.resizer == nil || !d.resizer.Matches(frame.Cols(), frame.Rows()) {
		if d.resizer != nil {
			_ = d.resizer.Close()
		}

		d.resizer = preprocess.NewResizer(frame.Cols(), frame.Rows(),
			d.inputSize, d.inputSize)
	}

	d.resizer.LetterBoxResize(frame, &d.letterboxed, preprocess.LetterboxGray)

	blob := gocv.BlobFromImage(d.letterboxed, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	return d.decoder.Decode(data, output.Size(), d.resizer, d.labels)
}

// Close frees the network and buffers
func (d *DNN) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := multierr.Combine(d.net.Close(), d.letterboxed.Close())

	if d.resizer != nil {
		err = multierr.Append(err, d.resizer.Close())
		d.resizer = nil
	}

	return err
}
