package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// RemoteConfig configures a Remote detector
type RemoteConfig struct {
	// Endpoint is the base URL of the inference service, frames are posted
	// to Endpoint + "/detect"
	Endpoint string
	// Timeout bounds each request
	Timeout time.Duration
	// ConfThreshold is passed to the service as the minimum score to return
	ConfThreshold float64
}

// remoteDetection is a single detection in the service response, the box is
// [x1, y1, x2, y2] in frame pixels
type remoteDetection struct {
	Class      string    `json:"class"`
	ClassID    int       `json:"class_id"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// remoteResult is the service response body
type remoteResult struct {
	Detections      []remoteDetection `json:"detections"`
	Count           int               `json:"count"`
	InferenceTimeMs float64           `json:"inference_time_ms"`
	Device          string            `json:"device"`
}

// Remote sends JPEG encoded frames to an HTTP inference service
type Remote struct {
	endpoint      string
	client        *http.Client
	confThreshold float64
	log           *zap.Logger
}

// NewRemote returns a Remote detector for the service at cfg.Endpoint
func NewRemote(cfg RemoteConfig, log *zap.Logger) (*Remote, error) {

	if cfg.Endpoint == "" {
		return nil, errors.New("remote detector endpoint is required")
	}

	if log == nil {
		log = zap.NewNop()
	}

	timeout := cfg.Timeout

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Remote{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		confThreshold: cfg.ConfThreshold,
		log:           log,
	}, nil
}

// Detect posts frame to the service and converts the returned boxes into
// normalized rects
func (r *Remote) Detect(ctx context.Context, frame gocv.Mat) (tracker.Batch, error) {

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)

	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	defer buf.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", "frame.jpg")

	if err != nil {
		return nil, err
	}

	if _, err := fw.Write(buf.GetBytes()); err != nil {
		return nil, err
	}

	if err := w.WriteField("conf_threshold", fmt.Sprintf("%.2f", r.confThreshold)); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/detect", &body)

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("detection request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("detection failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result remoteResult

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode detection response: %w", err)
	}

	r.log.Debug("Remote detection",
		zap.Int("count", len(result.Detections)),
		zap.Float64("inference_ms", result.InferenceTimeMs),
		zap.String("device", result.Device),
	)

	height := float64(frame.Rows())
	width := float64(frame.Cols())
	batch := make(tracker.Batch, 0, len(result.Detections))

	for _, d := range result.Detections {

		if len(d.BBox) != 4 {
			r.log.Warn("Skipping detection with malformed box",
				zap.String("class", d.Class), zap.Float64s("bbox", d.BBox))
			continue
		}

		batch = append(batch, tracker.Detection{
			Label: tracker.Label{ID: d.ClassID, Name: d.Class},
			Score: d.Confidence,
			Rect: tracker.NewRect(d.BBox[0]/width, d.BBox[1]/height,
				d.BBox[2]/width, d.BBox[3]/height).Clamp(),
		})
	}

	return batch, nil
}

// Close releases idle connections
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
