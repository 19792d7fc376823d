package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-objectdash/detector"
	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/zap/zaptest"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestDefaultIsValid(t *testing.T) {

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, "person", cfg.ClassOfInterest)
	assert.Equal(t, [2]float64{0.85, 1.15}, cfg.SizeRatioBand)
	assert.Equal(t, 0.7, cfg.OverlapThreshold)
	assert.Equal(t, "clear", cfg.EmptyBatch)
	assert.Equal(t, 640, cfg.Capture.Width)
	assert.Equal(t, 480, cfg.Capture.Height)
	assert.Equal(t, tracker.DefaultMatchParams(), cfg.MatchParams())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {

	path := writeConfig(t, "objectdash.json", `{
		"min_confidence": 0.6,
		"empty_batch": "keep",
		"tracker": "kalman",
		"detector": {"type": "remote", "endpoint": "http://localhost:8000", "timeout": "2s"},
		"worker": {"cpu_cores": "4-7"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.MinConfidence)
	assert.Equal(t, "keep", cfg.EmptyBatch)
	assert.Equal(t, "kalman", cfg.Tracker)
	assert.Equal(t, "person", cfg.ClassOfInterest)
	assert.Equal(t, 0.7, cfg.OverlapThreshold)
	assert.Equal(t, DetectorRemote, cfg.Detector.Type)

	mask, err := cfg.CPUMask()
	require.NoError(t, err)
	assert.Equal(t, uintptr(0xf0), mask)
}

func TestLoadRejects(t *testing.T) {

	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{
			name: "extension",
			file: "objectdash.yaml",
			body: `{}`,
			want: ".json extension",
		},
		{
			name: "syntax",
			file: "bad.json",
			body: `{"min_confidence": }`,
			want: "parse config",
		},
		{
			name: "confidence",
			file: "conf.json",
			body: `{"min_confidence": 1.5}`,
			want: "min_confidence",
		},
		{
			name: "band",
			file: "band.json",
			body: `{"size_ratio_band": [1.2, 0.8]}`,
			want: "size_ratio_band",
		},
		{
			name: "policy",
			file: "policy.json",
			body: `{"empty_batch": "ignore"}`,
			want: "empty batch policy",
		},
		{
			name: "tracker",
			file: "tracker.json",
			body: `{"tracker": "medianflow"}`,
			want: "tracker",
		},
		{
			name: "matcher",
			file: "matcher.json",
			body: `{"matcher": "hungarian"}`,
			want: "matcher",
		},
		{
			name: "detector",
			file: "det.json",
			body: `{"detector": {"type": "tflite"}}`,
			want: "detector type",
		},
		{
			name: "cores",
			file: "cores.json",
			body: `{"worker": {"cpu_cores": "7-4"}}`,
			want: "cpu core",
		},
		{
			name: "timeout",
			file: "timeout.json",
			body: `{"detector": {"type": "remote", "timeout": "soon"}}`,
			want: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsLargeFile(t *testing.T) {

	body := `{"class_of_interest": "` + strings.Repeat("x", maxFileSize) + `"}`

	_, err := Load(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewManager(t *testing.T) {

	cfg := Default()
	cfg.Tracker = "kalman"
	cfg.Matcher = "optimal"

	m, err := cfg.NewManager(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.NoError(t, m.Close())
}

func TestNewDetectorRemote(t *testing.T) {

	cfg := Default()
	cfg.Detector.Type = DetectorRemote
	cfg.Detector.Endpoint = "http://localhost:8000"

	det, err := cfg.NewDetector(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &detector.Remote{}, det)
	assert.NoError(t, det.Close())

	cfg.Detector.Endpoint = ""
	_, err = cfg.NewDetector(zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewDetectorDNNNeedsLabels(t *testing.T) {

	cfg := Default()
	cfg.Detector.Labels = filepath.Join(t.TempDir(), "missing.txt")

	_, err := cfg.NewDetector(zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestAnnotatorConfig(t *testing.T) {

	cfg := Default()
	cfg.CropDir = "/tmp/crops"
	cfg.TrailLength = 30
	cfg.MinConfidence = 0.65

	ac := cfg.AnnotatorConfig()
	assert.Equal(t, "person", ac.ClassOfInterest)
	assert.Equal(t, 0.65, ac.MinConfidence)
	assert.Equal(t, "/tmp/crops", ac.CropDir)
	assert.Equal(t, 30, ac.TrailLength)
	assert.Equal(t, 400, ac.MinCropArea)
}

func TestWorkerOptions(t *testing.T) {

	cfg := Default()
	cfg.Worker.CPUCores = "0,2"

	opts, err := cfg.WorkerOptions(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestNewChain(t *testing.T) {

	cfg := Default()
	cfg.Tracker = "kalman"
	cfg.Detector.Type = DetectorRemote
	cfg.Detector.Endpoint = "http://localhost:8000"
	cfg.ShowFPS = true
	cfg.SubtractBG = true

	chain, err := cfg.NewChain(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, chain.Len())
	assert.NoError(t, chain.Close())
}

func TestNewChainReleasesOnFailure(t *testing.T) {

	cfg := Default()
	cfg.Detector.Type = DetectorRemote
	cfg.SubtractBG = true

	// no endpoint
	chain, err := cfg.NewChain(zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, chain)
}
