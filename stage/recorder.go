package stage

import (
	"fmt"

	"github.com/swdee/go-objectdash/pipeline"
	"gocv.io/x/gocv"
)

const (
	// RecorderCodec is the FourCC used for AVI output
	RecorderCodec = "XVID"
	// RecorderFPS is the frame rate written to the AVI header
	RecorderFPS = 20.0
)

// Recorder writes every frame to an AVI file
type Recorder struct {
	writer *gocv.VideoWriter
}

var _ pipeline.Handler = (*Recorder)(nil)

// NewRecorder opens path for writing frames of the given size
func NewRecorder(path string, width, height int) (*Recorder, error) {

	w, err := gocv.VideoWriterFile(path, RecorderCodec, RecorderFPS, width, height, true)

	if err != nil {
		return nil, fmt.Errorf("error opening video writer %s: %w", path, err)
	}

	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("video writer %s did not open", path)
	}

	return &Recorder{writer: w}, nil
}

// ApplyFirst writes the first frame
func (r *Recorder) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return r.Apply(frame)
}

// Apply writes frame and returns it unchanged
func (r *Recorder) Apply(frame gocv.Mat) (gocv.Mat, error) {

	if err := r.writer.Write(frame); err != nil {
		return frame, fmt.Errorf("error writing frame: %w", err)
	}

	return frame, nil
}

// Close releases the writer, finalizing the file
func (r *Recorder) Close() error {
	return r.writer.Close()
}
