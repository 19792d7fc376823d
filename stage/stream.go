package stage

import (
	"fmt"
	"net/http"

	"github.com/hybridgroup/mjpeg"
	"github.com/swdee/go-objectdash/pipeline"
	"gocv.io/x/gocv"
)

// MJPEGStream publishes each frame as a JPEG to every client of its HTTP
// handler
type MJPEGStream struct {
	pipeline.Passthrough
	stream *mjpeg.Stream
	frames uint64
}

// NewMJPEGStream returns a stream with no frame published yet
func NewMJPEGStream() *MJPEGStream {
	return &MJPEGStream{stream: mjpeg.NewStream()}
}

// ApplyFirst publishes the first frame
func (s *MJPEGStream) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return s.Apply(frame)
}

// Apply encodes and publishes frame, returning it unchanged
func (s *MJPEGStream) Apply(frame gocv.Mat) (gocv.Mat, error) {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)

	if err != nil {
		return frame, fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	s.stream.UpdateJPEG(buf.GetBytes())
	s.frames++

	return frame, nil
}

// Frames returns the number of frames published
func (s *MJPEGStream) Frames() uint64 {
	return s.frames
}

// ServeHTTP streams frames as multipart/x-mixed-replace until the client
// disconnects
func (s *MJPEGStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.stream.ServeHTTP(w, r)
}
