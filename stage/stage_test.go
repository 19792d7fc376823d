package stage

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidFrame(v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), 120, 160, gocv.MatTypeCV8UC3)
}

func TestFPSCounterText(t *testing.T) {

	mock := clock.NewMock()
	f := newFPSCounter(mock)

	mock.Add(50 * time.Millisecond)
	assert.Equal(t, "20 FPS", f.text())

	mock.Add(40 * time.Millisecond)
	assert.Equal(t, "25 FPS", f.text())

	// no time passed
	assert.Equal(t, "0 FPS", f.text())
}

func TestFPSCounterDrawsOnFrame(t *testing.T) {

	frame := solidFrame(0)
	defer frame.Close()

	f := NewFPSCounter()
	out, err := f.ApplyFirst(frame)
	require.NoError(t, err)

	grey := gocv.NewMat()
	defer grey.Close()
	gocv.CvtColor(out, &grey, gocv.ColorBGRToGray)

	assert.Greater(t, gocv.CountNonZero(grey), 0)
	assert.NoError(t, f.Close())
}

func TestBackgroundSubtractorStaticScene(t *testing.T) {

	b := NewBackgroundSubtractor()
	defer b.Close()

	frame := solidFrame(90)
	defer frame.Close()

	out, err := b.ApplyFirst(frame)
	require.NoError(t, err)
	assert.Equal(t, frame.Rows(), out.Rows())
	assert.Equal(t, frame.Cols(), out.Cols())
	assert.Equal(t, frame.Type(), out.Type())

	for i := 0; i < 30; i++ {
		out, err = b.Apply(frame)
		require.NoError(t, err)
	}

	grey := gocv.NewMat()
	defer grey.Close()
	gocv.CvtColor(out, &grey, gocv.ColorBGRToGray)

	assert.Zero(t, gocv.CountNonZero(grey), "a static scene is all background")
}

func TestRecorderWritesFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "out.avi")

	r, err := NewRecorder(path, 160, 120)

	if err != nil {
		t.Skipf("no XVID encoder available: %v", err)
	}

	frame := solidFrame(128)
	defer frame.Close()

	out, err := r.ApplyFirst(frame)
	require.NoError(t, err)
	assert.Equal(t, frame.Ptr(), out.Ptr())

	for i := 0; i < 5; i++ {
		_, err = r.Apply(frame)
		require.NoError(t, err)
	}

	require.NoError(t, r.Close())
	assert.FileExists(t, path)
}

func TestMJPEGStreamServesFrames(t *testing.T) {

	s := NewMJPEGStream()

	frame := solidFrame(200)
	defer frame.Close()

	srv := httptest.NewServer(s)
	defer closeStream(t, srv, s, frame)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	type reply struct {
		contentType string
		part        string
		err         error
	}

	got := make(chan reply, 1)

	go func() {
		resp, err := http.DefaultClient.Do(req)

		if err != nil {
			got <- reply{err: err}
			return
		}

		defer resp.Body.Close()

		line, err := bufio.NewReader(resp.Body).ReadString('\n')
		got <- reply{contentType: resp.Header.Get("Content-Type"), part: line, err: err}
	}()

	// the stream only delivers frames published after the client connects
	var res reply

	func() {
		for {
			_, err := s.Apply(frame)
			require.NoError(t, err)

			select {
			case res = <-got:
				return
			case <-ctx.Done():
				t.Fatal("no frame received")
			case <-time.After(20 * time.Millisecond):
			}
		}
	}()

	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.contentType, "multipart/x-mixed-replace"))
	assert.NotEmpty(t, res.part)
	assert.Greater(t, s.Frames(), uint64(0))
}

// closeStream shuts srv down.  Stream handlers only notice a closed client
// when writing, so frames keep being published until the server has closed.
func closeStream(t *testing.T, srv *httptest.Server, s *MJPEGStream, frame gocv.Mat) {

	srv.CloseClientConnections()

	done := make(chan struct{})

	go func() {
		srv.Close()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		case <-time.After(10 * time.Millisecond):
			_, err := s.Apply(frame)
			assert.NoError(t, err)
		}
	}
}
