package tracker

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// VisualTracker follows a single object from frame to frame without the help
// of the detector
type VisualTracker interface {
	// Init (re)starts tracking the given rect on frame
	Init(frame gocv.Mat, rect Rect) error
	// Update advances the tracker to frame and returns the new rect.  When
	// the object is lost the last known rect is returned.
	Update(frame gocv.Mat) Rect
	Close() error
}

// TrackerFactory creates a VisualTracker initialized on rect
type TrackerFactory func(frame gocv.Mat, rect Rect) (VisualTracker, error)

// TrackerKind names a VisualTracker implementation
type TrackerKind string

const (
	TrackerCSRT   TrackerKind = "csrt"
	TrackerKCF    TrackerKind = "kcf"
	TrackerMIL    TrackerKind = "mil"
	TrackerKalman TrackerKind = "kalman"
)

// ErrUnknownTracker is returned when a tracker kind is not recognised
var ErrUnknownTracker = errors.New("unknown tracker kind")

// NewTrackerFactory returns the factory for the named tracker kind
func NewTrackerFactory(kind TrackerKind) (TrackerFactory, error) {

	kind = TrackerKind(strings.ToLower(strings.TrimSpace(string(kind))))

	switch kind {
	case TrackerCSRT, TrackerKCF, TrackerMIL:
		return func(frame gocv.Mat, rect Rect) (VisualTracker, error) {
			t := NewCVTracker(kind)

			if err := t.Init(frame, rect); err != nil {
				return nil, err
			}

			return t, nil
		}, nil

	case TrackerKalman:
		return func(frame gocv.Mat, rect Rect) (VisualTracker, error) {
			t := NewKalmanTracker()

			if err := t.Init(frame, rect); err != nil {
				return nil, err
			}

			return t, nil
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTracker, kind)
}

// CVTracker is a VisualTracker backed by an OpenCV tracking algorithm
type CVTracker struct {
	kind    TrackerKind
	tracker gocv.Tracker
	// frame dimensions captured on Init, used to convert the pixel output of
	// the OpenCV tracker back to normalized coordinates
	height int
	width  int
	rect   Rect
}

// NewCVTracker returns an uninitialized OpenCV tracker of the given kind
func NewCVTracker(kind TrackerKind) *CVTracker {
	return &CVTracker{kind: kind}
}

// Init creates a fresh OpenCV tracker and starts it on rect
func (t *CVTracker) Init(frame gocv.Mat, rect Rect) error {

	if frame.Empty() {
		return errors.New("can not initialize tracker on empty frame")
	}

	if err := t.release(); err != nil {
		return err
	}

	t.height = frame.Rows()
	t.width = frame.Cols()
	t.rect = rect

	box := rect.Translate(t.height, t.width)

	// OpenCV trackers throw on boxes without area
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return fmt.Errorf("can not track %dx%d box", box.Dx(), box.Dy())
	}

	t.tracker = newOpenCVTracker(t.kind)

	if !t.tracker.Init(frame, box) {
		// Update falls back to the last rect without a tracker
		return multierr.Append(fmt.Errorf("%s tracker failed to initialize", t.kind),
			t.release())
	}

	return nil
}

// Update advances the tracker, keeping the previous rect if the object was
// not found
func (t *CVTracker) Update(frame gocv.Mat) Rect {

	if t.tracker == nil || frame.Empty() {
		return t.rect
	}

	box, ok := t.tracker.Update(frame)

	if ok {
		t.rect = RectFromPixels(box, t.height, t.width)
	}

	return t.rect
}

// Close frees the OpenCV tracker
func (t *CVTracker) Close() error {
	return t.release()
}

func (t *CVTracker) release() error {

	if t.tracker == nil {
		return nil
	}

	err := t.tracker.Close()
	t.tracker = nil

	return err
}

func newOpenCVTracker(kind TrackerKind) gocv.Tracker {

	switch kind {
	case TrackerKCF:
		return contrib.NewTrackerKCF()
	case TrackerMIL:
		return gocv.NewTrackerMIL()
	default:
		return contrib.NewTrackerCSRT()
	}
}

// KalmanTracker is a frame free VisualTracker that extrapolates box motion
// with a constant velocity Kalman filter between detections
type KalmanTracker struct {
	kf        *KalmanFilter
	state     KalmanState
	initiated bool
	rect      Rect
}

// NewKalmanTracker returns an uninitialized KalmanTracker
func NewKalmanTracker() *KalmanTracker {
	return &KalmanTracker{
		kf: NewKalmanFilter(1.0/20, 1.0/160),
	}
}

// Init starts the filter on rect, or corrects the running estimate with rect
// as a new measurement so the velocity survives re-initialization
func (t *KalmanTracker) Init(_ gocv.Mat, rect Rect) error {

	if rect.Empty() {
		return errors.New("can not track empty rect")
	}

	t.rect = rect

	if t.initiated {
		if err := t.kf.Update(&t.state, rect.Xyah()); err == nil {
			return nil
		}
	}

	t.state = t.kf.Initiate(rect.Xyah())
	t.initiated = true

	return nil
}

// Update predicts the rect one frame ahead
func (t *KalmanTracker) Update(_ gocv.Mat) Rect {

	if !t.initiated {
		return t.rect
	}

	t.kf.Predict(&t.state)

	var xyah [4]float64
	copy(xyah[:], t.state.Mean[:4])
	t.rect = RectFromXyah(xyah)

	return t.rect
}

// Close is a no-op as the filter holds no native resources
func (t *KalmanTracker) Close() error {
	return nil
}

// StaticTracker is a VisualTracker that holds its rect in place.  It stands
// in for annotations whose real tracker could not be started.
type StaticTracker struct {
	rect Rect
}

// NewStaticTracker returns a StaticTracker held at rect
func NewStaticTracker(rect Rect) *StaticTracker {
	return &StaticTracker{rect: rect}
}

// Init moves the held rect
func (t *StaticTracker) Init(_ gocv.Mat, rect Rect) error {
	t.rect = rect
	return nil
}

// Update returns the held rect
func (t *StaticTracker) Update(_ gocv.Mat) Rect {
	return t.rect
}

// Close is a no-op
func (t *StaticTracker) Close() error {
	return nil
}
