package tracker

import (
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// TrackedAnnotation is an object that persists across frames.  Its identity
// is assigned once when created and is kept through every detection cycle the
// object is matched in.
type TrackedAnnotation struct {
	// ID is a random UUID assigned at creation
	ID    string
	Label Label
	Score float64
	// Rect is the current position, updated by Step and Reinit
	Rect Rect
	// Hits counts the detection cycles the annotation has been created or
	// confirmed in
	Hits int
	// Created is when the annotation was first detected
	Created time.Time

	tracker VisualTracker
}

// NewTrackedAnnotation creates an annotation from detection d and starts a
// visual tracker on frame at the detection rect
func NewTrackedAnnotation(frame gocv.Mat, d Detection,
	factory TrackerFactory) (*TrackedAnnotation, error) {

	vt, err := factory(frame, d.Rect)

	if err != nil {
		return nil, err
	}

	return newAnnotation(d, vt), nil
}

// NewStaticAnnotation creates an annotation from detection d whose rect is
// held in place until the next detection
func NewStaticAnnotation(d Detection) *TrackedAnnotation {
	return newAnnotation(d, NewStaticTracker(d.Rect))
}

func newAnnotation(d Detection, vt VisualTracker) *TrackedAnnotation {
	return &TrackedAnnotation{
		ID:      uuid.NewString(),
		Label:   d.Label,
		Score:   d.Score,
		Rect:    d.Rect,
		Hits:    1,
		Created: time.Now(),
		tracker: vt,
	}
}

// Step advances the visual tracker onto frame and updates Rect
func (a *TrackedAnnotation) Step(frame gocv.Mat) {
	a.Rect = a.tracker.Update(frame)
}

// Reinit takes the rect and score of detection d and restarts the visual
// tracker on frame at the new rect
func (a *TrackedAnnotation) Reinit(frame gocv.Mat, d Detection) error {

	a.Rect = d.Rect
	a.Score = d.Score
	a.Hits++

	return a.tracker.Init(frame, d.Rect)
}

// Close releases the visual tracker
func (a *TrackedAnnotation) Close() error {
	return a.tracker.Close()
}
