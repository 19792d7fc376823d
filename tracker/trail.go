package tracker

import (
	"image"
	"math"
	"sync"
)

// Trail keeps the recent path of each tracked annotation, as pixel center
// points, for drawing
type Trail struct {
	// size is the maximum number of points kept per annotation
	size    int
	history map[string][]image.Point
	sync.Mutex
}

// NewTrail returns a Trail keeping up to size points per annotation
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[string][]image.Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[string][]image.Point)
}

// Add records the current center of anno on a frame of the given height and
// width
func (t *Trail) Add(anno *TrackedAnnotation, height, width int) {
	t.Lock()
	defer t.Unlock()

	if t.size <= 0 {
		return
	}

	cx, cy := anno.Rect.Center()
	pt := image.Pt(int(math.Round(cx*float64(width))),
		int(math.Round(cy*float64(height))))

	points := append(t.history[anno.ID], pt)

	// drop oldest points once history is exceeded
	if len(points) > t.size {
		points = points[len(points)-t.size:]
	}

	t.history[anno.ID] = points
}

// Points returns a copy of the point history for annotation id
func (t *Trail) Points(id string) []image.Point {
	t.Lock()
	defer t.Unlock()

	points, ok := t.history[id]

	if !ok {
		return nil
	}

	out := make([]image.Point, len(points))
	copy(out, points)

	return out
}

// Prune forgets the history of every annotation not in active
func (t *Trail) Prune(active []*TrackedAnnotation) {
	t.Lock()
	defer t.Unlock()

	keep := make(map[string]bool, len(active))

	for _, anno := range active {
		keep[anno.ID] = true
	}

	for id := range t.history {
		if !keep[id] {
			delete(t.history, id)
		}
	}
}

// Len returns the number of annotations with history
func (t *Trail) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.history)
}
