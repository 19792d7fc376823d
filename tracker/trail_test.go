package tracker

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailKeepsMostRecentPoints(t *testing.T) {

	trail := NewTrail(3)
	anno := trackedAt("a", personLabel, NewRect(0, 0, 0.2, 0.2))

	for i := 0; i < 5; i++ {
		x := 0.1 * float64(i)
		anno.Rect = NewRect(x, 0, x+0.2, 0.2)
		trail.Add(anno, 100, 100)
	}

	assert.Equal(t, []image.Point{{X: 30, Y: 10}, {X: 40, Y: 10}, {X: 50, Y: 10}},
		trail.Points("a"))
	assert.Nil(t, trail.Points("b"))
}

func TestTrailPrune(t *testing.T) {

	trail := NewTrail(10)
	a := trackedAt("a", personLabel, NewRect(0, 0, 0.2, 0.2))
	b := trackedAt("b", personLabel, NewRect(0.5, 0.5, 0.7, 0.7))

	trail.Add(a, 480, 640)
	trail.Add(b, 480, 640)
	assert.Equal(t, 2, trail.Len())

	trail.Prune([]*TrackedAnnotation{b})
	assert.Equal(t, 1, trail.Len())
	assert.Nil(t, trail.Points("a"))
	assert.Len(t, trail.Points("b"), 1)

	trail.Reset()
	assert.Equal(t, 0, trail.Len())
}
