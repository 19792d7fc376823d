package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	personLabel = Label{ID: 0, Name: "person"}
	dogLabel    = Label{ID: 16, Name: "dog"}
)

// trackedAt builds a tracked annotation with a stub tracker for matching
// tests
func trackedAt(id string, label Label, r Rect) *TrackedAnnotation {
	return &TrackedAnnotation{
		ID:      id,
		Label:   label,
		Rect:    r,
		tracker: &stubTracker{rect: r},
	}
}

func personAt(r Rect) Detection {
	return Detection{Label: personLabel, Score: 0.9, Rect: r}
}

// shiftedBox is a 0.5x0.5 box offset horizontally by x
func shiftedBox(x float64) Rect {
	return NewRect(x, 0, x+0.5, 0.5)
}

func TestMatchParamsAccept(t *testing.T) {

	p := DefaultMatchParams()
	base := NewRect(0, 0, 0.5, 0.5)

	tests := []struct {
		name    string
		tracked *TrackedAnnotation
		det     Detection
		ok      bool
	}{
		{
			name:    "identical",
			tracked: trackedAt("a", personLabel, base),
			det:     personAt(base),
			ok:      true,
		},
		{
			name:    "overlap exactly at threshold",
			tracked: trackedAt("a", personLabel, NewRect(0, 0, 17.0/32, 0.5)),
			det:     personAt(NewRect(3.0/32, 0, 20.0/32, 0.5)),
			ok:      false,
		},
		{
			name:    "overlap just above threshold",
			tracked: trackedAt("a", personLabel, shiftedBox(0)),
			det:     personAt(shiftedBox(0.0847)),
			ok:      true,
		},
		{
			name:    "ratio below band despite high overlap",
			tracked: trackedAt("a", personLabel, base),
			det:     personAt(NewRect(0, 0, 0.5, 0.6)),
			ok:      false,
		},
		{
			name:    "ratio above band despite high overlap",
			tracked: trackedAt("a", personLabel, NewRect(0, 0, 0.5, 0.6)),
			det:     personAt(base),
			ok:      false,
		},
		{
			name:    "different label",
			tracked: trackedAt("a", dogLabel, base),
			det:     personAt(base),
			ok:      false,
		},
		{
			name:    "zero area detection",
			tracked: trackedAt("a", personLabel, base),
			det:     personAt(NewRect(0.2, 0.2, 0.2, 0.4)),
			ok:      false,
		},
		{
			name:    "zero area tracked",
			tracked: trackedAt("a", personLabel, Rect{}),
			det:     personAt(base),
			ok:      false,
		},
		{
			name:    "disjoint",
			tracked: trackedAt("a", personLabel, NewRect(0, 0, 0.2, 0.2)),
			det:     personAt(NewRect(0.5, 0.5, 0.7, 0.7)),
			ok:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := p.Accept(tc.tracked, tc.det)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestMatchParamsAcceptOverlapValue(t *testing.T) {

	overlap, ok := DefaultMatchParams().Accept(
		trackedAt("a", personLabel, shiftedBox(0)),
		personAt(shiftedBox(0.0847)),
	)

	require.True(t, ok)
	assert.InDelta(t, 0.71, overlap, 1e-3)
}

func TestGreedyMatcherFirstMatchWins(t *testing.T) {

	// both tracked annotations pass the gates, the first in tracked order is
	// taken
	tracked := []*TrackedAnnotation{
		trackedAt("a", personLabel, shiftedBox(0.02)),
		trackedAt("b", personLabel, shiftedBox(0)),
	}
	batch := Batch{personAt(shiftedBox(0))}

	m := &GreedyMatcher{Params: DefaultMatchParams()}

	for i := 0; i < 3; i++ {
		assert.Equal(t, []int{0}, m.Match(tracked, batch))
	}
}

func TestGreedyMatcherOneToOne(t *testing.T) {

	tracked := []*TrackedAnnotation{
		trackedAt("a", personLabel, shiftedBox(0)),
	}
	batch := Batch{
		personAt(shiftedBox(0.01)),
		personAt(shiftedBox(0.02)),
	}

	m := &GreedyMatcher{Params: DefaultMatchParams()}
	assert.Equal(t, []int{0, -1}, m.Match(tracked, batch))
}

func TestGreedyMatcherEmpty(t *testing.T) {

	m := &GreedyMatcher{Params: DefaultMatchParams()}

	assert.Empty(t, m.Match(nil, nil))
	assert.Equal(t, []int{-1, -1}, m.Match(nil, Batch{
		personAt(shiftedBox(0)), personAt(shiftedBox(0.3)),
	}))
}

func TestOptimalMatcherResolvesContention(t *testing.T) {

	// d0 passes against both a and b, d1 only against a
	tracked := []*TrackedAnnotation{
		trackedAt("a", personLabel, shiftedBox(0.10)),
		trackedAt("b", personLabel, shiftedBox(0.18)),
	}
	batch := Batch{
		personAt(shiftedBox(0.14)),
		personAt(shiftedBox(0.06)),
	}

	greedy := &GreedyMatcher{Params: DefaultMatchParams()}
	assert.Equal(t, []int{0, -1}, greedy.Match(tracked, batch))

	optimal := &OptimalMatcher{Params: DefaultMatchParams()}
	assert.Equal(t, []int{1, 0}, optimal.Match(tracked, batch))
}

func TestOptimalMatcherLeavesRejectedUnassigned(t *testing.T) {

	tracked := []*TrackedAnnotation{
		trackedAt("a", personLabel, NewRect(0, 0, 0.2, 0.2)),
	}
	batch := Batch{
		personAt(NewRect(0.5, 0.5, 0.7, 0.7)),
		{Label: dogLabel, Score: 0.9, Rect: NewRect(0, 0, 0.2, 0.2)},
	}

	optimal := &OptimalMatcher{Params: DefaultMatchParams()}
	assert.Equal(t, []int{-1, -1}, optimal.Match(tracked, batch))
}

func TestNewMatcher(t *testing.T) {

	m, err := NewMatcher(MatcherGreedy, DefaultMatchParams())
	require.NoError(t, err)
	assert.IsType(t, &GreedyMatcher{}, m)

	m, err = NewMatcher("Optimal", DefaultMatchParams())
	require.NoError(t, err)
	assert.IsType(t, &OptimalMatcher{}, m)

	_, err = NewMatcher("hungarian", DefaultMatchParams())
	assert.Error(t, err)
}
