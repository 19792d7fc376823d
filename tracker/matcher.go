package tracker

import (
	"fmt"
	"strings"
)

// MatchParams are the gates a detection and a tracked annotation must pass to
// be considered the same object
type MatchParams struct {
	// SizeRatioLow and SizeRatioHigh bound the tracked area divided by the
	// detection area, inclusive
	SizeRatioLow  float64
	SizeRatioHigh float64
	// OverlapThreshold is the IoU that must be exceeded, exclusive
	OverlapThreshold float64
}

// DefaultMatchParams returns the default matching gates
func DefaultMatchParams() MatchParams {
	return MatchParams{
		SizeRatioLow:     0.85,
		SizeRatioHigh:    1.15,
		OverlapThreshold: 0.7,
	}
}

// Accept reports whether tracked annotation t and detection d pass every
// gate, returning their overlap when they do.  Rects without area never match.
func (p MatchParams) Accept(t *TrackedAnnotation, d Detection) (float64, bool) {

	if t.Label.Name != d.Label.Name {
		return 0, false
	}

	ratio, ok := t.Rect.SizeRatio(d.Rect)

	if !ok || t.Rect.Empty() || ratio < p.SizeRatioLow || ratio > p.SizeRatioHigh {
		return 0, false
	}

	overlap, ok := d.Rect.Overlap(t.Rect)

	if !ok || overlap <= p.OverlapThreshold {
		return 0, false
	}

	return overlap, true
}

// MatchStrategy assigns detections to tracked annotations.  Match returns a
// slice the length of batch holding, per detection, the index into tracked
// of the annotation it continues or -1 for a new object.  No tracked index
// appears more than once.
type MatchStrategy interface {
	Match(tracked []*TrackedAnnotation, batch Batch) []int
}

// MatcherKind names a MatchStrategy implementation
type MatcherKind string

const (
	MatcherGreedy  MatcherKind = "greedy"
	MatcherOptimal MatcherKind = "optimal"
)

// NewMatcher returns the MatchStrategy for the named kind
func NewMatcher(kind MatcherKind, p MatchParams) (MatchStrategy, error) {

	switch MatcherKind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case MatcherGreedy, "":
		return &GreedyMatcher{Params: p}, nil
	case MatcherOptimal:
		return &OptimalMatcher{Params: p}, nil
	}

	return nil, fmt.Errorf("unknown matcher kind: %q", kind)
}

// GreedyMatcher pairs each detection, in batch order, with the first tracked
// annotation, in tracked order, that passes the gates and has not already
// been claimed by an earlier detection
type GreedyMatcher struct {
	Params MatchParams
}

// Match implements MatchStrategy
func (m *GreedyMatcher) Match(tracked []*TrackedAnnotation, batch Batch) []int {

	assigned := make([]int, len(batch))
	claimed := make([]bool, len(tracked))

	for i, d := range batch {

		assigned[i] = -1

		for j, t := range tracked {
			if claimed[j] {
				continue
			}

			if _, ok := m.Params.Accept(t, d); ok {
				assigned[i] = j
				claimed[j] = true
				break
			}
		}
	}

	return assigned
}

// OptimalMatcher finds the assignment of detections to tracked annotations
// that maximizes total overlap, only pairing those that pass the gates
type OptimalMatcher struct {
	Params MatchParams
}

// Match implements MatchStrategy
func (m *OptimalMatcher) Match(tracked []*TrackedAnnotation, batch Batch) []int {

	assigned := make([]int, len(batch))

	for i := range assigned {
		assigned[i] = -1
	}

	if len(tracked) == 0 || len(batch) == 0 {
		return assigned
	}

	// cost is 1-overlap for accepted pairs, pairs failing the gates cost
	// more than the limit so they stay unassigned
	const rejected = 2.0
	const costLimit = 1.0

	cost := make([][]float64, len(batch))

	for i, d := range batch {
		cost[i] = make([]float64, len(tracked))

		for j, t := range tracked {
			cost[i][j] = rejected

			if overlap, ok := m.Params.Accept(t, d); ok {
				cost[i][j] = 1 - overlap
			}
		}
	}

	rowSol, _, err := solveAssignment(cost, costLimit)

	if err != nil {
		// fall back to the greedy assignment when the solver fails
		greedy := GreedyMatcher{Params: m.Params}
		return greedy.Match(tracked, batch)
	}

	for i, j := range rowSol {
		if j >= 0 && cost[i][j] < rejected {
			assigned[i] = j
		}
	}

	return assigned
}
