package tracker

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Status is how an annotation came out of a reconciliation
type Status int

const (
	// Confirmed annotations existed before and were matched to a detection
	Confirmed Status = iota
	// New annotations were created from an unmatched detection
	New
)

func (s Status) String() string {
	if s == Confirmed {
		return "confirmed"
	}
	return "new"
}

// EmptyBatchPolicy decides what an empty detection batch means
type EmptyBatchPolicy string

const (
	// EmptyBatchClear treats an empty batch as "nothing is there" and drops
	// every tracked annotation
	EmptyBatchClear EmptyBatchPolicy = "clear"
	// EmptyBatchKeep treats an empty batch as "no update".  Reconcile leaves
	// the tracked set untouched and reports Skipped, the caller steps the
	// tracked annotations onto the current frame instead.
	EmptyBatchKeep EmptyBatchPolicy = "keep"
)

// ParseEmptyBatchPolicy validates a policy name, defaulting to clear
func ParseEmptyBatchPolicy(s string) (EmptyBatchPolicy, error) {

	switch p := EmptyBatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", EmptyBatchClear:
		return EmptyBatchClear, nil
	case EmptyBatchKeep:
		return EmptyBatchKeep, nil
	default:
		return "", fmt.Errorf("unknown empty batch policy: %q", s)
	}
}

// Entry is one annotation in a Reconciliation
type Entry struct {
	Annotation *TrackedAnnotation
	Status     Status
}

// Reconciliation is the outcome of matching one detection batch against the
// tracked set
type Reconciliation struct {
	// Entries are the annotations now tracked, in batch order
	Entries []Entry
	// Dropped are the annotations no detection continued, already closed
	Dropped []*TrackedAnnotation
	// Skipped is set when an empty batch was ignored under EmptyBatchKeep,
	// the caller should Step the tracked set as on a tick without a result
	Skipped bool
}

// Manager owns the set of tracked annotations and keeps it in step with the
// detector
type Manager struct {
	tracked []*TrackedAnnotation
	status  map[string]Status
	matcher MatchStrategy
	factory TrackerFactory
	policy  EmptyBatchPolicy
	log     *zap.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithMatcher sets the MatchStrategy, the default is a GreedyMatcher with
// DefaultMatchParams
func WithMatcher(m MatchStrategy) ManagerOption {
	return func(mgr *Manager) {
		mgr.matcher = m
	}
}

// WithEmptyBatchPolicy sets how empty detection batches are handled
func WithEmptyBatchPolicy(p EmptyBatchPolicy) ManagerOption {
	return func(mgr *Manager) {
		mgr.policy = p
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ManagerOption {
	return func(mgr *Manager) {
		if l != nil {
			mgr.log = l
		}
	}
}

// NewManager returns a Manager creating visual trackers with factory
func NewManager(factory TrackerFactory, opts ...ManagerOption) *Manager {

	m := &Manager{
		status:  make(map[string]Status),
		matcher: &GreedyMatcher{Params: DefaultMatchParams()},
		factory: factory,
		policy:  EmptyBatchClear,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Reconcile matches batch against the tracked set.  frame must be the frame
// the detector ran on, trackers of matched and new annotations are
// initialized on it.
func (m *Manager) Reconcile(frame gocv.Mat, batch Batch) Reconciliation {

	if len(batch) == 0 && m.policy == EmptyBatchKeep {
		return Reconciliation{Entries: m.Entries(), Skipped: true}
	}

	assigned := m.matcher.Match(m.tracked, batch)

	next := make([]*TrackedAnnotation, 0, len(batch))
	kept := make(map[*TrackedAnnotation]bool, len(batch))
	status := make(map[string]Status, len(batch))
	var res Reconciliation

	for i, d := range batch {

		if j := assigned[i]; j >= 0 {
			anno := m.tracked[j]

			if err := anno.Reinit(frame, d); err != nil {
				m.log.Warn("Failed to reinitialize tracker",
					zap.String("id", anno.ID), zap.Error(err))
			}

			next = append(next, anno)
			kept[anno] = true
			status[anno.ID] = Confirmed
			res.Entries = append(res.Entries, Entry{Annotation: anno, Status: Confirmed})
			continue
		}

		anno, err := NewTrackedAnnotation(frame, d, m.factory)

		if err != nil {
			m.log.Warn("Failed to start tracker, holding annotation in place",
				zap.String("label", d.Label.Name), zap.Error(err))
			anno = NewStaticAnnotation(d)
		}

		next = append(next, anno)
		status[anno.ID] = New
		res.Entries = append(res.Entries, Entry{Annotation: anno, Status: New})
	}

	for _, anno := range m.tracked {
		if kept[anno] {
			continue
		}

		if err := anno.Close(); err != nil {
			m.log.Warn("Failed to close tracker", zap.String("id", anno.ID), zap.Error(err))
		}

		res.Dropped = append(res.Dropped, anno)
	}

	m.log.Debug("Reconciled detections",
		zap.Int("detections", len(batch)),
		zap.Int("tracked", len(next)),
		zap.Int("dropped", len(res.Dropped)),
	)

	m.tracked = next
	m.status = status

	return res
}

// Step advances every tracked annotation onto frame exactly once
func (m *Manager) Step(frame gocv.Mat) {
	for _, anno := range m.tracked {
		anno.Step(frame)
	}
}

// Tracked returns the current tracked annotations in order
func (m *Manager) Tracked() []*TrackedAnnotation {
	out := make([]*TrackedAnnotation, len(m.tracked))
	copy(out, m.tracked)
	return out
}

// Entries returns the current tracked annotations with the status they were
// given by the last reconciliation
func (m *Manager) Entries() []Entry {

	out := make([]Entry, len(m.tracked))

	for i, anno := range m.tracked {
		out[i] = Entry{Annotation: anno, Status: m.status[anno.ID]}
	}

	return out
}

// Len returns the number of tracked annotations
func (m *Manager) Len() int {
	return len(m.tracked)
}

// Close releases every tracker and empties the tracked set
func (m *Manager) Close() error {

	var err error

	for _, anno := range m.tracked {
		err = multierr.Append(err, anno.Close())
	}

	m.tracked = nil
	m.status = make(map[string]Status)

	return err
}
