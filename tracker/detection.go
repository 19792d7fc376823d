package tracker

// Label is a class the detector was trained on
type Label struct {
	// ID is the line number of the label in the labels file
	ID int
	// Name of the class, eg: person
	Name string
}

// Detection is a single object found by the detector on one frame
type Detection struct {
	Label Label
	// Score is the detector confidence in the range [0,1]
	Score float64
	Rect  Rect
}

// Batch is the set of detections the detector produced for one frame, in the
// order the detector emitted them
type Batch []Detection

// FilterLabel returns the detections whose label name matches name.  An empty
// name returns the batch unchanged.
func (b Batch) FilterLabel(name string) Batch {

	if name == "" {
		return b
	}

	out := make(Batch, 0, len(b))

	for _, d := range b {
		if d.Label.Name == name {
			out = append(out, d)
		}
	}

	return out
}

// FilterScore returns the detections with a score of at least min
func (b Batch) FilterScore(min float64) Batch {

	out := make(Batch, 0, len(b))

	for _, d := range b {
		if d.Score >= min {
			out = append(out, d)
		}
	}

	return out
}
