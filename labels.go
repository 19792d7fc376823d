package objectdash

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/swdee/go-objectdash/tracker"
)

// LoadLabels reads the labels the Model was trained on from the given text
// file.  It should contain one label per line, the line number (from zero)
// being the class ID the Model outputs.
func LoadLabels(file string) ([]tracker.Label, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []tracker.Label

	for id := 0; scanner.Scan(); id++ {
		labels = append(labels, tracker.Label{
			ID:   id,
			Name: strings.TrimSpace(scanner.Text()),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	// drop trailing blank lines so they do not become classes
	for len(labels) > 0 && labels[len(labels)-1].Name == "" {
		labels = labels[:len(labels)-1]
	}

	return labels, nil
}

// LabelByID returns the label with the given class ID, or a label named by
// the ID when it is out of range
func LabelByID(labels []tracker.Label, id int) tracker.Label {

	if id >= 0 && id < len(labels) {
		return labels[id]
	}

	return tracker.Label{ID: id, Name: fmt.Sprintf("class%d", id)}
}
