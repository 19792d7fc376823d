package detector

import "fmt"

// PanicError wraps a panic raised inside a Detector
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("detector panic: %v", e.Value)
}
