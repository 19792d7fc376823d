package postprocess

import (
	"fmt"

	"github.com/swdee/go-objectdash"
	"github.com/swdee/go-objectdash/preprocess"
	"github.com/swdee/go-objectdash/tracker"
)

// Params are the post processing parameters shared by the YOLO decoders
type Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with, zero to infer it from the output shape
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// COCOParams returns Params for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func COCOParams() Params {
	return Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  80,
		MaxObjectNumber: 64,
	}
}

// Decoder turns the float output of a detection Model into detections on the
// source frame
type Decoder interface {
	Decode(output []float32, dims []int, resizer *preprocess.Resizer,
		labels []tracker.Label) (tracker.Batch, error)
}

// NewDecoder returns the decoder for the named YOLO version, v5 or v8
func NewDecoder(version string, p Params) (Decoder, error) {

	switch version {
	case "v5", "yolov5":
		return NewYOLOv5(p), nil
	case "v8", "yolov8", "":
		return NewYOLOv8(p), nil
	}

	return nil, fmt.Errorf("unsupported model type: %q", version)
}

// outputShape validates a [1, rows, cols] output against the data length
func outputShape(output []float32, dims []int) (int, int, error) {

	if len(dims) != 3 || dims[0] != 1 {
		return 0, 0, fmt.Errorf("unexpected output shape %v", dims)
	}

	rows, cols := dims[1], dims[2]

	if rows*cols != len(output) {
		return 0, 0, fmt.Errorf("output shape %v does not match %d values", dims, len(output))
	}

	return rows, cols, nil
}

// collate runs NMS over the candidates and converts the survivors into
// detections in descending score order
func collate(c *candidates, p Params, resizer *preprocess.Resizer,
	labels []tracker.Label) tracker.Batch {

	count := c.len()

	if count == 0 {
		return tracker.Batch{}
	}

	order := make([]int, count)

	for i := range order {
		order[i] = i
	}

	// probs are sorted in place alongside order
	probs := make([]float32, count)
	copy(probs, c.probs)
	quickSortIndiceInverse(probs, 0, count-1, order)

	classSet := make(map[int]bool)

	for _, id := range c.classID {
		classSet[id] = true
	}

	for id := range classSet {
		nms(c.boxes, c.classID, order, id, p.NMSThreshold)
	}

	batch := make(tracker.Batch, 0)

	for i, n := range order {

		if n == -1 {
			continue
		}

		if p.MaxObjectNumber > 0 && len(batch) >= p.MaxObjectNumber {
			break
		}

		x1 := float64(c.boxes[n*4])
		y1 := float64(c.boxes[n*4+1])
		x2 := x1 + float64(c.boxes[n*4+2])
		y2 := y1 + float64(c.boxes[n*4+3])

		batch = append(batch, tracker.Detection{
			Label: objectdash.LabelByID(labels, c.classID[n]),
			Score: float64(probs[i]),
			Rect:  resizer.Unletterbox(x1, y1, x2, y2),
		})
	}

	return batch
}
