package postprocess

import (
	"math"
)

// candidates holds the boxes that passed the score threshold before NMS
type candidates struct {
	// boxes are flattened (x, y, w, h) in model input pixels
	boxes   []float32
	probs   []float32
	classID []int
}

func (c *candidates) add(x, y, w, h, prob float32, classID int) {
	c.boxes = append(c.boxes, x, y, w, h)
	c.probs = append(c.probs, prob)
	c.classID = append(c.classID, classID)
}

func (c *candidates) len() int {
	return len(c.probs)
}

// quickSortIndiceInverse sorts input into descending order and applies the
// same reordering to indices
func quickSortIndiceInverse(input []float32, left int, right int, indices []int) int {

	low := left
	high := right

	if left >= right {
		return low
	}

	keyIndex := indices[left]
	key := input[left]

	for low < high {
		for low < high && input[high] <= key {
			high--
		}

		input[low] = input[high]
		indices[low] = indices[high]

		for low < high && input[low] >= key {
			low++
		}

		input[high] = input[low]
		indices[high] = indices[low]
	}

	input[low] = key
	indices[low] = keyIndex

	quickSortIndiceInverse(input, left, low-1, indices)
	quickSortIndiceInverse(input, low+1, right, indices)

	return low
}

// nms suppresses, for class filterID, every box that overlaps a higher
// scoring box by more than threshold.  order holds candidate indexes sorted
// by descending score and suppressed entries are set to -1.
func nms(boxes []float32, classIDs, order []int, filterID int, threshold float32) {

	for i := 0; i < len(order); i++ {

		n := order[i]

		if n == -1 || classIDs[n] != filterID {
			continue
		}

		for j := i + 1; j < len(order); j++ {

			m := order[j]

			if m == -1 || classIDs[m] != filterID {
				continue
			}

			iou := calculateOverlap(
				boxes[n*4], boxes[n*4+1], boxes[n*4]+boxes[n*4+2], boxes[n*4+1]+boxes[n*4+3],
				boxes[m*4], boxes[m*4+1], boxes[m*4]+boxes[m*4+2], boxes[m*4+1]+boxes[m*4+3],
			)

			if iou > threshold {
				order[j] = -1
			}
		}
	}
}

// calculateOverlap works out the Intersection over Union (IoU) of two boxes
// in inclusive pixel coordinates
func calculateOverlap(xmin0, ymin0, xmax0, ymax0, xmin1, ymin1,
	xmax1, ymax1 float32) float32 {

	w := math.Max(0.0, math.Min(float64(xmax0), float64(xmax1))-math.Max(float64(xmin0), float64(xmin1))+1.0)
	h := math.Max(0.0, math.Min(float64(ymax0), float64(ymax1))-math.Max(float64(ymin0), float64(ymin1))+1.0)
	intersection := w * h

	area0 := float64((xmax0 - xmin0 + 1) * (ymax0 - ymin0 + 1))
	area1 := float64((xmax1 - xmin1 + 1) * (ymax1 - ymin1 + 1))

	union := area0 + area1 - intersection

	if union <= 0 {
		return 0.0
	}

	return float32(intersection / union)
}
