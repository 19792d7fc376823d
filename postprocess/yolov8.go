package postprocess

import (
	"fmt"

	"github.com/swdee/go-objectdash/preprocess"
	"github.com/swdee/go-objectdash/tracker"
)

// YOLOv8 decodes the output of a YOLOv8 Model exported to ONNX, a
// [1, 4+classes, anchors] tensor of center boxes followed by class scores
type YOLOv8 struct {
	Params Params
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p Params) *YOLOv8 {
	return &YOLOv8{
		Params: p,
	}
}

// Decode implements Decoder.  Transposed [1, anchors, 4+classes] outputs are
// also accepted.
func (y *YOLOv8) Decode(output []float32, dims []int, resizer *preprocess.Resizer,
	labels []tracker.Label) (tracker.Batch, error) {

	rows, cols, err := outputShape(output, dims)

	if err != nil {
		return nil, err
	}

	// attributes run along the shorter axis unless the class count says
	// otherwise
	channelMajor := rows <= cols

	if n := y.Params.ObjectClassNum; n > 0 {
		switch {
		case rows == n+4:
			channelMajor = true
		case cols == n+4:
			channelMajor = false
		default:
			return nil, fmt.Errorf("output shape %v does not hold %d classes", dims, n)
		}
	}

	attrs, anchors := rows, cols
	at := func(anchor, attr int) float32 {
		return output[attr*cols+anchor]
	}

	if !channelMajor {
		attrs, anchors = cols, rows
		at = func(anchor, attr int) float32 {
			return output[anchor*cols+attr]
		}
	}

	classes := attrs - 4

	if classes <= 0 {
		return nil, fmt.Errorf("output shape %v has no class scores", dims)
	}

	c := &candidates{}

	for i := 0; i < anchors; i++ {

		maxScore := float32(0)
		maxClassID := -1

		for k := 0; k < classes; k++ {
			if s := at(i, 4+k); s > maxScore {
				maxScore = s
				maxClassID = k
			}
		}

		if maxClassID < 0 || maxScore <= y.Params.BoxThreshold {
			continue
		}

		w := at(i, 2)
		h := at(i, 3)

		c.add(at(i, 0)-w/2, at(i, 1)-h/2, w, h, maxScore, maxClassID)
	}

	return collate(c, y.Params, resizer, labels), nil
}
