package postprocess

import (
	"fmt"

	"github.com/swdee/go-objectdash/preprocess"
	"github.com/swdee/go-objectdash/tracker"
)

// YOLOv5 decodes the output of a YOLOv5 Model exported to ONNX, a
// [1, anchors, 5+classes] tensor where each row is a center box, the
// objectness confidence and the class scores
type YOLOv5 struct {
	Params Params
}

// NewYOLOv5 returns an instance of the YOLOv5 post processor
func NewYOLOv5(p Params) *YOLOv5 {
	return &YOLOv5{
		Params: p,
	}
}

// Decode implements Decoder
func (y *YOLOv5) Decode(output []float32, dims []int, resizer *preprocess.Resizer,
	labels []tracker.Label) (tracker.Batch, error) {

	anchors, probBoxSize, err := outputShape(output, dims)

	if err != nil {
		return nil, err
	}

	classes := probBoxSize - 5

	if y.Params.ObjectClassNum > 0 && classes != y.Params.ObjectClassNum {
		return nil, fmt.Errorf("model outputs %d classes, expected %d",
			classes, y.Params.ObjectClassNum)
	}

	if classes <= 0 {
		return nil, fmt.Errorf("output shape %v has no class scores", dims)
	}

	c := &candidates{}

	for i := 0; i < anchors; i++ {

		row := output[i*probBoxSize : (i+1)*probBoxSize]
		boxConf := row[4]

		if boxConf < y.Params.BoxThreshold {
			continue
		}

		maxClassProb := row[5]
		maxClassID := 0

		for k := 1; k < classes; k++ {
			if row[5+k] > maxClassProb {
				maxClassProb = row[5+k]
				maxClassID = k
			}
		}

		score := boxConf * maxClassProb

		if score <= y.Params.BoxThreshold {
			continue
		}

		w := row[2]
		h := row[3]

		c.add(row[0]-w/2, row[1]-h/2, w, h, score, maxClassID)
	}

	return collate(c, y.Params, resizer, labels), nil
}
