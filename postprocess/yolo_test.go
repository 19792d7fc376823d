package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-objectdash/preprocess"
	"github.com/swdee/go-objectdash/tracker"
)

var testLabels = []tracker.Label{
	{ID: 0, Name: "person"},
	{ID: 1, Name: "car"},
}

// box is a center format box with per class scores in model input pixels
type box struct {
	cx, cy, w, h float32
	scores       []float32
}

// yolov8Output lays boxes out channel major as [1, 4+classes, anchors]
func yolov8Output(boxes []box, classes int) ([]float32, []int) {

	attrs := 4 + classes
	out := make([]float32, attrs*len(boxes))

	for i, b := range boxes {
		vals := append([]float32{b.cx, b.cy, b.w, b.h}, b.scores...)

		for a, v := range vals {
			out[a*len(boxes)+i] = v
		}
	}

	return out, []int{1, attrs, len(boxes)}
}

// yolov5Output lays boxes out row major as [1, anchors, 5+classes] with
// objectness fixed at obj
func yolov5Output(boxes []box, classes int, obj float32) ([]float32, []int) {

	size := 5 + classes
	out := make([]float32, 0, size*len(boxes))

	for _, b := range boxes {
		out = append(out, b.cx, b.cy, b.w, b.h, obj)
		out = append(out, b.scores...)
	}

	return out, []int{1, len(boxes), size}
}

var testBoxes = []box{
	// maps to (0.25,0.25)-(0.5,0.5) on a 640x480 frame
	{cx: 240, cy: 260, w: 160, h: 120, scores: []float32{0.9, 0.1}},
	// near duplicate of the first, removed by NMS
	{cx: 242, cy: 261, w: 160, h: 120, scores: []float32{0.8, 0.0}},
	{cx: 480, cy: 400, w: 64, h: 64, scores: []float32{0.05, 0.6}},
	// below the box threshold
	{cx: 100, cy: 100, w: 20, h: 20, scores: []float32{0.1, 0.2}},
}

func testParams() Params {
	p := COCOParams()
	p.ObjectClassNum = 2
	return p
}

func TestYOLOv8Decode(t *testing.T) {

	resizer := preprocess.NewResizer(640, 480, 640, 640)
	defer resizer.Close()

	out, dims := yolov8Output(testBoxes, 2)

	batch, err := NewYOLOv8(testParams()).Decode(out, dims, resizer, testLabels)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "person", batch[0].Label.Name)
	assert.InDelta(t, 0.9, batch[0].Score, 1e-6)
	assert.InDelta(t, 0.25, batch[0].Rect.X1, 1e-6)
	assert.InDelta(t, 0.25, batch[0].Rect.Y1, 1e-6)
	assert.InDelta(t, 0.5, batch[0].Rect.X2, 1e-6)
	assert.InDelta(t, 0.5, batch[0].Rect.Y2, 1e-6)

	assert.Equal(t, "car", batch[1].Label.Name)
	assert.InDelta(t, 0.6, batch[1].Score, 1e-6)
}

func TestYOLOv8DecodeTransposed(t *testing.T) {

	resizer := preprocess.NewResizer(640, 480, 640, 640)
	defer resizer.Close()

	// row major [1, anchors, 4+classes]
	var out []float32

	for _, b := range testBoxes {
		out = append(out, b.cx, b.cy, b.w, b.h)
		out = append(out, b.scores...)
	}

	batch, err := NewYOLOv8(testParams()).Decode(out, []int{1, len(testBoxes), 6},
		resizer, testLabels)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestYOLOv5Decode(t *testing.T) {

	resizer := preprocess.NewResizer(640, 480, 640, 640)
	defer resizer.Close()

	out, dims := yolov5Output(testBoxes, 2, 1.0)

	batch, err := NewYOLOv5(testParams()).Decode(out, dims, resizer, testLabels)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "person", batch[0].Label.Name)
	assert.InDelta(t, 0.25, batch[0].Rect.X1, 1e-6)
	assert.Equal(t, "car", batch[1].Label.Name)

	// low objectness drops every box
	out, dims = yolov5Output(testBoxes, 2, 0.2)
	batch, err = NewYOLOv5(testParams()).Decode(out, dims, resizer, testLabels)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestDecodeRejectsBadShape(t *testing.T) {

	resizer := preprocess.NewResizer(640, 480, 640, 640)
	defer resizer.Close()

	_, err := NewYOLOv8(testParams()).Decode(make([]float32, 10), []int{1, 6, 3}, resizer, testLabels)
	assert.Error(t, err)

	_, err = NewYOLOv5(testParams()).Decode(make([]float32, 18), []int{1, 2, 9}, resizer, testLabels)
	assert.Error(t, err)
}

func TestDecodeMaxObjects(t *testing.T) {

	resizer := preprocess.NewResizer(640, 480, 640, 640)
	defer resizer.Close()

	p := testParams()
	p.MaxObjectNumber = 1

	out, dims := yolov8Output(testBoxes, 2)

	batch, err := NewYOLOv8(p).Decode(out, dims, resizer, testLabels)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.InDelta(t, 0.9, batch[0].Score, 1e-6)
}

func TestNMSKeepsOtherClasses(t *testing.T) {

	boxes := []float32{
		10, 10, 100, 100,
		12, 12, 100, 100,
		11, 11, 100, 100,
	}
	classIDs := []int{0, 0, 1}
	order := []int{0, 1, 2}

	nms(boxes, classIDs, order, 0, 0.45)
	nms(boxes, classIDs, order, 1, 0.45)

	assert.Equal(t, []int{0, -1, 2}, order)
}

func TestQuickSortIndiceInverse(t *testing.T) {

	probs := []float32{0.2, 0.9, 0.5, 0.7}
	indices := []int{0, 1, 2, 3}

	quickSortIndiceInverse(probs, 0, len(probs)-1, indices)

	assert.Equal(t, []float32{0.9, 0.7, 0.5, 0.2}, probs)
	assert.Equal(t, []int{1, 3, 2, 0}, indices)
}

func TestNewDecoder(t *testing.T) {

	d, err := NewDecoder("v5", COCOParams())
	require.NoError(t, err)
	assert.IsType(t, &YOLOv5{}, d)

	d, err = NewDecoder("v8", COCOParams())
	require.NoError(t, err)
	assert.IsType(t, &YOLOv8{}, d)

	_, err = NewDecoder("v3", COCOParams())
	assert.Error(t, err)
}
