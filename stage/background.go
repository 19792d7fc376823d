package stage

import (
	"image"

	"github.com/swdee/go-objectdash/pipeline"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// BackgroundSubtractor blanks out the stationary parts of a frame,
// accumulating a MOG2 background model across frames
type BackgroundSubtractor struct {
	mog2   gocv.BackgroundSubtractorMOG2
	kernel gocv.Mat
	mask   gocv.Mat
	out    gocv.Mat
}

var _ pipeline.Handler = (*BackgroundSubtractor)(nil)

// NewBackgroundSubtractor returns a subtractor using a 5x5 morphology kernel
func NewBackgroundSubtractor() *BackgroundSubtractor {
	return &BackgroundSubtractor{
		mog2:   gocv.NewBackgroundSubtractorMOG2(),
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5)),
		mask:   gocv.NewMat(),
		out:    gocv.NewMat(),
	}
}

// ApplyFirst masks the first frame
func (b *BackgroundSubtractor) ApplyFirst(frame gocv.Mat) (gocv.Mat, error) {
	return b.Apply(frame)
}

// Apply returns frame with everything outside the motion mask set to black.
// The returned Mat is owned by the subtractor and reused on the next call.
func (b *BackgroundSubtractor) Apply(frame gocv.Mat) (gocv.Mat, error) {

	b.mog2.Apply(frame, &b.mask)

	// close small holes then grow the mask to cover object edges
	gocv.MorphologyEx(b.mask, &b.mask, gocv.MorphClose, b.kernel)
	gocv.Dilate(b.mask, &b.mask, b.kernel)

	// pixels outside the mask are left untouched so the output is cleared
	if b.out.Rows() != frame.Rows() || b.out.Cols() != frame.Cols() ||
		b.out.Type() != frame.Type() {
		b.out.Close()
		b.out = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
			frame.Rows(), frame.Cols(), frame.Type())
	} else {
		b.out.SetTo(gocv.NewScalar(0, 0, 0, 0))
	}

	gocv.BitwiseAndWithMask(frame, frame, &b.out, b.mask)

	return b.out, nil
}

// Close releases the background model and buffers
func (b *BackgroundSubtractor) Close() error {
	return multierr.Combine(
		b.mog2.Close(),
		b.kernel.Close(),
		b.mask.Close(),
		b.out.Close(),
	)
}
