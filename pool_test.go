package objectdash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestMatPoolReuse(t *testing.T) {

	p := NewMatPool(2)
	defer p.Close()

	src := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer src.Close()

	m := p.Clone(src)
	assert.Equal(t, 48, m.Rows())
	assert.Equal(t, 64, m.Cols())

	p.Return(m)
	assert.Equal(t, 1, p.Idle())

	again := p.Get()
	assert.Equal(t, 0, p.Idle())
	assert.Equal(t, 48, again.Rows())
	p.Return(again)
}

func TestMatPoolOverflowAndClose(t *testing.T) {

	p := NewMatPool(1)

	p.Return(gocv.NewMat())
	p.Return(gocv.NewMat())
	assert.Equal(t, 1, p.Idle())

	p.Close()
	p.Close()

	// returning after close frees the Mat rather than panicking
	assert.NotPanics(t, func() {
		p.Return(gocv.NewMat())
	})

	m := p.Get()
	assert.True(t, m.Empty())
	m.Close()
}
