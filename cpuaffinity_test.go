package objectdash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUCores(t *testing.T) {

	tests := []struct {
		in   string
		want []int
		mask uintptr
	}{
		{in: "", want: nil, mask: 0},
		{in: "0", want: []int{0}, mask: 0x1},
		{in: "0,2", want: []int{0, 2}, mask: 0x5},
		{in: "4-7", want: []int{4, 5, 6, 7}, mask: 0xf0},
		{in: " 1, 4-5 ,", want: []int{1, 4, 5}, mask: 0x32},
	}

	for _, tt := range tests {
		got, err := ParseCPUCores(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.mask, CPUCoreMask(got), tt.in)
	}
}

func TestParseCPUCoresInvalid(t *testing.T) {
	for _, in := range []string{"a", "3-1", "-1", "0-64", "2-x"} {
		_, err := ParseCPUCores(in)
		assert.Error(t, err, in)
	}
}
