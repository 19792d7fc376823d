package objectdash

import (
	"fmt"
	"strconv"
	"strings"
)

// CPUCoreMask calculates the core mask by passing in the CPU core numbers as a
// slice, eg: []int{4,5,6,7}
func CPUCoreMask(cores []int) uintptr {

	var mask uintptr

	for _, core := range cores {
		mask |= 1 << core
	}

	return mask
}

// ParseCPUCores parses a core list such as "0,2,4-7" into core numbers
func ParseCPUCores(s string) ([]int, error) {

	var cores []int

	for _, part := range strings.Split(s, ",") {

		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")

		start, err := strconv.Atoi(strings.TrimSpace(lo))

		if err != nil {
			return nil, fmt.Errorf("invalid cpu core %q: %w", part, err)
		}

		end := start

		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid cpu core range %q: %w", part, err)
			}
		}

		if start < 0 || end < start || end >= 64 {
			return nil, fmt.Errorf("invalid cpu core range %q", part)
		}

		for c := start; c <= end; c++ {
			cores = append(cores, c)
		}
	}

	return cores, nil
}
