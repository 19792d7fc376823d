//go:build !linux

package objectdash

import "errors"

// ErrAffinityUnsupported is returned on platforms without thread affinity
var ErrAffinityUnsupported = errors.New("cpu affinity is only supported on linux")

// SetCPUAffinity is not supported on this platform
func SetCPUAffinity(mask uintptr) error {
	return ErrAffinityUnsupported
}

// GetCPUAffinity is not supported on this platform
func GetCPUAffinity() (uintptr, error) {
	return 0, ErrAffinityUnsupported
}
