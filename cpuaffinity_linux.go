package objectdash

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxMaskCores is the number of cores a uintptr mask can address
const maxMaskCores = 64

// SetCPUAffinity sets the CPU Affinity mask of the calling OS thread to run on
// the specified cores.  Callers wanting to pin a goroutine must hold it on
// its thread with runtime.LockOSThread first.
func SetCPUAffinity(mask uintptr) error {

	var set unix.CPUSet

	for core := 0; core < maxMaskCores; core++ {
		if mask&(1<<core) != 0 {
			set.Set(core)
		}
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to set CPU affinity: %w", err)
	}

	return nil
}

// GetCPUAffinity gets the CPU Affinity mask of the calling OS thread
func GetCPUAffinity() (uintptr, error) {

	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, fmt.Errorf("failed to get CPU affinity: %w", err)
	}

	var mask uintptr

	for core := 0; core < maxMaskCores; core++ {
		if set.IsSet(core) {
			mask |= 1 << core
		}
	}

	return mask, nil
}
