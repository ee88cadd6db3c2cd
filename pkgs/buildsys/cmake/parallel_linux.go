//go:build linux

package cmake

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// availableParallelism honours the CPU affinity mask the build was started
// with, which is smaller than NumCPU inside containers and CI runners.
func availableParallelism() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}
