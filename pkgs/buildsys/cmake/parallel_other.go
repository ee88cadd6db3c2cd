//go:build !linux

package cmake

import "runtime"

func availableParallelism() int {
	return runtime.NumCPU()
}
