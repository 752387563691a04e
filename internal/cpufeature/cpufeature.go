// Package cpufeature probes the host CPU once and caches the result so the
// predictor package can pick a dot-product/adapt variant without re-querying
// the OS on every frame.
package cpufeature

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Set reports which vectorized code paths the current process may use.
type Set struct {
	HasAVX2 bool
	HasAVX  bool
	HasSSE2 bool
}

var (
	once    sync.Once
	current Set
)

// Detect returns the process-wide feature set, probing the host exactly
// once regardless of how many callers ask.
func Detect() Set {
	once.Do(func() {
		current = Set{
			HasAVX2: cpu.X86.HasAVX2,
			HasAVX:  cpu.X86.HasAVX,
			HasSSE2: cpu.X86.HasSSE2,
		}
	})
	return current
}
