// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package scheduler

import "sync"

// Target identifies which worker a unit of work was dispatched to.
type Target struct {
	GPU   bool
	Index int
}

// Scheduler tracks advisory load for a CPU worker pool and an optional GPU
// worker pool, and picks the least-loaded worker for each dispatch. It does
// not own thread identity: callers use the returned Target purely to decide
// which pool's channel to post work onto.
//
// Contention is negligible since dispatch is O(workers); a single mutex
// guards both load vectors.
type Scheduler struct {
	mu           sync.Mutex
	cpuLoad      []int
	gpuLoad      []int
	gpuThreshold int64
}

// New builds a Scheduler from a Profile.
func New(p *Profile) *Scheduler {
	return &Scheduler{
		cpuLoad:      make([]int, p.CPUWorkers),
		gpuLoad:      make([]int, p.GPUWorkers),
		gpuThreshold: p.GPUThresholdBytes,
	}
}

// Dispatch picks a worker for a unit of work sized size bytes. When GPU
// workers exist and size is at or above the GPU threshold, the least-loaded
// GPU worker is chosen; otherwise the least-loaded CPU worker is chosen.
// Dispatch increments the chosen worker's load; call Complete when the work
// finishes.
func (s *Scheduler) Dispatch(size int64) Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.gpuLoad) > 0 && size >= s.gpuThreshold {
		idx := leastLoaded(s.gpuLoad)
		s.gpuLoad[idx]++
		return Target{GPU: true, Index: idx}
	}

	idx := leastLoaded(s.cpuLoad)
	s.cpuLoad[idx]++
	return Target{GPU: false, Index: idx}
}

// Complete decrements the load of the worker identified by target.
func (s *Scheduler) Complete(target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target.GPU {
		if target.Index >= 0 && target.Index < len(s.gpuLoad) && s.gpuLoad[target.Index] > 0 {
			s.gpuLoad[target.Index]--
		}
		return
	}
	if target.Index >= 0 && target.Index < len(s.cpuLoad) && s.cpuLoad[target.Index] > 0 {
		s.cpuLoad[target.Index]--
	}
}

// Snapshot returns a copy of the current CPU and GPU load vectors, mostly
// useful for tests and telemetry.
func (s *Scheduler) Snapshot() (cpu, gpu []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpu = append([]int(nil), s.cpuLoad...)
	gpu = append([]int(nil), s.gpuLoad...)
	return cpu, gpu
}

func leastLoaded(load []int) int {
	best := 0
	for i := 1; i < len(load); i++ {
		if load[i] < load[best] {
			best = i
		}
	}
	return best
}
