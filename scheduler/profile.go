// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package scheduler implements the load-aware dispatch of segment and frame
// work across CPU worker pools (and, when present, GPU worker slots) plus
// the parallelism profile that sizes those pools and the pipeline's
// bounded-channel depth.
package scheduler

import "runtime"

// Default tuning constants, overridable via ProfileOption.
const (
	DefaultGPUThreshold     = 4 * 1024 * 1024
	DefaultMemoryFraction   = 0.5
	DefaultInflightSegments = 64
)

// Profile describes the sized worker pools and scheduling thresholds for one
// pipeline run. It is built once from the host's core count
// (runtime.GOMAXPROCS) and the given options, then shared read-only across
// every worker. No memory or GPU adapter probing is done: GPUWorkers and
// MemoryFraction come from options or defaults only.
type Profile struct {
	CPUWorkers        int
	GPUWorkers        int
	GPUThresholdBytes int64
	InflightSegments  int
	MemoryFraction    float64
}

// ProfileOption customizes NewProfile.
type ProfileOption func(*Profile)

// WithCPUWorkers overrides the CPU worker pool size; the default is
// runtime.GOMAXPROCS(0).
func WithCPUWorkers(n int) ProfileOption {
	return func(p *Profile) { p.CPUWorkers = n }
}

// WithGPUWorkers sets the number of available GPU worker slots. GPU kernel
// execution itself is an external collaborator (see package doc); this
// profile only tracks how many slots exist for dispatch bookkeeping.
func WithGPUWorkers(n int) ProfileOption {
	return func(p *Profile) { p.GPUWorkers = n }
}

// WithGPUThreshold overrides the segment-size threshold, in bytes, at or
// above which the scheduler prefers a GPU worker slot when any are available.
func WithGPUThreshold(bytes int64) ProfileOption {
	return func(p *Profile) { p.GPUThresholdBytes = bytes }
}

// WithInflightSegments overrides the bounded-channel depth used by every
// pipeline stage.
func WithInflightSegments(n int) ProfileOption {
	return func(p *Profile) { p.InflightSegments = n }
}

// WithMemoryFraction sets the profile's MemoryFraction. The value is only
// recorded; nothing in this module reads it for buffer sizing.
func WithMemoryFraction(f float64) ProfileOption {
	return func(p *Profile) { p.MemoryFraction = f }
}

// NewProfile builds a Profile from the host's core count
// and the given options.
func NewProfile(opts ...ProfileOption) *Profile {
	p := &Profile{
		CPUWorkers:        runtime.GOMAXPROCS(0),
		GPUWorkers:        0,
		GPUThresholdBytes: DefaultGPUThreshold,
		InflightSegments:  DefaultInflightSegments,
		MemoryFraction:    DefaultMemoryFraction,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.CPUWorkers < 1 {
		p.CPUWorkers = 1
	}
	if p.InflightSegments < 1 {
		p.InflightSegments = 1
	}
	return p
}
