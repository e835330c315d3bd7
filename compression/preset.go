// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"compress/flate"

	"github.com/klauspost/compress/zstd"

	"github.com/dreamzit02/rse1/wire"
)

// smallStreamThreshold is the stream size below which low-latency callers
// get routed to LZ4 instead of zstd.
const smallStreamThreshold = 1 * 1024 * 1024

// largeStreamThreshold is the stream size at or above which archival-grade
// compression is selected regardless of the caller's other hints.
const largeStreamThreshold = 100 * 1024 * 1024

// PresetInput carries the policy inputs to SelectPreset. It is a pure
// function of these fields: the same input always maps to the same
// (codec, strategy) pair, which both sides of a stream must agree on since
// the mapping chooses what goes into the stream header.
type PresetInput struct {
	StreamSize   int64
	Archival     bool
	LowBandwidth bool
	LowLatency   bool
	HasDict      bool
}

// SelectPreset maps a PresetInput to a (codec, strategy) preset.
func SelectPreset(in PresetInput) (wire.Compression, wire.Strategy) {
	switch {
	case in.LowLatency && in.StreamSize > 0 && in.StreamSize < smallStreamThreshold:
		return wire.CompressionLZ4, wire.StrategyFast
	case in.Archival || in.LowBandwidth || in.StreamSize >= largeStreamThreshold:
		return wire.CompressionZstd, wire.StrategyMax
	case in.StreamSize < largeStreamThreshold:
		return wire.CompressionZstd, wire.StrategyBalanced
	default:
		return wire.CompressionZstd, wire.StrategyBalanced
	}
}

func zstdLevelForStrategy(s wire.Strategy) zstd.EncoderLevel {
	switch s {
	case wire.StrategyMax:
		return zstd.SpeedBestCompression
	case wire.StrategyFast:
		return zstd.SpeedFastest
	case wire.StrategyBalanced:
		return zstd.SpeedDefault
	default:
		return zstd.SpeedDefault
	}
}

func flateLevelForStrategy(s wire.Strategy) int {
	switch s {
	case wire.StrategyMax:
		return flate.BestCompression
	case wire.StrategyFast:
		return flate.BestSpeed
	case wire.StrategyBalanced:
		return flate.DefaultCompression
	default:
		return flate.DefaultCompression
	}
}
