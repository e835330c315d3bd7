// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamzit02/rse1/wire"
)

func TestSelectPresetTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        PresetInput
		wantCodec wire.Compression
		wantStrat wire.Strategy
	}{
		{
			name:      "low latency small stream favors lz4 fast",
			in:        PresetInput{StreamSize: 512 * 1024, LowLatency: true},
			wantCodec: wire.CompressionLZ4,
			wantStrat: wire.StrategyFast,
		},
		{
			name:      "archival forces zstd max regardless of size",
			in:        PresetInput{StreamSize: 10, Archival: true},
			wantCodec: wire.CompressionZstd,
			wantStrat: wire.StrategyMax,
		},
		{
			name:      "low bandwidth forces zstd max",
			in:        PresetInput{StreamSize: 10, LowBandwidth: true},
			wantCodec: wire.CompressionZstd,
			wantStrat: wire.StrategyMax,
		},
		{
			name:      "huge stream forces zstd max even without other hints",
			in:        PresetInput{StreamSize: largeStreamThreshold},
			wantCodec: wire.CompressionZstd,
			wantStrat: wire.StrategyMax,
		},
		{
			name:      "default mid-size stream is balanced zstd",
			in:        PresetInput{StreamSize: 10 * 1024 * 1024},
			wantCodec: wire.CompressionZstd,
			wantStrat: wire.StrategyBalanced,
		},
		{
			name:      "low latency hint ignored once stream crosses small threshold",
			in:        PresetInput{StreamSize: smallStreamThreshold, LowLatency: true},
			wantCodec: wire.CompressionZstd,
			wantStrat: wire.StrategyBalanced,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotCodec, gotStrat := SelectPreset(tc.in)
			require.Equal(t, tc.wantCodec, gotCodec)
			require.Equal(t, tc.wantStrat, gotStrat)
		})
	}
}

func TestZstdLevelForStrategyCoversAllStrategies(t *testing.T) {
	t.Parallel()

	for _, s := range []wire.Strategy{wire.StrategyFast, wire.StrategyBalanced, wire.StrategyMax} {
		require.NotNil(t, zstdLevelForStrategy(s))
	}
}

func TestFlateLevelForStrategyCoversAllStrategies(t *testing.T) {
	t.Parallel()

	require.Less(t, 0, flateLevelForStrategy(wire.StrategyMax))
	require.Equal(t, -1, flateLevelForStrategy(wire.StrategyBalanced))
}
