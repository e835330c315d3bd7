// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStageStringCoversKnownStages(t *testing.T) {
	t.Parallel()

	want := map[Stage]string{
		StageRead:           "read",
		StageCompress:       "compress",
		StageSegmentEncrypt: "segment_encrypt",
		StageSegmentDecrypt: "segment_decrypt",
		StageDecompress:     "decompress",
		StageWrite:          "write",
	}
	for stage, name := range want {
		require.Equal(t, name, stage.String())
	}
	require.Equal(t, "unknown", Stage(999).String())
}

func TestRecordAccumulatesPerStage(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Record(StageRead, 10*time.Millisecond, 100, 1)
	r.Record(StageRead, 20*time.Millisecond, 200, 1)
	r.Record(StageWrite, 5*time.Millisecond, 50, 1)

	snap := r.Snapshot()
	byStage := map[Stage]StageSnapshot{}
	for _, s := range snap.Stages {
		byStage[s.Stage] = s
	}

	read := byStage[StageRead]
	require.Equal(t, 30*time.Millisecond, read.Duration)
	require.Equal(t, int64(300), read.Bytes)
	require.Equal(t, int64(2), read.Frames)

	write := byStage[StageWrite]
	require.Equal(t, 5*time.Millisecond, write.Duration)
	require.Equal(t, int64(50), write.Bytes)
	require.Equal(t, int64(1), write.Frames)
}

func TestRecordIgnoresOutOfRangeStage(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Record(Stage(-1), time.Second, 1, 1)
	r.Record(Stage(999), time.Second, 1, 1)

	snap := r.Snapshot()
	for _, s := range snap.Stages {
		require.Zero(t, s.Bytes)
		require.Zero(t, s.Frames)
	}
}

func TestSnapshotElapsedBoundsStageDurations(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Record(StageRead, time.Millisecond, 1, 1)
	time.Sleep(2 * time.Millisecond)

	snap := r.Snapshot()
	require.Greater(t, snap.Elapsed, time.Duration(0))
	var total time.Duration
	for _, s := range snap.Stages {
		total += s.Duration
	}
	require.LessOrEqual(t, total, snap.Elapsed)
}

func TestSnapshotReturnsEveryTrackedStage(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	snap := r.Snapshot()
	require.Len(t, snap.Stages, 6)
}
