// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	require.NoError(t, sc.Err())
	return n
}

func waitForLines(t *testing.T, path string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil && countLines(t, path) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines in %s", n, path)
}

func TestRecorderAppendAndClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")

	r, err := Open(path, DefaultRotationLimit)
	require.NoError(t, err)

	r.AppendScheduler("dispatch cpu=0 size=1024")
	r.AppendEncrypt([]byte("segment-0-outcome"))
	r.AppendDecrypt([]byte("segment-0-outcome"))

	require.NoError(t, r.Close())

	entries, err := Replay(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, KindScheduler, entries[0].Kind)
	require.Equal(t, KindEncrypt, entries[1].Kind)
	require.Equal(t, []byte("segment-0-outcome"), entries[1].Payload)
	require.Equal(t, KindDecrypt, entries[2].Kind)
}

func TestRecorderRotatesAfterLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")

	r, err := Open(path, 3)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 3; i++ {
		r.AppendScheduler("tick")
	}
	r.Rotate() // forces one more rotation; it only enqueues the request, so the loop below polls for a rotated file

	deadline := time.Now().Add(2 * time.Second)
	var rotated bool
	for time.Now().Before(deadline) {
		matches, _ := filepath.Glob(path + ".*")
		if len(matches) > 0 {
			rotated = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, rotated, "expected a rotated journal file to appear")
}

func TestReplaySkipsCorruptLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")

	content := strings.Join([]string{
		"SCHEDULER: dispatch cpu=0",
		"this line is garbage and matches no known format",
		"ENCRYPT: not-valid-base64!!!",
		"SCHEDULER: dispatch cpu=1",
	}, "\n") + "\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := Replay(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "dispatch cpu=0", entries[0].Text)
	require.Equal(t, "dispatch cpu=1", entries[1].Text)
}

func TestReplayMissingFileReturnsNoEntries(t *testing.T) {
	t.Parallel()

	entries, err := Replay(filepath.Join(t.TempDir(), "missing.log"))
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestReplayRecoversResumeMarkerFromSchedulerLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")

	r, err := Open(path, DefaultRotationLimit)
	require.NoError(t, err)

	marker, err := BuildResumeMarker(ResumeMarker{SegmentIndex: 3, NextFrame: 9, Alg: 5})
	require.NoError(t, err)
	r.AppendScheduler("dispatch cpu=0 size=512")
	r.AppendResumeMarker(marker)
	require.NoError(t, r.Close())

	entries, err := Replay(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	last := LastResumeMarker(entries)
	require.NotNil(t, last)
	require.Equal(t, uint32(3), last.SegmentIndex)
	require.Equal(t, uint32(9), last.NextFrame)
	require.Equal(t, uint16(5), last.Alg)
	require.Nil(t, last.State)
}
