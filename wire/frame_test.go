// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameHeaderEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{
		Type:          FrameData,
		SegmentIndex:  2,
		FrameIndex:    7,
		PlaintextLen:  100,
		CiphertextLen: 116,
	}
	buf, err := fh.Encode()
	require.NoError(t, err)
	require.Len(t, buf, FrameHeaderLen)
	require.Equal(t, "SV2F", string(buf[0:4]))

	wireLen := FrameHeaderLen + int(fh.CiphertextLen)
	got, err := DecodeFrameHeader(buf, wireLen)
	require.NoError(t, err)
	require.Equal(t, fh.Type, got.Type)
	require.Equal(t, fh.SegmentIndex, got.SegmentIndex)
	require.Equal(t, fh.FrameIndex, got.FrameIndex)
	require.Equal(t, fh.PlaintextLen, got.PlaintextLen)
	require.Equal(t, fh.CiphertextLen, got.CiphertextLen)
}

func TestTerminatorFrameMustHaveZeroCiphertextLen(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameTerminator, CiphertextLen: 1}
	_, err := fh.Encode()
	require.Error(t, err)
}

func TestNonTerminatorFrameMustHaveNonZeroCiphertextLen(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameData, CiphertextLen: 0}
	_, err := fh.Encode()
	require.Error(t, err)
}

func TestFrameHeaderEncodeRejectsInvalidType(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: 99, CiphertextLen: 4}
	_, err := fh.Encode()
	require.Error(t, err)
}

func TestDecodeFrameHeaderRejectsBadMagic(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameData, CiphertextLen: 4}
	buf, err := fh.Encode()
	require.NoError(t, err)
	buf[0] ^= 0xFF

	_, err = DecodeFrameHeader(buf, len(buf))
	require.Error(t, err)
}

func TestDecodeFrameHeaderRejectsBadVersion(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameData, CiphertextLen: 4}
	buf, err := fh.Encode()
	require.NoError(t, err)
	buf[4] = 99

	_, err = DecodeFrameHeader(buf, len(buf))
	require.Error(t, err)
}

func TestDecodeFrameHeaderRejectsWireLenMismatch(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameData, CiphertextLen: 4}
	buf, err := fh.Encode()
	require.NoError(t, err)

	_, err = DecodeFrameHeader(buf, len(buf)+1)
	require.Error(t, err)
}

func TestDecodeFrameHeaderRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := DecodeFrameHeader(make([]byte, FrameHeaderLen-1), FrameHeaderLen)
	require.Error(t, err)
}

func TestPeekCiphertextLen(t *testing.T) {
	t.Parallel()

	fh := &FrameHeader{Type: FrameData, CiphertextLen: 42}
	buf, err := fh.Encode()
	require.NoError(t, err)

	n, err := PeekCiphertextLen(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), n)
}

func TestPeekCiphertextLenRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := PeekCiphertextLen(make([]byte, 3))
	require.Error(t, err)
}
