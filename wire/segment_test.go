// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentHeaderEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	wirePayload := []byte("some sealed frame bytes")
	sh := &SegmentHeader{
		SegmentIndex: 3,
		BytesLen:     64 * 1024,
		WireLen:      uint32(len(wirePayload)),
		WireCRC32:    ComputeWireCRC32(wirePayload),
		FrameCount:   4,
		DigestAlg:    5,
		Flags:        SegmentCompressed,
	}

	buf, err := sh.Encode()
	require.NoError(t, err)
	require.Len(t, buf, SegmentHeaderLen)

	got, err := DecodeSegmentHeader(buf)
	require.NoError(t, err)
	require.Equal(t, sh.SegmentIndex, got.SegmentIndex)
	require.Equal(t, sh.BytesLen, got.BytesLen)
	require.Equal(t, sh.WireLen, got.WireLen)
	require.Equal(t, sh.WireCRC32, got.WireCRC32)
	require.Equal(t, sh.FrameCount, got.FrameCount)
	require.Equal(t, sh.DigestAlg, got.DigestAlg)
	require.Equal(t, sh.Flags, got.Flags)

	require.NoError(t, got.VerifyWireCRC32(wirePayload))
}

func TestSegmentHeaderVerifyWireCRC32Mismatch(t *testing.T) {
	t.Parallel()

	sh := &SegmentHeader{WireCRC32: 0xdeadbeef}
	err := sh.VerifyWireCRC32([]byte("anything"))
	require.Error(t, err)
}

func TestSegmentHeaderFinalMustHaveZeroWireLen(t *testing.T) {
	t.Parallel()

	sh := &SegmentHeader{Flags: SegmentFinal, WireLen: 1}
	_, err := sh.Encode()
	require.Error(t, err)
}

func TestSegmentHeaderRejectsUnknownFlags(t *testing.T) {
	t.Parallel()

	sh := &SegmentHeader{Flags: 0x8000}
	_, err := sh.Encode()
	require.Error(t, err)
}

func TestDecodeSegmentHeaderRejectsNonZeroReserved(t *testing.T) {
	t.Parallel()

	sh := &SegmentHeader{}
	buf, err := sh.Encode()
	require.NoError(t, err)
	buf[24] = 1

	_, err = DecodeSegmentHeader(buf)
	require.Error(t, err)
}

func TestDecodeSegmentHeaderRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := DecodeSegmentHeader(make([]byte, SegmentHeaderLen-1))
	require.Error(t, err)
}

func TestFinalSegmentRoundTrip(t *testing.T) {
	t.Parallel()

	sh := &SegmentHeader{SegmentIndex: 9, Flags: SegmentFinal}
	buf, err := sh.Encode()
	require.NoError(t, err)

	got, err := DecodeSegmentHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(9), got.SegmentIndex)
	require.True(t, got.Flags&SegmentFinal != 0)
	require.Equal(t, uint32(0), got.WireLen)
}
