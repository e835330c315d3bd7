// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func validHeader() *Header {
	h := &Header{
		Version:     StreamVersion,
		Cipher:      CipherAES256GCM,
		HKDFPRF:     PRFSHA256,
		Compression: CompressionZstd,
		Strategy:    StrategyBalanced,
		AADDomain:   AADDomainGeneric,
		ChunkSize:   64 * 1024,
	}
	copy(h.Salt[:], []byte("0123456789abcdef"))
	return h
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.DictID = 7
	h.Flags |= FlagDictUsed
	h.KeyID = 42
	h.ParallelHint = 8
	h.PlaintextSize = 1 << 20
	h.EncTimeNanos = 123456789

	buf, err := h.Encode()
	require.NoError(t, err)
	require.Len(t, buf, HeaderLen)
	require.Equal(t, "RSE1", string(buf[0:4]))

	got, err := Decode(buf)
	require.NoError(t, err)
	if report := cmp.Diff(h, got); report != "" {
		t.Fatalf("decoded header mismatch (-want +got):\n%s", report)
	}
}

func TestHeaderDecodeRejectsBadMagic(t *testing.T) {
	t.Parallel()

	h := validHeader()
	buf, err := h.Encode()
	require.NoError(t, err)
	buf[0] ^= 0xFF

	_, err = Decode(buf)
	require.Error(t, err)
}

func TestHeaderDecodeRejectsBadCRC(t *testing.T) {
	t.Parallel()

	h := validHeader()
	buf, err := h.Encode()
	require.NoError(t, err)
	buf[10] ^= 0xAA // perturb a byte covered by the CRC without touching magic

	_, err = Decode(buf)
	require.Error(t, err)
}

func TestHeaderDecodeRejectsNonZeroReserved(t *testing.T) {
	t.Parallel()

	h := validHeader()
	buf, err := h.Encode()
	require.NoError(t, err)
	buf[72] = 1

	_, err = Decode(buf)
	require.Error(t, err)
}

func TestHeaderDecodeRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := Decode(make([]byte, HeaderLen-1))
	require.Error(t, err)
}

func TestHeaderEncodeRejectsUnknownCipher(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Cipher = 99
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsUnknownPRF(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.HKDFPRF = 99
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsZeroChunkSize(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.ChunkSize = 0
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsOversizeChunkSize(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.ChunkSize = MaxChunkSize + 1
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsAllZeroSalt(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Salt = [16]byte{}
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsDictUsedWithoutDictID(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Flags |= FlagDictUsed
	h.DictID = 0
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsDictIDWithoutDictUsed(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.DictID = 5
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderEncodeRejectsUnknownFlagBits(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Flags = 0x8000
	_, err := h.Encode()
	require.Error(t, err)
}

func TestHeaderDecodeRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Version = StreamVersion + 1
	buf, err := h.Encode()
	require.NoError(t, err)

	_, err = Decode(buf)
	require.Error(t, err)
}

func TestHeaderEncodeRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	h := validHeader()
	h.Strategy = 99
	_, err := h.Encode()
	require.Error(t, err)
}
