// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamzit02/rse1/wire"
)

func TestCodecRoundTripAllVariants(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		[]byte("x"),
		[]byte("hello, world! hello, world! hello, world!"),
		make([]byte, 4096), // highly compressible all-zero chunk
	}

	for _, id := range []wire.Compression{wire.CompressionAuto, wire.CompressionZstd, wire.CompressionLZ4, wire.CompressionDeflate} {
		id := id
		for i, in := range inputs {
			in := in
			t.Run(codecName(id)+"/"+string(rune('a'+i)), func(t *testing.T) {
				t.Parallel()

				codec, err := New(id, nil)
				require.NoError(t, err)
				require.Equal(t, id, codec.ID())

				compressed, err := codec.CompressChunk(in)
				require.NoError(t, err)

				got, err := codec.DecompressChunk(compressed)
				require.NoError(t, err)
				require.Equal(t, in, got)
			})
		}
	}
}

func codecName(c wire.Compression) string {
	switch c {
	case wire.CompressionAuto:
		return "auto"
	case wire.CompressionZstd:
		return "zstd"
	case wire.CompressionLZ4:
		return "lz4"
	case wire.CompressionDeflate:
		return "deflate"
	default:
		return "unknown"
	}
}

func TestCompressedSizeNeverExceedsPlaintextEnvelopeInvariant(t *testing.T) {
	t.Parallel()

	// Highly compressible input: a real codec's *inner* compressed payload
	// should be markedly smaller than the plaintext, even though the outer
	// chunk envelope adds a small fixed overhead.
	in := make([]byte, 64*1024)

	for _, id := range []wire.Compression{wire.CompressionZstd, wire.CompressionLZ4, wire.CompressionDeflate} {
		codec, err := New(id, nil)
		require.NoError(t, err)

		out, err := codec.CompressChunk(in)
		require.NoError(t, err)
		require.Less(t, len(out), len(in))
	}
}

func TestDecompressChunkRejectsTruncatedEnvelope(t *testing.T) {
	t.Parallel()

	codec, err := New(wire.CompressionZstd, nil)
	require.NoError(t, err)

	compressed, err := codec.CompressChunk([]byte("some plaintext worth compressing"))
	require.NoError(t, err)

	truncated := compressed[:len(compressed)-2]
	_, err = codec.DecompressChunk(truncated)
	require.Error(t, err)
}

func TestDecompressChunkRejectsCRCMismatch(t *testing.T) {
	t.Parallel()

	codec, err := New(wire.CompressionAuto, nil)
	require.NoError(t, err)

	compressed, err := codec.CompressChunk([]byte("tamper target"))
	require.NoError(t, err)
	compressed[len(compressed)-1] ^= 0xFF

	_, err = codec.DecompressChunk(compressed)
	require.Error(t, err)
}

func TestNewRejectsUnsupportedCodec(t *testing.T) {
	t.Parallel()

	_, err := New(wire.Compression(99), nil)
	require.Error(t, err)
}

func TestNewWithStrategyHonorsLevel(t *testing.T) {
	t.Parallel()

	fast, err := NewWithStrategy(wire.CompressionZstd, nil, wire.StrategyFast)
	require.NoError(t, err)
	max, err := NewWithStrategy(wire.CompressionZstd, nil, wire.StrategyMax)
	require.NoError(t, err)

	in := bytesRepeat("abcdefgh", 8192)
	fastOut, err := fast.CompressChunk(in)
	require.NoError(t, err)
	maxOut, err := max.CompressChunk(in)
	require.NoError(t, err)

	// Both must still round-trip regardless of the level chosen.
	got, err := fast.DecompressChunk(fastOut)
	require.NoError(t, err)
	require.Equal(t, in, got)
	got, err = max.DecompressChunk(maxOut)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func bytesRepeat(s string, n int) []byte {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return out
}
