// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSupportsEveryAlg(t *testing.T) {
	t.Parallel()

	for _, alg := range []Alg{AlgSHA256, AlgSHA512, AlgSHA3_256, AlgSHA3_512, AlgBLAKE3} {
		h, err := New(alg)
		require.NoError(t, err)
		require.NotNil(t, h)
	}
}

func TestNewRejectsUnknownAlg(t *testing.T) {
	t.Parallel()

	_, err := New(Alg(99))
	require.Error(t, err)
}

func TestSegmentDigestIsDeterministicAndOrderSensitive(t *testing.T) {
	t.Parallel()

	build := func(order []uint32) []byte {
		h, err := New(AlgBLAKE3)
		require.NoError(t, err)
		WriteHeader(h, 1, 3)
		for _, idx := range order {
			WriteFrame(h, idx, []byte{byte(idx)})
		}
		return h.Sum(nil)
	}

	a := build([]uint32{0, 1})
	b := build([]uint32{0, 1})
	require.Equal(t, a, b)

	c := build([]uint32{1, 0})
	require.NotEqual(t, a, c)
}

func TestSegmentDigestSensitiveToHeaderFields(t *testing.T) {
	t.Parallel()

	h1, err := New(AlgBLAKE3)
	require.NoError(t, err)
	WriteHeader(h1, 1, 3)
	WriteFrame(h1, 0, []byte("x"))
	sum1 := h1.Sum(nil)

	h2, err := New(AlgBLAKE3)
	require.NoError(t, err)
	WriteHeader(h2, 2, 3) // different segment_index
	WriteFrame(h2, 0, []byte("x"))
	sum2 := h2.Sum(nil)

	require.NotEqual(t, sum1, sum2)
}

func TestDigestPlaintextEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	sum := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf := EncodePlaintext(AlgBLAKE3, sum)

	alg, got, err := DecodePlaintext(buf)
	require.NoError(t, err)
	require.Equal(t, AlgBLAKE3, alg)
	require.Equal(t, sum, got)
}

func TestDecodePlaintextRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	_, _, err := DecodePlaintext([]byte{0, 1, 0})
	require.Error(t, err)
}

func TestDecodePlaintextRejectsLengthMismatch(t *testing.T) {
	t.Parallel()

	buf := EncodePlaintext(AlgBLAKE3, []byte{1, 2, 3, 4})
	buf = buf[:len(buf)-1] // truncate a declared-length digest

	_, _, err := DecodePlaintext(buf)
	require.Error(t, err)
}
