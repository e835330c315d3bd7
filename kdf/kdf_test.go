// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package kdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamzit02/rse1/wire"
)

func baseHeader() *wire.Header {
	h := &wire.Header{
		Version:     wire.StreamVersion,
		Cipher:      wire.CipherAES256GCM,
		HKDFPRF:     wire.PRFSHA256,
		Compression: wire.CompressionZstd,
		Strategy:    wire.StrategyBalanced,
		AADDomain:   wire.AADDomainGeneric,
		ChunkSize:   64 * 1024,
	}
	copy(h.Salt[:], []byte("0123456789abcdef"))
	return h
}

func TestDeriveSessionKeyDeterministic(t *testing.T) {
	t.Parallel()

	masterKey := bytes.Repeat([]byte{0x42}, 32)
	for _, prf := range []wire.PRF{wire.PRFSHA256, wire.PRFSHA512, wire.PRFSHA3_256, wire.PRFSHA3_512, wire.PRFBLAKE3Keyed} {
		h := baseHeader()
		h.HKDFPRF = prf

		a, err := DeriveSessionKey(masterKey, h)
		require.NoError(t, err)
		b, err := DeriveSessionKey(masterKey, h)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Len(t, a, SessionKeyLen)
	}
}

func TestDeriveSessionKeyVariesBySalt(t *testing.T) {
	t.Parallel()

	masterKey := bytes.Repeat([]byte{0x11}, 32)
	h1 := baseHeader()
	h2 := baseHeader()
	copy(h2.Salt[:], []byte("fedcba9876543210"))

	k1, err := DeriveSessionKey(masterKey, h1)
	require.NoError(t, err)
	k2, err := DeriveSessionKey(masterKey, h2)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}

func TestDeriveSessionKeyVariesByPolicyField(t *testing.T) {
	t.Parallel()

	masterKey := bytes.Repeat([]byte{0x11}, 32)
	h1 := baseHeader()
	h2 := baseHeader()
	h2.ChunkSize = 128 * 1024

	k1, err := DeriveSessionKey(masterKey, h1)
	require.NoError(t, err)
	k2, err := DeriveSessionKey(masterKey, h2)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}

func TestDeriveSessionKeyRejectsAllZeroSalt(t *testing.T) {
	t.Parallel()

	h := baseHeader()
	h.Salt = [16]byte{}

	_, err := DeriveSessionKey(bytes.Repeat([]byte{0x11}, 32), h)
	require.Error(t, err)
}

func TestDeriveSessionKeyRejectsBadMasterKeyLength(t *testing.T) {
	t.Parallel()

	_, err := DeriveSessionKey(make([]byte, 10), baseHeader())
	require.Error(t, err)
}

func TestDeriveSessionKeyAcceptsAllMasterKeyLengths(t *testing.T) {
	t.Parallel()

	for _, n := range []int{16, 24, 32} {
		_, err := DeriveSessionKey(make([]byte, n), baseHeader())
		require.NoError(t, err)
	}
}

func TestDeriveSessionKeyRejectsUnsupportedPRF(t *testing.T) {
	t.Parallel()

	h := baseHeader()
	h.HKDFPRF = wire.PRF(99)

	_, err := DeriveSessionKey(bytes.Repeat([]byte{0x11}, 32), h)
	require.Error(t, err)
}
