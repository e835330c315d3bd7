// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package kdf derives the per-stream 32-byte session key from a master key
// and a validated stream header, binding every policy bit of the header
// into the derivation so that altering any of them invalidates the session
// key (and therefore every frame sealed under it).
package kdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// SessionKeyLen is the length of the derived session key.
const SessionKeyLen = 32

// blake3DeriveLabel is the fixed context string for the BLAKE3 derive-key
// PRF variant. It is part of the wire contract: changing it changes every
// session key derived under PRFBLAKE3Keyed.
const blake3DeriveLabel = "RSE1|HKDF|SESSION"

// DeriveSessionKey derives the 32-byte session key from masterKey and the
// already-validated stream header h. The HKDF info parameter is the
// little-endian concatenation of every policy field in the header, per the
// wire contract: magic, version, alg_profile, cipher, hkdf_prf, compression,
// strategy, aad_domain, flags, chunk_size, key_id.
func DeriveSessionKey(masterKey []byte, h *wire.Header) ([]byte, error) {
	if len(masterKey) != 16 && len(masterKey) != 24 && len(masterKey) != 32 {
		return nil, errs.New(errs.KindValidation, "derive_session_key", fmt.Errorf("master key must be 16, 24, or 32 bytes, got %d", len(masterKey)))
	}

	allZero := true
	for _, b := range h.Salt {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, errs.New(errs.KindNonce, "derive_session_key", fmt.Errorf("salt must not be all-zero"))
	}

	info := buildInfo(h)

	out := make([]byte, SessionKeyLen)
	switch h.HKDFPRF {
	case wire.PRFSHA256:
		r := hkdf.New(sha256.New, masterKey, h.Salt[:], info)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, errs.New(errs.KindCrypto, "derive_session_key", fmt.Errorf("hkdf-sha256 expand failed: %w", err))
		}
	case wire.PRFSHA512:
		r := hkdf.New(sha512.New, masterKey, h.Salt[:], info)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, errs.New(errs.KindCrypto, "derive_session_key", fmt.Errorf("hkdf-sha512 expand failed: %w", err))
		}
	case wire.PRFSHA3_256:
		r := hkdf.New(sha3.New256, masterKey, h.Salt[:], info)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, errs.New(errs.KindCrypto, "derive_session_key", fmt.Errorf("hkdf-sha3-256 expand failed: %w", err))
		}
	case wire.PRFSHA3_512:
		r := hkdf.New(sha3.New512, masterKey, h.Salt[:], info)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, errs.New(errs.KindCrypto, "derive_session_key", fmt.Errorf("hkdf-sha3-512 expand failed: %w", err))
		}
	case wire.PRFBLAKE3Keyed:
		material := make([]byte, 0, len(masterKey)+len(h.Salt)+len(info))
		material = append(material, masterKey...)
		material = append(material, h.Salt[:]...)
		material = append(material, info...)
		blake3.DeriveKey(out, blake3DeriveLabel, material)
	default:
		return nil, errs.New(errs.KindCrypto, "derive_session_key", fmt.Errorf("unsupported hkdf prf id %d", h.HKDFPRF))
	}

	return out, nil
}

// buildInfo encodes the little-endian concatenation of every header policy
// field bound into the session key derivation.
func buildInfo(h *wire.Header) []byte {
	buf := make([]byte, 0, 4+2*9+4+4)
	buf = append(buf, wire.StreamMagic[:]...)

	put16 := func(v uint16) { buf = binary.LittleEndian.AppendUint16(buf, v) }
	put32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	put16(h.Version)
	put16(h.AlgProfile)
	put16(uint16(h.Cipher))
	put16(uint16(h.HKDFPRF))
	put16(uint16(h.Compression))
	put16(uint16(h.Strategy))
	put16(uint16(h.AADDomain))
	put16(uint16(h.Flags))
	put32(h.ChunkSize)
	put32(h.KeyID)

	return buf
}
