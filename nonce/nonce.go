// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package nonce derives the deterministic 12-byte per-frame AEAD nonce from
// a stream salt and a frame index.
package nonce

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamzit02/rse1/errs"
)

// Len is the only nonce length this protocol supports.
const Len = 12

// Derive returns salt[0:12] with bytes [4:12) XOR'd against frameIndex
// encoded as a little-endian uint64. The salt must be at least 12 bytes
// long (only its first 12 bytes are used, so the stream header's 16-byte
// salt qualifies), and those 12 bytes must not be all-zero.
func Derive(salt []byte, frameIndex uint32) ([]byte, error) {
	if len(salt) < Len {
		return nil, errs.New(errs.KindNonce, "derive", fmt.Errorf("salt must be at least %d bytes, got %d", Len, len(salt)))
	}

	allZero := true
	for _, b := range salt[:Len] {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, errs.New(errs.KindNonce, "derive", fmt.Errorf("salt must not be all-zero"))
	}

	out := make([]byte, Len)
	copy(out, salt[:Len])

	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(frameIndex))
	for i := 0; i < 8; i++ {
		out[4+i] ^= idx[i]
	}

	return out, nil
}
