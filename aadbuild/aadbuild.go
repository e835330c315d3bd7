// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package aadbuild constructs the additional authenticated data bound into
// every frame's AEAD seal. The encoding is a fixed concatenation, not the
// length-prefixed canonicalization used elsewhere in this codebase for
// journal records: the AAD must be byte-for-byte reproducible by both the
// encoder and an independent decoder from wire fields alone.
package aadbuild

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// Build returns encodedHeader ‖ frame_type(u8) ‖ segment_index(u32 LE) ‖
// frame_index(u32 LE) ‖ plaintext_len(u32 LE).
//
// ciphertext_len is deliberately excluded: it is the one frame field that
// can differ between a correctly-sealed frame and a tampered one only after
// encryption (e.g. truncation), so binding it here would let an attacker
// choose it to pass AAD verification. Every other field is fixed before
// sealing and is safe to authenticate.
func Build(encodedHeader []byte, frameType wire.FrameType, segmentIndex, frameIndex, plaintextLen uint32) ([]byte, error) {
	if len(encodedHeader) != wire.HeaderLen {
		return nil, errs.New(errs.KindAAD, "build", fmt.Errorf("encoded header must be %d bytes, got %d", wire.HeaderLen, len(encodedHeader)))
	}

	out := make([]byte, 0, len(encodedHeader)+1+4+4+4)
	out = append(out, encodedHeader...)
	out = append(out, byte(frameType))

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], segmentIndex)
	out = append(out, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], frameIndex)
	out = append(out, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], plaintextLen)
	out = append(out, u32[:]...)

	return out, nil
}
