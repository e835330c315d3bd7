// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package digest implements the segment-level integrity digest: a canonical
// streaming hash over every data frame's ciphertext in a segment, carried
// inside that segment's digest frame.
package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/dreamzit02/rse1/errs"
)

// Alg identifies the hash algorithm used for a segment digest. The id space
// mirrors the HKDF PRF registry for consistency across the wire contract.
type Alg uint16

// Supported digest algorithms.
const (
	AlgSHA256   Alg = 1
	AlgSHA512   Alg = 2
	AlgSHA3_256 Alg = 3
	AlgSHA3_512 Alg = 4
	AlgBLAKE3   Alg = 5
)

// New constructs an incremental hasher for the given algorithm id.
func New(alg Alg) (hash.Hash, error) {
	switch alg {
	case AlgSHA256:
		return sha256.New(), nil
	case AlgSHA512:
		return sha512.New(), nil
	case AlgSHA3_256:
		return sha3.New256(), nil
	case AlgSHA3_512:
		return sha3.New512(), nil
	case AlgBLAKE3:
		return blake3.New(32, nil), nil
	default:
		return nil, errs.New(errs.KindCrypto, "digest.New", fmt.Errorf("unsupported digest algorithm id %d", alg))
	}
}

// WriteHeader feeds segment_index(u32 LE) ‖ frame_count(u32 LE) into h. It
// must be called once, before any WriteFrame call, for both encode and
// decode sides to produce the same digest.
func WriteHeader(h hash.Hash, segmentIndex, frameCount uint32) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], segmentIndex)
	binary.LittleEndian.PutUint32(buf[4:8], frameCount)
	h.Write(buf[:])
}

// WriteFrame feeds one data frame's contribution to the segment digest:
// frame_index(u32 LE) ‖ ciphertext_len(u32 LE) ‖ ciphertext. Callers must
// invoke this in ascending frame_index order.
func WriteFrame(h hash.Hash, frameIndex uint32, ciphertext []byte) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], frameIndex)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(ciphertext)))
	h.Write(buf[:])
	h.Write(ciphertext)
}

// EncodePlaintext serializes the digest frame's plaintext payload:
// alg_id(u16 BE) ‖ digest_len(u16 BE) ‖ digest.
func EncodePlaintext(alg Alg, sum []byte) []byte {
	out := make([]byte, 4+len(sum))
	binary.BigEndian.PutUint16(out[0:2], uint16(alg))
	binary.BigEndian.PutUint16(out[2:4], uint16(len(sum)))
	copy(out[4:], sum)
	return out
}

// DecodePlaintext parses a digest frame's plaintext payload.
func DecodePlaintext(buf []byte) (alg Alg, sum []byte, err error) {
	if len(buf) < 4 {
		return 0, nil, errs.New(errs.KindSegmentWorker, "digest.DecodePlaintext", fmt.Errorf("digest plaintext too short: %d bytes", len(buf)))
	}
	alg = Alg(binary.BigEndian.Uint16(buf[0:2]))
	dlen := int(binary.BigEndian.Uint16(buf[2:4]))
	if len(buf) != 4+dlen {
		return 0, nil, errs.New(errs.KindSegmentWorker, "digest.DecodePlaintext", fmt.Errorf("declared digest_len %d doesn't match payload size %d", dlen, len(buf)-4))
	}
	return alg, buf[4:], nil
}
