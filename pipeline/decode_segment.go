// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"crypto/cipher"
	"fmt"

	"github.com/dreamzit02/rse1/compression"
	"github.com/dreamzit02/rse1/digest"
	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// decodeSegment verifies and decrypts one non-final segment's wire bytes,
// returning the recovered plaintext. It never returns plaintext alongside
// an error: every check (wire CRC32, frame AEAD tags, digest, frame-count
// and frame-index uniqueness, decompressed-length consistency) must pass
// before any byte of this segment's plaintext is handed back to the
// caller.
func decodeSegment(a cipher.AEAD, salt []byte, encodedHeader []byte, sh *wire.SegmentHeader, wireBytes []byte, codec compression.Codec) ([]byte, error) {
	if err := sh.VerifyWireCRC32(wireBytes); err != nil {
		return nil, err
	}

	h, err := digest.New(digest.Alg(sh.DigestAlg))
	if err != nil {
		return nil, errs.New(errs.KindSegment, "decode_segment", err)
	}
	digest.WriteHeader(h, sh.SegmentIndex, sh.FrameCount)

	seen := make(map[uint32]struct{})
	var compressed []byte
	var digestPlaintext []byte
	var haveDigest, haveTerminator bool
	frameCount := uint32(0)
	dataCount := uint32(0)

	buf := wireBytes
	for len(buf) > 0 {
		fh, plaintext, rest, err := openFrame(a, salt, encodedHeader, buf)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[fh.FrameIndex]; dup {
			return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("duplicate frame_index %d in segment %d", fh.FrameIndex, sh.SegmentIndex))
		}
		seen[fh.FrameIndex] = struct{}{}
		frameCount++

		switch fh.Type {
		case wire.FrameData:
			if haveDigest || haveTerminator {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("data frame after digest/terminator in segment %d", sh.SegmentIndex))
			}
			wantIndex := sh.SegmentIndex*framesPerSegmentCap + dataCount
			if fh.FrameIndex != wantIndex {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d data frame out of position: got index %d, want %d", sh.SegmentIndex, fh.FrameIndex, wantIndex))
			}
			dataCount++
			compressed = append(compressed, plaintext...)
			digest.WriteFrame(h, fh.FrameIndex, ciphertextOf(buf, rest))
		case wire.FrameDigest:
			if haveDigest {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("duplicate digest frame in segment %d", sh.SegmentIndex))
			}
			if haveTerminator {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("digest frame after terminator in segment %d", sh.SegmentIndex))
			}
			wantIndex := sh.SegmentIndex*framesPerSegmentCap + dataCount
			if fh.FrameIndex != wantIndex {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d digest frame index %d != data count %d", sh.SegmentIndex, fh.FrameIndex, dataCount))
			}
			haveDigest = true
			digestPlaintext = plaintext
		case wire.FrameTerminator:
			if haveTerminator {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("duplicate terminator frame in segment %d", sh.SegmentIndex))
			}
			wantIndex := sh.SegmentIndex*framesPerSegmentCap + dataCount + 1
			if fh.FrameIndex != wantIndex {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d terminator frame index %d != data count + 1 (%d)", sh.SegmentIndex, fh.FrameIndex, wantIndex))
			}
			if !haveDigest {
				return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("terminator frame before digest frame in segment %d", sh.SegmentIndex))
			}
			haveTerminator = true
		default:
			return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("unknown frame type %d in segment %d", fh.Type, sh.SegmentIndex))
		}

		buf = rest
	}

	if !haveDigest || !haveTerminator {
		return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d missing digest or terminator frame", sh.SegmentIndex))
	}
	if frameCount != sh.FrameCount {
		return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d frame count mismatch: header says %d, found %d", sh.SegmentIndex, sh.FrameCount, frameCount))
	}

	alg, wantSum, err := digest.DecodePlaintext(digestPlaintext)
	if err != nil {
		return nil, err
	}
	if alg != digest.Alg(sh.DigestAlg) {
		return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d digest alg mismatch: header says %d, digest frame says %d", sh.SegmentIndex, sh.DigestAlg, alg))
	}
	gotSum := h.Sum(nil)
	if !equalBytes(gotSum, wantSum) {
		return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d digest mismatch", sh.SegmentIndex))
	}

	plaintext, err := codec.DecompressChunk(compressed)
	if err != nil {
		return nil, err
	}
	if uint32(len(plaintext)) != sh.BytesLen {
		return nil, errs.New(errs.KindSegment, "decode_segment", fmt.Errorf("segment %d decompressed length %d does not match bytes_len %d", sh.SegmentIndex, len(plaintext), sh.BytesLen))
	}

	return plaintext, nil
}

// ciphertextOf recovers the ciphertext slice that openFrame consumed,
// derived from the before/after buffers so the digest can be fed the exact
// bytes that were authenticated, without re-deriving the frame header.
func ciphertextOf(before, after []byte) []byte {
	return before[:len(before)-len(after)][wire.FrameHeaderLen:]
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
