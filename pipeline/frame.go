// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"crypto/cipher"
	"fmt"

	"github.com/dreamzit02/rse1/aadbuild"
	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/nonce"
	"github.com/dreamzit02/rse1/wire"
)

func frameNonce(salt []byte, frameIndex uint32) ([]byte, error) {
	return nonce.Derive(salt, frameIndex)
}

func frameAAD(encodedHeader []byte, frameType wire.FrameType, segmentIndex, frameIndex, plaintextLen uint32) ([]byte, error) {
	return aadbuild.Build(encodedHeader, frameType, segmentIndex, frameIndex, plaintextLen)
}

// validateFrameInput enforces the per-type plaintext rules before any
// sealing happens: a Data frame carries payload, a Digest frame carries at
// least its alg id and length prefix, and a Terminator carries nothing.
func validateFrameInput(frameType wire.FrameType, plaintext []byte) error {
	switch frameType {
	case wire.FrameData:
		if len(plaintext) == 0 {
			return errs.New(errs.KindFrame, "seal_frame", fmt.Errorf("data frame plaintext must not be empty"))
		}
	case wire.FrameDigest:
		if len(plaintext) < 4 {
			return errs.New(errs.KindFrame, "seal_frame", fmt.Errorf("digest frame plaintext must be at least 4 bytes, got %d", len(plaintext)))
		}
	case wire.FrameTerminator:
		if len(plaintext) != 0 {
			return errs.New(errs.KindFrame, "seal_frame", fmt.Errorf("terminator frame plaintext must be empty, got %d bytes", len(plaintext)))
		}
	default:
		return errs.New(errs.KindFrame, "seal_frame", fmt.Errorf("invalid frame type %d", frameType))
	}
	return nil
}

// sealFrame builds and AEAD-seals one frame, returning its full wire
// encoding (header plus ciphertext) and the raw ciphertext (nil for a
// Terminator, which carries no plaintext and is never sealed).
func sealFrame(a cipher.AEAD, salt []byte, encodedHeader []byte, frameType wire.FrameType, segmentIndex, frameIndex uint32, plaintext []byte) (frameWire []byte, ciphertext []byte, err error) {
	if err := validateFrameInput(frameType, plaintext); err != nil {
		return nil, nil, err
	}
	if frameType != wire.FrameTerminator {
		n, err := frameNonce(salt, frameIndex)
		if err != nil {
			return nil, nil, err
		}
		aad, err := frameAAD(encodedHeader, frameType, segmentIndex, frameIndex, uint32(len(plaintext)))
		if err != nil {
			return nil, nil, err
		}
		ciphertext = a.Seal(nil, n, plaintext, aad)
	}

	fh := wire.FrameHeader{
		Type:          frameType,
		SegmentIndex:  segmentIndex,
		FrameIndex:    frameIndex,
		PlaintextLen:  uint32(len(plaintext)),
		CiphertextLen: uint32(len(ciphertext)),
	}
	hdr, err := fh.Encode()
	if err != nil {
		return nil, nil, err
	}
	return append(hdr, ciphertext...), ciphertext, nil
}

// openFrame decodes and, for Data/Digest frames, AEAD-opens the frame at
// the start of buf. It returns the decoded header, the recovered plaintext
// (nil for a Terminator), and the remaining unconsumed bytes of buf.
func openFrame(a cipher.AEAD, salt []byte, encodedHeader []byte, buf []byte) (*wire.FrameHeader, []byte, []byte, error) {
	ctLen, err := wire.PeekCiphertextLen(buf)
	if err != nil {
		return nil, nil, nil, err
	}
	total := wire.FrameHeaderLen + int(ctLen)
	if total > len(buf) {
		return nil, nil, nil, errs.New(errs.KindFrame, "open_frame", fmt.Errorf("frame declares %d bytes, only %d available", total, len(buf)))
	}

	fh, err := wire.DecodeFrameHeader(buf[:total], total)
	if err != nil {
		return nil, nil, nil, err
	}

	var plaintext []byte
	if fh.Type != wire.FrameTerminator {
		ciphertext := buf[wire.FrameHeaderLen:total]
		n, err := frameNonce(salt, fh.FrameIndex)
		if err != nil {
			return nil, nil, nil, err
		}
		aad, err := frameAAD(encodedHeader, fh.Type, fh.SegmentIndex, fh.FrameIndex, fh.PlaintextLen)
		if err != nil {
			return nil, nil, nil, err
		}
		plaintext, err = a.Open(nil, n, ciphertext, aad)
		if err != nil {
			return nil, nil, nil, errs.New(errs.KindCrypto, "open_frame", fmt.Errorf("aead open failed for segment %d frame %d: %w", fh.SegmentIndex, fh.FrameIndex, err))
		}
	}

	return fh, plaintext, buf[total:], nil
}
