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

// segmentDigestAlg is the segment digest algorithm used throughout the
// pipeline. BLAKE3 is chosen for speed; the wire format supports swapping
// it per segment via SegmentHeader.DigestAlg, but this implementation
// always writes the same algorithm for a given stream.
const segmentDigestAlg = digest.AlgBLAKE3

// encodedSegment is one segment's fully sealed wire representation, ready
// to be emitted in order by the ordered assembler. A zero-length wire with
// final set is the stream's trailing marker segment.
type encodedSegment struct {
	index uint32
	wire  []byte
	final bool
}

// dataChunks splits compressed into frameMaxPlaintext-sized pieces. The
// chunk envelope's length prefix and CRC trailer guarantee compressed is
// never empty, so every segment carries at least one non-empty Data frame.
func dataChunks(compressed []byte) [][]byte {
	var chunks [][]byte
	for off := 0; off < len(compressed); off += frameMaxPlaintext {
		end := off + frameMaxPlaintext
		if end > len(compressed) {
			end = len(compressed)
		}
		chunks = append(chunks, compressed[off:end])
	}
	return chunks
}

// encodeSegment seals plaintext into one segment's wire bytes: compress,
// split into Data frames, append a Digest frame covering every Data
// frame's ciphertext, and a Terminator frame.
func encodeSegment(a cipher.AEAD, salt []byte, encodedHeader []byte, codec compression.Codec, segmentIndex uint32, plaintext []byte) (encodedSegment, error) {
	compressed, err := codec.CompressChunk(plaintext)
	if err != nil {
		return encodedSegment{}, err
	}

	chunks := dataChunks(compressed)
	frameCount := uint32(len(chunks)) + 2 // + digest + terminator
	if frameCount > framesPerSegmentCap {
		return encodedSegment{}, errs.New(errs.KindSegment, "encode_segment", fmt.Errorf("segment %d needs %d frames, more than the %d frame indices reserved per segment", segmentIndex, frameCount, framesPerSegmentCap))
	}

	h, err := digest.New(segmentDigestAlg)
	if err != nil {
		return encodedSegment{}, err
	}
	digest.WriteHeader(h, segmentIndex, frameCount)

	var wireBytes []byte
	for local, chunk := range chunks {
		frameIndex := segmentIndex*framesPerSegmentCap + uint32(local)
		frameWire, ciphertext, err := sealFrame(a, salt, encodedHeader, wire.FrameData, segmentIndex, frameIndex, chunk)
		if err != nil {
			return encodedSegment{}, err
		}
		wireBytes = append(wireBytes, frameWire...)
		digest.WriteFrame(h, frameIndex, ciphertext)
	}

	digestFrameIndex := segmentIndex*framesPerSegmentCap + uint32(len(chunks))
	digestPlaintext := digest.EncodePlaintext(segmentDigestAlg, h.Sum(nil))
	digestWire, _, err := sealFrame(a, salt, encodedHeader, wire.FrameDigest, segmentIndex, digestFrameIndex, digestPlaintext)
	if err != nil {
		return encodedSegment{}, err
	}
	wireBytes = append(wireBytes, digestWire...)

	terminatorFrameIndex := segmentIndex*framesPerSegmentCap + uint32(len(chunks)) + 1
	terminatorWire, _, err := sealFrame(a, salt, encodedHeader, wire.FrameTerminator, segmentIndex, terminatorFrameIndex, nil)
	if err != nil {
		return encodedSegment{}, err
	}
	wireBytes = append(wireBytes, terminatorWire...)

	sh := wire.SegmentHeader{
		SegmentIndex: segmentIndex,
		BytesLen:     uint32(len(plaintext)),
		WireLen:      uint32(len(wireBytes)),
		WireCRC32:    wire.ComputeWireCRC32(wireBytes),
		FrameCount:   frameCount,
		DigestAlg:    uint16(segmentDigestAlg),
	}
	shBytes, err := sh.Encode()
	if err != nil {
		return encodedSegment{}, err
	}

	return encodedSegment{index: segmentIndex, wire: append(shBytes, wireBytes...)}, nil
}

// encodeFinalMarker returns the empty trailer segment that closes a
// stream: a bare SegmentHeader with SegmentFinal set and wire_len=0.
func encodeFinalMarker(segmentIndex uint32) (encodedSegment, error) {
	sh := wire.SegmentHeader{
		SegmentIndex: segmentIndex,
		Flags:        wire.SegmentFinal,
	}
	shBytes, err := sh.Encode()
	if err != nil {
		return encodedSegment{}, err
	}
	return encodedSegment{index: segmentIndex, wire: shBytes, final: true}, nil
}
