// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/crc32"

	"github.com/dreamzit02/rse1/errs"
)

// SegmentHeaderLen is the fixed, on-wire size of a segment header. The wire
// payload of length WireLen follows immediately after these bytes.
const SegmentHeaderLen = 26

// SegmentHeader is the decoded form of a segment header.
type SegmentHeader struct {
	SegmentIndex uint32
	BytesLen     uint32
	WireLen      uint32
	WireCRC32    uint32
	FrameCount   uint32
	DigestAlg    uint16
	Flags        SegmentFlags
}

// Encode serializes sh into its fixed 26-byte wire representation.
// WireCRC32 must already be computed over the segment's wire payload by the
// caller (see ComputeWireCRC32); Encode does not recompute it.
func (sh *SegmentHeader) Encode() ([]byte, error) {
	if sh.Flags&^knownSegmentFlags != 0 {
		return nil, errs.New(errs.KindSegment, "encode", fmt.Errorf("unknown segment flag bits set: %#04x", sh.Flags&^knownSegmentFlags))
	}
	if sh.Flags&SegmentFinal != 0 && sh.WireLen != 0 {
		return nil, errs.New(errs.KindSegment, "encode", fmt.Errorf("final segment must have wire_len=0, got %d", sh.WireLen))
	}

	buf := make([]byte, SegmentHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], sh.SegmentIndex)
	binary.LittleEndian.PutUint32(buf[4:8], sh.BytesLen)
	binary.LittleEndian.PutUint32(buf[8:12], sh.WireLen)
	binary.LittleEndian.PutUint32(buf[12:16], sh.WireCRC32)
	binary.LittleEndian.PutUint32(buf[16:20], sh.FrameCount)
	binary.LittleEndian.PutUint16(buf[20:22], sh.DigestAlg)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(sh.Flags))
	// bytes [24:26) are reserved and left zero.
	return buf, nil
}

// DecodeSegmentHeader parses a segment header from buf.
func DecodeSegmentHeader(buf []byte) (*SegmentHeader, error) {
	if len(buf) < SegmentHeaderLen {
		return nil, errs.New(errs.KindSegment, "decode", fmt.Errorf("buffer too short: need %d bytes, got %d", SegmentHeaderLen, len(buf)))
	}
	buf = buf[:SegmentHeaderLen]

	sh := &SegmentHeader{
		SegmentIndex: binary.LittleEndian.Uint32(buf[0:4]),
		BytesLen:     binary.LittleEndian.Uint32(buf[4:8]),
		WireLen:      binary.LittleEndian.Uint32(buf[8:12]),
		WireCRC32:    binary.LittleEndian.Uint32(buf[12:16]),
		FrameCount:   binary.LittleEndian.Uint32(buf[16:20]),
		DigestAlg:    binary.LittleEndian.Uint16(buf[20:22]),
		Flags:        SegmentFlags(binary.LittleEndian.Uint16(buf[22:24])),
	}
	if buf[24] != 0 || buf[25] != 0 {
		return nil, errs.New(errs.KindSegment, "decode", fmt.Errorf("reserved bytes must be zero"))
	}
	if sh.Flags&^knownSegmentFlags != 0 {
		return nil, errs.New(errs.KindSegment, "decode", fmt.Errorf("unknown segment flag bits set: %#04x", sh.Flags&^knownSegmentFlags))
	}
	if sh.Flags&SegmentFinal != 0 && sh.WireLen != 0 {
		return nil, errs.New(errs.KindSegment, "decode", fmt.Errorf("final segment must have wire_len=0, got %d", sh.WireLen))
	}
	return sh, nil
}

// ComputeWireCRC32 returns the CRC32 of a segment's wire payload.
func ComputeWireCRC32(wire []byte) uint32 {
	return crc32.ChecksumIEEE(wire)
}

// VerifyWireCRC32 checks wire against the CRC32 recorded in sh.
func (sh *SegmentHeader) VerifyWireCRC32(wire []byte) error {
	got := ComputeWireCRC32(wire)
	if got != sh.WireCRC32 {
		return errs.New(errs.KindSegment, "verify_crc32", fmt.Errorf("wire crc32 mismatch: got %08x, want %08x", got, sh.WireCRC32))
	}
	return nil
}
