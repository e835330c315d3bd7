// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamzit02/rse1/errs"
)

// FrameHeaderLen is the fixed, on-wire size of a frame header. The
// ciphertext (possibly zero bytes for a Terminator frame) follows
// immediately.
const FrameHeaderLen = 4 + 1 + 1 + 4 + 4 + 4 + 4

// FrameHeader is the decoded form of a frame header.
type FrameHeader struct {
	Type          FrameType
	SegmentIndex  uint32
	FrameIndex    uint32
	PlaintextLen  uint32
	CiphertextLen uint32
}

// Encode serializes fh into its fixed-size wire representation.
func (fh *FrameHeader) Encode() ([]byte, error) {
	if err := fh.validate(); err != nil {
		return nil, errs.New(errs.KindFrame, "encode", err)
	}

	buf := make([]byte, FrameHeaderLen)
	copy(buf[0:4], FrameMagic[:])
	buf[4] = FrameVersion
	buf[5] = byte(fh.Type)
	binary.LittleEndian.PutUint32(buf[6:10], fh.SegmentIndex)
	binary.LittleEndian.PutUint32(buf[10:14], fh.FrameIndex)
	binary.LittleEndian.PutUint32(buf[14:18], fh.PlaintextLen)
	binary.LittleEndian.PutUint32(buf[18:22], fh.CiphertextLen)
	return buf, nil
}

// DecodeFrameHeader parses a frame header from buf. It enforces the magic,
// version, a canonical single-byte frame-type encoding, and that the
// declared lengths are internally consistent with wireLen (the total number
// of bytes available for this frame, header included).
func DecodeFrameHeader(buf []byte, wireLen int) (*FrameHeader, error) {
	if len(buf) < FrameHeaderLen {
		return nil, errs.New(errs.KindFrame, "decode", fmt.Errorf("buffer too short: need %d bytes, got %d", FrameHeaderLen, len(buf)))
	}
	buf = buf[:FrameHeaderLen]

	if string(buf[0:4]) != string(FrameMagic[:]) {
		return nil, errs.New(errs.KindFrame, "decode", fmt.Errorf("bad magic"))
	}
	if buf[4] != FrameVersion {
		return nil, errs.New(errs.KindFrame, "decode", fmt.Errorf("unsupported frame version %d", buf[4]))
	}

	fh := &FrameHeader{
		Type:          FrameType(buf[5]),
		SegmentIndex:  binary.LittleEndian.Uint32(buf[6:10]),
		FrameIndex:    binary.LittleEndian.Uint32(buf[10:14]),
		PlaintextLen:  binary.LittleEndian.Uint32(buf[14:18]),
		CiphertextLen: binary.LittleEndian.Uint32(buf[18:22]),
	}

	if err := fh.validate(); err != nil {
		return nil, errs.New(errs.KindFrame, "decode", err)
	}
	if FrameHeaderLen+int(fh.CiphertextLen) != wireLen {
		return nil, errs.New(errs.KindFrame, "decode", fmt.Errorf(
			"frame_header_len + ciphertext_len (%d) != wire_len (%d)",
			FrameHeaderLen+int(fh.CiphertextLen), wireLen))
	}

	return fh, nil
}

// PeekCiphertextLen reads the ciphertext_len field out of an encoded frame
// header without fully decoding or validating it, so a stream scanner can
// compute how many more bytes to read before calling DecodeFrameHeader with
// an authoritative wireLen.
func PeekCiphertextLen(buf []byte) (uint32, error) {
	if len(buf) < FrameHeaderLen {
		return 0, errs.New(errs.KindFrame, "peek_ciphertext_len", fmt.Errorf("buffer too short: need %d bytes, got %d", FrameHeaderLen, len(buf)))
	}
	return binary.LittleEndian.Uint32(buf[18:22]), nil
}

func (fh *FrameHeader) validate() error {
	switch fh.Type {
	case FrameData, FrameTerminator, FrameDigest:
	default:
		return fmt.Errorf("invalid frame type %d", fh.Type)
	}
	if fh.Type == FrameTerminator && fh.CiphertextLen != 0 {
		return fmt.Errorf("terminator frame must have ciphertext_len=0, got %d", fh.CiphertextLen)
	}
	if fh.Type != FrameTerminator && fh.CiphertextLen == 0 {
		return fmt.Errorf("non-terminator frame must have non-zero ciphertext_len")
	}
	return nil
}
