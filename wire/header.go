// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/crc32"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/internal/flags"
)

// HeaderLen is the fixed, on-wire size of a stream header.
const HeaderLen = 80

// crcCoveredLen is the number of leading header bytes the CRC32 field
// protects: everything up to and including the CRC field's own offset.
const crcCoveredLen = 32

// Header is the decoded form of the 80-byte stream header. Field offsets and
// widths are fixed by the wire contract; see HeaderLen.
type Header struct {
	Version       uint16
	AlgProfile    uint16
	Cipher        Cipher
	HKDFPRF       PRF
	Compression   Compression
	Strategy      Strategy
	AADDomain     AADDomain
	Flags         HeaderFlags
	ChunkSize     uint32
	PlaintextSize uint64
	DictID        uint32
	Salt          [16]byte
	KeyID         uint32
	ParallelHint  uint32
	EncTimeNanos  uint64
}

// Encode serializes h into its fixed 80-byte wire representation, computing
// and writing the CRC32 field.
func (h *Header) Encode() ([]byte, error) {
	if err := h.validateForEncode(); err != nil {
		return nil, errs.New(errs.KindHeader, "encode", err)
	}

	buf := make([]byte, HeaderLen)
	copy(buf[0:4], StreamMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.AlgProfile)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(h.Cipher))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(h.HKDFPRF))
	binary.LittleEndian.PutUint16(buf[12:14], uint16(h.Compression))
	binary.LittleEndian.PutUint16(buf[14:16], uint16(h.Strategy))
	binary.LittleEndian.PutUint16(buf[16:18], uint16(h.AADDomain))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(h.Flags))
	binary.LittleEndian.PutUint32(buf[20:24], h.ChunkSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.PlaintextSize)

	// CRC32 covers bytes [0:32) and is written at [32:36).
	crc := crc32.ChecksumIEEE(buf[0:crcCoveredLen])
	binary.LittleEndian.PutUint32(buf[32:36], crc)

	binary.LittleEndian.PutUint32(buf[36:40], h.DictID)
	copy(buf[40:56], h.Salt[:])
	binary.LittleEndian.PutUint32(buf[56:60], h.KeyID)
	binary.LittleEndian.PutUint32(buf[60:64], h.ParallelHint)
	binary.LittleEndian.PutUint64(buf[64:72], h.EncTimeNanos)
	// bytes [72:80) are reserved and left zero.

	return buf, nil
}

// Decode parses and validates a stream header from buf. buf may be longer
// than HeaderLen; only the first HeaderLen bytes are consumed.
func Decode(buf []byte) (*Header, error) {
	if len(buf) < HeaderLen {
		return nil, errs.New(errs.KindHeader, "decode", fmt.Errorf("buffer too short: need %d bytes, got %d", HeaderLen, len(buf)))
	}
	buf = buf[:HeaderLen]

	if string(buf[0:4]) != string(StreamMagic[:]) {
		return nil, errs.New(errs.KindHeader, "decode", fmt.Errorf("bad magic"))
	}

	gotCRC := binary.LittleEndian.Uint32(buf[32:36])
	wantCRC := crc32.ChecksumIEEE(buf[0:crcCoveredLen])
	if gotCRC != wantCRC {
		return nil, errs.New(errs.KindHeader, "decode", fmt.Errorf("invalid crc32: got %08x, want %08x", gotCRC, wantCRC))
	}

	for _, b := range buf[72:80] {
		if b != 0 {
			return nil, errs.New(errs.KindHeader, "decode", fmt.Errorf("reserved bytes must be zero"))
		}
	}

	h := &Header{
		Version:       binary.LittleEndian.Uint16(buf[4:6]),
		AlgProfile:    binary.LittleEndian.Uint16(buf[6:8]),
		Cipher:        Cipher(binary.LittleEndian.Uint16(buf[8:10])),
		HKDFPRF:       PRF(binary.LittleEndian.Uint16(buf[10:12])),
		Compression:   Compression(binary.LittleEndian.Uint16(buf[12:14])),
		Strategy:      Strategy(binary.LittleEndian.Uint16(buf[14:16])),
		AADDomain:     AADDomain(binary.LittleEndian.Uint16(buf[16:18])),
		Flags:         HeaderFlags(binary.LittleEndian.Uint16(buf[18:20])),
		ChunkSize:     binary.LittleEndian.Uint32(buf[20:24]),
		PlaintextSize: binary.LittleEndian.Uint64(buf[24:32]),
		DictID:        binary.LittleEndian.Uint32(buf[36:40]),
		KeyID:         binary.LittleEndian.Uint32(buf[56:60]),
		ParallelHint:  binary.LittleEndian.Uint32(buf[60:64]),
		EncTimeNanos:  binary.LittleEndian.Uint64(buf[64:72]),
	}
	copy(h.Salt[:], buf[40:56])

	if err := h.validateDecoded(); err != nil {
		return nil, errs.New(errs.KindHeader, "decode", err)
	}

	return h, nil
}

func (h *Header) validateForEncode() error {
	if h.Version == 0 {
		return fmt.Errorf("version must not be zero")
	}
	return h.validateCommon()
}

func (h *Header) validateDecoded() error {
	if h.Version == 0 {
		return fmt.Errorf("version must not be zero")
	}
	if h.Version != StreamVersion {
		return fmt.Errorf("unsupported header version %d", h.Version)
	}
	return h.validateCommon()
}

func (h *Header) validateCommon() error {
	switch h.Cipher {
	case CipherAES256GCM, CipherChaCha20Poly1305:
	default:
		return fmt.Errorf("unknown cipher id %d", h.Cipher)
	}
	switch h.HKDFPRF {
	case PRFSHA256, PRFSHA512, PRFSHA3_256, PRFSHA3_512, PRFBLAKE3Keyed:
	default:
		return fmt.Errorf("unknown hkdf prf id %d", h.HKDFPRF)
	}
	switch h.Compression {
	case CompressionAuto, CompressionZstd, CompressionLZ4, CompressionDeflate:
	default:
		return fmt.Errorf("unknown compression id %d", h.Compression)
	}
	switch h.Strategy {
	case StrategyBalanced, StrategyMax, StrategyFast:
	default:
		return fmt.Errorf("unknown strategy id %d", h.Strategy)
	}
	switch h.AADDomain {
	case AADDomainGeneric, AADDomainFileEnvelope, AADDomainPipeEnvelope:
	default:
		return fmt.Errorf("unknown aad domain id %d", h.AADDomain)
	}
	if h.Flags&^knownHeaderFlags != 0 {
		return fmt.Errorf("unknown header flag bits set: %#04x", h.Flags&^knownHeaderFlags)
	}
	if h.ChunkSize == 0 || (h.ChunkSize > MaxChunkSize && !flags.RelaxedValidation()) {
		return fmt.Errorf("chunk_size %d out of range (0, %d]", h.ChunkSize, MaxChunkSize)
	}
	allZero := true
	for _, b := range h.Salt {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return fmt.Errorf("salt must not be all-zero")
	}
	if h.Flags&FlagDictUsed != 0 && h.DictID == 0 {
		return fmt.Errorf("DICT_USED flag set without a dict_id")
	}
	if h.Flags&FlagDictUsed == 0 && h.DictID != 0 {
		return fmt.Errorf("dict_id set without DICT_USED flag")
	}
	return nil
}
