// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/crc32"

	"github.com/dreamzit02/rse1/errs"
)

// envelopeOverhead is the fixed size of the length prefix and trailing
// CRC32 added around every codec's compressed output.
const envelopeOverhead = 4 + 4

// wrapEnvelope builds plaintext_len(u32 LE) ‖ compressed ‖ CRC32(plaintext)(u32 LE).
func wrapEnvelope(plaintext, compressed []byte) []byte {
	out := make([]byte, 0, envelopeOverhead+len(compressed))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(plaintext)))
	out = append(out, compressed...)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(plaintext))
	return out
}

// unwrapEnvelope validates the length prefix and trailing CRC32 of buf
// against the plaintext recovered by decompress, returning that plaintext.
func unwrapEnvelope(buf []byte, decompress func(compressed []byte, plaintextLen int) ([]byte, error)) ([]byte, error) {
	if len(buf) < envelopeOverhead {
		return nil, errs.New(errs.KindCompression, "unwrap_envelope", fmt.Errorf("chunk envelope too short: %d bytes", len(buf)))
	}

	plaintextLen := int(binary.LittleEndian.Uint32(buf[0:4]))
	wantCRC := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	compressed := buf[4 : len(buf)-4]

	plaintext, err := decompress(compressed, plaintextLen)
	if err != nil {
		return nil, errs.New(errs.KindCompression, "unwrap_envelope", fmt.Errorf("codec decompress failed: %w", err))
	}
	if len(plaintext) != plaintextLen {
		return nil, errs.New(errs.KindCompression, "unwrap_envelope", fmt.Errorf("decompressed length %d doesn't match declared length %d", len(plaintext), plaintextLen))
	}
	if gotCRC := crc32.ChecksumIEEE(plaintext); gotCRC != wantCRC {
		return nil, errs.New(errs.KindCompression, "unwrap_envelope", fmt.Errorf("plaintext crc32 mismatch: got %08x, want %08x", gotCRC, wantCRC))
	}

	return plaintext, nil
}
