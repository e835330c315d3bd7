// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package compression implements the pluggable per-chunk compression
// registry: pass-through, zstd, LZ4, and deflate, each wrapped in a common
// length-prefixed, CRC32-verified chunk envelope.
package compression

import (
	"fmt"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// Codec compresses and decompresses a single plaintext chunk in isolation;
// no state is carried between calls unless the codec was built with a
// dictionary.
type Codec interface {
	// ID returns the wire compression id this codec implements.
	ID() wire.Compression
	// CompressChunk compresses input and returns the wrapped chunk envelope.
	CompressChunk(input []byte) ([]byte, error)
	// DecompressChunk validates and unwraps a chunk envelope, returning the
	// recovered plaintext.
	DecompressChunk(input []byte) ([]byte, error)
}

// New constructs the codec registered for the given compression id, using
// Strategy's default preset. dict is the optional shared dictionary (nil
// when DICT_USED is unset); only the zstd and deflate codecs honor it.
func New(c wire.Compression, dict []byte) (Codec, error) {
	return NewWithStrategy(c, dict, wire.StrategyBalanced)
}

// NewWithStrategy constructs the codec registered for the given compression
// id, mapping strategy to a codec-specific level via Preset (see preset.go).
func NewWithStrategy(c wire.Compression, dict []byte, strategy wire.Strategy) (Codec, error) {
	switch c {
	case wire.CompressionAuto:
		return &passthroughCodec{}, nil
	case wire.CompressionZstd:
		return newZstdCodecWithLevel(dict, zstdLevelForStrategy(strategy))
	case wire.CompressionLZ4:
		return &lz4Codec{}, nil
	case wire.CompressionDeflate:
		return newDeflateCodec(dict, flateLevelForStrategy(strategy))
	default:
		return nil, errs.New(errs.KindCompression, "compression.New", fmt.Errorf("unsupported codec id %d", c))
	}
}
