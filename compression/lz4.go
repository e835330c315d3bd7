// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// lz4Codec compresses chunks using LZ4's block format. The chunk envelope
// already carries the decompressed length, so there is no need for LZ4's
// own frame headers.
type lz4Codec struct{}

func (c *lz4Codec) ID() wire.Compression { return wire.CompressionLZ4 }

func (c *lz4Codec) CompressChunk(input []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(input)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(input, dst)
	if err != nil {
		return nil, errs.New(errs.KindCompression, "lz4.CompressChunk", fmt.Errorf("block compression failed: %w", err))
	}
	if n == 0 {
		// Incompressible input: LZ4 returns n==0 rather than an expanded
		// block. Store the chunk verbatim inside the envelope instead.
		return wrapEnvelope(input, append([]byte{0}, input...)), nil
	}
	return wrapEnvelope(input, append([]byte{1}, dst[:n]...)), nil
}

func (c *lz4Codec) DecompressChunk(input []byte) ([]byte, error) {
	return unwrapEnvelope(input, func(compressed []byte, plaintextLen int) ([]byte, error) {
		if len(compressed) == 0 {
			return nil, fmt.Errorf("empty lz4 payload")
		}
		stored, body := compressed[0], compressed[1:]
		if stored == 0 {
			out := make([]byte, len(body))
			copy(out, body)
			return out, nil
		}
		dst := make([]byte, plaintextLen)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, fmt.Errorf("block decompression failed: %w", err)
		}
		return dst[:n], nil
	})
}
