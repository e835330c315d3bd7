// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import "github.com/dreamzit02/rse1/wire"

// passthroughCodec implements the "auto" codec id: no transformation, same
// envelope as every other codec so downstream code never special-cases it.
type passthroughCodec struct{}

func (c *passthroughCodec) ID() wire.Compression { return wire.CompressionAuto }

func (c *passthroughCodec) CompressChunk(input []byte) ([]byte, error) {
	return wrapEnvelope(input, input), nil
}

func (c *passthroughCodec) DecompressChunk(input []byte) ([]byte, error) {
	return unwrapEnvelope(input, func(compressed []byte, plaintextLen int) ([]byte, error) {
		out := make([]byte, len(compressed))
		copy(out, compressed)
		return out, nil
	})
}
