// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// zstdCodec wraps a pair of reusable klauspost/compress encoder/decoder
// instances. Both are safe for concurrent use by multiple goroutines, which
// is required since one codec instance is shared by the whole frame worker
// pool.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec(dict []byte) (*zstdCodec, error) {
	return newZstdCodecWithLevel(dict, zstd.SpeedDefault)
}

func newZstdCodecWithLevel(dict []byte, level zstd.EncoderLevel) (*zstdCodec, error) {
	encOpts := []zstd.EOption{zstd.WithEncoderLevel(level)}
	decOpts := []zstd.DOption{}
	if len(dict) > 0 {
		encOpts = append(encOpts, zstd.WithEncoderDict(dict))
		decOpts = append(decOpts, zstd.WithDecoderDicts(dict))
	}

	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, errs.New(errs.KindCompression, "zstd.New", fmt.Errorf("unable to build encoder: %w", err))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		enc.Close()
		return nil, errs.New(errs.KindCompression, "zstd.New", fmt.Errorf("unable to build decoder: %w", err))
	}

	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) ID() wire.Compression { return wire.CompressionZstd }

func (c *zstdCodec) CompressChunk(input []byte) ([]byte, error) {
	compressed := c.enc.EncodeAll(input, make([]byte, 0, len(input)))
	return wrapEnvelope(input, compressed), nil
}

func (c *zstdCodec) DecompressChunk(input []byte) ([]byte, error) {
	return unwrapEnvelope(input, func(compressed []byte, plaintextLen int) ([]byte, error) {
		return c.dec.DecodeAll(compressed, make([]byte, 0, plaintextLen))
	})
}
