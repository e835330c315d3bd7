// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// deflateCodec wraps the standard library's DEFLATE implementation. It is
// kept around for interoperability with stream consumers that don't want an
// extra dependency just to read an envelope back; zstd is the better
// default everywhere else.
type deflateCodec struct {
	level int
	dict  []byte
}

func newDeflateCodec(dict []byte, level int) (*deflateCodec, error) {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, errs.New(errs.KindCompression, "deflate.New", fmt.Errorf("invalid deflate level %d", level))
	}
	return &deflateCodec{level: level, dict: dict}, nil
}

func (c *deflateCodec) ID() wire.Compression { return wire.CompressionDeflate }

func (c *deflateCodec) CompressChunk(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriterDict(&buf, c.level, c.dict)
	if err != nil {
		return nil, errs.New(errs.KindCompression, "deflate.CompressChunk", fmt.Errorf("unable to build writer: %w", err))
	}
	if _, err := w.Write(input); err != nil {
		return nil, errs.New(errs.KindCompression, "deflate.CompressChunk", fmt.Errorf("write failed: %w", err))
	}
	if err := w.Close(); err != nil {
		return nil, errs.New(errs.KindCompression, "deflate.CompressChunk", fmt.Errorf("close failed: %w", err))
	}
	return wrapEnvelope(input, buf.Bytes()), nil
}

func (c *deflateCodec) DecompressChunk(input []byte) ([]byte, error) {
	return unwrapEnvelope(input, func(compressed []byte, plaintextLen int) ([]byte, error) {
		r := flate.NewReaderDict(bytes.NewReader(compressed), c.dict)
		defer r.Close()
		out := make([]byte, 0, plaintextLen)
		buf := bytes.NewBuffer(out)
		if _, err := io.Copy(buf, r); err != nil {
			return nil, fmt.Errorf("inflate failed: %w", err)
		}
		return buf.Bytes(), nil
	})
}
