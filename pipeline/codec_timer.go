// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"time"

	"github.com/dreamzit02/rse1/compression"
	"github.com/dreamzit02/rse1/telemetry"
)

// timedCodec decorates a compression.Codec so every chunk's compress and
// decompress time lands in the run's telemetry under its own stage, kept
// separate from the segment seal/open time it would otherwise be folded
// into.
type timedCodec struct {
	compression.Codec
	rec *telemetry.Recorder
}

func (c timedCodec) CompressChunk(input []byte) ([]byte, error) {
	start := time.Now()
	out, err := c.Codec.CompressChunk(input)
	c.rec.Record(telemetry.StageCompress, time.Since(start), int64(len(input)), 0)
	return out, err
}

func (c timedCodec) DecompressChunk(input []byte) ([]byte, error) {
	start := time.Now()
	out, err := c.Codec.DecompressChunk(input)
	c.rec.Record(telemetry.StageDecompress, time.Since(start), int64(len(input)), 0)
	return out, err
}
