// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/dreamzit02/rse1/journal"
	"github.com/dreamzit02/rse1/scheduler"
	"github.com/dreamzit02/rse1/telemetry"
	"github.com/dreamzit02/rse1/wire"
)

// EncryptConfig carries every policy decision needed to turn plaintext into
// a stream: the wire header fields this stream will declare, the key
// material, and the optional parallelism/telemetry/journal collaborators.
type EncryptConfig struct {
	MasterKey   []byte
	Cipher      wire.Cipher
	HKDFPRF     wire.PRF
	Compression wire.Compression
	Strategy    wire.Strategy
	AADDomain   wire.AADDomain
	ChunkSize   uint32
	AlgProfile  uint16
	DictID      uint32
	Dict        []byte
	KeyID       uint32
	Salt        []byte // 16 bytes; generated if nil
	TotalSize   int64  // 0 means unknown/unset

	// EncTimeNanos is the encryption timestamp recorded in the stream
	// header. Zero means "stamp with the current time". Since the header is
	// bound into every frame's AAD, two runs only produce byte-identical
	// streams when both the salt and this timestamp are pinned.
	EncTimeNanos uint64

	Profile  *scheduler.Profile
	Recorder *telemetry.Recorder
	Journal  *journal.Recorder
}

// DecryptConfig carries the key material and collaborators needed to
// reverse a stream produced by Encrypt. Every wire policy field (cipher,
// compression, chunk size, ...) is read back from the stream's own header,
// not supplied by the caller.
type DecryptConfig struct {
	MasterKey []byte
	Dict      []byte

	Profile  *scheduler.Profile
	Recorder *telemetry.Recorder
	Journal  *journal.Recorder
}

func (c *EncryptConfig) chunkSize() uint32 {
	if c.ChunkSize == 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

func (c *EncryptConfig) profile() *scheduler.Profile {
	if c.Profile == nil {
		return scheduler.NewProfile()
	}
	return c.Profile
}

func (c *EncryptConfig) recorder() *telemetry.Recorder {
	if c.Recorder == nil {
		return telemetry.NewRecorder()
	}
	return c.Recorder
}

func (c *DecryptConfig) profile() *scheduler.Profile {
	if c.Profile == nil {
		return scheduler.NewProfile()
	}
	return c.Profile
}

func (c *DecryptConfig) recorder() *telemetry.Recorder {
	if c.Recorder == nil {
		return telemetry.NewRecorder()
	}
	return c.Recorder
}
