// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package pipeline wires the wire, aead, kdf, digest, compression, and
// scheduler packages into the two end-to-end transforms: Encrypt reads
// plaintext and writes a stream; Decrypt reads a stream and writes
// plaintext back out. Both sides chunk work into segments, fan them out
// across a worker pool, and reassemble results in ascending segment order
// regardless of which worker finished first.
package pipeline

// DefaultChunkSize is the plaintext window used for both the per-segment
// read size and the per-chunk compression boundary when a caller doesn't
// specify one.
const DefaultChunkSize = 64 * 1024

// frameMaxPlaintext bounds how much of a segment's compressed payload goes
// into a single Data frame. A segment whose compressed payload exceeds this
// is split across multiple Data frames instead of growing one frame
// without bound.
const frameMaxPlaintext = 64 * 1024

// framesPerSegmentCap is the number of frame_index values reserved per
// segment. Frame indices are computed as segmentIndex*framesPerSegmentCap +
// localIndex rather than handed out from a shared counter, so any two
// segments processed concurrently by the worker pool never collide on a
// nonce: nonce derivation depends only on frame_index, and this scheme
// guarantees stream-wide uniqueness without cross-segment coordination.
//
// A 4MiB segment divided by frameMaxPlaintext yields 64 data frames plus a
// digest and terminator frame. encodeSegment rejects any segment that would
// need more than 256 frames, so a chunk whose compressed payload exceeds
// 254 data frames (just under 16MiB) fails to encrypt even though the
// header accepts chunk sizes up to wire.MaxChunkSize.
const framesPerSegmentCap = 256
