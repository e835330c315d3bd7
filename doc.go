// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package rse1 implements a streaming authenticated-encryption engine that
// turns arbitrary-length plaintext into a self-describing, integrity
// protected ciphertext stream and back.
//
// A stream is a fixed header followed by a sequence of segments, each
// bounded to a configurable plaintext window and closed by a digest frame
// and a terminator frame. Every frame is sealed independently with an AEAD
// cipher under a session key derived via HKDF from a per-stream salt, so
// segments can be encrypted and decrypted out of program order and
// reassembled deterministically.
//
// Package rse1 exposes the high-level Encrypt and Decrypt entry points; the
// wire, aead, kdf, digest, compression, scheduler and pipeline
// subpackages implement the layers those entry points compose.
package rse1
