// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package aead builds the per-frame authenticated cipher from a wire cipher
// id and a 32-byte session key. It deliberately returns the stdlib
// cipher.AEAD interface rather than inventing a parallel abstraction: every
// cipher suite implements Seal/Open identically, so there is nothing this
// package needs to add except the id-to-constructor mapping.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/wire"
)

// KeySize is the session key length required by every supported cipher.
const KeySize = 32

// NonceSize is the nonce length required by every supported cipher. The
// wire protocol only ever derives 12-byte nonces; ciphers that need a
// different nonce length are rejected explicitly in New.
const NonceSize = 12

// TagSize is the authentication tag length appended to ciphertext by every
// supported cipher.
const TagSize = 16

// New constructs the AEAD instance for the given cipher suite and session
// key. The returned value would seal empty plaintext, but the frame layer
// never asks it to: Data and Digest frames enforce non-empty input before
// sealing, and Terminator frames skip AEAD entirely.
func New(c wire.Cipher, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, errs.New(errs.KindCrypto, "aead.New", fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key)))
	}

	var a cipher.AEAD
	switch c {
	case wire.CipherAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, errs.New(errs.KindCrypto, "aead.New", fmt.Errorf("unable to build AES block cipher: %w", err))
		}
		a, err = cipher.NewGCM(block)
		if err != nil {
			return nil, errs.New(errs.KindCrypto, "aead.New", fmt.Errorf("unable to build GCM: %w", err))
		}
	case wire.CipherChaCha20Poly1305:
		var err error
		a, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, errs.New(errs.KindCrypto, "aead.New", fmt.Errorf("unable to build ChaCha20-Poly1305: %w", err))
		}
	default:
		return nil, errs.New(errs.KindCrypto, "aead.New", fmt.Errorf("unsupported cipher id %d", c))
	}

	if a.NonceSize() != NonceSize {
		return nil, errs.New(errs.KindNonce, "aead.New", fmt.Errorf("unsupported nonce length %d for cipher id %d", a.NonceSize(), c))
	}

	return a, nil
}
