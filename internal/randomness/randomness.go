// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package randomness wraps the system CSPRNG for the one random value this
// module ever needs: the 16-byte per-stream salt that seeds both nonce
// derivation and the HKDF extract step.
package randomness

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Bytes reads size bytes from the system CSPRNG.
func Bytes(size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, fmt.Errorf("error generating bytes: %w", err)
	}
	return out, nil
}
