// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package sessionkey holds the per-stream derived session key in locked,
// non-swappable memory for the lifetime of one pipeline run, mirroring the
// memguard-backed symmetric key enclave used elsewhere in this codebase's
// ancestry: the raw key material touches normal Go heap memory only long
// enough to be copied into the enclave, and is wiped from it the moment the
// pipeline that derived it finishes.
package sessionkey

import (
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/dreamzit02/rse1/errs"
)

// Key wraps a derived session key in a memguard enclave. The key never
// appears as a plain Go byte slice except inside the short-lived
// *memguard.LockedBuffer returned by Open, and raw is wiped by memguard the
// moment it is sealed into the enclave.
type Key struct {
	enclave *memguard.Enclave
}

// New seals raw into a locked enclave. raw is wiped by memguard as part of
// sealing; callers must not read or reuse it afterward.
func New(raw []byte) *Key {
	return &Key{enclave: memguard.NewEnclave(raw)}
}

// Open decrypts the enclave into a locked, page-guarded buffer. Callers
// must call Destroy on the returned buffer exactly once, as soon as the key
// material is no longer needed (typically via defer, for the lifetime of
// one pipeline run).
func (k *Key) Open() (*memguard.LockedBuffer, error) {
	lb, err := k.enclave.Open()
	if err != nil {
		return nil, errs.New(errs.KindCrypto, "sessionkey.Open", fmt.Errorf("unable to open session key enclave: %w", err))
	}
	return lb, nil
}
