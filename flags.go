// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package rse1

import (
	"github.com/dreamzit02/rse1/internal/flags"
	"github.com/dreamzit02/rse1/log"
)

// RelaxedValidation reports whether relaxed header validation is enabled.
func RelaxedValidation() bool {
	return flags.RelaxedValidation()
}

// SetRelaxedValidation disables the chunk-size sanity bound normally
// enforced on stream headers, so tests can construct pathological streams
// without tripping validation. It returns a function that restores strict
// validation.
//
// Calling this method multiple times once the flag is enabled produces no
// effect.
func SetRelaxedValidation() (revert func()) {
	if flags.RelaxedValidation() {
		return func() {}
	}

	log.Level(log.DebugLevel).Message("rse1: relaxed validation enabled")
	undo := flags.SetRelaxedValidation()

	return func() {
		undo()
		log.Level(log.DebugLevel).Message("rse1: relaxed validation disabled")
	}
}
