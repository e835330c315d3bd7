// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package canon pre-authentication-encodes the fields of a journal resume
// marker before they are checksummed, so a later field boundary shift can
// never be confused with a change in an earlier field's content.
package canon

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	maxPieceSize  = 64 * 1024
	maxPieceCount = 25
)

var (
	// ErrPieceTooLarge is raised when one piece size is larger than the accepted size.
	ErrPieceTooLarge = errors.New("at least one piece is too large")
	// ErrTooManyPieces is raised when the pieces count is larger than the accepted count.
	ErrTooManyPieces = errors.New("too many pieces provided")
)

// PreAuthenticationEncoding length-prefixes each piece and the piece count
// before concatenation, following the PASETO authentication padding scheme:
//
//	PieceCount (8B LE) || ( PieceLen (8B LE) || Piece )*
//
// Checksumming a bare join of resume-marker fields would let two markers
// with different field boundaries but identical concatenated bytes collide
// (e.g. seg=1,frame=23 vs seg=12,frame=3); the length prefixes make every
// field boundary part of the checksummed content.
//
// https://github.com/paseto-standard/paseto-spec/blob/master/docs/01-Protocol-Versions/Common.md#authentication-padding
func PreAuthenticationEncoding(pieces ...[]byte) ([]byte, error) {
	if len(pieces) == 0 {
		return nil, nil
	}
	if len(pieces) > maxPieceCount {
		return nil, fmt.Errorf("unable to prepare canonical form: %w", ErrTooManyPieces)
	}

	bufLen := 8
	for i := range pieces {
		if len(pieces[i]) > maxPieceSize {
			return nil, fmt.Errorf("unable to prepare canonical form: %w", ErrPieceTooLarge)
		}
		bufLen += 8 + len(pieces[i])
	}

	output := make([]byte, bufLen)
	binary.LittleEndian.PutUint64(output, uint64(len(pieces)))

	offset := 8
	for i := range pieces {
		binary.LittleEndian.PutUint64(output[offset:], uint64(len(pieces[i])))
		offset += 8
		copy(output[offset:], pieces[i])
		offset += len(pieces[i])
	}

	return output, nil
}
