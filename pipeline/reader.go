// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/dreamzit02/rse1/errs"
)

// errEmptyInput is returned, wrapped in a Validation error, when the
// source produces no bytes at all.
var errEmptyInput = errors.New("input must not be empty")

// rawSegment is one plaintext window read from the input, paired with its
// segment index.
type rawSegment struct {
	index uint32
	data  []byte
}

// readSegments reads r in chunkSize windows, sending one rawSegment per
// window to out in ascending order. It closes out when the input is
// exhausted and returns early when ctx is canceled, so a downstream
// failure never leaves this goroutine blocked on a send nobody will
// receive. An input that yields zero bytes is a Validation error: RSE1
// streams always carry at least one segment.
func readSegments(ctx context.Context, r io.Reader, chunkSize uint32, out chan<- rawSegment) error {
	defer close(out)

	index := uint32(0)
	total := 0
	buf := make([]byte, chunkSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case out <- rawSegment{index: index, data: data}:
			case <-ctx.Done():
				return ctx.Err()
			}
			index++
			total += n
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return errs.New(errs.KindIO, "read_segments", err)
		}
	}

	if total == 0 {
		return errs.New(errs.KindValidation, "read_segments", errEmptyInput)
	}
	return nil
}
