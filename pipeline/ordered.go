// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"io"
	"sync"

	"github.com/dreamzit02/rse1/errs"
)

// orderedAssembler buffers out-of-order segment payloads and writes them to
// an underlying io.Writer in ascending segment-index order, regardless of
// which worker finished first. It is used on both the encrypt side (to
// serialize wire bytes) and the decrypt side (to serialize recovered
// plaintext), hence the payload-agnostic []byte shape.
//
// finish fails the stream if no segment carrying the final marker was ever
// submitted, or if some earlier segment never arrived.
type orderedAssembler struct {
	w io.Writer

	mu       sync.Mutex
	next     uint32
	pending  map[uint32][]byte
	hasFinal bool
	finalAt  uint32
	done     bool
	err      error
}

// OrderedEncryptedWriter serializes encrypted segment wire bytes in
// ascending segment order.
type OrderedEncryptedWriter struct{ a *orderedAssembler }

// OrderedPlaintextWriter serializes recovered plaintext in ascending
// segment order.
type OrderedPlaintextWriter struct{ a *orderedAssembler }

// NewOrderedEncryptedWriter builds a writer that flushes sealed segment
// bytes to w in order.
func NewOrderedEncryptedWriter(w io.Writer) *OrderedEncryptedWriter {
	return &OrderedEncryptedWriter{a: newOrderedAssembler(w)}
}

// Submit hands off one segment's sealed wire bytes.
func (o *OrderedEncryptedWriter) Submit(seg encodedSegment) error {
	return o.a.submit(seg.index, seg.wire, seg.final)
}

// Finish flushes any remaining contiguous segments and fails if the stream
// never observed its final marker segment.
func (o *OrderedEncryptedWriter) Finish() error { return o.a.finish() }

// NewOrderedPlaintextWriter builds a writer that flushes recovered
// plaintext to w in order.
func NewOrderedPlaintextWriter(w io.Writer) *OrderedPlaintextWriter {
	return &OrderedPlaintextWriter{a: newOrderedAssembler(w)}
}

// Submit hands off one segment's recovered plaintext.
func (o *OrderedPlaintextWriter) Submit(index uint32, plaintext []byte, final bool) error {
	return o.a.submit(index, plaintext, final)
}

// Finish flushes any remaining contiguous segments and fails if the stream
// never observed its final marker segment.
func (o *OrderedPlaintextWriter) Finish() error { return o.a.finish() }

func newOrderedAssembler(w io.Writer) *orderedAssembler {
	return &orderedAssembler{w: w, pending: make(map[uint32][]byte)}
}

func (a *orderedAssembler) submit(index uint32, payload []byte, final bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	a.pending[index] = payload
	if final {
		a.hasFinal = true
		a.finalAt = index
	}

	for {
		payload, ok := a.pending[a.next]
		if !ok {
			break
		}
		if len(payload) > 0 {
			if _, err := a.w.Write(payload); err != nil {
				a.err = errs.New(errs.KindIO, "ordered_assembler.submit", err)
				return a.err
			}
		}
		delete(a.pending, a.next)
		isFinal := a.hasFinal && a.next == a.finalAt
		a.next++
		if isFinal {
			a.done = true
			break
		}
	}
	return nil
}

func (a *orderedAssembler) finish() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	if !a.done {
		return errs.New(errs.KindPipeline, "ordered_assembler.finish", fmt.Errorf("stream ended without observing a final segment marker"))
	}
	if len(a.pending) > 0 {
		return errs.New(errs.KindPipeline, "ordered_assembler.finish", fmt.Errorf("%d segments were submitted past the final marker", len(a.pending)))
	}
	return nil
}
