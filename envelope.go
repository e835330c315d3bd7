// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package rse1

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dreamzit02/rse1/ioutil"
	"github.com/dreamzit02/rse1/ioutil/atomic"
	"github.com/dreamzit02/rse1/pipeline"
	"github.com/dreamzit02/rse1/telemetry"
)

// EncryptConfig and DecryptConfig re-export the pipeline package's transform
// configuration so callers only need to import the root package for the
// common case.
type EncryptConfig = pipeline.EncryptConfig

// DecryptConfig re-exports pipeline.DecryptConfig.
type DecryptConfig = pipeline.DecryptConfig

// Encrypt reads plaintext from r and writes a sealed RSE1 stream to w.
func Encrypt(ctx context.Context, w io.Writer, r io.Reader, cfg EncryptConfig) (telemetry.Snapshot, error) {
	return pipeline.Encrypt(ctx, w, r, cfg)
}

// Decrypt reads an RSE1 stream from r and writes the recovered plaintext to w.
func Decrypt(ctx context.Context, w io.Writer, r io.Reader, cfg DecryptConfig) (telemetry.Snapshot, error) {
	return pipeline.Decrypt(ctx, w, r, cfg)
}

// EncryptFile seals plaintext read from r into an RSE1 stream and atomically
// replaces the file at path with it, for the file-envelope use case named in
// the package overview: a reader opening path never observes a partially
// written stream, even if this process is killed mid-encrypt.
func EncryptFile(ctx context.Context, path string, r io.Reader, cfg EncryptConfig) (telemetry.Snapshot, error) {
	pr, pw := io.Pipe()

	var (
		snap   telemetry.Snapshot
		encErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		snap, encErr = pipeline.Encrypt(ctx, pw, r, cfg)
		_ = pw.CloseWithError(encErr)
	}()

	if err := atomic.WriteFile(path, pr); err != nil {
		// Unblock the encrypt goroutine if it is still mid-write before
		// collecting its error.
		_ = pr.CloseWithError(err)
		<-done
		return snap, combineErrors(encErr, err)
	}
	<-done
	return snap, encErr
}

// combineErrors merges a pipeline-side error with a sink-side error into a
// single *multierror.Error so neither cause is silently dropped when both
// the background transform and the blocking writer fail at once; either
// argument may be nil.
func combineErrors(errs ...error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// DecryptPipe decrypts a stream produced by an independent producer process
// connected over a pipe-like transport (an os.Pipe, a FIFO, a socket). r is
// wrapped with a per-read deadline so a stalled or hung producer fails the
// decrypt instead of blocking this goroutine forever.
func DecryptPipe(ctx context.Context, w io.Writer, r io.Reader, readTimeout time.Duration, cfg DecryptConfig) (telemetry.Snapshot, error) {
	return pipeline.Decrypt(ctx, w, ioutil.TimeoutReader(r, readTimeout), cfg)
}

// DecryptBounded decrypts a stream while refusing to emit more than maxSize
// bytes of recovered plaintext to w. It fails closed with
// ioutil.ErrTruncatedCopy rather than silently truncating, guarding a
// caller-chosen sink against a stream whose declared plaintext_size
// understates what its segments actually expand to.
func DecryptBounded(ctx context.Context, w io.Writer, r io.Reader, maxSize uint64, cfg DecryptConfig) (telemetry.Snapshot, error) {
	pr, pw := io.Pipe()

	var (
		snap   telemetry.Snapshot
		decErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		snap, decErr = pipeline.Decrypt(ctx, pw, r, cfg)
		_ = pw.CloseWithError(decErr)
	}()

	// LimitCopy checks the limit only after each page, so w is wrapped to
	// keep the overshoot of that last page from reaching it.
	limit := math.MaxInt
	if maxSize < uint64(math.MaxInt) {
		limit = int(maxSize)
	}
	if _, err := ioutil.LimitCopy(ioutil.LimitWriter(w, limit), pr, maxSize); err != nil {
		// Unblock the decrypt goroutine if it is still mid-write before
		// collecting its error.
		_ = pr.CloseWithError(err)
		<-done
		return snap, combineErrors(decErr, err)
	}
	<-done
	return snap, decErr
}
