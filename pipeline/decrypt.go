// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamzit02/rse1/aead"
	"github.com/dreamzit02/rse1/compression"
	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/journal"
	"github.com/dreamzit02/rse1/kdf"
	"github.com/dreamzit02/rse1/scheduler"
	"github.com/dreamzit02/rse1/sessionkey"
	"github.com/dreamzit02/rse1/telemetry"
	"github.com/dreamzit02/rse1/wire"
)

// rawEncSegment is one segment's header plus wire payload read directly off
// the stream, paired with whether it carries the stream's trailing marker.
type rawEncSegment struct {
	index uint32
	sh    *wire.SegmentHeader
	wire  []byte
	final bool
}

// decodedSegment is one segment's recovered plaintext, ready for the ordered
// writer.
type decodedSegment struct {
	index     uint32
	plaintext []byte
	final     bool
}

// readEncryptedSegments reads r as a sequence of SegmentHeader + wire-payload
// pairs, sending one rawEncSegment per segment to out in ascending order. It
// stops after the first segment carrying SegmentFinal and closes out, and
// returns early when ctx is canceled so a downstream failure never leaves it
// blocked on a send nobody will receive. A stream that ends before a final
// marker arrives is a Segment error, since every valid RSE1 stream is
// terminated by a FINAL_SEGMENT marker.
func readEncryptedSegments(ctx context.Context, r io.Reader, out chan<- rawEncSegment) error {
	defer close(out)

	shBuf := make([]byte, wire.SegmentHeaderLen)
	for {
		if _, err := io.ReadFull(r, shBuf); err != nil {
			if err == io.EOF {
				return errs.New(errs.KindSegment, "read_encrypted_segments", fmt.Errorf("stream ended without a final segment marker"))
			}
			return errs.New(errs.KindIO, "read_encrypted_segments", err)
		}
		sh, err := wire.DecodeSegmentHeader(shBuf)
		if err != nil {
			return err
		}

		final := sh.Flags&wire.SegmentFinal != 0

		var wireBytes []byte
		if sh.WireLen > 0 {
			wireBytes = make([]byte, sh.WireLen)
			if _, err := io.ReadFull(r, wireBytes); err != nil {
				return errs.New(errs.KindIO, "read_encrypted_segments", err)
			}
		}

		select {
		case out <- rawEncSegment{index: sh.SegmentIndex, sh: sh, wire: wireBytes, final: final}:
		case <-ctx.Done():
			return ctx.Err()
		}

		if final {
			return nil
		}
	}
}

// Decrypt reads an RSE1 stream from r, verifies and opens it, and writes the
// recovered plaintext to w. Every wire policy field (cipher, PRF,
// compression, chunk size, ...) is read back from the stream's own header;
// cfg supplies only the key material and the optional parallelism,
// telemetry, and journal collaborators. It returns a telemetry snapshot of
// the run.
//
// No byte of plaintext for a segment is ever written until that segment's
// wire CRC32, every frame's AEAD tag, and its digest frame have all
// verified: a tampered stream fails closed with a typed error and no
// partial output.
func Decrypt(ctx context.Context, w io.Writer, r io.Reader, cfg DecryptConfig) (telemetry.Snapshot, error) {
	rec := cfg.recorder()

	readStart := time.Now()
	headerBuf := make([]byte, wire.HeaderLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return rec.Snapshot(), errs.New(errs.KindIO, "decrypt", fmt.Errorf("unable to read stream header: %w", err))
	}
	header, err := wire.Decode(headerBuf)
	if err != nil {
		return rec.Snapshot(), err
	}
	rec.Record(telemetry.StageRead, time.Since(readStart), int64(len(headerBuf)), 0)

	rawSessionKey, err := kdf.DeriveSessionKey(cfg.MasterKey, header)
	if err != nil {
		return rec.Snapshot(), err
	}
	sk := sessionkey.New(rawSessionKey)
	skBuf, err := sk.Open()
	if err != nil {
		return rec.Snapshot(), err
	}
	defer skBuf.Destroy()
	aeadCipher, err := aead.New(header.Cipher, skBuf.Bytes())
	if err != nil {
		return rec.Snapshot(), err
	}
	baseCodec, err := compression.NewWithStrategy(header.Compression, cfg.Dict, header.Strategy)
	if err != nil {
		return rec.Snapshot(), err
	}
	codec := timedCodec{Codec: baseCodec, rec: rec}

	sched := scheduler.New(cfg.profile())
	assembler := NewOrderedPlaintextWriter(w)

	inflight := cfg.profile().InflightSegments
	rawCh := make(chan rawEncSegment, inflight)
	outCh := make(chan decodedSegment, inflight)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return readEncryptedSegments(gctx, r, rawCh)
	})

	workers := cfg.profile().CPUWorkers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	// outCh is closed once every worker has returned, so the assembler
	// goroutine below terminates on both the success and the error path.
	var workersDone sync.WaitGroup
	workersDone.Add(workers)
	go func() {
		workersDone.Wait()
		close(outCh)
	}()

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer workersDone.Done()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case raw, ok := <-rawCh:
					if !ok {
						return nil
					}

					if raw.final && raw.sh.WireLen == 0 {
						select {
						case outCh <- decodedSegment{index: raw.index, final: true}:
						case <-gctx.Done():
							return gctx.Err()
						}
						continue
					}

					start := time.Now()
					target := sched.Dispatch(int64(len(raw.wire)))
					plaintext, err := decodeSegment(aeadCipher, header.Salt[:], headerBuf, raw.sh, raw.wire, codec)
					sched.Complete(target)
					rec.Record(telemetry.StageSegmentDecrypt, time.Since(start), int64(len(raw.wire)), 1)
					if err != nil {
						return err
					}

					if cfg.Journal != nil {
						recordDecryptJournal(cfg.Journal, raw.index, target, plaintext)
					}

					select {
					case outCh <- decodedSegment{index: raw.index, plaintext: plaintext, final: raw.final}:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
		})
	}

	g.Go(func() error {
		for seg := range outCh {
			if err := assembler.Submit(seg.index, seg.plaintext, seg.final); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return rec.Snapshot(), err
	}

	if err := assembler.Finish(); err != nil {
		return rec.Snapshot(), err
	}

	return rec.Snapshot(), nil
}

func recordDecryptJournal(rec *journal.Recorder, index uint32, target scheduler.Target, plaintext []byte) {
	rec.AppendScheduler(fmt.Sprintf("decrypt segment=%d gpu=%v worker=%d", index, target.GPU, target.Index))

	rec.AppendDecrypt(journalPreview(plaintext))
}
