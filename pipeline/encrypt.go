// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamzit02/rse1/aead"
	"github.com/dreamzit02/rse1/compression"
	"github.com/dreamzit02/rse1/errs"
	"github.com/dreamzit02/rse1/internal/randomness"
	"github.com/dreamzit02/rse1/journal"
	"github.com/dreamzit02/rse1/kdf"
	"github.com/dreamzit02/rse1/scheduler"
	"github.com/dreamzit02/rse1/sessionkey"
	"github.com/dreamzit02/rse1/telemetry"
	"github.com/dreamzit02/rse1/wire"
)

// applyEncryptDefaults fills in the zero-valued policy fields of cfg with
// the protocol's baseline choices, so a caller that only sets MasterKey
// still gets a valid, internally consistent header.
func applyEncryptDefaults(cfg *EncryptConfig) error {
	if cfg.Cipher == 0 {
		cfg.Cipher = wire.CipherAES256GCM
	}
	if cfg.HKDFPRF == 0 {
		cfg.HKDFPRF = wire.PRFSHA256
	}
	if cfg.AADDomain == 0 {
		cfg.AADDomain = wire.AADDomainGeneric
	}
	if cfg.Strategy == 0 {
		cfg.Strategy = wire.StrategyBalanced
	}
	if len(cfg.Salt) == 0 {
		salt, err := randomness.Bytes(16)
		if err != nil {
			return errs.New(errs.KindCrypto, "encrypt.defaults", fmt.Errorf("unable to generate stream salt: %w", err))
		}
		cfg.Salt = salt
	}
	if len(cfg.Salt) != 16 {
		return errs.New(errs.KindValidation, "encrypt.defaults", fmt.Errorf("salt must be 16 bytes, got %d", len(cfg.Salt)))
	}
	return nil
}

// Encrypt reads plaintext from r, seals it into an RSE1 stream, and writes
// the stream to w. It returns a telemetry snapshot of the run.
func Encrypt(ctx context.Context, w io.Writer, r io.Reader, cfg EncryptConfig) (telemetry.Snapshot, error) {
	if err := applyEncryptDefaults(&cfg); err != nil {
		return telemetry.Snapshot{}, err
	}

	chunkSize := cfg.chunkSize()

	header := &wire.Header{
		Version:       wire.StreamVersion,
		Cipher:        cfg.Cipher,
		HKDFPRF:       cfg.HKDFPRF,
		Compression:   cfg.Compression,
		Strategy:      cfg.Strategy,
		AADDomain:     cfg.AADDomain,
		ChunkSize:     chunkSize,
		PlaintextSize: uint64(cfg.TotalSize),
		DictID:        cfg.DictID,
		KeyID:         cfg.KeyID,
		AlgProfile:    cfg.AlgProfile,
		ParallelHint:  uint32(cfg.profile().CPUWorkers),
		EncTimeNanos:  cfg.EncTimeNanos,
	}
	if header.EncTimeNanos == 0 {
		header.EncTimeNanos = uint64(time.Now().UnixNano())
	}
	copy(header.Salt[:], cfg.Salt)
	if cfg.DictID != 0 {
		header.Flags |= wire.FlagDictUsed
	}
	if cfg.TotalSize > 0 {
		header.Flags |= wire.FlagHasTotalLen
	}

	encodedHeader, err := header.Encode()
	if err != nil {
		return telemetry.Snapshot{}, err
	}

	rawSessionKey, err := kdf.DeriveSessionKey(cfg.MasterKey, header)
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	sk := sessionkey.New(rawSessionKey)
	skBuf, err := sk.Open()
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	defer skBuf.Destroy()
	aeadCipher, err := aead.New(header.Cipher, skBuf.Bytes())
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	rec := cfg.recorder()

	baseCodec, err := compression.NewWithStrategy(header.Compression, cfg.Dict, header.Strategy)
	if err != nil {
		return telemetry.Snapshot{}, err
	}
	codec := timedCodec{Codec: baseCodec, rec: rec}

	sched := scheduler.New(cfg.profile())

	writeStart := time.Now()
	if _, err := w.Write(encodedHeader); err != nil {
		return telemetry.Snapshot{}, errs.New(errs.KindIO, "encrypt", err)
	}
	rec.Record(telemetry.StageWrite, time.Since(writeStart), int64(len(encodedHeader)), 0)

	assembler := NewOrderedEncryptedWriter(w)

	inflight := cfg.profile().InflightSegments
	rawCh := make(chan rawSegment, inflight)
	segCh := make(chan encodedSegment, inflight)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return readSegments(gctx, r, chunkSize, rawCh)
	})

	var lastIndex atomic.Uint32
	var haveAny atomic.Bool

	workers := cfg.profile().CPUWorkers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	// segCh is closed once every worker has returned, so the assembler
	// goroutine below terminates on both the success and the error path.
	var workersDone sync.WaitGroup
	workersDone.Add(workers)
	go func() {
		workersDone.Wait()
		close(segCh)
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
					haveAny.Store(true)
					for {
						cur := lastIndex.Load()
						if raw.index+1 <= cur || lastIndex.CompareAndSwap(cur, raw.index+1) {
							break
						}
					}

					start := time.Now()
					target := sched.Dispatch(int64(len(raw.data)))
					seg, err := encodeSegment(aeadCipher, header.Salt[:], encodedHeader, codec, raw.index, raw.data)
					sched.Complete(target)
					rec.Record(telemetry.StageSegmentEncrypt, time.Since(start), int64(len(raw.data)), 1)
					if err != nil {
						return err
					}

					if cfg.Journal != nil {
						recordEncryptJournal(cfg.Journal, raw.index, target, seg)
					}

					select {
					case segCh <- seg:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
		})
	}

	g.Go(func() error {
		for seg := range segCh {
			if err := assembler.Submit(seg); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return rec.Snapshot(), err
	}

	if !haveAny.Load() {
		return rec.Snapshot(), errs.New(errs.KindValidation, "encrypt", errEmptyInput)
	}

	finalSeg, err := encodeFinalMarker(lastIndex.Load())
	if err != nil {
		return rec.Snapshot(), err
	}
	if err := assembler.Submit(finalSeg); err != nil {
		return rec.Snapshot(), err
	}
	if err := assembler.Finish(); err != nil {
		return rec.Snapshot(), err
	}

	return rec.Snapshot(), nil
}

func recordEncryptJournal(rec *journal.Recorder, index uint32, target scheduler.Target, seg encodedSegment) {
	rec.AppendScheduler(fmt.Sprintf("encrypt segment=%d gpu=%v worker=%d", index, target.GPU, target.Index))

	rec.AppendEncrypt(journalPreview(seg.wire))

	marker, err := journal.BuildResumeMarker(journal.ResumeMarker{
		SegmentIndex: index,
		NextFrame:    (index + 1) * framesPerSegmentCap,
		Alg:          uint16(segmentDigestAlg),
	})
	if err == nil {
		rec.AppendResumeMarker(marker)
	}
}
