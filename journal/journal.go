// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

// Package journal implements the crash-safe, append-only recovery log that
// shadows a running pipeline: every scheduler dispatch decision and every
// encrypt/decrypt segment outcome is appended as a line of text, flushed to
// disk immediately, so a process that dies mid-stream can resume from the
// last committed segment instead of restarting the whole transform.
package journal

import (
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dreamzit02/rse1/log"
)

// commandQueueDepth bounds the in-memory queue of pending journal writes.
// The channel approximates an unbounded queue: it is sized generously so
// that normal pipeline throughput never fills it, and a full queue is
// treated as back-pressure to shed, not a condition to block on (see
// Append/Rotate).
const commandQueueDepth = 65536

// Kind classifies a journal line's origin.
type Kind string

// Journal line kinds.
const (
	KindScheduler Kind = "SCHEDULER"
	KindEncrypt   Kind = "ENCRYPT"
	KindDecrypt   Kind = "DECRYPT"
)

type commandType int

const (
	cmdAppend commandType = iota
	cmdRotate
)

type command struct {
	typ  commandType
	line string
}

// Recorder owns one journal file and a single background writer goroutine.
// All public methods are safe for concurrent use by any number of pipeline
// worker goroutines: they only ever enqueue work, never touch the file
// directly.
type Recorder struct {
	path          string
	rotationLimit int

	queue chan command

	mu       sync.Mutex
	file     *os.File
	appended int
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Open creates or appends to the journal file at path and starts its
// background writer. After rotationLimit appended lines, the file is
// rotated: renamed with a UTC timestamp suffix and archived asynchronously
// (see rotate.go), with a fresh file opened at path.
func Open(path string, rotationLimit int) (*Recorder, error) {
	if rotationLimit <= 0 {
		rotationLimit = DefaultRotationLimit
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: unable to open %q: %w", path, err)
	}

	r := &Recorder{
		path:          path,
		rotationLimit: rotationLimit,
		file:          f,
		queue:         make(chan command, commandQueueDepth),
		done:          make(chan struct{}),
	}

	r.wg.Add(1)
	go r.loop()

	return r, nil
}

// DefaultRotationLimit is the number of appended lines after which a
// journal file is rotated when the caller doesn't specify one.
const DefaultRotationLimit = 10000

// AppendScheduler records a scheduler dispatch decision as free text.
func (r *Recorder) AppendScheduler(text string) {
	r.enqueue(cmdAppend, fmt.Sprintf("%s: %s", KindScheduler, text))
}

// AppendEncrypt records an encrypt-side segment outcome. payload is
// base64-encoded before being written.
func (r *Recorder) AppendEncrypt(payload []byte) {
	r.enqueue(cmdAppend, fmt.Sprintf("%s: %s", KindEncrypt, base64.StdEncoding.EncodeToString(payload)))
}

// AppendDecrypt records a decrypt-side segment outcome. payload is
// base64-encoded before being written.
func (r *Recorder) AppendDecrypt(payload []byte) {
	r.enqueue(cmdAppend, fmt.Sprintf("%s: %s", KindDecrypt, base64.StdEncoding.EncodeToString(payload)))
}

// AppendResumeMarker records a pre-built resume marker (see
// BuildResumeMarker) as a scheduler line.
func (r *Recorder) AppendResumeMarker(marker string) {
	r.AppendScheduler(marker)
}

// Rotate forces a rotation regardless of the append count.
func (r *Recorder) Rotate() {
	r.enqueue(cmdRotate, "")
}

// enqueue posts a command to the background writer without blocking. A full
// queue is logged and the command is dropped: the journal is diagnostic and
// best-effort, and must never become a source of pipeline back-pressure.
func (r *Recorder) enqueue(typ commandType, line string) {
	select {
	case r.queue <- command{typ: typ, line: line}:
	default:
		log.Level(log.ErrorLevel).Field("journal", r.path).Message("journal queue full, dropping entry")
	}
}

// Close stops the background writer after draining any queued commands and
// closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	for {
		select {
		case cmd := <-r.queue:
			r.handle(cmd)
		case <-r.done:
			// Drain whatever is left without blocking further.
			for {
				select {
				case cmd := <-r.queue:
					r.handle(cmd)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) handle(cmd command) {
	switch cmd.typ {
	case cmdAppend:
		r.write(cmd.line)
	case cmdRotate:
		r.rotate()
	}
}

func (r *Recorder) write(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return
	}
	if _, err := r.file.WriteString(line + "\n"); err != nil {
		log.Error(err).Field("journal", r.path).Message("journal append failed")
		return
	}
	if err := r.file.Sync(); err != nil {
		log.Error(err).Field("journal", r.path).Message("journal fsync failed")
	}

	r.appended++
	if r.appended >= r.rotationLimit {
		r.rotateLocked()
	}
}

var nowUTC = func() time.Time { return time.Now().UTC() }
