// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/dreamzit02/rse1/log"
)

// archivalZstdLevel is the compression level applied to rotated journal
// files. Level 3 favors fast archival over ratio: rotated files are
// write-once audit trails, not a storage target worth spending CPU on.
const archivalZstdLevel = 3

// rotate acquires the file lock before delegating to rotateLocked. It is
// the entry point used when a rotation is requested directly (Rotate)
// rather than triggered by the append counter.
func (r *Recorder) rotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotateLocked()
}

// rotateLocked closes the current file, renames it with a UTC timestamp
// suffix, kicks off asynchronous archival of the renamed file, and opens a
// fresh file at the journal's configured path. Callers must hold r.mu.
func (r *Recorder) rotateLocked() {
	if r.file == nil {
		return
	}

	if err := r.file.Close(); err != nil {
		log.Error(err).Field("journal", r.path).Message("unable to close journal file before rotation")
	}

	rotatedPath := fmt.Sprintf("%s.%s", r.path, nowUTC().Format("20060102T150405Z"))
	if err := os.Rename(r.path, rotatedPath); err != nil {
		log.Error(err).Field("journal", r.path).Message("unable to rename journal file for rotation")
	} else {
		go archive(rotatedPath)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Error(err).Field("journal", r.path).Message("unable to reopen journal file after rotation")
		r.file = nil
		return
	}

	r.file = f
	r.appended = 0
}

// archive zstd-compresses path into path+".zst" and removes the
// uncompressed rotated file on success. It runs detached from the writer
// goroutine so a slow archival pass never delays subsequent journal
// appends.
func archive(path string) {
	src, err := os.Open(path)
	if err != nil {
		log.Error(err).Field("journal", path).Message("unable to open rotated journal file for archival")
		return
	}
	defer src.Close()

	dstPath := path + ".zst"
	dst, err := os.Create(dstPath)
	if err != nil {
		log.Error(err).Field("journal", path).Message("unable to create archive file")
		return
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(archivalZstdLevel)))
	if err != nil {
		log.Error(err).Field("journal", path).Message("unable to build zstd archival encoder")
		return
	}

	if _, err := enc.ReadFrom(src); err != nil {
		log.Error(err).Field("journal", path).Message("archival compression failed")
		enc.Close()
		return
	}
	if err := enc.Close(); err != nil {
		log.Error(err).Field("journal", path).Message("unable to finalize archive file")
		return
	}

	if err := os.Remove(path); err != nil {
		log.Error(err).Field("journal", path).Message("unable to remove rotated journal file after archival")
	}
}
