// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dreamzit02/rse1/log"
)

// Entry is one decoded journal line.
type Entry struct {
	Kind    Kind
	Text    string        // set for Kind == KindScheduler
	Payload []byte        // set for Kind == KindEncrypt / KindDecrypt
	Resume  *ResumeMarker // set for scheduler lines carrying a resume marker
}

// Replay streams path line by line, decoding every recognizable entry. Lines
// that don't parse as one of the known formats are discarded with a warning
// instead of aborting the whole replay: a journal is a best-effort recovery
// aid, and a single corrupt line (e.g. a torn write across a crash) must not
// make the rest of the file unusable.
func Replay(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: unable to open %q for replay: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			log.Level(log.ErrorLevel).Error(err).Field("journal", path).Field("line", lineNo).
				Message("discarding corrupt journal line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return entries, fmt.Errorf("journal: error scanning %q: %w", path, err)
	}

	return entries, nil
}

func parseLine(line string) (Entry, error) {
	switch {
	case strings.HasPrefix(line, string(KindScheduler)+": "):
		text := strings.TrimPrefix(line, string(KindScheduler)+": ")
		if strings.HasPrefix(text, resumeTag+"|") {
			m, err := ParseResumeMarker(text)
			if err != nil {
				return Entry{}, err
			}
			return Entry{Kind: KindScheduler, Text: text, Resume: &m}, nil
		}
		return Entry{Kind: KindScheduler, Text: text}, nil
	case strings.HasPrefix(line, string(KindEncrypt)+": "):
		payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, string(KindEncrypt)+": "))
		if err != nil {
			return Entry{}, fmt.Errorf("journal: invalid base64 payload on ENCRYPT line: %w", err)
		}
		return Entry{Kind: KindEncrypt, Payload: payload}, nil
	case strings.HasPrefix(line, string(KindDecrypt)+": "):
		payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, string(KindDecrypt)+": "))
		if err != nil {
			return Entry{}, fmt.Errorf("journal: invalid base64 payload on DECRYPT line: %w", err)
		}
		return Entry{Kind: KindDecrypt, Payload: payload}, nil
	default:
		return Entry{}, fmt.Errorf("journal: unrecognized line format")
	}
}

// LastResumeMarker returns the most recent resume marker found among
// entries, or nil if none are present. Only the last one matters: each
// resume marker supersedes every earlier one for the same stream.
func LastResumeMarker(entries []Entry) *ResumeMarker {
	var last *ResumeMarker
	for i := range entries {
		if entries[i].Resume != nil {
			last = entries[i].Resume
		}
	}
	return last
}
