// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"lukechampine.com/blake3"

	"github.com/dreamzit02/rse1/internal/canon"
)

// resumeTag is the fixed prefix that distinguishes a resume marker line from
// any other journal line.
const resumeTag = "RESUME"

// checksumLen is the number of hex characters kept from the BLAKE3 digest
// over a resume marker's preceding fields.
const checksumLen = 8

// restartSentinel replaces the base64 state field when a marker carries no
// digest state: the stream must be reprocessed from the marked segment's
// first frame rather than resumed mid-segment.
const restartSentinel = "RESTART"

// ResumeMarker captures enough state for the pipeline to pick up a stream
// after the segment named by SegmentIndex instead of restarting it.
type ResumeMarker struct {
	SegmentIndex uint32
	NextFrame    uint32
	Alg          uint16
	State        []byte
}

// BuildResumeMarker formats m as "RESUME|seg|next_frame|alg|base64(state)|checksum8",
// with the literal RESTART in place of the state field when m carries none.
// checksum8 is the first 8 hex characters of the BLAKE3 digest over the
// pre-authentication-encoded preceding fields, so a truncated or
// field-shifted line is always caught instead of silently misparsed.
func BuildResumeMarker(m ResumeMarker) (string, error) {
	encodedState := restartSentinel
	if len(m.State) > 0 {
		encodedState = base64.StdEncoding.EncodeToString(m.State)
	}

	fields := []string{
		strconv.FormatUint(uint64(m.SegmentIndex), 10),
		strconv.FormatUint(uint64(m.NextFrame), 10),
		strconv.FormatUint(uint64(m.Alg), 10),
		encodedState,
	}

	sum, err := resumeChecksum(fields)
	if err != nil {
		return "", fmt.Errorf("journal: unable to checksum resume marker: %w", err)
	}

	return fmt.Sprintf("%s|%s|%s", resumeTag, strings.Join(fields, "|"), sum), nil
}

// ParseResumeMarker parses and verifies a resume marker line previously
// produced by BuildResumeMarker.
func ParseResumeMarker(line string) (ResumeMarker, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 6 || parts[0] != resumeTag {
		return ResumeMarker{}, fmt.Errorf("journal: malformed resume marker")
	}

	fields := parts[1:5]
	wantSum, err := resumeChecksum(fields)
	if err != nil {
		return ResumeMarker{}, fmt.Errorf("journal: unable to checksum resume marker: %w", err)
	}
	if wantSum != parts[5] {
		return ResumeMarker{}, fmt.Errorf("journal: resume marker checksum mismatch: got %s, want %s", parts[5], wantSum)
	}

	seg, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return ResumeMarker{}, fmt.Errorf("journal: invalid segment index: %w", err)
	}
	nextFrame, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return ResumeMarker{}, fmt.Errorf("journal: invalid next frame: %w", err)
	}
	alg, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return ResumeMarker{}, fmt.Errorf("journal: invalid alg: %w", err)
	}
	var state []byte
	if fields[3] != restartSentinel {
		state, err = base64.StdEncoding.DecodeString(fields[3])
		if err != nil {
			return ResumeMarker{}, fmt.Errorf("journal: invalid state encoding: %w", err)
		}
	}

	return ResumeMarker{
		SegmentIndex: uint32(seg),
		NextFrame:    uint32(nextFrame),
		Alg:          uint16(alg),
		State:        state,
	}, nil
}

func resumeChecksum(fields []string) (string, error) {
	pieces := make([][]byte, len(fields)+1)
	pieces[0] = []byte(resumeTag)
	for i, f := range fields {
		pieces[i+1] = []byte(f)
	}

	encoded, err := canon.PreAuthenticationEncoding(pieces...)
	if err != nil {
		return "", err
	}

	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:checksumLen], nil
}
