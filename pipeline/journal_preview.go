// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"

	"github.com/dreamzit02/rse1/ioutil"
)

// journalPreviewLen bounds how many bytes of a segment's wire or plaintext
// get copied into its journal line, so a multi-megabyte segment doesn't turn
// every append into a multi-megabyte log write.
const journalPreviewLen = 32

// journalPreview truncates payload to journalPreviewLen bytes using the same
// bounded writer the file-envelope helpers use to cap output size, so the
// truncation behavior is shared code rather than re-implemented ad hoc.
func journalPreview(payload []byte) []byte {
	var buf bytes.Buffer
	lw := ioutil.LimitWriter(&buf, journalPreviewLen)
	_, _ = lw.Write(payload)
	return buf.Bytes()
}
