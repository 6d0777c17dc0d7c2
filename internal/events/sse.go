// SPDX-License-Identifier: MIT

package events

import (
	"strings"
)

// FormatSSE formats a payload as a server-sent event frame. Multi-line data
// becomes one data: line per line, per the event stream format.
func FormatSSE(data, event string) string {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// KeepaliveFrame is the comment frame sent to hold idle SSE connections open.
const KeepaliveFrame = ": keepalive\n\n"
