// SPDX-License-Identifier: MIT

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSSE(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		event string
		want  string
	}{
		{
			name:  "named event",
			data:  `<img src="static/shared/1.png" alt="">`,
			event: "message",
			want:  "event: message\ndata: <img src=\"static/shared/1.png\" alt=\"\">\n\n",
		},
		{
			name: "no event name",
			data: "payload",
			want: "data: payload\n\n",
		},
		{
			name:  "multiline data",
			data:  "line1\nline2",
			event: "message",
			want:  "event: message\ndata: line1\ndata: line2\n\n",
		},
		{
			name: "empty data still terminates",
			data: "",
			want: "data: \n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSSE(tt.data, tt.event))
		})
	}
}

func TestKeepaliveFrameIsComment(t *testing.T) {
	assert.Equal(t, byte(':'), KeepaliveFrame[0])
	assert.Equal(t, "\n\n", KeepaliveFrame[len(KeepaliveFrame)-2:])
}
