package info

import (
	"strings"

	"github.com/cuemby/aeroclient/pkg/proto"
)

// BuildRequest renders commands as a proto.MessageTypeInfo payload: the
// command names joined by newline, with a trailing newline.
func BuildRequest(commands ...string) []byte {
	var b strings.Builder
	for _, c := range commands {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// PackRequest wraps BuildRequest's payload in its proto header.
func PackRequest(commands ...string) []byte {
	body := BuildRequest(commands...)
	h := proto.Header{Type: proto.MessageTypeInfo, Size: uint64(len(body))}
	hdr := h.Pack()
	out := make([]byte, 0, len(hdr)+len(body))
	out = append(out, hdr[:]...)
	out = append(out, body...)
	return out
}
