// Package proto implements the binary wire framing: the 8-byte proto
// header shared by info and message traffic, the 22-byte cl_msg header,
// and the self-describing field and op lists that follow it. Every
// decode error below is a distinct kind
// (see pkg/aeroerr) rather than a single generic "parse failed" —
// callers that care about the difference between a truncated op and an
// unknown particle type can tell them apart.
package proto
