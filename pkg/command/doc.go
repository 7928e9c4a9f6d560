// Package command implements the transaction drivers that turn a
// cluster handle, a key, and a policy into bytes on the wire and a
// parsed result back: single-record read/write/operate,
// batch reads grouped by routing node, whole-table scans, and
// secondary-index queries. Every driver selects its node(s) through
// pkg/cluster, borrows a connection from pkg/pool, and frames its
// request with pkg/proto.
package command
