// Package pool manages a node's sockets: a bounded LIFO of idle
// synchronous connections plus an unbounded LIFO for async connections.
// Socket creation tries each of a node's known
// addresses in order with a blocking connect, setting TCP_NODELAY; there
// is no non-blocking connect mode. A pool never marks its
// owning node down on a dial failure — that is the tender's job, driven
// by the health score in pkg/cluster.
package pool
