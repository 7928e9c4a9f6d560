package pool

import (
	"net"
	"sync"

	"github.com/cuemby/aeroclient/pkg/ametrics"
)

// Kind distinguishes a pool's connections for metric labeling.
type Kind string

const (
	KindSync  Kind = "sync"
	KindAsync Kind = "async"
)

// Pool is a per-node LIFO of idle connections. Sync pools are bounded
// (PushIfUnderLimit drops and closes the connection past capacity);
// async pools pass limit=0 for unbounded growth.
type Pool struct {
	mu       sync.Mutex
	conns    []net.Conn
	limit    int
	node     string
	kind     Kind
}

// New creates a pool for the given node label and connection kind.
// limit of 0 means unbounded.
func New(node string, kind Kind, limit int) *Pool {
	return &Pool{node: node, kind: kind, limit: limit}
}

// PopNoWait removes and returns the most recently pushed connection, or
// nil if the pool is empty. It never blocks.
func (p *Pool) PopNoWait() net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.conns)
	if n == 0 {
		return nil
	}
	conn := p.conns[n-1]
	p.conns = p.conns[:n-1]
	ametrics.PoolIdleConnections.WithLabelValues(p.node, string(p.kind)).Set(float64(len(p.conns)))
	return conn
}

// PushIfUnderLimit returns conn to the pool, or closes it if the pool
// is already at capacity.
func (p *Pool) PushIfUnderLimit(conn net.Conn) {
	p.mu.Lock()
	if p.limit > 0 && len(p.conns) >= p.limit {
		p.mu.Unlock()
		_ = conn.Close()
		ametrics.PoolConnectionsClosedTotal.WithLabelValues(p.node, "pool_full").Inc()
		return
	}
	p.conns = append(p.conns, conn)
	depth := len(p.conns)
	p.mu.Unlock()
	ametrics.PoolIdleConnections.WithLabelValues(p.node, string(p.kind)).Set(float64(depth))
}

// DrainClose closes every idle connection and empties the pool.
func (p *Pool) DrainClose() {
	p.mu.Lock()
	conns := p.conns
	p.conns = nil
	p.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
		ametrics.PoolConnectionsClosedTotal.WithLabelValues(p.node, "drain").Inc()
	}
	ametrics.PoolIdleConnections.WithLabelValues(p.node, string(p.kind)).Set(0)
}

// Len reports the current number of idle connections.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
