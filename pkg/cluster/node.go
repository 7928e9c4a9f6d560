package cluster

import (
	"crypto/tls"
	"sync"
	"sync/atomic"

	"github.com/cuemby/aeroclient/pkg/aerolog"
	"github.com/cuemby/aeroclient/pkg/ametrics"
	"github.com/cuemby/aeroclient/pkg/pool"
)

// PartitionGenerationUnknown is the sentinel a freshly discovered node
// carries until its first "partition-generation" info response arrives.
const PartitionGenerationUnknown uint32 = 0xFFFFFFFF

// defaultSyncPoolCap is the per-node bound on idle synchronous sockets.
const defaultSyncPoolCap = 300

// Node is one cluster member. Its name is immutable once discovered;
// its address set only grows (a node is retired and replaced by a new
// Node value rather than shrinking its addresses in place).
type Node struct {
	name string

	mu        sync.RWMutex
	addresses []string

	partitionGeneration atomic.Uint32
	health              atomic.Int32
	retired             atomic.Bool
	refcount            atomic.Int32

	retirementThreshold int32
	tlsConfig           *tls.Config

	SyncPool  *pool.Pool
	AsyncPool *pool.Pool
}

// NewNode creates a node seen for the first time at addr. tlsConfig, if
// non-nil, wraps every connection this node's pools open.
func NewNode(name, addr string, retirementThreshold int32, tlsConfig *tls.Config) *Node {
	n := &Node{
		name:                name,
		addresses:           []string{addr},
		retirementThreshold: retirementThreshold,
		tlsConfig:           tlsConfig,
		SyncPool:            pool.New(name, pool.KindSync, defaultSyncPoolCap),
		AsyncPool:           pool.New(name, pool.KindAsync, 0),
	}
	n.partitionGeneration.Store(PartitionGenerationUnknown)
	return n
}

// TLSConfig returns the TLS config this node's connections should be
// wrapped with, or nil for plaintext.
func (n *Node) TLSConfig() *tls.Config { return n.tlsConfig }

// Name returns the node's server-reported name.
func (n *Node) Name() string { return n.name }

// Addresses returns a snapshot of the node's known addresses.
func (n *Node) Addresses() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.addresses))
	copy(out, n.addresses)
	return out
}

// AddAddress appends addr to the node's address set if not already
// present. The set only grows; a stale address is harmless since Dial
// tries every address and skips unreachable ones.
func (n *Node) AddAddress(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, a := range n.addresses {
		if a == addr {
			return
		}
	}
	n.addresses = append(n.addresses, addr)
}

// PartitionGeneration returns the generation counter last observed for
// this node, or PartitionGenerationUnknown before the first tend cycle.
func (n *Node) PartitionGeneration() uint32 {
	return n.partitionGeneration.Load()
}

// SetPartitionGeneration records a newly observed generation counter.
func (n *Node) SetPartitionGeneration(gen uint32) {
	n.partitionGeneration.Store(gen)
}

// AddHealth adjusts the node's health score by delta (positive on
// error, reset to zero on success via ResetHealth) and retires the node
// once the score crosses retirementThreshold. It reports whether this
// call caused retirement.
func (n *Node) AddHealth(delta int32) (retiredNow bool) {
	score := n.health.Add(delta)
	if score >= n.retirementThreshold && !n.retired.Load() {
		if n.retired.CompareAndSwap(false, true) {
			aerolog.WithNode(n.name).Warn().Int32("score", score).Msg("cluster: node crossed retirement threshold")
			ametrics.NodesRetiredTotal.Inc()
			return true
		}
	}
	return false
}

// ResetHealth clears the health score back to zero after a successful
// transaction, the server's own signal that the node is responsive.
func (n *Node) ResetHealth() {
	n.health.Store(0)
}

// HealthScore returns the current health score, for diagnostics.
func (n *Node) HealthScore() int32 {
	return n.health.Load()
}

// IsRetired reports whether this node has crossed its retirement
// threshold and is pending reaping by the next tend cycle.
func (n *Node) IsRetired() bool {
	return n.retired.Load()
}

// Retain increments the node's reference count; callers holding a
// reference across a transaction must pair this with Release.
func (n *Node) Retain() {
	n.refcount.Add(1)
}

// Release decrements the reference count.
func (n *Node) Release() {
	n.refcount.Add(-1)
}

// Close drains both connection pools. The tender calls it when it reaps
// a retired node and Cluster teardown calls it for every node; neither
// consults the Retain/Release reference count, and Release never calls
// Close itself.
func (n *Node) Close() {
	n.SyncPool.DrainClose()
	n.AsyncPool.DrainClose()
}
