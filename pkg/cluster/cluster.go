package cluster

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerolog"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

// Cluster is a live handle on an Aerospike cluster: its seed hosts, the
// nodes discovered from them, and the per-namespace partition tables
// that route a key to its owning node. Every exported operation is
// read-mostly under a single RWMutex; the tender is the sole writer.
type Cluster struct {
	policy *aerotypes.ClientPolicy

	mu         sync.RWMutex
	seedHosts  []string
	nodes      map[string]*Node               // name -> node
	partitions map[string]*PartitionTable      // namespace -> table
	nPartitions int

	foundAll      atomic.Bool
	tenderRunning atomic.Bool
	freed         atomic.Bool
	refcount      atomic.Int32
}

// NewCluster creates an empty cluster handle with no seeds yet. Callers
// must call AddSeedHost at least once before the cluster is usable.
func NewCluster(policy *aerotypes.ClientPolicy) *Cluster {
	if policy == nil {
		policy = aerotypes.DefaultClientPolicy()
	}
	c := &Cluster{
		policy:     policy,
		nodes:      make(map[string]*Node),
		partitions: make(map[string]*PartitionTable),
	}
	c.refcount.Store(1)
	registerCluster(c)
	return c
}

// AddSeedHost registers addr as a seed, triggers an immediate tend, and
// blocks until at least one live node is reachable or policy.Timeout
// elapses.
func (c *Cluster) AddSeedHost(ctx context.Context, addr string) error {
	c.mu.Lock()
	c.seedHosts = append(c.seedHosts, addr)
	c.foundAll.Store(false)
	c.mu.Unlock()

	deadline := time.Now().Add(c.policy.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	tendOnce(c)
	for len(c.LiveNodes()) == 0 {
		if time.Now().After(deadline) {
			return aeroerr.New(aeroerr.Timeout, "cluster: no reachable node after adding seed %q", addr)
		}
		select {
		case <-ctx.Done():
			return aeroerr.Wrap(aeroerr.Timeout, ctx.Err(), "cluster: context cancelled waiting for seed %q", addr)
		case <-time.After(20 * time.Millisecond):
		}
		tendOnce(c)
	}
	return nil
}

// LiveNodes returns a snapshot of every non-retired node.
func (c *Cluster) LiveNodes() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		if !n.IsRetired() {
			out = append(out, n)
		}
	}
	return out
}

// GetNode resolves key to the node that should serve the transaction.
// A partition-table hit is preferred; otherwise a random live node is
// returned so the transaction can still proceed (and learn the real
// owner from the response, if the server redirects).
func (c *Cluster) GetNode(key *aerotypes.Key, forWrite bool) (*Node, error) {
	c.mu.RLock()
	table := c.partitions[key.Namespace]
	nParts := c.nPartitions
	c.mu.RUnlock()

	if table != nil && nParts > 0 {
		n, err := table.Lookup(key.PartitionID(nParts), forWrite)
		if err != nil {
			return nil, err
		}
		if n != nil && !n.IsRetired() {
			return n, nil
		}
	}

	live := c.LiveNodes()
	if len(live) == 0 {
		return nil, aeroerr.New(aeroerr.NoAvailableConnections, "cluster: no live nodes for namespace %q", key.Namespace)
	}
	return live[rand.Intn(len(live))], nil
}

// NPartitions returns the cluster-wide partition count learned from the
// first successful "partitions" info call, or 0 before that.
func (c *Cluster) NPartitions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nPartitions
}

// Close releases the caller's reference; the cluster is torn down once
// the reference count reaches zero.
func (c *Cluster) Close() error {
	if c.refcount.Add(-1) > 0 {
		return nil
	}
	return c.destroy()
}

func (c *Cluster) destroy() error {
	unregisterCluster(c)
	for c.tenderRunning.Load() {
		time.Sleep(time.Millisecond)
	}
	c.freed.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.nodes {
		n.Close()
	}
	c.nodes = nil
	c.partitions = nil
	aerolog.Logger.Info().Msg("cluster: handle destroyed")
	return nil
}
