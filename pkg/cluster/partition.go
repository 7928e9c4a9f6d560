package cluster

import (
	"sync"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// PartitionTable tracks, for one namespace, which node currently owns
// each partition for writes and for reads. Every read and update takes
// the table's own RWMutex (one lock for the whole table, not one per
// slot), so a tend cycle updating a namespace never takes the cluster
// lock, and each slot update is seen whole or not at all.
type PartitionTable struct {
	Namespace   string
	NPartitions int
	SCMode      bool // strong-consistency: an unowned slot is an error, not a fallback

	mu           sync.RWMutex
	writeOwners  []*Node
	readOwners   []*Node
}

// NewPartitionTable allocates an empty table for namespace with
// nPartitions slots (every slot starts unowned).
func NewPartitionTable(namespace string, nPartitions int) *PartitionTable {
	return &PartitionTable{
		Namespace:   namespace,
		NPartitions: nPartitions,
		writeOwners: make([]*Node, nPartitions),
		readOwners:  make([]*Node, nPartitions),
	}
}

// SetOwners records the write/read owner for one partition slot.
func (t *PartitionTable) SetOwners(partitionID int, write, read *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeOwners[partitionID] = write
	t.readOwners[partitionID] = read
}

// WriteOwner returns the node currently responsible for writes to
// partitionID, or nil if unowned.
func (t *PartitionTable) WriteOwner(partitionID int) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.writeOwners[partitionID]
}

// ReadOwner returns the node currently responsible for reads of
// partitionID, or nil if unowned.
func (t *PartitionTable) ReadOwner(partitionID int) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.readOwners[partitionID]
}

// Lookup resolves partitionID to the node a transaction of the given
// write-ness should use. In SCMode, an unowned slot is a
// PartitionUnavailable error rather than silently falling back.
func (t *PartitionTable) Lookup(partitionID int, forWrite bool) (*Node, error) {
	var n *Node
	if forWrite {
		n = t.WriteOwner(partitionID)
	} else {
		n = t.ReadOwner(partitionID)
		if n == nil {
			n = t.WriteOwner(partitionID)
		}
	}
	if n == nil && t.SCMode {
		return nil, aeroerr.New(aeroerr.PartitionUnavailable, "cluster: namespace %q partition %d has no owner", t.Namespace, partitionID)
	}
	return n, nil
}

// RemoveNode clears every slot owned by n, as the final step of
// reaping a retired node so no transaction is routed to it again.
func (t *PartitionTable) RemoveNode(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.writeOwners {
		if t.writeOwners[i] == n {
			t.writeOwners[i] = nil
		}
		if t.readOwners[i] == n {
			t.readOwners[i] = nil
		}
	}
}
