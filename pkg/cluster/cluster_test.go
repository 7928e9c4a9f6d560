package cluster

import (
	"testing"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

func newTestCluster(t *testing.T) *Cluster {
	t.Helper()
	c := NewCluster(aerotypes.DefaultClientPolicy())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClusterGetNodeUsesPartitionTable(t *testing.T) {
	c := newTestCluster(t)
	owner := NewNode("owner", "127.0.0.1:3000", 50, nil)

	c.mu.Lock()
	c.nodes[owner.Name()] = owner
	c.nPartitions = 4096
	table := NewPartitionTable("test", 4096)
	c.partitions["test"] = table
	c.mu.Unlock()

	key, err := aerotypes.NewKey("test", "demo", aerotypes.StringValue("k1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table.SetOwners(key.PartitionID(4096), owner, owner)

	n, err := c.GetNode(key, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != owner {
		t.Fatalf("expected partition-table owner, got %v", n)
	}
}

func TestClusterGetNodeFallsBackToRandomLiveNode(t *testing.T) {
	c := newTestCluster(t)
	only := NewNode("only", "127.0.0.1:3000", 50, nil)

	c.mu.Lock()
	c.nodes[only.Name()] = only
	c.mu.Unlock()

	key, err := aerotypes.NewKey("test", "demo", aerotypes.StringValue("k1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := c.GetNode(key, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != only {
		t.Fatalf("expected the only live node as fallback, got %v", n)
	}
}

func TestClusterGetNodeErrorsWithNoLiveNodes(t *testing.T) {
	c := newTestCluster(t)
	key, err := aerotypes.NewKey("test", "demo", aerotypes.StringValue("k1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.GetNode(key, false); err == nil {
		t.Fatal("expected an error when no nodes are registered")
	}
}

func TestClusterLiveNodesExcludesRetired(t *testing.T) {
	c := newTestCluster(t)
	live := NewNode("live", "127.0.0.1:3000", 50, nil)
	retired := NewNode("retired", "127.0.0.1:3001", 1, nil)
	retired.AddHealth(5)

	c.mu.Lock()
	c.nodes[live.Name()] = live
	c.nodes[retired.Name()] = retired
	c.mu.Unlock()

	nodes := c.LiveNodes()
	if len(nodes) != 1 || nodes[0] != live {
		t.Fatalf("expected only the live node, got %v", nodes)
	}
}
