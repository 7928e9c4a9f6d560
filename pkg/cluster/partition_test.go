package cluster

import (
	"testing"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

func TestPartitionTableLookupFallsBackToWriteOwner(t *testing.T) {
	table := NewPartitionTable("test", 4096)
	writeNode := NewNode("write-node", "127.0.0.1:3000", 50, nil)
	table.SetOwners(10, writeNode, nil)

	n, err := table.Lookup(10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != writeNode {
		t.Fatalf("expected read lookup to fall back to write owner, got %v", n)
	}
}

func TestPartitionTableLookupPrefersReadOwner(t *testing.T) {
	table := NewPartitionTable("test", 4096)
	writeNode := NewNode("write-node", "127.0.0.1:3000", 50, nil)
	readNode := NewNode("read-node", "127.0.0.1:3001", 50, nil)
	table.SetOwners(10, writeNode, readNode)

	n, err := table.Lookup(10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != readNode {
		t.Fatalf("expected dedicated read owner, got %v", n)
	}

	n, err = table.Lookup(10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != writeNode {
		t.Fatalf("expected write owner for a write lookup, got %v", n)
	}
}

func TestPartitionTableUnownedSlotIsNilOutsideSCMode(t *testing.T) {
	table := NewPartitionTable("test", 4096)
	n, err := table.Lookup(10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil owner for an untouched slot, got %v", n)
	}
}

func TestPartitionTableUnownedSlotErrorsInSCMode(t *testing.T) {
	table := NewPartitionTable("test", 4096)
	table.SCMode = true
	_, err := table.Lookup(10, true)
	if !aeroerr.Is(err, aeroerr.PartitionUnavailable) {
		t.Fatalf("expected PartitionUnavailable in SCMode, got %v", err)
	}
}

func TestPartitionTableRemoveNodeClearsAllItsSlots(t *testing.T) {
	table := NewPartitionTable("test", 4096)
	a := NewNode("node-a", "127.0.0.1:3000", 50, nil)
	b := NewNode("node-b", "127.0.0.1:3001", 50, nil)
	table.SetOwners(1, a, a)
	table.SetOwners(2, b, b)

	table.RemoveNode(a)

	if table.WriteOwner(1) != nil || table.ReadOwner(1) != nil {
		t.Fatal("expected node-a's slot to be cleared")
	}
	if table.WriteOwner(2) != b {
		t.Fatal("expected node-b's slot to be untouched")
	}
}
