package cluster

import "testing"

func TestNodeAddAddressDeduplicates(t *testing.T) {
	n := NewNode("BB9020011AC4202", "127.0.0.1:3000", 50, nil)
	n.AddAddress("127.0.0.1:3000")
	n.AddAddress("10.0.0.5:3000")
	addrs := n.Addresses()
	if len(addrs) != 2 {
		t.Fatalf("expected 2 distinct addresses, got %v", addrs)
	}
}

func TestNodeHealthResetOnSuccess(t *testing.T) {
	n := NewNode("BB9020011AC4202", "127.0.0.1:3000", 50, nil)
	n.AddHealth(1)
	n.AddHealth(1)
	if n.HealthScore() != 2 {
		t.Fatalf("expected health score 2, got %d", n.HealthScore())
	}
	n.ResetHealth()
	if n.HealthScore() != 0 {
		t.Fatalf("expected health score reset to 0, got %d", n.HealthScore())
	}
}

func TestNodeRetiresAtThreshold(t *testing.T) {
	n := NewNode("BB9020011AC4202", "127.0.0.1:3000", 3, nil)
	if n.IsRetired() {
		t.Fatal("fresh node must not start retired")
	}
	n.AddHealth(1)
	n.AddHealth(1)
	if n.IsRetired() {
		t.Fatal("node must not retire before crossing the threshold")
	}
	retiredNow := n.AddHealth(1)
	if !retiredNow || !n.IsRetired() {
		t.Fatal("node must retire once its score reaches the threshold")
	}
}

func TestNodeRetirementIsOneShot(t *testing.T) {
	n := NewNode("BB9020011AC4202", "127.0.0.1:3000", 1, nil)
	first := n.AddHealth(5)
	second := n.AddHealth(5)
	if !first {
		t.Fatal("first crossing must report retiredNow=true")
	}
	if second {
		t.Fatal("a node already retired must not report retiredNow again")
	}
}
