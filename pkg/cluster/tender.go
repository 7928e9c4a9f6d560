package cluster

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cuemby/aeroclient/pkg/aerolog"
	"github.com/cuemby/aeroclient/pkg/ametrics"
	"github.com/cuemby/aeroclient/pkg/info"
	"github.com/cuemby/aeroclient/pkg/pool"
	"github.com/cuemby/aeroclient/pkg/proto"
)

const (
	tenderWakePeriod  = 1 * time.Second
	tenderDialTimeout = 2 * time.Second
	maxInfoResponse   = 1 << 20
)

var (
	tenderMu       sync.Mutex
	tenderClusters = make(map[*Cluster]*tenderState)
	tenderStarted  bool
)

type tenderState struct {
	lastTend time.Time
}

// registerCluster adds c to the process-wide tender registry, starting
// the single background tender goroutine on first use.
func registerCluster(c *Cluster) {
	tenderMu.Lock()
	defer tenderMu.Unlock()
	tenderClusters[c] = &tenderState{}
	if !tenderStarted {
		tenderStarted = true
		go tenderLoop()
	}
}

// unregisterCluster removes c; a later tend cycle already in flight for
// it is allowed to finish (Cluster.destroy waits on tenderRunning).
func unregisterCluster(c *Cluster) {
	tenderMu.Lock()
	defer tenderMu.Unlock()
	delete(tenderClusters, c)
}

// tenderLoop is the single dedicated background thread serving every
// registered cluster. It wakes on a fixed period and
// tends any cluster whose own TendInterval has elapsed.
func tenderLoop() {
	ticker := time.NewTicker(tenderWakePeriod)
	defer ticker.Stop()
	for range ticker.C {
		tenderMu.Lock()
		due := make([]*Cluster, 0, len(tenderClusters))
		for c, st := range tenderClusters {
			if time.Since(st.lastTend) >= c.policy.TendInterval {
				due = append(due, c)
			}
		}
		tenderMu.Unlock()
		for _, c := range due {
			tendOnce(c)
		}
	}
}

// tendOnce runs one tend cycle for c: reap retired nodes, discover new
// nodes from seeds, learn the partition count, refresh node state and
// partition ownership, and follow peers. A failure at any step is
// skipped (only seed-host resolution failures are logged) and the cycle
// continues — a partial tend is still useful.
func tendOnce(c *Cluster) {
	if !c.tenderRunning.CompareAndSwap(false, true) {
		return // a cycle for this cluster is already in flight
	}
	defer c.tenderRunning.Store(false)

	timer := ametrics.NewTimer()
	defer func() {
		timer.ObserveDuration(ametrics.TendDuration)
		tenderMu.Lock()
		if st, ok := tenderClusters[c]; ok {
			st.lastTend = time.Now()
		}
		tenderMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), tenderDialTimeout*4)
	defer cancel()

	reapRetiredNodes(c)

	seedAddrs := resolveSeedHosts(c)
	discoverNodes(ctx, c, seedAddrs)

	if c.NPartitions() == 0 {
		learnPartitionCount(ctx, c)
	}

	peers := refreshNodes(ctx, c)

	refreshPartitionMaps(ctx, c)

	addedAny := followPeers(ctx, c, peers)
	if !addedAny {
		c.foundAll.Store(true)
	}

	ametrics.TendCyclesTotal.WithLabelValues("ok").Inc()
}

// reapRetiredNodes removes any node whose health score crossed the
// retirement threshold from the live set and drains its connections.
func reapRetiredNodes(c *Cluster) {
	c.mu.Lock()
	var toClose []*Node
	for name, n := range c.nodes {
		if n.IsRetired() {
			delete(c.nodes, name)
			toClose = append(toClose, n)
		}
	}
	var tables []*PartitionTable
	for _, t := range c.partitions {
		tables = append(tables, t)
	}
	c.mu.Unlock()

	for _, n := range toClose {
		for _, t := range tables {
			t.RemoveNode(n)
		}
		n.Close()
	}
}

// resolveSeedHosts re-resolves every seed host to its current
// addresses, retrying transient DNS failures with an exponential
// backoff rather than failing the whole cycle on one bad lookup.
func resolveSeedHosts(c *Cluster) []string {
	c.mu.RLock()
	seeds := append([]string(nil), c.seedHosts...)
	c.mu.RUnlock()

	var addrs []string
	for _, seed := range seeds {
		host, port, err := net.SplitHostPort(seed)
		if err != nil {
			host, port = seed, "3000"
		}
		b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
		err = backoff.Retry(func() error {
			ips, lookupErr := net.LookupHost(host)
			if lookupErr != nil {
				return lookupErr
			}
			for _, ip := range ips {
				addrs = append(addrs, net.JoinHostPort(ip, port))
			}
			return nil
		}, b)
		if err != nil {
			aerolog.Logger.Warn().Str("seed", seed).Err(err).Msg("cluster: seed host resolution failed")
		}
	}
	return addrs
}

// discoverNodes opens a short-lived connection to each seed address,
// asks for its node name, and registers any node not already known.
func discoverNodes(ctx context.Context, c *Cluster, addrs []string) {
	for _, addr := range addrs {
		registerNodeAt(ctx, c, addr)
	}
}

// registerNodeAt asks addr for its node name and either adds addr to an
// already-known node's address set or creates a new Node for it. It
// reports whether a new node was created.
func registerNodeAt(ctx context.Context, c *Cluster, addr string) bool {
	resp, err := sendInfo(ctx, c, addr, "node")
	if err != nil {
		return false
	}
	name := resp["node"]
	if name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n, exists := c.nodes[name]
	if !exists {
		c.nodes[name] = NewNode(name, addr, c.policy.RetirementThreshold, tlsConfigOf(c))
		return true
	}
	n.AddAddress(addr)
	return false
}

// tlsConfigOf type-asserts the client policy's untyped TLSConfig down to
// the concrete *tls.Config the transport layer needs. ClientPolicy keeps
// it as interface{} so pkg/aerotypes never has to import crypto/tls.
func tlsConfigOf(c *Cluster) *tls.Config {
	cfg, _ := c.policy.TLSConfig.(*tls.Config)
	return cfg
}

// learnPartitionCount issues a one-time "partitions" info call against
// any live node to discover the cluster-wide partition count.
func learnPartitionCount(ctx context.Context, c *Cluster) {
	for _, n := range c.LiveNodes() {
		addrs := n.Addresses()
		if len(addrs) == 0 {
			continue
		}
		resp, err := sendInfo(ctx, c, addrs[0], "partitions")
		if err != nil {
			continue
		}
		count, convErr := strconv.Atoi(strings.TrimSpace(resp["partitions"]))
		if convErr != nil || count <= 0 {
			continue
		}
		c.mu.Lock()
		c.nPartitions = count
		c.mu.Unlock()
		return
	}
}

// refreshNodes queries every known node for its name, partition
// generation, and peer list, retiring any node whose reported name no
// longer matches and collecting peers for followPeers.
func refreshNodes(ctx context.Context, c *Cluster) []string {
	c.mu.RLock()
	nodes := make([]*Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		nodes = append(nodes, n)
	}
	c.mu.RUnlock()

	var peers []string
	for _, n := range nodes {
		addrs := n.Addresses()
		if len(addrs) == 0 {
			n.AddHealth(n.retirementThresholdOrDefault())
			continue
		}
		resp, err := sendInfo(ctx, c, addrs[0], "node", "partition-generation", "services")
		if err != nil {
			n.AddHealth(1)
			continue
		}
		if resp["node"] != "" && resp["node"] != n.Name() {
			n.AddHealth(n.retirementThresholdOrDefault())
			continue
		}
		n.ResetHealth()
		if gen, convErr := strconv.ParseUint(strings.TrimSpace(resp["partition-generation"]), 10, 32); convErr == nil {
			n.SetPartitionGeneration(uint32(gen))
		}
		peers = append(peers, info.ParseServices(resp["services"])...)
	}
	return peers
}

// refreshPartitionMaps re-fetches replicas-read/replicas-write for
// every live node on every cycle, applying the decoded ownership
// bitmaps to each namespace's table. It does not compare partition
// generations, so a node whose generation is unchanged is refreshed
// too, and slots a node no longer reports are not cleared here.
func refreshPartitionMaps(ctx context.Context, c *Cluster) {
	nParts := c.NPartitions()
	if nParts == 0 {
		return
	}
	for _, n := range c.LiveNodes() {
		addrs := n.Addresses()
		if len(addrs) == 0 {
			continue
		}
		resp, err := sendInfo(ctx, c, addrs[0], "replicas-read", "replicas-write")
		if err != nil {
			continue
		}
		applyReplicaBitmaps(c, n, resp["replicas-read"], false, nParts)
		applyReplicaBitmaps(c, n, resp["replicas-write"], true, nParts)
		ametrics.PartitionGenerationRefreshesTotal.Inc()
	}
}

func applyReplicaBitmaps(c *Cluster, n *Node, value string, forWrite bool, nParts int) {
	bitmaps, err := info.ParsePartitionReplicas(value)
	if err != nil {
		return
	}
	for _, bm := range bitmaps {
		table := namespaceTable(c, bm.Namespace, nParts)
		for pid := 0; pid < nParts; pid++ {
			if !info.OwnsPartition(bm.Bits, pid) {
				continue
			}
			write := table.WriteOwner(pid)
			read := table.ReadOwner(pid)
			if forWrite {
				write = n
			} else {
				read = n
			}
			table.SetOwners(pid, write, read)
		}
	}
}

func namespaceTable(c *Cluster, namespace string, nParts int) *PartitionTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.partitions[namespace]
	if !ok {
		t = NewPartitionTable(namespace, nParts)
		c.partitions[namespace] = t
	}
	return t
}

// followPeers registers any peer address not already tied to a known
// node, when the cluster policy enables peer discovery. It reports
// whether any new node was added, the signal tendOnce uses to decide
// whether this cycle found everything there is to find.
func followPeers(ctx context.Context, c *Cluster, peers []string) bool {
	if !c.policy.FollowPeers {
		return false
	}
	added := false
	for _, peer := range peers {
		host, port, err := net.SplitHostPort(peer)
		if err != nil {
			continue
		}
		addr := net.JoinHostPort(host, port)
		c.mu.RLock()
		known := false
		for _, n := range c.nodes {
			for _, a := range n.Addresses() {
				if a == addr {
					known = true
					break
				}
			}
		}
		c.mu.RUnlock()
		if known {
			continue
		}
		if registerNodeAt(ctx, c, addr) {
			added = true
		}
	}
	return added
}

// retirementThresholdOrDefault lets tests construct a Node directly
// without going through NewNode's threshold plumbing.
func (n *Node) retirementThresholdOrDefault() int32 {
	if n.retirementThreshold <= 0 {
		return 50
	}
	return n.retirementThreshold
}

// sendInfo opens a short-lived connection to addr, sends an info
// request for the given commands, and returns the parsed response.
func sendInfo(ctx context.Context, c *Cluster, addr string, commands ...string) (map[string]string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, tenderDialTimeout)
	defer cancel()
	conn, err := pool.Dial(dialCtx, []string{addr}, tlsConfigOf(c))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write(info.PackRequest(commands...)); err != nil {
		return nil, fmt.Errorf("tender: info request write failed: %w", err)
	}

	var hdrBuf [proto.HeaderSize]byte
	if _, err := io.ReadFull(conn, hdrBuf[:]); err != nil {
		return nil, fmt.Errorf("tender: info response header read failed: %w", err)
	}
	h, err := proto.UnpackHeader(hdrBuf[:])
	if err != nil {
		return nil, err
	}
	if h.Size > maxInfoResponse {
		return nil, fmt.Errorf("tender: info response declares %d bytes, exceeds max %d", h.Size, maxInfoResponse)
	}
	body := make([]byte, h.Size)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, fmt.Errorf("tender: info response body read failed: %w", err)
	}
	return info.ParseResponse(body)
}
