package command

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/particle"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// RecordCallback receives one record streamed back by a scan or query.
// Returning an error stops the stream for that node; ScanNamespace
// propagates the first such error to its own caller.
type RecordCallback func(rec *aerotypes.Record) error

// recordsDone is shared by every node's stream so a namespace-wide
// MaxRecords cap is honored across the whole fan-out, not per node.
type recordsDone struct {
	max   int64
	count atomic.Int64
}

// reached reports whether the cap (if any) has now been hit, and
// increments the shared counter regardless so concurrent streams stay
// in agreement about how many records have been delivered.
func (r *recordsDone) reached() bool {
	if r == nil || r.max <= 0 {
		return false
	}
	return r.count.Add(1) > r.max
}

// rateLimiter paces record delivery to policy.RecordsPerSecond across
// every node's stream, mirroring a scan's namespace-wide throughput cap
// rather than letting each node run unthrottled.
type rateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func newRateLimiter(recordsPerSecond int) *rateLimiter {
	if recordsPerSecond <= 0 {
		return nil
	}
	return &rateLimiter{interval: time.Second / time.Duration(recordsPerSecond)}
}

func (r *rateLimiter) wait() {
	if r == nil {
		return
	}
	r.mu.Lock()
	now := time.Now()
	if now.Before(r.next) {
		wait := r.next.Sub(now)
		r.mu.Unlock()
		time.Sleep(wait)
		r.mu.Lock()
		now = time.Now()
	}
	r.next = now.Add(r.interval)
	r.mu.Unlock()
}

// ScanNamespace streams every record of namespace (optionally limited
// to set), dispatching one sub-scan per live node either concurrently
// or serially per policy.Concurrent, until each node signals
// proto.Info3Last on its final response.
func ScanNamespace(ctx context.Context, c *cluster.Cluster, namespace, set string, policy *aerotypes.ScanPolicy, cb RecordCallback) error {
	if policy == nil {
		policy = aerotypes.DefaultScanPolicy()
	}
	return dispatchPerNode(ctx, c, namespace, set, *policy, nil, cb)
}

// dispatchPerNode is the shared scan/query fan-out: build one streaming
// request per live node, run them serially or concurrently, and feed
// every decoded record to cb in the order each node's stream produces
// it (scans and queries never promise a global record order).
func dispatchPerNode(ctx context.Context, c *cluster.Cluster, namespace, set string, policy aerotypes.ScanPolicy, extraFields []proto.Field, cb RecordCallback) error {
	base := policy.BasePolicy
	if base.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, base.TotalTimeout)
		defer cancel()
	}

	nodes := c.LiveNodes()
	if len(nodes) == 0 {
		return aeroerr.New(aeroerr.NoAvailableConnections, "command: no live nodes to scan namespace %q", namespace)
	}

	fields := []proto.Field{
		{Type: proto.FieldNamespace, Value: []byte(namespace)},
	}
	if set != "" {
		fields = append(fields, proto.Field{Type: proto.FieldSet, Value: []byte(set)})
	}
	fields = append(fields, extraFields...)

	header := proto.ClMsgHeader{Info1: proto.Info1Read | proto.Info1GetAll}

	done := &recordsDone{max: policy.MaxRecords}
	limiter := newRateLimiter(policy.RecordsPerSecond)

	if !policy.Concurrent {
		for _, n := range nodes {
			if err := streamNode(ctx, n, header, fields, base.SocketTimeout, policy.FailOnClusterChange, done, limiter, cb); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstErr error
	)
	for _, n := range nodes {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := streamNode(ctx, n, header, fields, base.SocketTimeout, policy.FailOnClusterChange, done, limiter, cb); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// streamNode sends one streaming request to n and feeds every response
// message to cb until the server sets Info3Last. If failOnClusterChange
// is set, it rejects the stream when n's partition generation moved
// during the call, since the partition map it was scanned against is no
// longer the one the server is enforcing.
func streamNode(ctx context.Context, n *cluster.Node, header proto.ClMsgHeader, fields []proto.Field, socketTimeout time.Duration, failOnClusterChange bool, done *recordsDone, limiter *rateLimiter, cb RecordCallback) error {
	startGeneration := n.PartitionGeneration()
	conn, err := borrowConn(ctx, n)
	if err != nil {
		return err
	}
	deadline, hasDeadline := ctx.Deadline()
	if socketTimeout > 0 {
		socketDeadline := time.Now().Add(socketTimeout)
		if !hasDeadline || socketDeadline.Before(deadline) {
			deadline, hasDeadline = socketDeadline, true
		}
	}
	if hasDeadline {
		_ = conn.SetDeadline(deadline)
	}

	if err := writeMessage(conn, proto.Message{Header: header, Fields: fields}); err != nil {
		returnConn(n, conn, false)
		return aeroerr.Wrap(aeroerr.Timeout, err, "command: scan request write failed")
	}

	for {
		if socketTimeout > 0 {
			perReadDeadline := time.Now().Add(socketTimeout)
			if !hasDeadline || perReadDeadline.Before(deadline) {
				_ = conn.SetDeadline(perReadDeadline)
			}
		}
		msg, err := readMessage(conn, defaultMaxMessageSize)
		if err != nil {
			returnConn(n, conn, false)
			return aeroerr.Wrap(aeroerr.Timeout, err, "command: scan response read failed")
		}
		if msg.Header.ResultCode != byte(aeroerr.OK) {
			returnConn(n, conn, true)
			return serverResultError(msg.Header.ResultCode)
		}
		if len(msg.Ops) > 0 {
			if done.reached() {
				returnConn(n, conn, true)
				return nil
			}
			limiter.wait()
			rec, err := opsToRecord(msg)
			if err != nil {
				returnConn(n, conn, false)
				return err
			}
			if err := cb(rec); err != nil {
				returnConn(n, conn, true)
				return err
			}
		}
		if msg.Header.Info3&proto.Info3Last != 0 {
			break
		}
	}
	returnConn(n, conn, true)
	n.ResetHealth()
	if failOnClusterChange && n.PartitionGeneration() != startGeneration {
		return aeroerr.New(aeroerr.ClusterKeyMismatch, "command: node %q partition map changed mid-scan", n.Name())
	}
	return nil
}

func opsToRecord(msg *proto.Message) (*aerotypes.Record, error) {
	rec := &aerotypes.Record{
		Bins:       make(map[string]aerotypes.Value, len(msg.Ops)),
		Generation: msg.Header.Generation,
		Expiration: msg.Header.RecordTTL,
	}
	var namespace, set string
	var digest []byte
	for _, f := range msg.Fields {
		switch f.Type {
		case proto.FieldNamespace:
			namespace = string(f.Value)
		case proto.FieldSet:
			set = string(f.Value)
		case proto.FieldDigestRIPE:
			digest = f.Value
		}
	}
	if namespace != "" && len(digest) == 20 {
		var d [20]byte
		copy(d[:], digest)
		rec.Key = aerotypes.NewKeyWithDigest(namespace, set, d)
	}
	for _, op := range msg.Ops {
		val, err := particle.Decode(op.ParticleType, op.Value)
		if err != nil {
			return nil, err
		}
		rec.Bins[op.Name] = val
	}
	return rec, nil
}
