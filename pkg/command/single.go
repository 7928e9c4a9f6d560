package command

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/ametrics"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/particle"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// defaultMaxMessageSize bounds a single response this client will
// attempt to buffer in memory.
const defaultMaxMessageSize = 128 << 20

// OperateArg is one bin-level step of an Operate call: a read, write,
// or modify op targeting a single bin.
type OperateArg struct {
	Code proto.OpCode
	Bin  aerotypes.Bin
}

// Get reads a record, optionally limited to binNames (all bins if
// empty). Each named bin becomes its own read op on the wire, rather
// than the get-all flag, so the server returns exactly that bin set.
func Get(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.ReadPolicy, binNames ...string) (*aerotypes.Record, error) {
	if policy == nil {
		policy = aerotypes.DefaultReadPolicy()
	}
	header := proto.ClMsgHeader{Info1: proto.Info1Read}
	var ops []proto.Op
	if len(binNames) == 0 {
		header.Info1 |= proto.Info1GetAll
		ops = []proto.Op{{Code: proto.OpRead, ParticleType: aerotypes.ParticleTypeNull}}
	} else {
		ops = make([]proto.Op, len(binNames))
		for i, name := range binNames {
			ops[i] = proto.Op{Code: proto.OpRead, Name: name}
		}
	}
	resp, err := executeSingle(ctx, c, key, false, policy.BasePolicy, header, ops)
	if err != nil {
		return nil, err
	}
	return messageToRecord(key, resp)
}

// Exists reports whether key's record is present without fetching bins.
func Exists(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.ReadPolicy) (bool, error) {
	if policy == nil {
		policy = aerotypes.DefaultReadPolicy()
	}
	header := proto.ClMsgHeader{Info1: proto.Info1Read | proto.Info1NoBinData}
	resp, err := executeSingle(ctx, c, key, false, policy.BasePolicy, header, nil)
	if err != nil {
		if ae, ok := err.(*aeroerr.AerospikeError); ok && ae.Code == aeroerr.RecordNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Header.ResultCode == byte(aeroerr.OK), nil
}

// Put writes bins to key, honoring policy's generation check and
// record-exists-action.
func Put(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.WritePolicy, bins ...aerotypes.Bin) error {
	if policy == nil {
		policy = aerotypes.DefaultWritePolicy()
	}
	header := writeHeader(policy)
	ops := make([]proto.Op, 0, len(bins))
	for _, b := range bins {
		op, err := binToOp(proto.OpWrite, b)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	header.RecordTTL = policy.Expiration
	_, err := executeSingle(ctx, c, key, true, policy.BasePolicy, header, ops)
	return err
}

// Delete removes key's record and reports whether it existed.
func Delete(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.WritePolicy) (bool, error) {
	if policy == nil {
		policy = aerotypes.DefaultWritePolicy()
	}
	header := writeHeader(policy)
	header.Info2 |= proto.Info2Delete
	resp, err := executeSingle(ctx, c, key, true, policy.BasePolicy, header, []proto.Op{{Code: proto.OpDelete}})
	if err != nil {
		if ae, ok := err.(*aeroerr.AerospikeError); ok && ae.Code == aeroerr.RecordNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Header.ResultCode == byte(aeroerr.OK), nil
}

// Touch refreshes key's TTL without altering its bins.
func Touch(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.WritePolicy) error {
	if policy == nil {
		policy = aerotypes.DefaultWritePolicy()
	}
	header := writeHeader(policy)
	header.RecordTTL = policy.Expiration
	_, err := executeSingle(ctx, c, key, true, policy.BasePolicy, header, []proto.Op{{Code: proto.OpTouch}})
	return err
}

// Operate executes a mixed sequence of read/write/modify ops against
// key in a single round trip, returning whatever bins the server sent
// back in response.
func Operate(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, policy *aerotypes.WritePolicy, args ...OperateArg) (*aerotypes.Record, error) {
	if policy == nil {
		policy = aerotypes.DefaultWritePolicy()
	}
	header := writeHeader(policy)
	if policy.RespondPerEachOp {
		header.Info2 |= proto.Info2RespondAllOps
	}
	hasWrite := false
	ops := make([]proto.Op, 0, len(args))
	for _, a := range args {
		switch a.Code {
		case proto.OpWrite, proto.OpCDTModify, proto.OpMapModify, proto.OpIncr, proto.OpExpModify,
			proto.OpAppend, proto.OpPrepend, proto.OpTouch, proto.OpBitModify, proto.OpDelete, proto.OpHLLModify:
			hasWrite = true
		}
		op, err := binToOp(a.Code, a.Bin)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	header.Info1 |= proto.Info1Read
	resp, err := executeSingle(ctx, c, key, hasWrite, policy.BasePolicy, header, ops)
	if err != nil {
		return nil, err
	}
	return messageToRecord(key, resp)
}

// writeHeader builds the common info flags for a write-family request
// from a WritePolicy.
func writeHeader(policy *aerotypes.WritePolicy) proto.ClMsgHeader {
	h := proto.ClMsgHeader{Info2: proto.Info2Write}
	switch policy.GenerationPolicy {
	case aerotypes.GenerationExpectEqual:
		h.Info2 |= proto.Info2GenerationEqual
		h.Generation = policy.Generation
	case aerotypes.GenerationExpectGreater:
		h.Info2 |= proto.Info2GenerationGT
		h.Generation = policy.Generation
	}
	switch policy.RecordExistsAction {
	case aerotypes.UpdateOnly:
		h.Info3 |= proto.Info3UpdateOnly
	case aerotypes.Replace:
		h.Info3 |= proto.Info3CreateOrReplace
	case aerotypes.ReplaceOnly:
		h.Info3 |= proto.Info3ReplaceOnly
	case aerotypes.CreateOnly:
		h.Info2 |= proto.Info2CreateOnly
	}
	if policy.CommitLevel == aerotypes.CommitMaster {
		h.Info3 |= proto.Info3CommitMaster
	}
	return h
}

func binToOp(code proto.OpCode, bin aerotypes.Bin) (proto.Op, error) {
	if bin.Value == nil {
		return proto.Op{Code: code, Name: bin.Name}, nil
	}
	raw, err := particle.Encode(bin.Value)
	if err != nil {
		return proto.Op{}, err
	}
	return proto.Op{Code: code, ParticleType: bin.Value.ParticleType(), Name: bin.Name, Value: raw}, nil
}

// executeSingle runs the request/response/retry loop shared by every
// single-record operation: select a node, send, read the response, and
// on a retriable error, re-select and resend up to policy.MaxRetries
// times.
func executeSingle(ctx context.Context, c *cluster.Cluster, key *aerotypes.Key, forWrite bool, policy aerotypes.BasePolicy, header proto.ClMsgHeader, ops []proto.Op) (*proto.Message, error) {
	if policy.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.TotalTimeout)
		defer cancel()
	}

	if policy.ConsistencyLevel == aerotypes.ConsistencyAll && header.Info1&proto.Info1Read != 0 {
		header.Info1 |= proto.Info1ConsistencyAll
	}

	digest := key.Digest()
	fields := []proto.Field{
		{Type: proto.FieldNamespace, Value: []byte(key.Namespace)},
		{Type: proto.FieldSet, Value: []byte(key.Set)},
		{Type: proto.FieldDigestRIPE, Value: digest[:]},
	}

	timer := ametrics.NewTimer()
	defer timer.ObserveDurationVec(ametrics.TransactionDuration, "single")

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = policy.SleepBetweenRetries
	if boff.InitialInterval <= 0 {
		boff.InitialInterval = time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			ametrics.TransactionRetriesTotal.WithLabelValues("single").Inc()
			select {
			case <-ctx.Done():
				return nil, aeroerr.Wrap(aeroerr.Timeout, ctx.Err(), "command: context done during retry backoff")
			case <-time.After(boff.NextBackOff()):
			}
		}

		node, err := c.GetNode(key, forWrite)
		if err != nil {
			lastErr = err
			continue
		}

		resp, execErr := sendSingle(ctx, node, header, fields, ops, policy.SocketTimeout)
		if execErr == nil {
			node.ResetHealth()
			return resp, nil
		}
		lastErr = execErr
		if ae, ok := execErr.(*aeroerr.AerospikeError); ok && !ae.Code.Retriable() {
			ametrics.TransactionErrorsTotal.WithLabelValues("single", ae.Code.String()).Inc()
			return nil, execErr
		}
	}
	if ae, ok := lastErr.(*aeroerr.AerospikeError); ok {
		ametrics.TransactionErrorsTotal.WithLabelValues("single", ae.Code.String()).Inc()
	}
	return nil, lastErr
}

func sendSingle(ctx context.Context, node *cluster.Node, header proto.ClMsgHeader, fields []proto.Field, ops []proto.Op, socketTimeout time.Duration) (*proto.Message, error) {
	conn, err := borrowConn(ctx, node)
	if err != nil {
		return nil, err
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

	msg := proto.Message{Header: header, Fields: fields, Ops: ops}
	if err := writeMessage(conn, msg); err != nil {
		returnConn(node, conn, false)
		return nil, aeroerr.Wrap(aeroerr.Timeout, err, "command: request write failed")
	}
	resp, err := readMessage(conn, defaultMaxMessageSize)
	if err != nil {
		returnConn(node, conn, false)
		return nil, aeroerr.Wrap(aeroerr.Timeout, err, "command: response read failed")
	}
	returnConn(node, conn, true)

	if resp.Header.ResultCode != byte(aeroerr.OK) {
		return resp, serverResultError(resp.Header.ResultCode)
	}
	return resp, nil
}

func messageToRecord(key *aerotypes.Key, msg *proto.Message) (*aerotypes.Record, error) {
	rec := &aerotypes.Record{
		Key:        key,
		Bins:       make(map[string]aerotypes.Value, len(msg.Ops)),
		Generation: msg.Header.Generation,
		Expiration: msg.Header.RecordTTL,
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

// serverResultError maps a cl_msg result_code byte to an AerospikeError.
// Codes outside the small set this client distinguishes fall back to a
// generic ServerError carrying the raw code for diagnostics.
func serverResultError(code byte) error {
	switch code {
	case 2:
		return aeroerr.New(aeroerr.RecordNotFound, "server: record not found")
	case 3:
		return aeroerr.New(aeroerr.GenerationError, "server: generation mismatch")
	case 5:
		return aeroerr.New(aeroerr.BinExists, "server: record already exists")
	case 14:
		return aeroerr.New(aeroerr.BinNotFound, "server: bin not found")
	case 40:
		return aeroerr.New(aeroerr.ClusterKeyMismatch, "server: cluster key mismatch")
	case 11:
		return aeroerr.New(aeroerr.PartitionUnavailable, "server: partition unavailable")
	default:
		return aeroerr.New(aeroerr.ServerError, "server: result code %d", code)
	}
}
