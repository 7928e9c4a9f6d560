package command

import (
	"context"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/filter"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// IndexRange narrows a query to a secondary-index range on one bin.
// Equality is expressed as Begin == End.
type IndexRange struct {
	IndexName string
	BinName   string
	Begin     aerotypes.Value
	End       aerotypes.Value
}

// Query runs a secondary-index query, structurally a scan with an
// index-range field attached; an optional filter
// expression narrows results further the same way it would on a read.
func Query(ctx context.Context, c *cluster.Cluster, namespace, set string, idx *IndexRange, expr *filter.Expr, policy *aerotypes.QueryPolicy, cb RecordCallback) error {
	if policy == nil {
		policy = aerotypes.DefaultQueryPolicy()
	}

	var extra []proto.Field
	if idx != nil {
		extra = append(extra, proto.Field{Type: proto.FieldIndexName, Value: []byte(idx.IndexName)})
		rangeBytes, err := encodeIndexRange(idx)
		if err != nil {
			return err
		}
		extra = append(extra, proto.Field{Type: proto.FieldIndexRange, Value: rangeBytes})
	}
	if expr != nil {
		raw, err := filter.Marshal(*expr)
		if err != nil {
			return err
		}
		extra = append(extra, proto.Field{Type: proto.FieldFilterExpr, Value: raw})
	}

	return dispatchPerNode(ctx, c, namespace, set, policy.ScanPolicy, extra, cb)
}

// encodeIndexRange packs an index-range field as bin-name length +
// bin-name + begin particle + end particle, mirroring the self-
// describing length-prefixed style the rest of the wire format uses.
func encodeIndexRange(idx *IndexRange) ([]byte, error) {
	beginOp, err := binToOp(proto.OpRead, aerotypes.NewBin(idx.BinName, idx.Begin))
	if err != nil {
		return nil, err
	}
	endOp, err := binToOp(proto.OpRead, aerotypes.NewBin(idx.BinName, idx.End))
	if err != nil {
		return nil, err
	}
	var buf []byte
	buf = append(buf, byte(len(idx.BinName)))
	buf = append(buf, idx.BinName...)
	buf = append(buf, beginOp.ParticleType)
	buf = append(buf, byte(len(beginOp.Value)>>8), byte(len(beginOp.Value)))
	buf = append(buf, beginOp.Value...)
	buf = append(buf, endOp.ParticleType)
	buf = append(buf, byte(len(endOp.Value)>>8), byte(len(endOp.Value)))
	buf = append(buf, endOp.Value...)
	return buf, nil
}
