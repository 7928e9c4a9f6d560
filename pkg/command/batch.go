package command

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerolog"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
)

// BatchResult pairs one requested key with its outcome: Record is nil
// and Err is a RecordNotFound-class error when the key doesn't exist,
// and non-nil Err for any other per-key failure.
type BatchResult struct {
	Key    *aerotypes.Key
	Record *aerotypes.Record
	Err    error
}

// BatchGet reads every key, grouping the fan-out by each key's routing
// node so keys sharing a node share that node's connection traffic, and
// preserves the caller's key order in the returned slice regardless of
// which node answered first. binNames optionally limits every key's
// read to that bin set, the same as a single Get call (all bins if
// empty).
func BatchGet(ctx context.Context, c *cluster.Cluster, keys []*aerotypes.Key, policy *aerotypes.BatchPolicy, binNames ...string) ([]BatchResult, error) {
	if policy == nil {
		policy = aerotypes.DefaultBatchPolicy()
	}
	if policy.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.TotalTimeout)
		defer cancel()
	}

	batchID := uuid.New()

	groups := make(map[*cluster.Node][]int)
	results := make([]BatchResult, len(keys))
	for i, key := range keys {
		n, err := c.GetNode(key, false)
		if err != nil {
			if policy.AllowPartialResults {
				results[i] = BatchResult{Key: key, Err: err}
				continue
			}
			return nil, err
		}
		groups[n] = append(groups[n], i)
	}

	batchLog := aerolog.WithTxnID(batchID.String())
	batchLog.Debug().Int("keys", len(keys)).Int("nodes", len(groups)).Msg("command: batch fan-out")

	var wg sync.WaitGroup
	readPolicy := &aerotypes.ReadPolicy{BasePolicy: policy.BasePolicy}
	for n, indices := range groups {
		n, indices := n, indices
		wg.Add(1)
		go func() {
			defer wg.Done()
			batchLog.Debug().Str("node", n.Name()).Int("keys", len(indices)).Msg("command: batch group dispatched")
			for _, idx := range indices {
				key := keys[idx]
				rec, err := Get(ctx, c, key, readPolicy, binNames...)
				if err != nil {
					results[idx] = BatchResult{Key: key, Err: err}
					continue
				}
				results[idx] = BatchResult{Key: key, Record: rec}
			}
		}()
	}
	wg.Wait()

	if !policy.AllowPartialResults {
		for _, r := range results {
			if r.Err != nil && !aeroerr.Is(r.Err, aeroerr.RecordNotFound) {
				return results, r.Err
			}
		}
	}
	return results, nil
}
