package aerotypes

import "time"

// GenerationPolicy controls how a write's generation field is enforced
// (info2 generation-match bits). A duplicate-on-collision mode once
// existed for LDT-era servers that no longer support it, and is
// intentionally not carried forward.
type GenerationPolicy int

const (
	// GenerationNone performs the write unconditionally.
	GenerationNone GenerationPolicy = iota
	// GenerationExpectEqual requires Generation to exactly match the
	// server's current record generation (info2 generation-match bit).
	GenerationExpectEqual
	// GenerationExpectGreater requires the server's generation to be
	// less than Generation — used for backup/restore replays.
	GenerationExpectGreater
)

// RecordExistsAction controls the create/replace/update semantics
// encoded in info2's create-only bit and info3's update-only,
// create-or-replace and replace-only bits.
type RecordExistsAction int

const (
	// Update creates the record if it doesn't exist, else updates bins.
	Update RecordExistsAction = iota
	// UpdateOnly fails with RecordNotFound if the record doesn't exist.
	UpdateOnly
	// Replace creates the record if it doesn't exist, else replaces all
	// bins (any bin not in the write's bin list is removed).
	Replace
	// ReplaceOnly fails with RecordNotFound if the record doesn't exist.
	ReplaceOnly
	// CreateOnly fails with BinExists-class error if the record exists.
	CreateOnly
)

// ConsistencyLevel selects how many replicas a read must be consistent
// with (info1 consistency-level bits).
type ConsistencyLevel int

const (
	ConsistencyOne ConsistencyLevel = iota
	ConsistencyAll
)

// CommitLevel selects how many replicas must acknowledge a write before
// it is considered committed (info3 commit-level bit).
type CommitLevel int

const (
	CommitAll CommitLevel = iota
	CommitMaster
)

// BasePolicy carries the fields common to every transaction flavor.
type BasePolicy struct {
	// TotalTimeout is the absolute deadline for the whole transaction,
	// including retries. Zero means no timeout.
	TotalTimeout time.Duration
	// SocketTimeout bounds a single I/O call; exceeding it closes the
	// socket instead of returning it to the pool.
	SocketTimeout time.Duration
	// MaxRetries bounds the number of re-selection + resend attempts on
	// a retriable error.
	MaxRetries int
	// SleepBetweenRetries is the backoff floor between attempts; actual
	// backoff grows exponentially from this value (see pkg/command).
	SleepBetweenRetries time.Duration
	ConsistencyLevel    ConsistencyLevel
}

// DefaultBasePolicy returns the base policy defaults used when a caller
// doesn't override them.
func DefaultBasePolicy() BasePolicy {
	return BasePolicy{
		TotalTimeout:        1 * time.Second,
		SocketTimeout:       30 * time.Second,
		MaxRetries:          2,
		SleepBetweenRetries: 1 * time.Millisecond,
		ConsistencyLevel:    ConsistencyOne,
	}
}

// ReadPolicy configures a single-record read.
type ReadPolicy struct {
	BasePolicy
}

// DefaultReadPolicy returns the default read policy.
func DefaultReadPolicy() *ReadPolicy {
	return &ReadPolicy{BasePolicy: DefaultBasePolicy()}
}

// WritePolicy configures a single-record write/operate/delete.
type WritePolicy struct {
	BasePolicy
	GenerationPolicy   GenerationPolicy
	Generation         uint32
	RecordExistsAction RecordExistsAction
	CommitLevel        CommitLevel
	// Expiration is the record TTL in seconds from now; 0 means "use
	// namespace default", math.MaxUint32 means "never expire".
	Expiration uint32
	// RespondPerEachOp requests a response for every op, not just the
	// last (info2 respond-all-ops bit).
	RespondPerEachOp bool
}

// DefaultWritePolicy returns the default write policy: no retry on
// generation mismatch, unconditional create-or-update.
func DefaultWritePolicy() *WritePolicy {
	return &WritePolicy{
		BasePolicy:         DefaultBasePolicy(),
		GenerationPolicy:   GenerationNone,
		RecordExistsAction: Update,
		CommitLevel:        CommitAll,
	}
}

// BatchPolicy configures a batch-read transaction.
type BatchPolicy struct {
	BasePolicy
	// AllowPartialResults lets the batch return whatever records
	// completed if the deadline is hit mid-flight, rather than failing
	// the whole call.
	AllowPartialResults bool
}

// DefaultBatchPolicy returns the default batch policy.
func DefaultBatchPolicy() *BatchPolicy {
	return &BatchPolicy{BasePolicy: DefaultBasePolicy()}
}

// ScanPolicy configures a whole-set/whole-table scan.
type ScanPolicy struct {
	BasePolicy
	// Concurrent dispatches the scan to every node in parallel rather
	// than one node at a time.
	Concurrent bool
	// FailOnClusterChange invalidates all partial results if the
	// partition map changes mid-scan.
	FailOnClusterChange bool
	// MaxRecords caps the number of records returned; 0 means no cap.
	MaxRecords int64
	// RecordsPerSecond throttles scan throughput; 0 means unthrottled.
	RecordsPerSecond int
}

// DefaultScanPolicy returns the default scan policy: concurrent,
// tolerant of cluster changes.
func DefaultScanPolicy() *ScanPolicy {
	return &ScanPolicy{
		BasePolicy: DefaultBasePolicy(),
		Concurrent: true,
	}
}

// QueryPolicy configures a secondary-index query. Queries share the scan
// driver's dispatch shape, so the policy embeds ScanPolicy.
type QueryPolicy struct {
	ScanPolicy
}

// DefaultQueryPolicy returns the default query policy.
func DefaultQueryPolicy() *QueryPolicy {
	return &QueryPolicy{ScanPolicy: *DefaultScanPolicy()}
}

// ClientPolicy configures cluster-wide behavior at creation time.
type ClientPolicy struct {
	// Timeout bounds AddSeedHost's wait for a reachable node to appear.
	Timeout time.Duration
	// TendInterval is the tender's wake period for this cluster.
	TendInterval time.Duration
	// FollowPeers enables discovering nodes from the `services` info
	// value rather than only the registered seeds.
	FollowPeers bool
	// RetirementThreshold is the health score at which a node is
	// retired and reaped by the next tend cycle.
	RetirementThreshold int32
	// ConnectionQueueSize is not read by pkg/cluster: every node's
	// synchronous idle connection pool is capped at 300 regardless of
	// this value.
	ConnectionQueueSize int
	// TLSConfig, if non-nil, wraps every socket this client opens. The
	// client never constructs one itself (TLS certificate handling is
	// out of scope).
	TLSConfig interface{}
}

// DefaultClientPolicy returns the default cluster policy.
func DefaultClientPolicy() *ClientPolicy {
	return &ClientPolicy{
		Timeout:             1 * time.Second,
		TendInterval:        1 * time.Second,
		FollowPeers:         true,
		RetirementThreshold: 50,
		ConnectionQueueSize: 300,
	}
}
