package aeroerr

import (
	"fmt"
	"runtime"
)

// ResultCode is a flat enumeration of error kinds the client surfaces to
// callers. The numeric values are this package's own sequence starting
// at OK = 0; they are not the server's result-code bytes (pkg/command
// maps a server byte to one of the server-reported kinds, and an
// AerospikeError does not keep the raw byte). The client-side kinds and
// every kind after codecBase are local to this client and never appear
// on the wire.
type ResultCode int

const (
	OK ResultCode = iota

	// Server-reported result codes (a subset mirroring the server's own
	// numbering is unnecessary here since this client never forwards the
	// raw server byte to unrelated systems; each gets its own kind).
	ServerError
	RecordNotFound
	GenerationError
	BinExists
	BinNotFound
	ClusterKeyMismatch
	PartitionUnavailable
	OpNotApplicable
	FilteredOut
	UnsupportedFeature
	IndexFound
	IndexNotFound
	UDFBadResponse
	BinIncompatibleType

	// Local/client-side conditions.
	Timeout
	NoAvailableConnections
	ClientError
	ParamError
	ErrAsyncQueueFull

	codecBase
	InvalidProtoVersion
	InvalidProtoType
	OpSizeMismatch
	UnknownParticleType
	MessageTooLarge
	TruncatedField
	TruncatedOp
)

func (c ResultCode) String() string {
	switch c {
	case OK:
		return "OK"
	case ServerError:
		return "SERVER_ERROR"
	case RecordNotFound:
		return "RECORD_NOT_FOUND"
	case GenerationError:
		return "GENERATION_ERROR"
	case BinExists:
		return "BIN_EXISTS"
	case BinNotFound:
		return "BIN_NOT_FOUND"
	case ClusterKeyMismatch:
		return "CLUSTER_KEY_MISMATCH"
	case PartitionUnavailable:
		return "PARTITION_UNAVAILABLE"
	case OpNotApplicable:
		return "OP_NOT_APPLICABLE"
	case FilteredOut:
		return "FILTERED_OUT"
	case UnsupportedFeature:
		return "UNSUPPORTED_FEATURE"
	case IndexFound:
		return "INDEX_FOUND"
	case IndexNotFound:
		return "INDEX_NOTFOUND"
	case UDFBadResponse:
		return "UDF_BAD_RESPONSE"
	case BinIncompatibleType:
		return "BIN_INCOMPATIBLE_TYPE"
	case Timeout:
		return "TIMEOUT"
	case NoAvailableConnections:
		return "NO_AVAILABLE_CONNECTIONS"
	case ClientError:
		return "CLIENT_ERROR"
	case ParamError:
		return "PARAM_ERROR"
	case ErrAsyncQueueFull:
		return "ERR_ASYNC_QUEUE_FULL"
	case InvalidProtoVersion:
		return "INVALID_PROTO_VERSION"
	case InvalidProtoType:
		return "INVALID_PROTO_TYPE"
	case OpSizeMismatch:
		return "OP_SIZE_MISMATCH"
	case UnknownParticleType:
		return "UNKNOWN_PARTICLE_TYPE"
	case MessageTooLarge:
		return "MESSAGE_TOO_LARGE"
	case TruncatedField:
		return "TRUNCATED_FIELD"
	case TruncatedOp:
		return "TRUNCATED_OP"
	default:
		return fmt.Sprintf("UNKNOWN_RESULT_CODE(%d)", int(c))
	}
}

// Retriable reports whether a transaction encountering this code may be
// retried against a freshly selected node. Codec errors are local bugs,
// not transient conditions, and are never retriable.
func (c ResultCode) Retriable() bool {
	switch c {
	case Timeout, NoAvailableConnections, PartitionUnavailable, ClusterKeyMismatch:
		return true
	default:
		return false
	}
}

// AerospikeError is the error type every exported operation in this
// module returns on failure. It carries a machine-checkable Code in
// addition to the human string, since a bare wrapped error cannot be
// switched on reliably by a caller that needs to decide whether to
// retry, log, or surface a generation conflict to its own caller.
type AerospikeError struct {
	Code  ResultCode
	Msg   string
	File  string
	Line  int
	cause error
}

func (e *AerospikeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (%s:%d): %v", e.Code, e.Msg, e.File, e.Line, e.cause)
	}
	return fmt.Sprintf("%s: %s (%s:%d)", e.Code, e.Msg, e.File, e.Line)
}

func (e *AerospikeError) Unwrap() error {
	return e.cause
}

// New builds an AerospikeError carrying the caller's file/line.
func New(code ResultCode, format string, args ...interface{}) *AerospikeError {
	return newSkip(2, code, nil, format, args...)
}

// Wrap builds an AerospikeError that wraps a lower-level cause (usually a
// net.Error from the socket layer).
func Wrap(code ResultCode, cause error, format string, args ...interface{}) *AerospikeError {
	return newSkip(2, code, cause, format, args...)
}

func newSkip(skip int, code ResultCode, cause error, format string, args ...interface{}) *AerospikeError {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file, line = "unknown", 0
	}
	return &AerospikeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		File:  file,
		Line:  line,
		cause: cause,
	}
}

// Is reports whether err is an *AerospikeError carrying code.
func Is(err error, code ResultCode) bool {
	ae, ok := err.(*AerospikeError)
	if !ok {
		return false
	}
	return ae.Code == code
}
