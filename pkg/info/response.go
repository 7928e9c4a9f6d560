package info

import (
	"encoding/base64"
	"strings"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// ParseResponse unpacks an info response body (proto header already
// stripped by the caller) into its name/value pairs.
func ParseResponse(body []byte) (map[string]string, error) {
	out := make(map[string]string)
	text := string(body)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		name, value, found := strings.Cut(line, "\t")
		if !found {
			return nil, aeroerr.New(aeroerr.TruncatedField, "info: response line %q missing tab separator", line)
		}
		out[name] = value
	}
	return out, nil
}

// UnpackResponse reads a full proto.MessageTypeInfo envelope and returns
// its parsed name/value pairs.
func UnpackResponse(buf []byte, maxMessageSize uint64) (map[string]string, error) {
	h, err := proto.UnpackHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Type != proto.MessageTypeInfo {
		return nil, aeroerr.New(aeroerr.InvalidProtoType, "info: expected info proto type, got %d", h.Type)
	}
	if h.Size > maxMessageSize {
		return nil, aeroerr.New(aeroerr.MessageTooLarge, "info: declared size %d exceeds max %d", h.Size, maxMessageSize)
	}
	body := buf[proto.HeaderSize:]
	if uint64(len(body)) < h.Size {
		return nil, aeroerr.New(aeroerr.TruncatedField, "info: body shorter than declared size %d", h.Size)
	}
	return ParseResponse(body[:h.Size])
}

// MultiFields splits a ';'-separated multi-field value into its parts.
func MultiFields(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ";")
}

// KeyValuePairs splits a field's "k1=v1;k2=v2" form into a map.
func KeyValuePairs(value string) map[string]string {
	out := make(map[string]string)
	for _, pair := range MultiFields(value) {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		out[k] = v
	}
	return out
}

// PartitionBitmap is a per-namespace ownership bitmap decoded from a
// replicas-read or replicas-write response value.
type PartitionBitmap struct {
	Namespace string
	Bits      []byte
}

// ParsePartitionReplicas decodes the ';'-separated
// "namespace:base64(bitmap)" value returned by replicas-read and
// replicas-write.
func ParsePartitionReplicas(value string) ([]PartitionBitmap, error) {
	var out []PartitionBitmap
	for _, entry := range MultiFields(value) {
		ns, b64, found := strings.Cut(entry, ":")
		if !found {
			return nil, aeroerr.New(aeroerr.TruncatedField, "info: partition-replicas entry %q missing namespace separator", entry)
		}
		bits, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, aeroerr.Wrap(aeroerr.ClientError, err, "info: partition-replicas bitmap for %q is not valid base64", ns)
		}
		out = append(out, PartitionBitmap{Namespace: ns, Bits: bits})
	}
	return out, nil
}

// OwnsPartition reports whether bit i of the bitmap is set, meaning this
// node owns partition i for the role (read or write) the bitmap came
// from.
func OwnsPartition(bits []byte, partitionID int) bool {
	byteIdx := partitionID / 8
	if byteIdx >= len(bits) {
		return false
	}
	bitIdx := uint(partitionID % 8)
	return bits[byteIdx]&(1<<bitIdx) != 0
}

// ParseServices splits the ';'-separated "host:port" peer list returned
// by the services command.
func ParseServices(value string) []string {
	return MultiFields(value)
}
