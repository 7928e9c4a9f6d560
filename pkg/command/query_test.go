package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

func TestEncodeIndexRangeLayout(t *testing.T) {
	idx := &IndexRange{
		IndexName: "age_idx",
		BinName:   "age",
		Begin:     aerotypes.IntegerValue(18),
		End:       aerotypes.IntegerValue(65),
	}
	buf, err := encodeIndexRange(idx)
	require.NoError(t, err)

	binNameLen := int(buf[0])
	assert.Equal(t, len(idx.BinName), binNameLen)
	assert.Equal(t, idx.BinName, string(buf[1:1+binNameLen]))
}
