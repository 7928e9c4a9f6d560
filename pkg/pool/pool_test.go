package pool

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConn(t *testing.T) net.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = b.Close() })
	return a
}

func TestPoolPushPopLIFO(t *testing.T) {
	p := New("n1", KindSync, 0)
	c1 := pipeConn(t)
	c2 := pipeConn(t)
	p.PushIfUnderLimit(c1)
	p.PushIfUnderLimit(c2)
	assert.Equal(t, 2, p.Len())
	assert.Same(t, c2, p.PopNoWait())
	assert.Same(t, c1, p.PopNoWait())
	assert.Nil(t, p.PopNoWait())
}

func TestPoolDropsOverLimit(t *testing.T) {
	p := New("n1", KindSync, 1)
	c1 := pipeConn(t)
	c2 := pipeConn(t)
	p.PushIfUnderLimit(c1)
	p.PushIfUnderLimit(c2)
	assert.Equal(t, 1, p.Len())
}

func TestPoolDrainClose(t *testing.T) {
	p := New("n1", KindAsync, 0)
	p.PushIfUnderLimit(pipeConn(t))
	p.PushIfUnderLimit(pipeConn(t))
	p.DrainClose()
	assert.Equal(t, 0, p.Len())
	require.Nil(t, p.PopNoWait())
}
