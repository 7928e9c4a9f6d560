package command

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/proto"
)

func TestBinToOpScalar(t *testing.T) {
	op, err := binToOp(proto.OpWrite, aerotypes.NewBin("age", aerotypes.IntegerValue(41)))
	require.NoError(t, err)
	assert.Equal(t, "age", op.Name)
	assert.Equal(t, aerotypes.ParticleTypeInteger, op.ParticleType)
	assert.Len(t, op.Value, 8)
}

func TestBinToOpNilValueIsBareOp(t *testing.T) {
	op, err := binToOp(proto.OpTouch, aerotypes.Bin{Name: ""})
	require.NoError(t, err)
	assert.Empty(t, op.Value)
}

func TestWriteHeaderGenerationPolicy(t *testing.T) {
	p := aerotypes.DefaultWritePolicy()
	p.GenerationPolicy = aerotypes.GenerationExpectEqual
	p.Generation = 7
	h := writeHeader(p)
	assert.NotZero(t, h.Info2&proto.Info2GenerationEqual)
	assert.Equal(t, uint32(7), h.Generation)
}

func TestWriteHeaderRecordExistsAction(t *testing.T) {
	p := aerotypes.DefaultWritePolicy()
	p.RecordExistsAction = aerotypes.CreateOnly
	h := writeHeader(p)
	assert.NotZero(t, h.Info2&proto.Info2CreateOnly)

	p.RecordExistsAction = aerotypes.Replace
	h = writeHeader(p)
	assert.NotZero(t, h.Info3&proto.Info3CreateOrReplace)
}

func TestServerResultErrorMapping(t *testing.T) {
	err := serverResultError(2)
	assert.True(t, aeroerr.Is(err, aeroerr.RecordNotFound))

	err = serverResultError(99)
	assert.True(t, aeroerr.Is(err, aeroerr.ServerError))
}

func TestMessageToRecordDecodesOps(t *testing.T) {
	key, err := aerotypes.NewKey("test", "demo", aerotypes.StringValue("k1"))
	require.NoError(t, err)

	op, err := binToOp(proto.OpRead, aerotypes.NewBin("name", aerotypes.StringValue("ann")))
	require.NoError(t, err)

	msg := &proto.Message{
		Header: proto.ClMsgHeader{Generation: 3, RecordTTL: 120},
		Ops:    []proto.Op{op},
	}
	rec, err := messageToRecord(key, msg)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), rec.Generation)
	assert.Equal(t, aerotypes.StringValue("ann"), rec.Bins["name"])
}

// fakeServer accepts exactly one connection, hands it to handle, and
// closes the listener once handle returns.
func fakeServer(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

func TestSendSingleRoundTrip(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		var hdrBuf [proto.HeaderSize]byte
		_, err := io.ReadFull(conn, hdrBuf[:])
		require.NoError(t, err)
		h, err := proto.UnpackHeader(hdrBuf[:])
		require.NoError(t, err)
		body := make([]byte, h.Size)
		_, err = io.ReadFull(conn, body)
		require.NoError(t, err)

		respOp, err := binToOp(proto.OpRead, aerotypes.NewBin("x", aerotypes.IntegerValue(5)))
		require.NoError(t, err)
		resp := proto.Message{
			Header: proto.ClMsgHeader{ResultCode: 0, Generation: 1, Info3: proto.Info3Last},
			Ops:    []proto.Op{respOp},
		}
		buf, err := proto.Pack(resp)
		require.NoError(t, err)
		_, err = conn.Write(buf)
		require.NoError(t, err)
	})

	n := cluster.NewNode("n1", addr, 50, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fields := []proto.Field{{Type: proto.FieldNamespace, Value: []byte("test")}}
	resp, err := sendSingle(ctx, n, proto.ClMsgHeader{Info1: proto.Info1Read}, fields, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp.Header.Generation)
	require.Len(t, resp.Ops, 1)
	assert.Equal(t, "x", resp.Ops[0].Name)
}

func TestSendSingleServerError(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		var hdrBuf [proto.HeaderSize]byte
		_, _ = io.ReadFull(conn, hdrBuf[:])
		h, _ := proto.UnpackHeader(hdrBuf[:])
		body := make([]byte, h.Size)
		_, _ = io.ReadFull(conn, body)

		resp := proto.Message{Header: proto.ClMsgHeader{ResultCode: 2}}
		buf, err := proto.Pack(resp)
		require.NoError(t, err)
		_, _ = conn.Write(buf)
	})

	n := cluster.NewNode("n1", addr, 50, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := sendSingle(ctx, n, proto.ClMsgHeader{Info1: proto.Info1Read}, nil, nil, 0)
	require.Error(t, err)
	assert.True(t, aeroerr.Is(err, aeroerr.RecordNotFound))
}
