package server_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mxd-net/mxd-core/auth"
	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/datastore/memory"
	"github.com/mxd-net/mxd-core/protocol"
	"github.com/mxd-net/mxd-core/server"
)

type testServer struct {
	srv    *server.Server
	store  datastore.DataStore
	hasher auth.PasswordHasher
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	config := server.DefaultConfig()
	config.Bind = "127.0.0.1:0"
	config.Database = "memory:"

	store := memory.New()
	hasher := testHasher()

	srv, err := server.New(config, store, hasher)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Close() })

	return &testServer{srv: srv, store: store, hasher: hasher}
}

func (ts *testServer) dial(t *testing.T) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", ts.srv.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	return conn
}

// handshake performs the client side of the TRTP exchange and asserts the
// expected result code.
func handshake(t *testing.T, conn net.Conn, version uint16, wantCode uint32) {
	t.Helper()
	hello := protocol.EncodeClientHello(version, 0)
	_, err := conn.Write(hello[:])
	require.NoError(t, err)

	var reply [protocol.ServerHelloLen]byte
	_, err = io.ReadFull(conn, reply[:])
	require.NoError(t, err)
	require.Equal(t, []byte(protocol.HandshakeMagic), reply[0:4])
	require.Equal(t, wantCode, uint32(reply[4])<<24|uint32(reply[5])<<16|uint32(reply[6])<<8|uint32(reply[7]))
}

type client struct {
	conn   net.Conn
	reader *protocol.TransactionReader
	writer *protocol.TransactionWriter
}

func newClient(t *testing.T, ts *testServer) *client {
	t.Helper()
	conn := ts.dial(t)
	handshake(t, conn, protocol.Version, protocol.HandshakeOK)
	return &client{
		conn:   conn,
		reader: protocol.NewTransactionReader(conn),
		writer: protocol.NewTransactionWriter(conn),
	}
}

func (c *client) send(t *testing.T, ty protocol.TransactionType, id uint32, params []protocol.Param) {
	t.Helper()
	var payload []byte
	if len(params) > 0 {
		encoded, err := protocol.EncodeParams(params)
		require.NoError(t, err)
		payload = encoded
	}
	require.NoError(t, c.writer.WriteTransaction(protocol.NewRequest(ty, id, payload)))
}

func (c *client) recv(t *testing.T) *protocol.Transaction {
	t.Helper()
	reply, err := c.reader.ReadTransaction()
	require.NoError(t, err)
	return reply
}

func (c *client) roundTrip(t *testing.T, ty protocol.TransactionType, id uint32, params []protocol.Param) *protocol.Transaction {
	t.Helper()
	c.send(t, ty, id, params)
	reply := c.recv(t)
	require.Equal(t, uint8(1), reply.Header.IsReply)
	require.Equal(t, id, reply.Header.ID)
	return reply
}

func TestHandshakeAcceptOverTCP(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)
	handshake(t, conn, 1, protocol.HandshakeOK)
}

func TestHandshakeWrongMagicOverTCP(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	_, err := conn.Write([]byte{'W', 'R', 'N', 'G', 0, 0, 0, 0, 0, 1, 0, 0})
	require.NoError(t, err)

	var reply [protocol.ServerHelloLen]byte
	_, err = io.ReadFull(conn, reply[:])
	require.NoError(t, err)
	require.Equal(t, []byte{'T', 'R', 'T', 'P', 0, 0, 0, 1}, reply[:])

	// The server closes after a failed handshake.
	var one [1]byte
	_, err = conn.Read(one[:])
	require.Equal(t, io.EOF, err)
}

func TestHandshakeUnsupportedVersionOverTCP(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	handshake(t, conn, 2, protocol.HandshakeErrVersion)

	var one [1]byte
	_, err := conn.Read(one[:])
	require.Equal(t, io.EOF, err)
}

func TestLoginAndFileListOverTCP(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)
	c := newClient(t, ts)

	login := c.roundTrip(t, protocol.TypeLogin, 1, []protocol.Param{
		{ID: protocol.FieldLogin, Value: []byte("alice")},
		{ID: protocol.FieldPassword, Value: []byte("secret")},
	})
	require.Equal(t, protocol.ErrCodeOK, login.Header.ErrorCode)

	list := c.roundTrip(t, protocol.TypeGetFileNameList, 2, nil)
	require.Equal(t, protocol.ErrCodeOK, list.Header.ErrorCode)
	require.Equal(t, []string{"fileA.txt", "fileC.txt"}, collectStrings(t, list, protocol.FieldFileName))
}

func TestFileListBeforeLoginOverTCP(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)
	c := newClient(t, ts)

	reply := c.roundTrip(t, protocol.TypeGetFileNameList, 5, nil)
	require.Equal(t, protocol.ErrCodeNotAuthenticated, reply.Header.ErrorCode)
	require.Empty(t, reply.Payload)
}

func TestRepliesKeepRequestOrder(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts)

	// Pipelined requests: all written before any reply is read.
	const n = 8
	for id := uint32(1); id <= n; id++ {
		c.send(t, protocol.TypePing, id, nil)
	}
	for id := uint32(1); id <= n; id++ {
		reply := c.recv(t)
		require.Equal(t, id, reply.Header.ID)
		require.Equal(t, uint8(1), reply.Header.IsReply)
	}
}

func TestFragmentedPostOverTCP(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)
	seedNews(t, ts.store)
	c := newClient(t, ts)

	login := c.roundTrip(t, protocol.TypeLogin, 1, []protocol.Param{
		{ID: protocol.FieldLogin, Value: []byte("alice")},
		{ID: protocol.FieldPassword, Value: []byte("secret")},
	})
	require.Equal(t, protocol.ErrCodeOK, login.Header.ErrorCode)

	// A 64 KB article body, the largest a single parameter can carry, forces
	// the request across three fragments.
	body := make([]byte, 0xFFFF)
	for i := range body {
		body[i] = 'a' + byte(i%26)
	}
	post := c.roundTrip(t, protocol.TypePostNewsArticle, 2, []protocol.Param{
		{ID: protocol.FieldNewsPath, Value: []byte("General")},
		{ID: protocol.FieldNewsTitle, Value: []byte("Big")},
		{ID: protocol.FieldNewsDataFlavor, Value: []byte("text/plain")},
		{ID: protocol.FieldNewsArticleData, Value: body},
	})
	require.Equal(t, protocol.ErrCodeOK, post.Header.ErrorCode)

	list := c.roundTrip(t, protocol.TypeNewsArticleNameList, 3, []protocol.Param{
		{ID: protocol.FieldNewsPath, Value: []byte("General")},
	})
	require.Contains(t, collectStrings(t, list, protocol.FieldNewsArticle), "Big")
}

func TestNewsInvalidPathOverTCP(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)
	seedNews(t, ts.store)
	c := newClient(t, ts)

	login := c.roundTrip(t, protocol.TypeLogin, 1, []protocol.Param{
		{ID: protocol.FieldLogin, Value: []byte("alice")},
		{ID: protocol.FieldPassword, Value: []byte("secret")},
	})
	require.Equal(t, protocol.ErrCodeOK, login.Header.ErrorCode)

	reply := c.roundTrip(t, protocol.TypeNewsArticleNameList, 6, []protocol.Param{
		{ID: protocol.FieldNewsPath, Value: []byte("Missing")},
	})
	require.Equal(t, protocol.ErrCodeNewsPathUnsupported, reply.Header.ErrorCode)
}

func TestUserNameListShowsLoggedInUsers(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)

	first := newClient(t, ts)
	login := first.roundTrip(t, protocol.TypeLogin, 1, []protocol.Param{
		{ID: protocol.FieldLogin, Value: []byte("alice")},
		{ID: protocol.FieldPassword, Value: []byte("secret")},
	})
	require.Equal(t, protocol.ErrCodeOK, login.Header.ErrorCode)

	list := first.roundTrip(t, protocol.TypeGetUserNameList, 2, nil)
	require.Equal(t, protocol.ErrCodeOK, list.Header.ErrorCode)
	require.Equal(t, []string{"alice"}, collectStrings(t, list, protocol.FieldUserName))
}

func TestHasherSharedAcrossConnections(t *testing.T) {
	ts := startServer(t)
	seedFiles(t, ts.store, ts.hasher)

	// Every connection authenticates through the same hasher instance.
	require.Same(t, ts.hasher, ts.srv.Hasher())

	for i := 0; i < 3; i++ {
		c := newClient(t, ts)
		login := c.roundTrip(t, protocol.TypeLogin, 1, []protocol.Param{
			{ID: protocol.FieldLogin, Value: []byte("alice")},
			{ID: protocol.FieldPassword, Value: []byte("secret")},
		})
		require.Equal(t, protocol.ErrCodeOK, login.Header.ErrorCode)
	}
	require.Same(t, ts.hasher, ts.srv.Hasher())
}
