package server

import (
	"context"
	"io"
	"net"
	"time"

	c "github.com/mxd-net/mxd-core/common/ctx"
	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/common/log"
	"github.com/mxd-net/mxd-core/common/session"
	"github.com/mxd-net/mxd-core/protocol"
)

// handleConnection runs one client connection: the TRTP handshake, then the
// dispatch loop until clean EOF, a protocol error, a timeout or shutdown.
// The transaction boundary is the only cancellation point; a partially read
// request is discarded without a reply.
func (s *Server) handleConnection(conn net.Conn) error {
	defer conn.Close()

	id := session.NewID()
	ctx := c.ContextWithID(s.ctx, id)
	sess := session.New(id, conn.RemoteAddr())
	ctx = session.ContextWithSession(ctx, sess)

	conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	hello, err := protocol.ReadClientHello(conn)
	if err != nil {
		// No reply for an incomplete or late greeting.
		errors.LogInfoInner(ctx, err, "handshake failed from ", conn.RemoteAddr())
		return nil
	}

	code := hello.Result()
	conn.SetWriteDeadline(time.Now().Add(s.handshakeTimeout))
	if err := protocol.WriteServerHello(conn, code); err != nil {
		errors.LogInfoInner(ctx, err, "failed to answer handshake for ", conn.RemoteAddr())
		return nil
	}
	if code != protocol.HandshakeOK {
		log.Record(&log.AccessMessage{
			From:   conn.RemoteAddr(),
			Status: log.AccessRejected,
			Detail: "handshake",
			Reason: handshakeReason(code),
		})
		return nil
	}

	log.Record(&log.AccessMessage{
		From:   conn.RemoteAddr(),
		Status: log.AccessAccepted,
		Detail: "handshake",
	})

	s.registry.Add(sess)
	defer s.registry.Remove(id)

	reader := protocol.NewTransactionReader(conn)
	writer := protocol.NewTransactionWriter(conn)

	for {
		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(s.ioTimeout))
		request, err := reader.ReadTransaction()
		if err != nil {
			s.finishRead(ctx, conn, writer, reader.LastHeader(), err)
			return nil
		}

		sess.Touch()
		reply := s.router.Process(ctx, sess, request)

		conn.SetWriteDeadline(time.Now().Add(s.ioTimeout))
		if err := writer.WriteTransaction(reply); err != nil {
			errors.LogInfoInner(ctx, err, "failed to write reply, closing ", conn.RemoteAddr())
			return nil
		}
	}
}

// finishRead logs why the read side ended and, for framing errors on a
// transaction whose header was parsed, writes a best-effort error reply
// before the connection closes.
func (s *Server) finishRead(ctx context.Context, conn net.Conn, writer *protocol.TransactionWriter, header *protocol.FrameHeader, err error) {
	if err == io.EOF {
		errors.LogDebug(ctx, "connection ", conn.RemoteAddr(), " closed")
		return
	}

	cause := errors.Cause(err)
	if cause == protocol.ErrTimeout {
		errors.LogInfo(ctx, "connection ", conn.RemoteAddr(), " timed out")
		return
	}

	if header != nil && isFramingError(cause) {
		conn.SetWriteDeadline(time.Now().Add(s.ioTimeout))
		reply := protocol.NewReply(header, protocol.ErrCodeInvalidPayload, nil)
		if werr := writer.WriteTransaction(reply); werr != nil {
			errors.LogDebugInner(ctx, werr, "failed to write framing error reply")
		}
	}
	errors.LogInfoInner(ctx, err, "closing connection ", conn.RemoteAddr())
}

func isFramingError(err error) bool {
	switch err {
	case protocol.ErrInvalidFlags,
		protocol.ErrPayloadTooLarge,
		protocol.ErrSizeMismatch,
		protocol.ErrHeaderMismatch,
		protocol.ErrShortBuffer:
		return true
	default:
		return false
	}
}

func handshakeReason(code uint32) string {
	switch code {
	case protocol.HandshakeErrProtocol:
		return "protocol mismatch"
	case protocol.HandshakeErrVersion:
		return "unsupported version"
	default:
		return "unknown"
	}
}
