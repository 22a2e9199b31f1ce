package server

import (
	"context"
	"encoding/binary"

	goerrors "errors"

	"github.com/mxd-net/mxd-core/auth"
	"github.com/mxd-net/mxd-core/common"
	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/common/session"
	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/privilege"
	"github.com/mxd-net/mxd-core/protocol"
)

// handlerFunc processes one request transaction into a reply.
type handlerFunc func(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error)

// Router maps transaction types to handlers and enforces the privilege table
// before a handler runs.
type Router struct {
	store    datastore.DataStore
	hasher   auth.PasswordHasher
	registry *Registry
	banner   []byte

	handlers map[protocol.TransactionType]handlerFunc
}

// NewRouter creates a router over the shared collaborators.
func NewRouter(store datastore.DataStore, hasher auth.PasswordHasher, registry *Registry, banner []byte) *Router {
	r := &Router{
		store:    store,
		hasher:   hasher,
		registry: registry,
		banner:   banner,
	}
	r.handlers = map[protocol.TransactionType]handlerFunc{
		protocol.TypeLogin:                r.handleLogin,
		protocol.TypePing:                 r.handlePing,
		protocol.TypeAgreed:               r.handleClientUserInfo,
		protocol.TypeSetClientUserInfo:    r.handleClientUserInfo,
		protocol.TypeGetFileNameList:      r.handleGetFileNameList,
		protocol.TypeGetUserNameList:      r.handleGetUserNameList,
		protocol.TypeDownloadBanner:       r.handleDownloadBanner,
		protocol.TypeNewsCategoryNameList: r.handleNewsCategoryNameList,
		protocol.TypeNewsArticleNameList:  r.handleNewsArticleNameList,
		protocol.TypeNewsArticleData:      r.handleNewsArticleData,
		protocol.TypePostNewsArticle:      r.handlePostNewsArticle,
	}
	return r
}

// Process routes one request to its handler and shapes the reply. It never
// fails: every outcome, including unknown types and handler errors, becomes
// a reply transaction.
func (r *Router) Process(ctx context.Context, sess *session.Session, req *protocol.Transaction) *protocol.Transaction {
	handler, known := r.handlers[req.Header.Type]
	if !known {
		errors.LogWarning(ctx, "unknown transaction ", uint16(req.Header.Type), " from ", sess.Peer)
		return protocol.NewReply(&req.Header, protocol.ErrCodeInternalServer, nil)
	}

	if required := privilege.Required(req.Header.Type); required != privilege.None {
		if !sess.Authenticated() {
			return protocol.NewReply(&req.Header, protocol.ErrCodeNotAuthenticated, nil)
		}
		if !sess.Privileges.Has(required) {
			var mask [8]byte
			binary.BigEndian.PutUint64(mask[:], uint64(required))
			payload, err := protocol.EncodeParams([]protocol.Param{
				{ID: protocol.FieldData, Value: mask[:]},
			})
			common.Must(err)
			return protocol.NewReply(&req.Header, protocol.ErrCodeInsufficientPrivilege, payload)
		}
	}

	reply, err := handler(ctx, sess, req)
	if err != nil {
		return protocol.NewReply(&req.Header, r.errorCode(ctx, err), nil)
	}

	// Reply identity: is_reply set, id and type taken from the request.
	reply.Header.Flags = 0
	reply.Header.IsReply = 1
	reply.Header.ID = req.Header.ID
	reply.Header.Type = req.Header.Type
	return reply
}

// errorCode translates a handler error into the reply header code.
func (r *Router) errorCode(ctx context.Context, err error) uint32 {
	var (
		invalidPayload *protocol.InvalidPayloadError
		missingField   *protocol.MissingFieldError
		invalidValue   *protocol.InvalidParamValueError
		duplicate      *protocol.DuplicateFieldError
	)
	switch {
	case goerrors.As(err, &invalidPayload),
		goerrors.As(err, &missingField),
		goerrors.As(err, &invalidValue),
		goerrors.As(err, &duplicate),
		errors.Cause(err) == protocol.ErrShortBuffer:
		return protocol.ErrCodeInvalidPayload
	case errors.Cause(err) == datastore.ErrPathNotFound:
		return protocol.ErrCodeNewsPathUnsupported
	case errors.Cause(err) == auth.ErrPasswordMismatch,
		errors.Cause(err) == errLoginRejected:
		return protocol.ErrCodeNotAuthenticated
	default:
		errors.LogWarningInner(ctx, err, "handler failed")
		return protocol.ErrCodeInternalServer
	}
}
