// Package session holds the per-connection state of the server.
package session // import "github.com/mxd-net/mxd-core/common/session"

import (
	"net"
	"sync/atomic"
	"time"

	c "github.com/mxd-net/mxd-core/common/ctx"
	"github.com/mxd-net/mxd-core/privilege"
)

var idCounter uint32

// NewID returns a process-unique connection ID, never 0.
func NewID() c.ID {
	for {
		id := c.ID(atomic.AddUint32(&idCounter, 1))
		if id != 0 {
			return id
		}
	}
}

// ConnectionFlags are user preference bits sent in the Options field. They
// control how the user receives messages and chat invitations, are set during
// Agreed and can be updated via SetClientUserInfo.
type ConnectionFlags uint8

const (
	// RefusePrivateMessages refuses private messages from other users.
	RefusePrivateMessages ConnectionFlags = 1 << 0
	// RefuseChatInvites refuses private chat invitations.
	RefuseChatInvites ConnectionFlags = 1 << 1
	// AutomaticResponse answers private messages with the stored auto-response text.
	AutomaticResponse ConnectionFlags = 1 << 2
)

// RefusesMessages reports whether the user refuses private messages.
func (f ConnectionFlags) RefusesMessages() bool {
	return f&RefusePrivateMessages != 0
}

// RefusesChat reports whether the user refuses chat invitations.
func (f ConnectionFlags) RefusesChat() bool {
	return f&RefuseChatInvites != 0
}

// HasAutoResponse reports whether automatic response is enabled.
func (f ConnectionFlags) HasAutoResponse() bool {
	return f&AutomaticResponse != 0
}

// Session is the state of one client connection. It is exclusively owned by
// the connection task; no synchronization is applied to its fields except the
// activity timestamp, which IdleSince may read from any goroutine.
type Session struct {
	// ID of the connection, used as log prefix.
	ID c.ID
	// Peer is the remote socket address.
	Peer net.Addr
	// UserID is set after successful login. nil means unauthenticated.
	UserID *int64
	// Username of the authenticated user.
	Username string
	// Privileges held by the authenticated user.
	Privileges privilege.Mask
	// Flags are the user's connection preference bits.
	Flags ConnectionFlags
	// Nickname is the display name sent at login or Agreed time.
	Nickname string
	// IconID is the display icon, when the client sent one.
	IconID *int32
	// AutoResponse is the stored automatic response text.
	AutoResponse string

	lastActivity atomic.Int64
}

// New creates a session for a freshly accepted connection.
func New(id c.ID, peer net.Addr) *Session {
	s := &Session{
		ID:   id,
		Peer: peer,
	}
	s.Touch()
	return s
}

// Authenticated reports whether a user has logged in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != nil
}

// Authenticate marks the session as logged in.
func (s *Session) Authenticate(userID int64, username string, privileges privilege.Mask) {
	uid := userID
	s.UserID = &uid
	s.Username = username
	s.Privileges = privileges
}

// Touch records activity on the session for idle-timeout accounting.
func (s *Session) Touch() {
	s.lastActivity.Store(nanotime())
}

// IdleSince returns the duration since the last recorded activity.
func (s *Session) IdleSince() time.Duration {
	return time.Duration(nanotime() - s.lastActivity.Load())
}

func nanotime() int64 {
	return time.Now().UnixNano()
}
