// Package log provides the process-wide logging facility. Messages are
// submitted through Record and fanned out to the registered handler.
package log // import "github.com/mxd-net/mxd-core/common/log"

import (
	"strings"
	"sync"

	"github.com/mxd-net/mxd-core/common/serial"
)

// Severity of a log message.
type Severity int32

const (
	SeverityUnknown Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityDebug
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	case SeverityDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// Message is the interface for all log messages.
type Message interface {
	String() string
}

// Handler is the interface for log handler.
type Handler interface {
	Handle(msg Message)
}

// GeneralMessage is a general log message that can contain all kind of content.
type GeneralMessage struct {
	Severity Severity
	Content  interface{}
}

// String implements Message.
func (m *GeneralMessage) String() string {
	return serial.Concat("[", m.Severity, "] ", m.Content)
}

// AccessStatus is the status of an access request from clients.
type AccessStatus string

const (
	AccessAccepted AccessStatus = "accepted"
	AccessRejected AccessStatus = "rejected"
)

// AccessMessage is a log message for a client access event.
type AccessMessage struct {
	From   interface{}
	Status AccessStatus
	Detail string
	Reason interface{}
}

// String implements Message.
func (m *AccessMessage) String() string {
	builder := strings.Builder{}
	builder.WriteString(serial.ToString(m.From))
	builder.WriteByte(' ')
	builder.WriteString(string(m.Status))
	if len(m.Detail) > 0 {
		builder.WriteByte(' ')
		builder.WriteString(m.Detail)
	}
	if reason := serial.ToString(m.Reason); len(reason) > 0 {
		builder.WriteString(" [")
		builder.WriteString(reason)
		builder.WriteString("]")
	}
	return builder.String()
}

var logHandler syncHandler

// RegisterHandler register a new handler as current log handler. Previous registered handler will be discarded.
func RegisterHandler(handler Handler) {
	if handler == nil {
		panic("Log handler is nil")
	}
	logHandler.Set(handler)
}

// Record writes a message into log stream.
func Record(msg Message) {
	logHandler.Handle(msg)
}

type syncHandler struct {
	sync.RWMutex
	Handler
}

func (h *syncHandler) Handle(msg Message) {
	h.RLock()
	defer h.RUnlock()

	if h.Handler != nil {
		h.Handler.Handle(msg)
	}
}

func (h *syncHandler) Set(handler Handler) {
	h.Lock()
	defer h.Unlock()

	h.Handler = handler
}
