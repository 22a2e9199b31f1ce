package protocol

import (
	goerrors "errors"
	"io"
	"net"

	"github.com/mxd-net/mxd-core/common/errors"
)

// TransactionReader reads whole transactions from a byte stream, reassembling
// multi-fragment payloads into memory. Payloads larger than the configured
// maximum are rejected before any payload byte is buffered.
type TransactionReader struct {
	reader     io.Reader
	maxPayload uint32
	lastHeader *FrameHeader
}

// NewTransactionReader creates a buffered reader with the default payload limit.
func NewTransactionReader(reader io.Reader) *TransactionReader {
	return &TransactionReader{
		reader:     reader,
		maxPayload: MaxPayloadSize,
	}
}

// WithMaxPayload overrides the payload limit.
func (r *TransactionReader) WithMaxPayload(limit uint32) *TransactionReader {
	r.maxPayload = limit
	return r
}

// LastHeader returns the initial header of the transaction the previous
// ReadTransaction call was working on, or nil when none was parsed. It allows
// the caller to shape a best-effort error reply for a framing failure.
func (r *TransactionReader) LastHeader() *FrameHeader {
	return r.lastHeader
}

func (r *TransactionReader) readHeader() (FrameHeader, error) {
	var b [HeaderLen]byte
	if _, err := io.ReadFull(r.reader, b[:]); err != nil {
		return FrameHeader{}, wrapIOError(err)
	}
	header, err := ParseFrameHeader(b[:])
	if err != nil {
		return FrameHeader{}, err
	}
	if err := header.Validate(); err != nil {
		return FrameHeader{}, err
	}
	return header, nil
}

// ReadTransaction reads one complete transaction, following continuation
// fragments until the accumulated payload reaches the initial header's
// TotalSize. io.EOF is returned unchanged when the stream ends cleanly at a
// transaction boundary.
func (r *TransactionReader) ReadTransaction() (*Transaction, error) {
	r.lastHeader = nil

	initial, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	r.lastHeader = &initial

	if initial.TotalSize > r.maxPayload {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, initial.TotalSize)
	received := uint32(0)

	if initial.DataSize > 0 {
		if _, err := io.ReadFull(r.reader, payload[:initial.DataSize]); err != nil {
			return nil, wrapIOError(err)
		}
		received = initial.DataSize
	}

	for received < initial.TotalSize {
		cont, err := r.readHeader()
		if err != nil {
			return nil, err
		}
		if err := initial.MatchesContinuation(&cont); err != nil {
			return nil, err
		}
		if cont.DataSize > initial.TotalSize-received {
			return nil, ErrSizeMismatch
		}
		if cont.DataSize > 0 {
			if _, err := io.ReadFull(r.reader, payload[received:received+cont.DataSize]); err != nil {
				return nil, wrapIOError(err)
			}
			received += cont.DataSize
		}
	}

	return &Transaction{Header: initial, Payload: payload}, nil
}

// Fragment is one yielded chunk of a streamed transaction.
type Fragment struct {
	Header  FrameHeader
	Payload []byte
	Last    bool
}

type streamState int

const (
	streamIdle streamState = iota
	streamOpen
	streamClosed
	streamPoisoned
)

// TransactionStreamReader opens transactions and yields their fragments one
// at a time, keeping at most one fragment in memory.
type TransactionStreamReader struct {
	reader       io.Reader
	maxTotal     uint32
	maxFrameData uint32
}

// NewTransactionStreamReader creates a streaming reader with the default limits.
func NewTransactionStreamReader(reader io.Reader) *TransactionStreamReader {
	return &TransactionStreamReader{
		reader:       reader,
		maxTotal:     MaxPayloadSize,
		maxFrameData: MaxFrameData,
	}
}

// WithMaxTotal overrides the total payload limit for transactions opened by
// this reader.
func (r *TransactionStreamReader) WithMaxTotal(limit uint32) *TransactionStreamReader {
	r.maxTotal = limit
	return r
}

// StartTransaction reads the initial header of the next transaction. The
// returned stream yields the fragments, including the initial one.
func (r *TransactionStreamReader) StartTransaction() (*StreamingTransaction, error) {
	var b [HeaderLen]byte
	if _, err := io.ReadFull(r.reader, b[:]); err != nil {
		return nil, wrapIOError(err)
	}
	header, err := ParseFrameHeader(b[:])
	if err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if header.TotalSize > r.maxTotal {
		return nil, ErrPayloadTooLarge
	}

	return &StreamingTransaction{
		reader:  r,
		initial: header,
		pending: &header,
		state:   streamOpen,
	}, nil
}

// StreamingTransaction is an open transaction whose fragments are pulled one
// by one. Any error poisons the stream: every later pull fails the same way.
type StreamingTransaction struct {
	reader   *TransactionStreamReader
	initial  FrameHeader
	pending  *FrameHeader
	received uint32
	state    streamState
	err      error
}

// Header returns the initial frame header of the transaction.
func (s *StreamingTransaction) Header() FrameHeader {
	return s.initial
}

func (s *StreamingTransaction) poison(err error) error {
	s.state = streamPoisoned
	s.err = err
	return err
}

// NextFragment returns the next fragment of the transaction. After the last
// fragment was yielded it returns io.EOF.
func (s *StreamingTransaction) NextFragment() (*Fragment, error) {
	switch s.state {
	case streamPoisoned:
		return nil, s.err
	case streamClosed:
		return nil, io.EOF
	}

	header := s.pending
	if header == nil {
		var b [HeaderLen]byte
		if _, err := io.ReadFull(s.reader.reader, b[:]); err != nil {
			return nil, s.poison(wrapIOError(err))
		}
		cont, err := ParseFrameHeader(b[:])
		if err != nil {
			return nil, s.poison(err)
		}
		if err := cont.Validate(); err != nil {
			return nil, s.poison(err)
		}
		if err := s.initial.MatchesContinuation(&cont); err != nil {
			return nil, s.poison(err)
		}
		header = &cont
	}
	s.pending = nil

	if header.DataSize > s.reader.maxFrameData {
		return nil, s.poison(ErrPayloadTooLarge)
	}
	if header.DataSize > s.initial.TotalSize-s.received {
		return nil, s.poison(ErrSizeMismatch)
	}
	if s.received+header.DataSize > s.reader.maxTotal {
		return nil, s.poison(ErrPayloadTooLarge)
	}

	payload := make([]byte, header.DataSize)
	if header.DataSize > 0 {
		if _, err := io.ReadFull(s.reader.reader, payload); err != nil {
			return nil, s.poison(wrapIOError(err))
		}
	}
	s.received += header.DataSize

	last := s.received == s.initial.TotalSize
	if last {
		s.state = streamClosed
	}
	return &Fragment{Header: *header, Payload: payload, Last: last}, nil
}

// wrapIOError maps deadline expiry to ErrTimeout and keeps io.EOF as-is so
// callers can detect a clean close.
func wrapIOError(err error) error {
	if err == io.EOF {
		return err
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return errors.New("read failed").Base(err)
}
