package protocol

import "encoding/binary"

/*
Frame header, 20 bytes, big-endian:

	1 byte  - flags (must be 0 for protocol version 1)
	1 byte  - is_reply (0 request, 1 reply)
	2 bytes - transaction type
	4 bytes - transaction id
	4 bytes - error code (replies only)
	4 bytes - total payload size across all fragments
	4 bytes - payload size of this fragment
*/

// FrameHeader is the fixed-size header preceding every transaction fragment.
type FrameHeader struct {
	Flags     uint8
	IsReply   uint8
	Type      TransactionType
	ID        uint32
	ErrorCode uint32
	TotalSize uint32
	DataSize  uint32
}

// Marshal serializes the header into wire form.
func (h *FrameHeader) Marshal() [HeaderLen]byte {
	var b [HeaderLen]byte
	b[0] = h.Flags
	b[1] = h.IsReply
	binary.BigEndian.PutUint16(b[2:4], uint16(h.Type))
	binary.BigEndian.PutUint32(b[4:8], h.ID)
	binary.BigEndian.PutUint32(b[8:12], h.ErrorCode)
	binary.BigEndian.PutUint32(b[12:16], h.TotalSize)
	binary.BigEndian.PutUint32(b[16:20], h.DataSize)
	return b
}

// ParseFrameHeader parses a header from wire form. It fails with
// ErrShortBuffer when fewer than HeaderLen bytes are given.
func ParseFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderLen {
		return FrameHeader{}, ErrShortBuffer
	}
	return FrameHeader{
		Flags:     b[0],
		IsReply:   b[1],
		Type:      TransactionType(binary.BigEndian.Uint16(b[2:4])),
		ID:        binary.BigEndian.Uint32(b[4:8]),
		ErrorCode: binary.BigEndian.Uint32(b[8:12]),
		TotalSize: binary.BigEndian.Uint32(b[12:16]),
		DataSize:  binary.BigEndian.Uint32(b[16:20]),
	}, nil
}

// Validate checks the invariants every frame header must satisfy.
func (h *FrameHeader) Validate() error {
	if h.Flags != 0 {
		return ErrInvalidFlags
	}
	if h.DataSize > h.TotalSize {
		return ErrSizeMismatch
	}
	return nil
}

// MatchesContinuation checks a continuation header against the initial header
// of the transaction. Fragments of one transaction share type, id, is_reply
// and total_size; the error code of continuations is ignored.
func (h *FrameHeader) MatchesContinuation(cont *FrameHeader) error {
	if cont.TotalSize != h.TotalSize {
		return ErrSizeMismatch
	}
	if cont.Type != h.Type || cont.ID != h.ID || cont.IsReply != h.IsReply {
		return ErrHeaderMismatch
	}
	return nil
}
