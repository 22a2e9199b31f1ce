package protocol

// Transaction is one request or reply unit: a frame header plus the assembled
// payload. On the wire a transaction may be split across several fragments;
// after assembly len(Payload) equals the initial header's TotalSize.
type Transaction struct {
	Header  FrameHeader
	Payload []byte
}

// NewRequest returns a request transaction for the given type and id.
func NewRequest(ty TransactionType, id uint32, payload []byte) *Transaction {
	return &Transaction{
		Header: FrameHeader{
			Type:      ty,
			ID:        id,
			TotalSize: uint32(len(payload)),
			DataSize:  uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewReply returns a reply transaction for the given request header. The
// reply copies the request's type and id, sets is_reply and carries the
// given error code and payload.
func NewReply(req *FrameHeader, errorCode uint32, payload []byte) *Transaction {
	return &Transaction{
		Header: FrameHeader{
			IsReply:   1,
			Type:      req.Type,
			ID:        req.ID,
			ErrorCode: errorCode,
			TotalSize: uint32(len(payload)),
			DataSize:  uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Bytes serializes the transaction as a single frame. The header's size
// fields are rewritten to describe the payload as one fragment.
func (t *Transaction) Bytes() []byte {
	header := t.Header
	header.TotalSize = uint32(len(t.Payload))
	header.DataSize = uint32(len(t.Payload))

	hb := header.Marshal()
	out := make([]byte, 0, HeaderLen+len(t.Payload))
	out = append(out, hb[:]...)
	out = append(out, t.Payload...)
	return out
}

// ParseTransaction parses one single-frame transaction from the given bytes.
func ParseTransaction(b []byte) (*Transaction, error) {
	header, err := ParseFrameHeader(b)
	if err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if header.TotalSize != header.DataSize {
		return nil, ErrSizeMismatch
	}
	if uint32(len(b)-HeaderLen) < header.DataSize {
		return nil, ErrShortBuffer
	}
	payload := make([]byte, header.DataSize)
	copy(payload, b[HeaderLen:HeaderLen+int(header.DataSize)])
	return &Transaction{Header: header, Payload: payload}, nil
}
