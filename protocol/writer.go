package protocol

import (
	goerrors "errors"
	"io"
	"net"

	"github.com/mxd-net/mxd-core/common/buf"
	"github.com/mxd-net/mxd-core/common/errors"
)

// TransactionWriter serializes transactions onto a byte stream, splitting
// payloads larger than the fragment limit into continuation frames. Each
// fragment is emitted with a single Write call so that a failed write never
// leaves a torn frame behind an intact one.
type TransactionWriter struct {
	writer       io.Writer
	maxFrameData uint32
}

// NewTransactionWriter creates a writer with the default fragment limit.
func NewTransactionWriter(writer io.Writer) *TransactionWriter {
	return &TransactionWriter{
		writer:       writer,
		maxFrameData: MaxFrameData,
	}
}

// WithMaxFrameData overrides the per-fragment payload limit.
func (w *TransactionWriter) WithMaxFrameData(limit uint32) *TransactionWriter {
	if limit == 0 {
		panic("fragment limit must be positive")
	}
	w.maxFrameData = limit
	return w
}

// WriteTransaction writes the transaction, fragmenting its payload as needed.
// The initial fragment carries the transaction's error code; continuations
// carry zero. flags is zero on every fragment.
func (w *TransactionWriter) WriteTransaction(t *Transaction) error {
	total := uint32(len(t.Payload))

	header := FrameHeader{
		IsReply:   t.Header.IsReply,
		Type:      t.Header.Type,
		ID:        t.Header.ID,
		ErrorCode: t.Header.ErrorCode,
		TotalSize: total,
	}

	remaining := t.Payload
	for {
		chunk := remaining
		if uint32(len(chunk)) > w.maxFrameData {
			chunk = chunk[:w.maxFrameData]
		}
		remaining = remaining[len(chunk):]
		header.DataSize = uint32(len(chunk))

		if err := w.writeFragment(&header, chunk); err != nil {
			return err
		}

		if len(remaining) == 0 {
			return nil
		}
		// Continuation frames repeat the identity of the transaction and
		// never carry an error code.
		header.ErrorCode = 0
	}
}

func (w *TransactionWriter) writeFragment(header *FrameHeader, payload []byte) error {
	frame := buf.NewWithSize(int32(HeaderLen + len(payload)))
	defer frame.Release()

	hb := header.Marshal()
	frame.Write(hb[:])
	frame.Write(payload)

	if _, err := w.writer.Write(frame.Bytes()); err != nil {
		var netErr net.Error
		if goerrors.As(err, &netErr) && netErr.Timeout() {
			return ErrTimeout
		}
		return errors.New("write failed").Base(err)
	}
	return nil
}
