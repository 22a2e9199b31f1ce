package protocol_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/mxd-net/mxd-core/protocol"
)

func buildPayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i)
	}
	return payload
}

// fragmentedBytes serializes a transaction with the given fragment size.
func fragmentedBytes(t *testing.T, tx *Transaction, fragSize uint32) []byte {
	t.Helper()
	var out bytes.Buffer
	writer := NewTransactionWriter(&out).WithMaxFrameData(fragSize)
	require.NoError(t, writer.WriteTransaction(tx))
	return out.Bytes()
}

func TestWriterSingleFrame(t *testing.T) {
	tx := NewRequest(TypeLogin, 1, []byte("hello"))
	wire := fragmentedBytes(t, tx, MaxFrameData)

	require.Len(t, wire, HeaderLen+5)
	header, err := ParseFrameHeader(wire)
	require.NoError(t, err)
	require.Equal(t, uint32(5), header.TotalSize)
	require.Equal(t, uint32(5), header.DataSize)
	require.Equal(t, []byte("hello"), wire[HeaderLen:])
}

func TestWriterEmptyPayload(t *testing.T) {
	tx := NewRequest(TypePing, 9, nil)
	wire := fragmentedBytes(t, tx, MaxFrameData)
	require.Len(t, wire, HeaderLen)
}

func TestBufferedRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 100, MaxFrameData, MaxFrameData + 1, 100000} {
		payload := buildPayload(size)
		tx := NewRequest(TypePostNewsArticle, 7, payload)
		wire := fragmentedBytes(t, tx, MaxFrameData)

		reader := NewTransactionReader(bytes.NewReader(wire))
		decoded, err := reader.ReadTransaction()
		require.NoError(t, err, "size %d", size)
		require.Equal(t, tx.Header.Type, decoded.Header.Type)
		require.Equal(t, tx.Header.ID, decoded.Header.ID)
		require.Equal(t, payload, decoded.Payload, "size %d", size)
	}
}

func TestFragmentationLaw(t *testing.T) {
	cases := []struct {
		payload  int
		fragSize uint32
	}{
		{payload: 1, fragSize: 1},
		{payload: 10, fragSize: 3},
		{payload: 100, fragSize: 100},
		{payload: 1000, fragSize: 256},
		{payload: 100000, fragSize: MaxFrameData},
	}
	for _, tc := range cases {
		payload := buildPayload(tc.payload)
		tx := NewRequest(TypePostNewsArticle, 42, payload)
		wire := fragmentedBytes(t, tx, tc.fragSize)

		stream, err := NewTransactionStreamReader(bytes.NewReader(wire)).StartTransaction()
		require.NoError(t, err)

		var got []byte
		count := 0
		for {
			fragment, err := stream.NextFragment()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			require.LessOrEqual(t, len(fragment.Payload), int(tc.fragSize))
			got = append(got, fragment.Payload...)
			count++
			if fragment.Last {
				_, err := stream.NextFragment()
				require.Equal(t, io.EOF, err)
				break
			}
		}

		expected := (tc.payload + int(tc.fragSize) - 1) / int(tc.fragSize)
		require.Equal(t, expected, count, "payload %d frag %d", tc.payload, tc.fragSize)
		require.Equal(t, payload, got)
	}
}

func TestStreamingFourFragments(t *testing.T) {
	payload := buildPayload(100000)
	tx := NewRequest(TypePostNewsArticle, 7, payload)
	wire := fragmentedBytes(t, tx, 32768)

	stream, err := NewTransactionStreamReader(bytes.NewReader(wire)).StartTransaction()
	require.NoError(t, err)

	var sizes []int
	total := 0
	for {
		fragment, err := stream.NextFragment()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, len(fragment.Payload))
		total += len(fragment.Payload)
	}
	require.Equal(t, []int{32768, 32768, 32768, 1696}, sizes)
	require.Equal(t, 100000, total)
}

func TestStreamReaderBoundedMemory(t *testing.T) {
	payload := buildPayload(4096)
	tx := NewRequest(TypePostNewsArticle, 7, payload)
	wire := fragmentedBytes(t, tx, 1024)

	_, err := NewTransactionStreamReader(bytes.NewReader(wire)).
		WithMaxTotal(1000).
		StartTransaction()
	require.Equal(t, ErrPayloadTooLarge, err)
}

func TestStreamReaderFragmentCap(t *testing.T) {
	// A single frame carrying more than MaxFrameData must not be buffered.
	header := FrameHeader{Type: TypePostNewsArticle, ID: 1, TotalSize: MaxFrameData + 1, DataSize: MaxFrameData + 1}
	hb := header.Marshal()
	wire := append(hb[:], buildPayload(MaxFrameData+1)...)

	stream, err := NewTransactionStreamReader(bytes.NewReader(wire)).StartTransaction()
	require.NoError(t, err)

	_, err = stream.NextFragment()
	require.Equal(t, ErrPayloadTooLarge, err)

	// Poisoned: the error sticks.
	_, err = stream.NextFragment()
	require.Equal(t, ErrPayloadTooLarge, err)
}

func TestStreamPoisonedOnContinuationMismatch(t *testing.T) {
	initial := FrameHeader{Type: TypePostNewsArticle, ID: 1, TotalSize: 20, DataSize: 10}
	cont := FrameHeader{Type: TypePostNewsArticle, ID: 2, TotalSize: 20, DataSize: 10}

	var wire bytes.Buffer
	hb := initial.Marshal()
	wire.Write(hb[:])
	wire.Write(buildPayload(10))
	hb = cont.Marshal()
	wire.Write(hb[:])
	wire.Write(buildPayload(10))

	stream, err := NewTransactionStreamReader(bytes.NewReader(wire.Bytes())).StartTransaction()
	require.NoError(t, err)

	first, err := stream.NextFragment()
	require.NoError(t, err)
	require.False(t, first.Last)

	_, err = stream.NextFragment()
	require.Equal(t, ErrHeaderMismatch, err)

	_, err = stream.NextFragment()
	require.Equal(t, ErrHeaderMismatch, err)
}

func TestBufferedReaderContinuationTotalSizeDivergence(t *testing.T) {
	initial := FrameHeader{Type: TypePostNewsArticle, ID: 1, TotalSize: 20, DataSize: 10}
	cont := FrameHeader{Type: TypePostNewsArticle, ID: 1, TotalSize: 21, DataSize: 10}

	var wire bytes.Buffer
	hb := initial.Marshal()
	wire.Write(hb[:])
	wire.Write(buildPayload(10))
	hb = cont.Marshal()
	wire.Write(hb[:])
	wire.Write(buildPayload(10))

	_, err := NewTransactionReader(bytes.NewReader(wire.Bytes())).ReadTransaction()
	require.Equal(t, ErrSizeMismatch, err)
}

func TestBufferedReaderInvalidFlags(t *testing.T) {
	header := FrameHeader{Flags: 1, Type: TypeLogin, ID: 1}
	hb := header.Marshal()

	_, err := NewTransactionReader(bytes.NewReader(hb[:])).ReadTransaction()
	require.Equal(t, ErrInvalidFlags, err)
}

func TestBufferedReaderSizeMismatch(t *testing.T) {
	header := FrameHeader{Type: TypeLogin, ID: 1, TotalSize: 5, DataSize: 6}
	hb := header.Marshal()
	wire := append(hb[:], buildPayload(6)...)

	_, err := NewTransactionReader(bytes.NewReader(wire)).ReadTransaction()
	require.Equal(t, ErrSizeMismatch, err)
}

func TestBufferedReaderPayloadTooLarge(t *testing.T) {
	header := FrameHeader{Type: TypeLogin, ID: 1, TotalSize: MaxPayloadSize + 1, DataSize: 100}
	hb := header.Marshal()

	_, err := NewTransactionReader(bytes.NewReader(hb[:])).ReadTransaction()
	require.Equal(t, ErrPayloadTooLarge, err)
}

func TestBufferedReaderCleanEOF(t *testing.T) {
	_, err := NewTransactionReader(bytes.NewReader(nil)).ReadTransaction()
	require.Equal(t, io.EOF, err)
}

func TestSingleFrameTransactionBytesRoundTrip(t *testing.T) {
	tx := NewRequest(TypeLogin, 3, []byte("payload"))
	parsed, err := ParseTransaction(tx.Bytes())
	require.NoError(t, err)
	require.Equal(t, tx.Header, parsed.Header)
	require.Equal(t, tx.Payload, parsed.Payload)
}
