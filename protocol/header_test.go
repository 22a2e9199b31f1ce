package protocol_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	. "github.com/mxd-net/mxd-core/protocol"
)

func TestFrameHeaderWireLayout(t *testing.T) {
	header := FrameHeader{
		Flags:     0,
		IsReply:   1,
		Type:      TypeLogin,
		ID:        0x01020304,
		ErrorCode: 5,
		TotalSize: 0x00010000,
		DataSize:  0x00008000,
	}

	b := header.Marshal()
	expected := []byte{
		0x00,       // flags
		0x01,       // is_reply
		0x00, 0x6B, // type 107
		0x01, 0x02, 0x03, 0x04, // id
		0x00, 0x00, 0x00, 0x05, // error
		0x00, 0x01, 0x00, 0x00, // total size
		0x00, 0x00, 0x80, 0x00, // data size
	}
	require.Equal(t, expected, b[:])
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	headers := []FrameHeader{
		{},
		{Type: TypePing, ID: 1},
		{IsReply: 1, Type: TypePostNewsArticle, ID: 0xFFFFFFFF, ErrorCode: 2, TotalSize: 100, DataSize: 50},
	}
	for _, header := range headers {
		b := header.Marshal()
		parsed, err := ParseFrameHeader(b[:])
		require.NoError(t, err)
		if diff := cmp.Diff(header, parsed); diff != "" {
			t.Error(diff)
		}
	}
}

func TestParseFrameHeaderShortBuffer(t *testing.T) {
	_, err := ParseFrameHeader(make([]byte, HeaderLen-1))
	require.Equal(t, ErrShortBuffer, err)
}

func TestValidateRejectsNonZeroFlags(t *testing.T) {
	header := FrameHeader{Flags: 1, Type: TypeLogin, ID: 1}
	require.Equal(t, ErrInvalidFlags, header.Validate())
}

func TestValidateRejectsDataLargerThanTotal(t *testing.T) {
	header := FrameHeader{Type: TypeLogin, ID: 1, TotalSize: 10, DataSize: 11}
	require.Equal(t, ErrSizeMismatch, header.Validate())
}

func TestContinuationMatching(t *testing.T) {
	initial := FrameHeader{Type: TypePostNewsArticle, ID: 7, TotalSize: 100, DataSize: 50}

	sameID := initial
	sameID.DataSize = 50
	require.NoError(t, initial.MatchesContinuation(&sameID))

	otherID := initial
	otherID.ID = 8
	require.Equal(t, ErrHeaderMismatch, initial.MatchesContinuation(&otherID))

	otherTotal := initial
	otherTotal.TotalSize = 99
	require.Equal(t, ErrSizeMismatch, initial.MatchesContinuation(&otherTotal))
}
