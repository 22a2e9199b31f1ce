package protocol_test

import (
	goerrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	. "github.com/mxd-net/mxd-core/protocol"
)

func TestParamsRoundTrip(t *testing.T) {
	params := []Param{
		{ID: FieldLogin, Value: []byte("alice")},
		{ID: FieldPassword, Value: []byte("secret")},
		{ID: FieldUserIcon, Value: []byte{0x00, 0x91}},
		{ID: FieldOptions, Value: []byte{0x05}},
	}

	payload, err := EncodeParams(params)
	require.NoError(t, err)

	decoded, err := DecodeParams(payload)
	require.NoError(t, err)
	if diff := cmp.Diff(params, decoded); diff != "" {
		t.Error(diff)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	decoded, err := DecodeParams(nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDuplicateFieldRejected(t *testing.T) {
	payload, err := EncodeParams([]Param{
		{ID: FieldLogin, Value: []byte("alice")},
		{ID: FieldLogin, Value: []byte("bob")},
	})
	require.NoError(t, err)

	_, err = DecodeParams(payload)
	var dup *DuplicateFieldError
	require.True(t, goerrors.As(err, &dup))
	require.Equal(t, FieldLogin, dup.Field)
}

func TestRepeatableFieldAllowed(t *testing.T) {
	payload, err := EncodeParams([]Param{
		{ID: FieldFileName, Value: []byte("fileA.txt")},
		{ID: FieldFileName, Value: []byte("fileC.txt")},
	})
	require.NoError(t, err)

	decoded, err := DecodeParams(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
}

func TestDecodeShortBuffer(t *testing.T) {
	payload, err := EncodeParams([]Param{{ID: FieldData, Value: []byte("hello")}})
	require.NoError(t, err)

	for _, cut := range []int{1, 3, len(payload) - 1} {
		_, err := DecodeParams(payload[:cut])
		require.Equal(t, ErrShortBuffer, err, "cut at %d", cut)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	payload, err := EncodeParams([]Param{{ID: FieldData, Value: []byte("hello")}})
	require.NoError(t, err)

	_, err = DecodeParams(append(payload, 0x00))
	require.Equal(t, ErrShortBuffer, err)
}

func TestFirstParamString(t *testing.T) {
	params := []Param{{ID: FieldLogin, Value: []byte("alice")}}

	value, found, err := FirstParamString(params, FieldLogin)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", value)

	_, found, err = FirstParamString(params, FieldPassword)
	require.NoError(t, err)
	require.False(t, found)

	invalid := []Param{{ID: FieldLogin, Value: []byte{0xFF, 0xFE}}}
	_, _, err = FirstParamString(invalid, FieldLogin)
	var bad *InvalidParamValueError
	require.True(t, goerrors.As(err, &bad))
}

func TestFirstParamInt32(t *testing.T) {
	params := []Param{{ID: FieldNewsArticleID, Value: []byte{0x00, 0x00, 0x00, 0x2A}}}

	value, found, err := FirstParamInt32(params, FieldNewsArticleID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int32(42), value)

	short := []Param{{ID: FieldNewsArticleID, Value: []byte{0x2A}}}
	_, _, err = FirstParamInt32(short, FieldNewsArticleID)
	var bad *InvalidParamValueError
	require.True(t, goerrors.As(err, &bad))
}

func TestRequiredParamMissing(t *testing.T) {
	_, err := RequiredParamString(nil, FieldLogin)
	var missing *MissingFieldError
	require.True(t, goerrors.As(err, &missing))
	require.Equal(t, FieldLogin, missing.Field)

	_, err = RequiredParamInt32(nil, FieldNewsArticleID)
	require.True(t, goerrors.As(err, &missing))
}

func TestValidatePayload(t *testing.T) {
	params := []Param{
		{ID: FieldLogin, Value: []byte("alice")},
		{ID: FieldPassword, Value: []byte("secret")},
	}
	required := []FieldID{FieldLogin, FieldPassword}
	allowed := []FieldID{FieldUserName}

	require.NoError(t, ValidatePayload(params, required, allowed))

	unknown := append(params, Param{ID: FieldID(999), Value: []byte("bogus")})
	var invalid *InvalidPayloadError
	require.True(t, goerrors.As(ValidatePayload(unknown, required, allowed), &invalid))

	var missing *MissingFieldError
	require.True(t, goerrors.As(ValidatePayload(params[:1], required, allowed), &missing))
	require.Equal(t, FieldPassword, missing.Field)
}
