package protocol

import (
	"strconv"

	"github.com/mxd-net/mxd-core/common/errors"
)

// Framing errors. The readers and the writer report these; any of them
// poisons an open fragment stream.
var (
	// ErrInvalidFlags is returned when the header flags are not zero.
	ErrInvalidFlags = errors.New("invalid flags")
	// ErrPayloadTooLarge is returned when a payload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrSizeMismatch is returned when sizes in a header disagree with the data.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrHeaderMismatch is returned when a continuation header does not match the initial frame.
	ErrHeaderMismatch = errors.New("continuation header mismatch")
	// ErrShortBuffer is returned when a buffer is too short for the expected data.
	ErrShortBuffer = errors.New("buffer too short")
	// ErrTimeout is returned when a frame read or write exceeds its deadline.
	ErrTimeout = errors.New("I/O timeout")
)

// DuplicateFieldError reports a field identifier that appears more than once
// in a payload without being repeatable.
type DuplicateFieldError struct {
	Field FieldID
}

func (e *DuplicateFieldError) Error() string {
	return "duplicate field id " + strconv.Itoa(int(e.Field))
}

// MissingFieldError reports an absent required parameter.
type MissingFieldError struct {
	Field FieldID
}

func (e *MissingFieldError) Error() string {
	return "missing field " + strconv.Itoa(int(e.Field))
}

// InvalidParamValueError reports a parameter value that could not be parsed,
// such as invalid UTF-8 or a wrongly sized integer.
type InvalidParamValueError struct {
	Field FieldID
}

func (e *InvalidParamValueError) Error() string {
	return "invalid param value for field " + strconv.Itoa(int(e.Field))
}

// InvalidPayloadError reports a payload that fails validation against the
// field set a handler accepts.
type InvalidPayloadError struct {
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	return "invalid payload: " + e.Reason
}
