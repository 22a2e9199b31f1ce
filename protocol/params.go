package protocol

import (
	"encoding/binary"
	"strconv"
	"unicode/utf8"
)

// Param is a single (field id, value) pair carried in a payload.
type Param struct {
	ID    FieldID
	Value []byte
}

/*
Parameter payload encoding, all integers big-endian:

	2 bytes - parameter count
	per parameter:
	  2 bytes - field id
	  2 bytes - value length
	  n bytes - value
*/

// EncodeParams serializes the parameter list into payload form.
func EncodeParams(params []Param) ([]byte, error) {
	size := 2
	for _, p := range params {
		if len(p.Value) > 0xFFFF {
			return nil, &InvalidParamValueError{Field: p.ID}
		}
		size += 4 + len(p.Value)
	}

	out := make([]byte, 0, size)
	var scratch [2]byte
	binary.BigEndian.PutUint16(scratch[:], uint16(len(params)))
	out = append(out, scratch[:]...)
	for _, p := range params {
		binary.BigEndian.PutUint16(scratch[:], uint16(p.ID))
		out = append(out, scratch[:]...)
		binary.BigEndian.PutUint16(scratch[:], uint16(len(p.Value)))
		out = append(out, scratch[:]...)
		out = append(out, p.Value...)
	}
	return out, nil
}

// DecodeParams parses a payload into its parameter list. A field id that
// appears twice without being repeatable fails with DuplicateFieldError;
// lengths overrunning the buffer fail with ErrShortBuffer.
func DecodeParams(payload []byte) ([]Param, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if len(payload) < 2 {
		return nil, ErrShortBuffer
	}
	count := int(binary.BigEndian.Uint16(payload[:2]))
	rest := payload[2:]

	params := make([]Param, 0, count)
	seen := make(map[FieldID]struct{}, count)
	for i := 0; i < count; i++ {
		if len(rest) < 4 {
			return nil, ErrShortBuffer
		}
		id := FieldID(binary.BigEndian.Uint16(rest[0:2]))
		length := int(binary.BigEndian.Uint16(rest[2:4]))
		rest = rest[4:]
		if len(rest) < length {
			return nil, ErrShortBuffer
		}
		if _, dup := seen[id]; dup && !id.Repeatable() {
			return nil, &DuplicateFieldError{Field: id}
		}
		seen[id] = struct{}{}

		value := make([]byte, length)
		copy(value, rest[:length])
		rest = rest[length:]
		params = append(params, Param{ID: id, Value: value})
	}
	if len(rest) != 0 {
		return nil, ErrShortBuffer
	}
	return params, nil
}

// FirstParam returns the first parameter with the given field id.
func FirstParam(params []Param, id FieldID) ([]byte, bool) {
	for _, p := range params {
		if p.ID == id {
			return p.Value, true
		}
	}
	return nil, false
}

// FirstParamString returns the first value of the given field as UTF-8 text.
func FirstParamString(params []Param, id FieldID) (string, bool, error) {
	value, found := FirstParam(params, id)
	if !found {
		return "", false, nil
	}
	if !utf8.Valid(value) {
		return "", true, &InvalidParamValueError{Field: id}
	}
	return string(value), true, nil
}

// FirstParamInt32 returns the first value of the given field as a big-endian
// 32-bit integer. Values of any other size are invalid.
func FirstParamInt32(params []Param, id FieldID) (int32, bool, error) {
	value, found := FirstParam(params, id)
	if !found {
		return 0, false, nil
	}
	if len(value) != 4 {
		return 0, true, &InvalidParamValueError{Field: id}
	}
	return int32(binary.BigEndian.Uint32(value)), true, nil
}

// RequiredParamString is FirstParamString failing with MissingFieldError when absent.
func RequiredParamString(params []Param, id FieldID) (string, error) {
	value, found, err := FirstParamString(params, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &MissingFieldError{Field: id}
	}
	return value, nil
}

// RequiredParamInt32 is FirstParamInt32 failing with MissingFieldError when absent.
func RequiredParamInt32(params []Param, id FieldID) (int32, error) {
	value, found, err := FirstParamInt32(params, id)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, &MissingFieldError{Field: id}
	}
	return value, nil
}

// ValidatePayload checks that every required field id is present and that no
// field id outside the allowed set appears. The required ids are implicitly
// allowed.
func ValidatePayload(params []Param, required []FieldID, allowed []FieldID) error {
	permitted := make(map[FieldID]struct{}, len(required)+len(allowed))
	for _, id := range required {
		permitted[id] = struct{}{}
	}
	for _, id := range allowed {
		permitted[id] = struct{}{}
	}

	present := make(map[FieldID]struct{}, len(params))
	for _, p := range params {
		if _, ok := permitted[p.ID]; !ok {
			return &InvalidPayloadError{Reason: "unexpected field " + strconv.Itoa(int(p.ID))}
		}
		present[p.ID] = struct{}{}
	}
	for _, id := range required {
		if _, ok := present[id]; !ok {
			return &MissingFieldError{Field: id}
		}
	}
	return nil
}
