package vescmsg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrMalformedPayload is returned by Unpack when a payload is too short
// for its schema, most commonly when a variable-length field's implied
// length would be negative.
var ErrMalformedPayload = fmt.Errorf("vescmsg: malformed payload")

// PackHeaderOnly encodes a bare getter request: just the message id (with
// an optional CAN-forward prefix), no field bytes. This is what a caller
// sends to request a message whose Send schema is empty (e.g. get_values).
func PackHeaderOnly(id byte, canID *uint8) []byte {
	if canID == nil {
		return []byte{id}
	}
	return []byte{ForwardCAN, *canID, id}
}

// Pack encodes msg's fields (using the schema's Send or Recv field list,
// per dir) into payload bytes ready to hand to vescframe.Frame. If msg
// carries a CANID, the two-byte CAN-forward prefix is prepended ahead of
// the message id.
func Pack(msg Message, dir Direction) ([]byte, error) {
	schema, ok := Lookup(msg.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageID, msg.ID)
	}
	fields := schema.fields(dir)

	body := make([]byte, 0, 1+fixedWidth(fields, -1))
	body = append(body, msg.ID)

	strIdx := stringIndex(fields)
	for i, f := range fields {
		v := msg.Fields[f.Name]
		if i == strIdx {
			raw, err := packString(f, v)
			if err != nil {
				return nil, fmt.Errorf("vescmsg: field %q: %w", f.Name, err)
			}
			body = append(body, raw...)
			continue
		}
		raw, err := packScalar(f, v)
		if err != nil {
			return nil, fmt.Errorf("vescmsg: field %q: %w", f.Name, err)
		}
		body = append(body, raw...)
	}

	if msg.CANID == nil {
		return body, nil
	}
	out := make([]byte, 0, 2+len(body))
	out = append(out, ForwardCAN, *msg.CANID)
	out = append(out, body...)
	return out, nil
}

// Unpack decodes payload (id-prefixed, optionally already stripped of a
// CAN-forward prefix by the caller) into a Message using the schema's Send
// or Recv field list per dir.
func Unpack(payload []byte, dir Direction) (Message, error) {
	if len(payload) < 1 {
		return Message{}, ErrMalformedPayload
	}
	id := payload[0]
	schema, ok := Lookup(id)
	if !ok {
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownMessageID, id)
	}
	fields := schema.fields(dir)

	strIdx := stringIndex(fields)
	var stringLen int
	if strIdx != -1 {
		stringLen = len(payload) - 1 - fixedWidth(fields, strIdx)
		if stringLen < 0 {
			return Message{}, ErrMalformedPayload
		}
	}

	out := make(map[string]interface{}, len(fields))
	offset := 1
	for i, f := range fields {
		if i == strIdx {
			if offset+stringLen > len(payload) {
				return Message{}, ErrMalformedPayload
			}
			raw := payload[offset : offset+stringLen]
			out[f.Name] = unpackString(f, raw)
			offset += stringLen
			continue
		}
		w := f.width()
		if offset+w > len(payload) {
			return Message{}, ErrMalformedPayload
		}
		val, err := unpackScalar(f, payload[offset:offset+w])
		if err != nil {
			return Message{}, fmt.Errorf("vescmsg: field %q: %w", f.Name, err)
		}
		out[f.Name] = val
		offset += w
	}

	return Message{ID: id, Fields: out}, nil
}

func packString(f Field, v interface{}) ([]byte, error) {
	if f.Scalar == -1 {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T", v)
		}
		return b, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return []byte(s), nil
}

func unpackString(f Field, raw []byte) interface{} {
	if f.Scalar == -1 {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
	return string(raw)
}

func packScalar(f Field, v interface{}) ([]byte, error) {
	switch f.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case KindByte:
		u, err := toUint64(v)
		if err != nil {
			return nil, err
		}
		return []byte{byte(u)}, nil

	case KindFloat32Vesc:
		x, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, EncodeFloat32(x))
		return buf, nil

	case KindFloat16Vesc:
		x, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if f.Scalar != 0 {
			x *= f.Scalar
		}
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(EncodeFloat16(x)))
		return buf, nil

	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32:
		var iv int64
		if f.Scalar != 0 {
			x, err := toFloat64(v)
			if err != nil {
				return nil, err
			}
			iv = int64(math.RoundToEven(x * f.Scalar))
		} else {
			x, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			iv = x
		}
		return packInt(f.Kind, iv)

	default:
		return nil, fmt.Errorf("unsupported field kind %v", f.Kind)
	}
}

func unpackScalar(f Field, raw []byte) (interface{}, error) {
	switch f.Kind {
	case KindBool:
		return raw[0] != 0, nil

	case KindByte:
		return raw[0], nil

	case KindFloat32Vesc:
		return DecodeFloat32(binary.BigEndian.Uint32(raw)), nil

	case KindFloat16Vesc:
		x := DecodeFloat16(int16(binary.BigEndian.Uint16(raw)))
		if f.Scalar != 0 {
			x /= f.Scalar
		}
		return x, nil

	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32:
		iv, err := unpackInt(f.Kind, raw)
		if err != nil {
			return nil, err
		}
		if f.Scalar != 0 {
			return float64(iv) / f.Scalar, nil
		}
		return iv, nil

	default:
		return nil, fmt.Errorf("unsupported field kind %v", f.Kind)
	}
}

func packInt(k FieldKind, v int64) ([]byte, error) {
	switch k {
	case KindU8, KindI8:
		return []byte{byte(v)}, nil
	case KindU16, KindI16:
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(v))
		return buf, nil
	case KindU32, KindI32:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		return buf, nil
	default:
		return nil, fmt.Errorf("packInt: unsupported kind %v", k)
	}
}

func unpackInt(k FieldKind, raw []byte) (int64, error) {
	switch k {
	case KindU8:
		return int64(raw[0]), nil
	case KindI8:
		return int64(int8(raw[0])), nil
	case KindU16:
		return int64(binary.BigEndian.Uint16(raw)), nil
	case KindI16:
		return int64(int16(binary.BigEndian.Uint16(raw))), nil
	case KindU32:
		return int64(binary.BigEndian.Uint32(raw)), nil
	case KindI32:
		return int64(int32(binary.BigEndian.Uint32(raw))), nil
	default:
		return 0, fmt.Errorf("unpackInt: unsupported kind %v", k)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("expected integer value, got %T", v)
	}
}

func toUint64(v interface{}) (uint64, error) {
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return uint64(i), nil
}
