package vescmsg

// FieldKind identifies the wire encoding of one message field.
type FieldKind int

const (
	KindBool FieldKind = iota
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	// KindFloat32Vesc is the VESC firmware's bespoke 32-bit float
	// (Double32_Auto), not IEEE-754. See EncodeFloat32/DecodeFloat32.
	KindFloat32Vesc
	// KindFloat16Vesc stores a float rounded to the nearest integer in a
	// big-endian int16 — this is the protocol's 'e' code, not IEEE binary16.
	KindFloat16Vesc
	// KindByte is a single raw byte with no scaling.
	KindByte
	// KindString is a variable-length byte/ASCII-string field. At most one
	// per direction; its width is whatever remains of the payload.
	KindString
)

// Field describes one ordered element of a message's wire schema.
//
// Scalar is the fixed-point multiplier applied on send (value*Scalar,
// rounded) and divided out on receive. Zero means no scaling. On a
// KindString field, Scalar == -1 means "opaque bytes" (no ASCII decode).
type Field struct {
	Name   string
	Kind   FieldKind
	Scalar float64
}

// width returns the fixed wire width of the field, or -1 if it is the
// variable-length string/bytes field.
func (f Field) width() int {
	switch f.Kind {
	case KindBool, KindU8, KindI8, KindByte:
		return 1
	case KindU16, KindI16, KindFloat16Vesc:
		return 2
	case KindU32, KindI32, KindFloat32Vesc:
		return 4
	case KindString:
		return -1
	default:
		return -1
	}
}
