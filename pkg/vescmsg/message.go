package vescmsg

// ForwardCAN is the message id that wraps a forwarded payload with a
// two-byte CAN-forward prefix: [ForwardCAN, canID].
const ForwardCAN byte = 33

// Message is the runtime carrier for a single request/response turn: a
// schema id plus its current field values, and an optional CAN id for
// forwarding to a VESC on the CAN bus rather than the one directly
// attached to the transport.
type Message struct {
	ID     byte
	CANID  *uint8
	Fields map[string]interface{}
}

// Get returns the named field value, or nil if unset.
func (m Message) Get(name string) interface{} {
	if m.Fields == nil {
		return nil
	}
	return m.Fields[name]
}

// NewMessage builds a Message with the given id and fields. CANID may be
// nil for a message addressed to the directly-attached controller.
func NewMessage(id byte, canID *uint8, fields map[string]interface{}) Message {
	return Message{ID: id, CANID: canID, Fields: fields}
}
