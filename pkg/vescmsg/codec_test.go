package vescmsg

import (
	"bytes"
	"math"
	"testing"
)

func TestPackSetDuty(t *testing.T) {
	msg := NewMessage(IDSetDuty, nil, map[string]interface{}{"duty_cycle": 0.5})
	got, err := Pack(msg, DirSend)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{IDSetDuty, 0x00, 0x00, 0xC3, 0x50}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack(set_duty 0.5) = % X, want % X", got, want)
	}
}

func TestPackForwardCAN(t *testing.T) {
	msg := Message{ID: IDSetRPM, CANID: ptrU8(72), Fields: map[string]interface{}{"rpm": int64(1000)}}
	got, err := Pack(msg, DirSend)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{ForwardCAN, 0x48, IDSetRPM, 0x00, 0x00, 0x03, 0xE8}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack(forward_can set_rpm 1000) = % X, want % X", got, want)
	}
}

func TestUnpackGetValues(t *testing.T) {
	// Build the Recv-shaped bytes by hand rather than through Pack, so
	// Unpack is checked against an independent encoding, driven by the
	// schema's own field order (not a hardcoded offset table) to avoid
	// drift if the schema changes.
	schema, ok := Lookup(IDGetValues)
	if !ok {
		t.Fatal("get_values schema not registered")
	}
	buf := []byte{IDGetValues}
	values := map[string]float64{
		"temp_fet": 25.0, "temp_motor": 0, "avg_motor_current": 0, "avg_input_current": 0,
		"avg_id": 0, "avg_iq": 0, "duty_cycle_now": 0, "rpm": 1234, "v_in": 0,
		"amp_hours": 0, "amp_hours_charged": 0, "watt_hours": 0, "watt_hours_charged": 0,
		"tachometer": 0, "tachometer_abs": 0, "mc_fault_code": 0, "pid_pos_now": 0,
		"app_controller_id": 0, "time_ms": 0,
	}
	for _, f := range schema.Recv {
		v := values[f.Name]
		var iv int64
		if f.Scalar != 0 {
			iv = int64(math.RoundToEven(v * f.Scalar))
		} else {
			iv = int64(v)
		}
		if f.Kind == KindByte {
			buf = append(buf, byte(iv))
			continue
		}
		raw, err := packInt(f.Kind, iv)
		if err != nil {
			t.Fatalf("packInt %s: %v", f.Name, err)
		}
		buf = append(buf, raw...)
	}

	msg, err := Unpack(buf, DirRecv)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got := msg.Get("temp_fet"); got.(float64) != 25.0 {
		t.Errorf("temp_fet = %v, want 25.0", got)
	}
	if got := msg.Get("rpm"); got.(int64) != 1234 {
		t.Errorf("rpm = %v, want 1234", got)
	}
}

func TestRoundTripScalarFields(t *testing.T) {
	cases := []struct {
		id    byte
		name  string
		value float64
	}{
		{IDSetDuty, "duty_cycle", 0.5},
		{IDSetDuty, "duty_cycle", -1.0},
		{IDSetCurrent, "current", 1500},
		{IDSetPos, "pos", 123.456},
	}
	for _, tc := range cases {
		msg := NewMessage(tc.id, nil, map[string]interface{}{tc.name: tc.value})
		encoded, err := Pack(msg, DirSend)
		if err != nil {
			t.Fatalf("Pack(%d): %v", tc.id, err)
		}
		decoded, err := Unpack(encoded, DirSend)
		if err != nil {
			t.Fatalf("Unpack(%d): %v", tc.id, err)
		}
		schema, _ := Lookup(tc.id)
		var scalar float64
		for _, f := range schema.Send {
			if f.Name == tc.name {
				scalar = f.Scalar
			}
		}
		got := decoded.Get(tc.name).(float64)
		bound := 1.0 / (2 * scalar)
		if diff := math.Abs(got - tc.value); diff > bound+1e-9 {
			t.Errorf("id=%d round-trip error %v exceeds bound %v (got %v, want %v)", tc.id, diff, bound, got, tc.value)
		}
	}
}

func TestUnknownMessageID(t *testing.T) {
	_, err := Unpack([]byte{0xFE}, DirRecv)
	if err == nil {
		t.Fatal("expected error for unknown message id")
	}
}

func TestTerminalCmdRoundTrip(t *testing.T) {
	msg := NewMessage(IDTerminalCmd, nil, map[string]interface{}{"cmd": "help"})
	encoded, err := Pack(msg, DirSend)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := Unpack(encoded, DirSend)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got := decoded.Get("cmd").(string); got != "help" {
		t.Errorf("cmd = %q, want %q", got, "help")
	}
}

func TestOpaqueConfigRoundTrip(t *testing.T) {
	blob := []byte{0x01, 0x00, 0xFF, 0x10, 0x20}
	msg := NewMessage(IDSetMCConf, nil, map[string]interface{}{"mcconf": blob})
	encoded, err := Pack(msg, DirSend)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := Unpack(encoded, DirSend)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := decoded.Get("mcconf").([]byte)
	if !bytes.Equal(got, blob) {
		t.Errorf("mcconf = % X, want % X", got, blob)
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	err := Register(Schema{ID: IDSetDuty, Send: []Field{{Name: "x", Kind: KindU8}}})
	if err == nil {
		t.Fatal("expected ErrDuplicateMessageID")
	}
}

func ptrU8(v uint8) *uint8 { return &v }
