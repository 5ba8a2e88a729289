package vesc

import (
	"context"
	"testing"

	"github.com/LiamBindle/govesc/pkg/vescframe"
	"github.com/LiamBindle/govesc/pkg/vescmsg"
)

func TestControllerSetDutySendsFramedPayload(t *testing.T) {
	port := newMockPort()
	multi := NewMultiController(port, fastOpts()...)
	c := multi.Controller(nil)

	if err := c.SetDuty(0.5); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}

	payload, err := vescmsg.Pack(vescmsg.NewMessage(vescmsg.IDSetDuty, nil, map[string]interface{}{"duty_cycle": 0.5}), vescmsg.DirSend)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want, _ := vescframe.Frame(payload)
	if got := port.lastWrite(); string(got) != string(want) {
		t.Errorf("written frame = %x, want %x", got, want)
	}
}

func TestControllerForwardsOverCAN(t *testing.T) {
	port := newMockPort()
	multi := NewMultiController(port, fastOpts()...)
	id := uint8(7)
	c := multi.Controller(&id)

	if err := c.Reboot(); err != nil {
		t.Fatalf("Reboot: %v", err)
	}

	frame := port.lastWrite()
	// The framed payload must start with [ForwardCAN, 7, reboot_id, ...].
	payload, _ := vescframe.Unframe(frame)
	if len(payload) < 2 || payload[0] != vescmsg.ForwardCAN || payload[1] != 7 {
		t.Fatalf("payload = %x, want CAN-forward prefix [33 7 ...]", payload)
	}
}

func TestControllerRejectsCallsAfterClose(t *testing.T) {
	port := newMockPort()
	multi := NewMultiController(port, fastOpts()...)
	c := multi.Controller(nil)

	c.StartHeartbeat()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.SetDuty(0); err != ErrClosed {
		t.Errorf("SetDuty after Close = %v, want ErrClosed", err)
	}
	// Close must be idempotent.
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestControllerHeartbeatIdempotent(t *testing.T) {
	port := newMockPort()
	multi := NewMultiController(port, fastOpts()...)
	c := multi.Controller(nil)

	c.StartHeartbeat()
	c.StartHeartbeat() // no-op, must not panic or replace the running goroutine
	c.StopHeartbeat()
	c.StopHeartbeat() // no-op
	c.Close()
}

func TestControllerGetMeasurementsTimesOutWithNoDevice(t *testing.T) {
	port := newMockPort()
	multi := NewMultiController(port, fastOpts()...)
	c := multi.Controller(nil)

	_, err := c.GetMeasurements(context.Background())
	if err != ErrTimeout {
		t.Fatalf("GetMeasurements with no device attached = %v, want ErrTimeout", err)
	}
}
