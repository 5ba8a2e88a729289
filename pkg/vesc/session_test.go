package vesc

import (
	"context"
	"testing"
	"time"

	"github.com/LiamBindle/govesc/pkg/vescframe"
	"github.com/LiamBindle/govesc/pkg/vescmsg"
)

func fastOpts() []Option {
	return []Option{
		WithReadTimeout(time.Millisecond),
		WithBinaryIdleWindow(2 * time.Millisecond),
		WithStringIdleWindow(4 * time.Millisecond),
		WithRequestTimeout(200 * time.Millisecond),
	}
}

func TestSessionRequestDecodesSingleFrame(t *testing.T) {
	fwMsg := vescmsg.NewMessage(vescmsg.IDFWVersion, nil, map[string]interface{}{
		"comm_fw_version":  int64(1),
		"fw_version_major": int64(23),
		"fw_version_minor": int64(4),
	})
	payload, err := vescmsg.Pack(fwMsg, vescmsg.DirRecv)
	if err != nil {
		t.Fatalf("Pack fw_version: %v", err)
	}
	frame, err := vescframe.Frame(payload)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	port := newMockPort(splitIntoChunks(frame, 3)...)
	s := NewSession(port, fastOpts()...)

	schema, ok := vescmsg.Lookup(vescmsg.IDFWVersion)
	if !ok {
		t.Fatal("fw_version schema not registered")
	}

	got, err := s.request(context.Background(), vescmsg.PackHeaderOnly(vescmsg.IDFWVersion, nil), schema)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Get("fw_version_major") != int64(23) {
		t.Errorf("fw_version_major = %v, want 23", got.Get("fw_version_major"))
	}
}

func TestSessionRequestTimesOutWithNoResponse(t *testing.T) {
	port := newMockPort()
	s := NewSession(port, append(fastOpts(), WithRequestTimeout(20*time.Millisecond))...)

	schema, _ := vescmsg.Lookup(vescmsg.IDFWVersion)
	_, err := s.request(context.Background(), vescmsg.PackHeaderOnly(vescmsg.IDFWVersion, nil), schema)
	if err != ErrTimeout {
		t.Fatalf("request error = %v, want ErrTimeout", err)
	}
}

func TestSessionRequestJoinsMultiFrameTerminalOutput(t *testing.T) {
	line1 := vescmsg.NewMessage(vescmsg.IDTerminalCmd, nil, map[string]interface{}{"output": "hello"})
	line2 := vescmsg.NewMessage(vescmsg.IDTerminalCmd, nil, map[string]interface{}{"output": "world"})

	p1, err := vescmsg.Pack(line1, vescmsg.DirRecv)
	if err != nil {
		t.Fatalf("Pack line1: %v", err)
	}
	p2, err := vescmsg.Pack(line2, vescmsg.DirRecv)
	if err != nil {
		t.Fatalf("Pack line2: %v", err)
	}
	f1, _ := vescframe.Frame(p1)
	f2, _ := vescframe.Frame(p2)

	port := newMockPort(f1, f2)
	s := NewSession(port, fastOpts()...)

	schema, _ := vescmsg.Lookup(vescmsg.IDTerminalCmd)
	sendPayload, err := vescmsg.Pack(vescmsg.NewMessage(vescmsg.IDTerminalCmd, nil, map[string]interface{}{"cmd": "ignored"}), vescmsg.DirSend)
	if err != nil {
		t.Fatalf("Pack send: %v", err)
	}

	got, err := s.request(context.Background(), sendPayload, schema)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Get("output") != "hello\nworld\n" {
		t.Errorf("output = %q, want %q", got.Get("output"), "hello\nworld\n")
	}
}

func TestSessionWriteFramesPayload(t *testing.T) {
	port := newMockPort()
	s := NewSession(port, fastOpts()...)

	if err := s.write(vescmsg.PackHeaderOnly(vescmsg.IDAlive, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	want, _ := vescframe.Frame(vescmsg.PackHeaderOnly(vescmsg.IDAlive, nil))
	got := port.lastWrite()
	if string(got) != string(want) {
		t.Errorf("written frame = %x, want %x", got, want)
	}
}

func TestSessionRequestCountsCorruptGarbage(t *testing.T) {
	garbage := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	port := newMockPort(garbage)
	s := NewSession(port, append(fastOpts(), WithRequestTimeout(20*time.Millisecond))...)

	schema, _ := vescmsg.Lookup(vescmsg.IDFWVersion)
	_, err := s.request(context.Background(), vescmsg.PackHeaderOnly(vescmsg.IDFWVersion, nil), schema)
	if err != ErrTimeout {
		t.Fatalf("request error = %v, want ErrTimeout", err)
	}
	if got := s.corruption.Len(); got != 1 {
		t.Errorf("corruption.Len() = %d, want 1 distinct garbage pattern", got)
	}
	if got := s.corruption.Note(garbage); got != 2 {
		t.Errorf("corruption.Note on repeat = %d, want 2 (same pattern seen twice)", got)
	}
}
