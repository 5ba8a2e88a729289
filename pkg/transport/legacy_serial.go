package transport

import (
	"fmt"
	"io"
	"time"

	legacyserial "github.com/tarm/serial"
)

// LegacyPort wraps github.com/tarm/serial, the driver the teacher actually
// imports (pkg/usock/usock.go), for targets where go.bug.st/serial's cgo-free
// termios handling misbehaves. tarm/serial has no SetReadTimeout method —
// its read timeout is fixed at open() time — so SetReadTimeout here closes
// and reopens the port with the new timeout, mirroring the teacher's own
// clearUARTAttributes "open once to set state, then reopen" pattern.
type LegacyPort struct {
	device string
	baud   int
	port   *legacyserial.Port
}

// NewLegacySerialPort opens device at baud via tarm/serial, 8N1, blocking
// reads (ReadTimeout 0) until the first SetReadTimeout call.
func NewLegacySerialPort(device string, baud int) (*LegacyPort, error) {
	lp := &LegacyPort{device: device, baud: baud}
	if err := lp.reopen(0); err != nil {
		return nil, err
	}
	return lp, nil
}

func (lp *LegacyPort) reopen(timeout time.Duration) error {
	if lp.port != nil {
		lp.port.Close()
	}
	cfg := &legacyserial.Config{
		Name:        lp.device,
		Baud:        lp.baud,
		Size:        8,
		Parity:      legacyserial.ParityNone,
		StopBits:    legacyserial.Stop1,
		ReadTimeout: timeout,
	}
	port, err := legacyserial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", lp.device, err)
	}
	lp.port = port
	return nil
}

func (lp *LegacyPort) Read(p []byte) (int, error) {
	n, err := lp.port.Read(p)
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

func (lp *LegacyPort) Write(p []byte) (int, error) {
	return lp.port.Write(p)
}

// SetReadTimeout reopens the underlying port with the new per-read
// timeout; see the type doc for why this can't be done in place.
func (lp *LegacyPort) SetReadTimeout(d time.Duration) error {
	return lp.reopen(d)
}

// Close closes the underlying port.
func (lp *LegacyPort) Close() error {
	return lp.port.Close()
}
