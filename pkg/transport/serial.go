// Package transport provides concrete io.ReadWriter adapters for
// pkg/vesc.Session: a direct serial port, a legacy termios-free serial
// driver, and a CAN-gateway subprocess pipe.
package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// NewSerialPort opens device at baud using go.bug.st/serial, 8N1 with no
// flow control — the VESC UART's fixed framing. The returned Port
// satisfies vesc.Port directly (go.bug.st/serial.Port already exposes
// SetReadTimeout).
func NewSerialPort(device string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", device, err)
	}
	return port, nil
}
