package transport

import (
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// controlMessage is a CBOR-framed message on the gateway subprocess's
// stderr/control pipe, in the same "small map, CBOR-marshalled" shape the
// teacher uses for its nRF52 UART messages (pkg/service/helpers.go's
// writeUARTMessage). The VESC frame bytes themselves never go through
// this encoding — only gateway control/status traffic does.
type controlMessage struct {
	Op   string `cbor:"op"`
	Args map[string]interface{} `cbor:"args,omitempty"`
}

// CANGateway runs an external CAN-gateway command as a subprocess: raw
// VESC frame bytes are piped through its stdin/stdout unmodified (so it
// satisfies vesc.Port directly), while a side control channel on its
// stderr carries CBOR-encoded start/stop/stats messages, mirroring
// spec.md §1's "frame stream may be routed through a CAN gateway command"
// collaborator.
type CANGateway struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	control io.ReadCloser
	dec     *cbor.Decoder
}

// NewCANGateway starts name with args, wiring stdin/stdout as the raw VESC
// byte stream and stderr as the CBOR control channel.
func NewCANGateway(name string, args ...string) (*CANGateway, error) {
	cmd := exec.Command(name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("transport: can gateway stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transport: can gateway stdout: %w", err)
	}
	control, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("transport: can gateway control pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("transport: can gateway start: %w", err)
	}

	return &CANGateway{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		control: control,
		dec:     cbor.NewDecoder(control),
	}, nil
}

func (g *CANGateway) Read(p []byte) (int, error)  { return g.stdout.Read(p) }
func (g *CANGateway) Write(p []byte) (int, error) { return g.stdin.Write(p) }

// SetReadTimeout is a no-op: the gateway subprocess's stdout has no
// per-read deadline concept, so a Read blocks until the subprocess writes
// to or closes its stdout, and Session's poll loop waits with it.
func (g *CANGateway) SetReadTimeout(_ time.Duration) error { return nil }

// Stats reads and decodes the next CBOR control message from the
// subprocess's control channel (link stats, start/stop acks).
func (g *CANGateway) Stats() (op string, args map[string]interface{}, err error) {
	var msg controlMessage
	if err := g.dec.Decode(&msg); err != nil {
		return "", nil, fmt.Errorf("transport: decode control message: %w", err)
	}
	return msg.Op, msg.Args, nil
}

// Close closes the pipes and waits for the subprocess to exit.
func (g *CANGateway) Close() error {
	g.stdin.Close()
	g.stdout.Close()
	g.control.Close()
	return g.cmd.Wait()
}
