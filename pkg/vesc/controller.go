package vesc

import (
	"context"
	"sync/atomic"

	"github.com/LiamBindle/govesc/pkg/vescmsg"
)

type controllerState int32

const (
	stateUninitialised controllerState = iota
	stateIdle
	stateHeartbeating
	stateClosed
)

// Controller addresses a single VESC: either the one directly attached to
// the Session's port (canID == nil) or one reachable over the CAN bus
// through it (canID != nil), forwarded with the [forward_can, canID]
// prefix. Grounded on pyvesc's VESC/MultiVESC split: one Session (shared
// port + lock) backs many Controllers.
type Controller struct {
	session *Session
	canID   *uint8

	state controllerState
	hb    *heartbeat
}

// NewController builds a Controller over session addressed directly
// (canID == nil) or forwarded to the given CAN id.
func NewController(session *Session, canID *uint8) *Controller {
	return &Controller{session: session, canID: canID, state: stateIdle}
}

// MultiController holds one Session shared across Controllers for several
// CAN ids, mirroring MultiVESC.
type MultiController struct {
	session *Session
}

// NewMultiController wraps port in a Session shared by every Controller
// built through Controller.
func NewMultiController(port Port, opts ...Option) *MultiController {
	return &MultiController{session: NewSession(port, opts...)}
}

// Controller returns a Controller addressed directly at the attached VESC
// (canID == nil) or forwarded to a VESC on the CAN bus.
func (m *MultiController) Controller(canID *uint8) *Controller {
	return NewController(m.session, canID)
}

// StartHeartbeat begins a background goroutine that writes the alive frame
// every DefaultHeartbeatPeriod. Idempotent: calling it while already
// heartbeating is a no-op.
func (c *Controller) StartHeartbeat() {
	if !atomic.CompareAndSwapInt32((*int32)(&c.state), int32(stateIdle), int32(stateHeartbeating)) {
		return
	}
	c.hb = newHeartbeat(c)
	c.hb.start()
}

// StopHeartbeat stops the heartbeat goroutine and waits for it to exit.
// Idempotent: safe to call whether or not a heartbeat is running, and safe
// to call more than once.
func (c *Controller) StopHeartbeat() {
	if !atomic.CompareAndSwapInt32((*int32)(&c.state), int32(stateHeartbeating), int32(stateIdle)) {
		return
	}
	if c.hb != nil {
		c.hb.stop()
		c.hb = nil
	}
}

// Close stops any running heartbeat and marks the controller closed.
// Idempotent, and safe to call after the underlying device has already
// disappeared (e.g. following JumpToBootloader).
func (c *Controller) Close() error {
	c.StopHeartbeat()
	atomic.StoreInt32((*int32)(&c.state), int32(stateClosed))
	return nil
}

func (c *Controller) closed() bool {
	return controllerState(atomic.LoadInt32((*int32)(&c.state))) == stateClosed
}

// send packs msg for the Send direction and writes it with no response
// expected (e.g. alive, reboot).
func (c *Controller) send(msg vescmsg.Message) error {
	if c.closed() {
		return ErrClosed
	}
	msg.CANID = c.canID
	payload, err := vescmsg.Pack(msg, vescmsg.DirSend)
	if err != nil {
		return wrapCodecErr(err)
	}
	return c.session.write(payload)
}

// call packs msg for the Send direction, writes it, and decodes the
// response using the schema's Recv fields.
func (c *Controller) call(ctx context.Context, msg vescmsg.Message) (vescmsg.Message, error) {
	if c.closed() {
		return vescmsg.Message{}, ErrClosed
	}
	msg.CANID = c.canID
	schema, ok := vescmsg.Lookup(msg.ID)
	if !ok {
		return vescmsg.Message{}, ErrUnknownMessageID
	}
	payload, err := vescmsg.Pack(msg, vescmsg.DirSend)
	if err != nil {
		return vescmsg.Message{}, wrapCodecErr(err)
	}
	return c.session.request(ctx, payload, schema)
}

// getRequest issues a bare header-only request for id (schemas whose Send
// direction carries no fields, such as get_values or get_mcconf) and
// decodes the Recv response.
func (c *Controller) getRequest(ctx context.Context, id byte) (vescmsg.Message, error) {
	if c.closed() {
		return vescmsg.Message{}, ErrClosed
	}
	schema, ok := vescmsg.Lookup(id)
	if !ok {
		return vescmsg.Message{}, ErrUnknownMessageID
	}
	payload := vescmsg.PackHeaderOnly(id, c.canID)
	return c.session.request(ctx, payload, schema)
}

// SetDuty commands a duty cycle in [-1, 1].
func (c *Controller) SetDuty(x float64) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetDuty, nil, map[string]interface{}{"duty_cycle": x}))
}

// SetCurrent commands motor current in milliamps.
func (c *Controller) SetCurrent(milliamps float64) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetCurrent, nil, map[string]interface{}{"current": milliamps}))
}

// SetCurrentBrake commands brake current in milliamps.
func (c *Controller) SetCurrentBrake(milliamps float64) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetCurrentBrake, nil, map[string]interface{}{"current_brake": milliamps}))
}

// SetRPM commands electrical RPM.
func (c *Controller) SetRPM(rpm int32) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetRPM, nil, map[string]interface{}{"rpm": int64(rpm)}))
}

// SetServo commands servo position in [0, 1].
func (c *Controller) SetServo(x float64) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetServoPos, nil, map[string]interface{}{"servo_pos": x}))
}

// SetPos commands a target position in degrees.
func (c *Controller) SetPos(degrees float64) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetPos, nil, map[string]interface{}{"pos": degrees}))
}

// Rotor position display modes for SetRotorPositionMode.
const (
	DispPosModeOff        = vescmsg.DispPosModeNone
	DispPosModeEncoder    = vescmsg.DispPosModeEncoder
	DispPosModePIDPos     = vescmsg.DispPosModePIDPos
	DispPosModePIDPosErr  = vescmsg.DispPosModePIDPosErr
)

// SetRotorPositionMode enables/selects the rotor position display mode.
func (c *Controller) SetRotorPositionMode(mode int) error {
	return c.send(vescmsg.NewMessage(vescmsg.IDSetDetect, nil, map[string]interface{}{"rotor_position_mode": int64(mode)}))
}

// GetMeasurements requests the GetValues telemetry struct.
func (c *Controller) GetMeasurements(ctx context.Context) (vescmsg.Message, error) {
	return c.getRequest(ctx, vescmsg.IDGetValues)
}

// GetFirmwareVersion requests the three-byte firmware version message.
func (c *Controller) GetFirmwareVersion(ctx context.Context) (vescmsg.Message, error) {
	return c.getRequest(ctx, vescmsg.IDFWVersion)
}

// GetRotorPosition requests the current rotor position; the device must
// first be put into an encoder/PID-pos display mode via
// SetRotorPositionMode.
func (c *Controller) GetRotorPosition(ctx context.Context) (vescmsg.Message, error) {
	return c.getRequest(ctx, vescmsg.IDRotorPosition)
}

// TerminalCmd sends a terminal command string and returns its (possibly
// multi-frame) textual output.
func (c *Controller) TerminalCmd(ctx context.Context, cmd string) (string, error) {
	msg, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDTerminalCmd, nil, map[string]interface{}{"cmd": cmd}))
	if err != nil {
		return "", err
	}
	out, _ := msg.Get("output").(string)
	return out, nil
}

// GetMotorConfig requests the opaque motor-configuration blob.
func (c *Controller) GetMotorConfig(ctx context.Context) ([]byte, error) {
	msg, err := c.getRequest(ctx, vescmsg.IDGetMCConf)
	if err != nil {
		return nil, err
	}
	b, _ := msg.Get("mcconf").([]byte)
	return b, nil
}

// SetMotorConfig writes an opaque motor-configuration blob.
func (c *Controller) SetMotorConfig(ctx context.Context, data []byte) error {
	_, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDSetMCConf, nil, map[string]interface{}{"mcconf": data}))
	return err
}

// GetAppConfig requests the opaque app-configuration blob.
func (c *Controller) GetAppConfig(ctx context.Context) ([]byte, error) {
	msg, err := c.getRequest(ctx, vescmsg.IDGetAppConf)
	if err != nil {
		return nil, err
	}
	b, _ := msg.Get("appconf").([]byte)
	return b, nil
}

// SetAppConfig writes an opaque app-configuration blob.
func (c *Controller) SetAppConfig(ctx context.Context, data []byte) error {
	_, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDSetAppConf, nil, map[string]interface{}{"appconf": data}))
	return err
}

// EraseNewApp requests the bootloader erase size bytes of flash ahead of
// a firmware upload, returning the raw result byte (1 == success).
func (c *Controller) EraseNewApp(ctx context.Context, size uint32) (byte, error) {
	msg, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDEraseNewApp, nil, map[string]interface{}{"size": int64(size)}))
	if err != nil {
		return 0, err
	}
	b, _ := msg.Get("erase_new_app_result").(byte)
	return b, nil
}

// WriteNewAppData writes one firmware chunk at offset, returning the raw
// result byte (1 == success).
func (c *Controller) WriteNewAppData(ctx context.Context, offset uint32, data []byte) (byte, error) {
	msg, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDWriteNewAppData, nil, map[string]interface{}{
		"offset": int64(offset), "data": data,
	}))
	if err != nil {
		return 0, err
	}
	b, _ := msg.Get("write_new_app_data_result").(byte)
	return b, nil
}

// WriteNewAppDataLZO writes one LZO-compressed firmware chunk at offset.
func (c *Controller) WriteNewAppDataLZO(ctx context.Context, offset uint32, data []byte) (byte, error) {
	msg, err := c.call(ctx, vescmsg.NewMessage(vescmsg.IDWriteNewAppDataLZO, nil, map[string]interface{}{
		"offset": int64(offset), "data": data,
	}))
	if err != nil {
		return 0, err
	}
	b, _ := msg.Get("write_new_app_data_result").(byte)
	return b, nil
}

// JumpToBootloader stops the heartbeat (writing to a resetting device is
// pointless) and tells the device to jump to its bootloader. No response
// is expected; the device resets immediately after.
func (c *Controller) JumpToBootloader() error {
	c.StopHeartbeat()
	return c.send(vescmsg.NewMessage(vescmsg.IDJumpToBootloader, nil, nil))
}

// Reboot asks the device to reboot; no response is expected.
func (c *Controller) Reboot() error {
	return c.send(vescmsg.NewMessage(vescmsg.IDReboot, nil, nil))
}

// Probe returns any unsolicited bytes currently buffered (e.g. an async
// `print` debug line), decoded if they form a complete frame, or
// (vescmsg.Message{}, nil) if nothing is available yet.
func (c *Controller) Probe() (vescmsg.Message, error) {
	raw, err := c.session.probe()
	if err != nil {
		return vescmsg.Message{}, err
	}
	if raw == nil {
		return vescmsg.Message{}, nil
	}
	payloads, _ := unframeAll(raw, c.session.corruption)
	if len(payloads) == 0 {
		return vescmsg.Message{}, nil
	}
	msg, err := vescmsg.Unpack(payloads[0], vescmsg.DirRecv)
	if err != nil {
		return vescmsg.Message{}, wrapCodecErr(err)
	}
	return msg, nil
}
