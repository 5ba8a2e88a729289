package vesc

import "time"

// Defaults per the protocol's timing requirements: 50ms transport read
// timeout, 100ms heartbeat period, 10ms idle window for binary responses,
// 100ms for multi-frame string responses (terminal_cmd output).
const (
	DefaultReadTimeout      = 50 * time.Millisecond
	DefaultHeartbeatPeriod  = 100 * time.Millisecond
	DefaultBinaryIdleWindow = 10 * time.Millisecond
	DefaultStringIdleWindow = 100 * time.Millisecond
	DefaultRequestTimeout   = 1 * time.Second
	FirmwareChunkSize       = 384
)

// Option configures a Session. The teacher configures its serial.Config
// with a plain struct literal; Session is exposed to callers outside this
// module who need to retune timing per device, so functional options are
// used instead, in the style already adopted across the pack for
// constructor-time configuration.
type Option func(*Session)

// WithReadTimeout overrides the per-poll read timeout used while draining
// the transport.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) { s.readTimeout = d }
}

// WithBinaryIdleWindow overrides the idle window used to decide a binary
// (non-string) response has finished arriving.
func WithBinaryIdleWindow(d time.Duration) Option {
	return func(s *Session) { s.binaryIdleWindow = d }
}

// WithStringIdleWindow overrides the idle window used for multi-frame
// string responses such as terminal_cmd output.
func WithStringIdleWindow(d time.Duration) Option {
	return func(s *Session) { s.stringIdleWindow = d }
}

// WithRequestTimeout overrides the hard ceiling on a single request's
// total wait for a response.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) { s.requestTimeout = d }
}
