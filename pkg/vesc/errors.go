package vesc

import "errors"

// Sentinel errors surfaced by the session and controller layers. Wire
// errors from pkg/vescframe and pkg/vescmsg are wrapped with these so
// callers can errors.Is against one stable set regardless of which layer
// detected the problem.
var (
	ErrPayloadTooLarge              = errors.New("vesc: payload too large")
	ErrMalformedFrame               = errors.New("vesc: malformed frame")
	ErrCRCMismatch                  = errors.New("vesc: crc mismatch")
	ErrUnknownMessageID             = errors.New("vesc: unknown message id")
	ErrMalformedPayload             = errors.New("vesc: malformed payload")
	ErrDuplicateMessageID           = errors.New("vesc: duplicate message id")
	ErrTransportIO                  = errors.New("vesc: transport i/o error")
	ErrTimeout                      = errors.New("vesc: timed out waiting for response")
	ErrUnexpectedMultiFrameResponse = errors.New("vesc: unexpected multi-frame response")
	ErrFirmwareEraseFailed          = errors.New("vesc: firmware erase failed")
	ErrFirmwareWriteFailed          = errors.New("vesc: firmware write failed")
	ErrClosed                       = errors.New("vesc: controller closed")
)
