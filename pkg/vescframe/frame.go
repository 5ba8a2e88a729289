// Package vescframe implements the VESC packet framing layer: wrapping a
// payload in a length-prefixed, CRC-protected, sentinel-terminated frame,
// and recovering frames (with resynchronisation) from an arbitrary byte
// stream.
//
// Wire format:
//
//	[ START ][ LEN ][ PAYLOAD ][ CRC16-BE ][ TERMINATOR ]
//
// START is 0x02 with a 1-byte LEN when len(PAYLOAD) < 256, or 0x03 with a
// 2-byte big-endian LEN otherwise. TERMINATOR is always 0x03. CRC16-BE is
// the CRC-16/XMODEM of PAYLOAD, most significant byte first.
package vescframe

import (
	"errors"

	"github.com/LiamBindle/govesc/pkg/crc16"
)

const (
	startShort  byte = 0x02
	startLong   byte = 0x03
	terminator  byte = 0x03
	shortMaxLen      = 255
	maxPayload       = 65535
)

// ErrPayloadTooLarge is returned by Frame when the payload is empty or
// exceeds the 65535-byte maximum a VESC frame can carry.
var ErrPayloadTooLarge = errors.New("vescframe: payload must be 1..65535 bytes")

// Frame wraps payload in a VESC frame, choosing the short (1-byte length)
// or long (2-byte length) header form depending on payload size.
func Frame(payload []byte) ([]byte, error) {
	n := len(payload)
	if n == 0 || n > maxPayload {
		return nil, ErrPayloadTooLarge
	}

	var out []byte
	if n <= shortMaxLen {
		out = make([]byte, 0, 1+1+n+2+1)
		out = append(out, startShort, byte(n))
	} else {
		out = make([]byte, 0, 1+2+n+2+1)
		out = append(out, startLong, byte(n>>8), byte(n))
	}
	out = append(out, payload...)
	crc := crc16.Checksum(payload)
	out = append(out, byte(crc>>8), byte(crc))
	out = append(out, terminator)
	return out, nil
}

// Unframe scans buf for the next valid frame.
//
//   - (payload, n) with n > 0: a valid frame was found. n is the number of
//     leading bytes of buf it occupies (including any garbage skipped to
//     reach it) and should be dropped by the caller.
//   - (nil, 0): buf doesn't yet contain a complete frame, but its first byte
//     could plausibly start one (0x02 or 0x03) — the caller should read more
//     bytes and retry.
//   - (nil, k) with k > 0: the leading k bytes of buf are confirmed garbage
//     and should be dropped; no valid frame can begin within them.
func Unframe(buf []byte) (payload []byte, consumed int) {
	skipped := 0

	for {
		rem := buf[skipped:]
		if len(rem) == 0 {
			// Nothing left to examine. If we've already confirmed some
			// leading garbage, report it for the caller to drop; otherwise
			// the buffer was empty to begin with.
			return nil, skipped
		}

		if rem[0] != startShort && rem[0] != startLong {
			skipped++
			continue
		}

		headerLen := 1
		if rem[0] == startLong {
			headerLen = 2
		}
		if len(rem) < 1+headerLen {
			return nil, skipped
		}

		var payloadLen int
		if headerLen == 1 {
			payloadLen = int(rem[1])
		} else {
			payloadLen = int(rem[1])<<8 | int(rem[2])
		}

		total := 1 + headerLen + payloadLen + 2 + 1
		if len(rem) < total {
			return nil, skipped
		}

		p := rem[1+headerLen : 1+headerLen+payloadLen]
		crcHi := rem[1+headerLen+payloadLen]
		crcLo := rem[1+headerLen+payloadLen+1]
		term := rem[total-1]
		wantCRC := crc16.Checksum(p)

		if term == terminator && crcHi == byte(wantCRC>>8) && crcLo == byte(wantCRC) {
			out := make([]byte, len(p))
			copy(out, p)
			return out, skipped + total
		}

		// Candidate frame is corrupt: skip exactly one byte of garbage and
		// resume scanning from there, so a well-formed frame embedded later
		// in the buffer can still be recovered.
		skipped++
	}
}
