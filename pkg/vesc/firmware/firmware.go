// Package firmware implements the VESC bootloader upload sequence: erase,
// chunked write skipping pre-erased (all-0xFF) chunks, progress reporting,
// then jump to bootloader.
package firmware

import (
	"context"
	"fmt"
	"time"

	"github.com/LiamBindle/govesc/pkg/vesc"
)

// progressInterval is how often Upload reports progress via the optional
// callback, grounded on pyvesc.VESC.update_firmware's UPDATE_INTERVAL_SECS.
const progressInterval = 10 * time.Second

// Firmware supplies the image to upload, chunk by chunk.
type Firmware interface {
	// Size is the total remaining size in bytes.
	Size() int
	// ChunkSize is the number of bytes NextChunk returns per call.
	ChunkSize() int
	// NextChunk returns the next ChunkSize() bytes of the image (the last
	// chunk may be shorter).
	NextChunk() []byte
	// Progress returns upload completion as a percentage, given how many
	// bytes have been written so far.
	Progress(offset int) float64
}

// Options configure Upload.
type Options struct {
	// LZO, when true, sends chunks with WriteNewAppDataLZO instead of
	// WriteNewAppData.
	LZO bool
	// OnProgress, if non-nil, is called at most once per progressInterval
	// with the current completion percentage.
	OnProgress func(percent float64)
}

// Upload erases size bytes of flash on the controller, writes fw
// chunk-by-chunk (skipping chunks that are entirely 0xFF, since erased
// flash already reads as that), and jumps to the bootloader. Heartbeat is
// stopped before the jump. The jump's own error is discarded and Upload
// returns nil once it is issued (the device resets immediately), per the
// algorithm in pyvesc.VESC.update_firmware.
func Upload(ctx context.Context, c *vesc.Controller, fw Firmware, opts Options) error {
	size := fw.Size()

	result, err := c.EraseNewApp(ctx, uint32(size))
	if err != nil {
		return fmt.Errorf("firmware: erase: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("firmware: %w: device returned %d", vesc.ErrFirmwareEraseFailed, result)
	}

	offset := 0
	lastReport := time.Now()

	for remaining := size; remaining > 0; {
		chunk := fw.NextChunk()

		if !allFF(chunk) {
			var result byte
			var err error
			if opts.LZO {
				result, err = c.WriteNewAppDataLZO(ctx, uint32(offset), chunk)
			} else {
				result, err = c.WriteNewAppData(ctx, uint32(offset), chunk)
			}
			if err != nil {
				return fmt.Errorf("firmware: write at offset %d: %w", offset, err)
			}
			if result != 1 {
				return fmt.Errorf("firmware: %w: offset %d, device returned %d", vesc.ErrFirmwareWriteFailed, offset, result)
			}
		}

		offset += fw.ChunkSize()
		remaining -= fw.ChunkSize()

		if opts.OnProgress != nil && time.Since(lastReport) >= progressInterval {
			opts.OnProgress(fw.Progress(offset))
			lastReport = time.Now()
		}
	}

	c.StopHeartbeat()
	_ = c.JumpToBootloader()
	return nil
}

func allFF(chunk []byte) bool {
	for _, b := range chunk {
		if b != 0xFF {
			return false
		}
	}
	return true
}
