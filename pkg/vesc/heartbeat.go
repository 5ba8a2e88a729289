package vesc

import (
	"sync"
	"time"

	"github.com/LiamBindle/govesc/pkg/vescmsg"
)

// heartbeat writes the alive frame to a Controller every
// DefaultHeartbeatPeriod until stopped. Grounded on the teacher's
// goroutine + stopChan + sync.WaitGroup shutdown idiom (usock.wg /
// usock.stopChan), applied here to a ticking background writer instead of
// a blocking reader.
type heartbeat struct {
	controller *Controller
	period     time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func newHeartbeat(c *Controller) *heartbeat {
	return &heartbeat{
		controller: c,
		period:     DefaultHeartbeatPeriod,
		stopCh:     make(chan struct{}),
	}
}

func (h *heartbeat) start() {
	h.wg.Add(1)
	go h.run()
}

func (h *heartbeat) run() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			// Best-effort: the alive write contends with requests on the
			// same transport mutex and its cadence is not guaranteed. A
			// write failure here (e.g. the device has disconnected) is
			// discarded and the loop keeps ticking; it is not recorded or
			// passed on to later requests.
			_ = h.controller.send(vescmsg.NewMessage(vescmsg.IDAlive, nil, nil))
		}
	}
}

func (h *heartbeat) stop() {
	close(h.stopCh)
	h.wg.Wait()
}
