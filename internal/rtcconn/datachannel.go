package rtcconn

import "github.com/pion/webrtc/v4"

// BufferedAmountLowThreshold matches the teacher's backpressure threshold
// for its single data channel; kept the same here for both unreliable and
// reliable channels since the spec does not differentiate send pacing.
// Exported so a caller pacing its own sends (see messageloop's per-peer
// sender) can compare against the same value this package arms
// OnBufferedAmountLow with.
const BufferedAmountLowThreshold = 512 * 1024

// pionDataChannel adapts *webrtc.DataChannel to DataChannel.
type pionDataChannel struct {
	dc *webrtc.DataChannel
}

func newPionDataChannel(dc *webrtc.DataChannel) *pionDataChannel {
	dc.SetBufferedAmountLowThreshold(BufferedAmountLowThreshold)
	return &pionDataChannel{dc: dc}
}

func (c *pionDataChannel) OnOpen(fn func()) {
	c.dc.OnOpen(fn)
}

func (c *pionDataChannel) OnMessage(fn func(data []byte)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.Data)
	})
}

// Send writes data to the channel without waiting on backpressure; callers
// that need pacing must check BufferedAmount/OnBufferedAmountLow themselves
// before calling Send, the way messageloop's per-peer sender does. This
// package never blocks inside Send, so a full buffer on one peer's channel
// can never stall a caller that's juggling more than this one peer.
func (c *pionDataChannel) Send(data []byte) error {
	return c.dc.Send(data)
}

func (c *pionDataChannel) BufferedAmount() uint64 {
	return c.dc.BufferedAmount()
}

func (c *pionDataChannel) OnBufferedAmountLow(fn func()) {
	c.dc.OnBufferedAmountLow(fn)
}

func (c *pionDataChannel) Close() error {
	return c.dc.Close()
}
