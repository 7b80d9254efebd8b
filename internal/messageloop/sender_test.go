package messageloop

import (
	"context"
	"testing"
	"time"

	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn"
	"github.com/1ureka/p2pmsg/internal/rtcconn/rtcconntest"
)

func TestOutboundSenderDeliversImmediatelyWhenUnderThreshold(t *testing.T) {
	fake := rtcconntest.NewDataChannel("webudp", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newOutboundSender(ctx, fake, peer.NewId(), peer.Unreliable)
	s.enqueue(peer.Packet("hello"))

	deadline := time.After(time.Second)
	for {
		if len(fake.Sent) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for packet to be sent")
		case <-time.After(time.Millisecond):
		}
	}
	if string(fake.Sent[0]) != "hello" {
		t.Fatalf("unexpected payload sent: %q", fake.Sent[0])
	}
}

// TestOutboundSenderBackpressureDoesNotBlockEnqueue is the regression test
// for the deadlock a shared select-body send used to risk: a channel stuck
// above its buffered-amount threshold must stall only its own sender
// goroutine, never the caller enqueuing packets for it (which, in Run, is
// the message loop's select body itself).
func TestOutboundSenderBackpressureDoesNotBlockEnqueue(t *testing.T) {
	fake := rtcconntest.NewDataChannel("webudp", 0)
	fake.Buffered = rtcconn.BufferedAmountLowThreshold + 1 // simulate a congested/half-dead peer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newOutboundSender(ctx, fake, peer.NewId(), peer.Unreliable)

	done := make(chan struct{})
	go func() {
		s.enqueue(peer.Packet("stuck"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on the data channel's backpressure state")
	}

	// Nothing was ever sent, because the channel never drained.
	if len(fake.Sent) != 0 {
		t.Fatalf("expected no sends while buffer stays congested, got %d", len(fake.Sent))
	}

	// Once the platform reports the buffer draining, the queued packet goes
	// out without the caller having to do anything further.
	fake.Buffered = 0
	fake.FireBufferedAmountLow()

	deadline := time.After(time.Second)
	for {
		if len(fake.Sent) == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for queued packet to drain")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestOutboundSenderStopsOnContextCancel(t *testing.T) {
	fake := rtcconntest.NewDataChannel("webudp", 0)
	fake.Buffered = rtcconn.BufferedAmountLowThreshold + 1

	ctx, cancel := context.WithCancel(context.Background())
	s := newOutboundSender(ctx, fake, peer.NewId(), peer.Reliable)
	s.enqueue(peer.Packet("never-sent"))

	cancel() // the sender's loop should return instead of waiting forever

	time.Sleep(10 * time.Millisecond)
	if len(fake.Sent) != 0 {
		t.Fatalf("expected no send after cancellation, got %d", len(fake.Sent))
	}
}
