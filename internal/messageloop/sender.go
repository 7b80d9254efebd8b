package messageloop

import (
	"context"

	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn"
	"github.com/1ureka/p2pmsg/internal/socketerr"
	"github.com/1ureka/p2pmsg/internal/util"
)

// outboundSenderInbox is the per-(peer,channel) queue depth; matches the
// teacher's sender.sendBufferSize.
const outboundSenderInbox = 64

// outboundSender paces and serialises writes to one peer's one DataChannel
// on its own goroutine, mirroring the teacher's transport.sender.loop. Run's
// select body only ever enqueues onto inbox; it never waits on the
// DataChannel's buffered-amount state itself, so a congested or half-dead
// peer can stall at most its own sender, never the rest of the loop.
type outboundSender struct {
	to      peer.Id
	channel peer.Channel

	inbox       chan peer.Packet
	drainSignal chan struct{}
}

func newOutboundSender(ctx context.Context, dc rtcconn.DataChannel, to peer.Id, channel peer.Channel) *outboundSender {
	s := &outboundSender{
		to:          to,
		channel:     channel,
		inbox:       make(chan peer.Packet, outboundSenderInbox),
		drainSignal: make(chan struct{}, 1),
	}

	dc.OnBufferedAmountLow(func() {
		select {
		case s.drainSignal <- struct{}{}:
		default:
		}
	})

	go s.loop(ctx, dc)
	return s
}

func (s *outboundSender) loop(ctx context.Context, dc rtcconn.DataChannel) {
	for {
		select {
		case data := <-s.inbox:
			if dc.BufferedAmount() > rtcconn.BufferedAmountLowThreshold {
				select {
				case <-s.drainSignal:
				case <-ctx.Done():
					return
				}
			}
			if err := dc.Send(data); err != nil {
				util.LogPeerError(s.to, "%v on %s channel: %v", socketerr.ErrChannelSendFailure, s.channel, err)
				continue
			}
			util.Stats.AddSent(len(data))

		case <-ctx.Done():
			return
		}
	}
}

// enqueue hands data to the sender without blocking the caller: a full
// inbox drops the packet rather than stall whoever is calling enqueue (in
// this repo, Run's select body).
func (s *outboundSender) enqueue(data peer.Packet) {
	select {
	case s.inbox <- data:
	default:
		util.LogPeerWarning(s.to, "outbound %s sender backlogged, dropping packet", s.channel)
	}
}
