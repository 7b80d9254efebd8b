// Package trickle implements Trickle ICE candidate exchange: local candidates
// are sent to the remote peer as soon as they're safe to send, and queued
// otherwise; remote candidates are applied to the local connection as they
// arrive over the signalling channel. Ported from matchbox_socket's
// CandidateTrickle.
package trickle

import (
	"context"
	"fmt"
	"sync"

	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
	"github.com/1ureka/p2pmsg/internal/util"
)

// CandidateTrickle buffers local ICE candidates discovered before the remote
// description is set, and replays them once it's safe to send.
type CandidateTrickle struct {
	signalPeer signaling.SignalPeer

	mu      sync.Mutex
	pending []string
}

// New returns a trickle bound to signalPeer.
func New(signalPeer signaling.SignalPeer) *CandidateTrickle {
	return &CandidateTrickle{signalPeer: signalPeer}
}

// OnLocalCandidate is the platform's ICE candidate callback. Local candidates
// can only be sent once the remote description is set; until then they are
// buffered in arrival order.
func (t *CandidateTrickle) OnLocalCandidate(conn rtcconn.Connection, candidate string) {
	if conn.HasRemoteDescription() {
		util.LogDebug("sending IceCandidate signal %s", candidate)
		t.signalPeer.Send(peer.IceCandidateSignal(candidate))
		return
	}

	util.LogDebug("storing pending IceCandidate signal %s", candidate)
	t.mu.Lock()
	t.pending = append(t.pending, candidate)
	t.mu.Unlock()
}

// SendPendingCandidates flushes every candidate buffered by OnLocalCandidate.
// Call once the remote description has been set.
func (t *CandidateTrickle) SendPendingCandidates() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, candidate := range pending {
		t.signalPeer.Send(peer.IceCandidateSignal(candidate))
	}
}

// ListenForRemoteCandidates applies every IceCandidate signal received on
// inbox to conn until inbox closes or ctx is cancelled. An unexpected
// Offer/Answer is logged and ignored rather than treated as an error, since a
// re-negotiation attempt from the remote side is not something this socket
// supports. It returns socketerr.ErrTrickleEnded when inbox closes cleanly,
// matching the original's "fatal to the whole session" treatment of this
// loop stopping.
func ListenForRemoteCandidates(ctx context.Context, conn rtcconn.Connection, inbox <-chan peer.Signal) error {
	for {
		select {
		case signal, ok := <-inbox:
			if !ok {
				util.LogDebug("stopping ice candidate listening")
				return socketerr.ErrTrickleEnded
			}

			switch signal.Kind {
			case peer.SignalIceCandidate:
				util.LogDebug("got an IceCandidate signal! %s", signal.Candidate)
				if err := conn.AddICECandidate(iceCandidateInit(signal.Candidate)); err != nil {
					return fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
				}
			case peer.SignalOffer:
				util.LogWarning("Got an unexpected Offer, while waiting for IceCandidate. Ignoring.")
			case peer.SignalAnswer:
				util.LogWarning("Got an unexpected Answer, while waiting for IceCandidate. Ignoring.")
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
