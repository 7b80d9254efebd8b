// Package messageloop is the single select-driven coordinator described by
// the system's message loop: it owns the in-flight handshakes, routes
// signalling events to the right one, and ferries application packets to and
// from open data channels. Ported from matchbox_socket's message_loop.
package messageloop

import (
	"context"
	"time"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/handshake"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
	"github.com/1ureka/p2pmsg/internal/util"
)

// OfferFunc and AcceptFunc mirror handshake.Offer/handshake.Accept's
// signatures; Config carries them as fields (defaulting to the real
// functions) so tests can substitute fakes without a real platform.
type OfferFunc func(ctx context.Context, cfg config.WebRtcSocketConfig, signalPeer signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (handshake.Result, error)
type AcceptFunc func(ctx context.Context, cfg config.WebRtcSocketConfig, signalPeer signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (handshake.Result, error)

// Config bundles everything Run needs: this socket's own id, its channel
// configuration, the signalling client, and the three application-facing
// streams named in the external interface.
type Config struct {
	SelfID peer.Id
	Socket config.WebRtcSocketConfig
	Client signaling.Client

	// ConnectedPeers receives one PeerId per successful handshake.
	ConnectedPeers chan<- peer.Id
	// MessagesFromPeers receives every inbound application packet.
	MessagesFromPeers chan<- peer.InboundPacket
	// OutboundPackets is the application's sink of outbound packets; Run
	// exits cleanly when this channel closes.
	OutboundPackets <-chan peer.OutboundPacket

	Offer  OfferFunc
	Accept AcceptFunc
}

func (c Config) offerFunc() OfferFunc {
	if c.Offer != nil {
		return c.Offer
	}
	return handshake.Offer
}

func (c Config) acceptFunc() AcceptFunc {
	if c.Accept != nil {
		return c.Accept
	}
	return handshake.Accept
}

// handshakeResult carries a completed handshake's result and error; which
// side it came from is told only by the channel it arrives on
// (offerResults or acceptResults).
type handshakeResult struct {
	res Result
	err error
}

// Result is the outcome of one completed handshake.
type Result = handshake.Result

// peerSenders is one outboundSender per channel profile negotiated with a
// peer. Run's select body only ever touches this map and the senders'
// enqueue method — never a DataChannel directly — so a peer whose buffer
// stays full can stall only its own sender goroutine.
type peerSenders map[peer.Channel]*outboundSender

// Run executes the message loop until a fatal condition or shutdown;
// see spec §4.6/§7 for the full dispatch table and error taxonomy.
func Run(ctx context.Context, cfg Config) error {
	util.LogPeerDebug(cfg.SelfID, "entering message loop")

	cfg.Client.Send(peer.Request{Kind: peer.RequestUuid, Id: cfg.SelfID})

	var keepAlive *time.Ticker
	if cfg.Socket.KeepAliveInterval > 0 {
		keepAlive = time.NewTicker(cfg.Socket.KeepAliveInterval)
		defer keepAlive.Stop()
	}

	senders := make(map[peer.Id]peerSenders)
	handshakeSignals := make(map[peer.Id]chan peer.Signal)

	offerResults := make(chan handshakeResult, 8)
	acceptResults := make(chan handshakeResult, 8)
	trickleFuts := make(chan trickleCompletion, 8)
	packets := make(chan peer.InboundPacket, 64)

	events := cfg.Client.Events()

	for {
		var keepAliveC <-chan time.Time
		if keepAlive != nil {
			keepAliveC = keepAlive.C
		}

		select {
		case <-keepAliveC:
			cfg.Client.Send(peer.Request{Kind: peer.RequestKeepAlive})

		case hr := <-offerResults:
			if err := onHandshakeDone(ctx, cfg, senders, trickleFuts, hr); err != nil {
				return err
			}

		case hr := <-acceptResults:
			if err := onHandshakeDone(ctx, cfg, senders, trickleFuts, hr); err != nil {
				return err
			}

		case tc := <-trickleFuts:
			util.LogPeerError(tc.peer, "ice candidate trickle loop stopped: %v", tc.err)
			return socketerr.ErrTrickleEnded

		case pkt := <-packets:
			select {
			case cfg.MessagesFromPeers <- pkt:
			case <-ctx.Done():
				return ctx.Err()
			}

		case event, ok := <-events:
			if !ok {
				util.LogDebug("signalling stream ended")
				closeAllInboxes(handshakeSignals)
				return socketerr.ErrSignallingGone
			}
			onSignalEvent(ctx, cfg, handshakeSignals, offerResults, acceptResults, packets, event)

		case out, ok := <-cfg.OutboundPackets:
			if !ok {
				util.LogDebug("application dropped outbound sink, exiting")
				return nil
			}
			sendOutbound(senders, out)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// trickleCompletion pairs a trickle future's outcome with the peer id it
// belongs to, purely for the log line in Run's trickleFuts branch.
type trickleCompletion struct {
	peer peer.Id
	err  error
}

// onHandshakeDone is shared by both the offerResults and acceptResults
// branches. Note handshakeSignals[peer] is deliberately left in place by the
// caller: its receiving end is now owned by the trickle listener, which
// keeps consuming IceCandidate signals for this peer for the life of the
// connection. A sender goroutine is spawned per negotiated channel so this
// peer's outbound pacing never touches Run's select body again.
func onHandshakeDone(ctx context.Context, cfg Config, senders map[peer.Id]peerSenders, trickleFuts chan<- trickleCompletion, hr handshakeResult) error {
	if hr.err != nil {
		util.LogError("handshake failed: %v", hr.err)
		return nil
	}

	peerSet := make(peerSenders, len(hr.res.Channels))
	for channel, dc := range hr.res.Channels {
		peerSet[channel] = newOutboundSender(ctx, dc, hr.res.PeerID, channel)
	}
	senders[hr.res.PeerID] = peerSet

	go func(id peer.Id, trickle <-chan error) {
		trickleFuts <- trickleCompletion{peer: id, err: <-trickle}
	}(hr.res.PeerID, hr.res.Trickle)

	util.LogPeerDebug(hr.res.PeerID, "notifying about new peer")
	cfg.ConnectedPeers <- hr.res.PeerID
	return nil
}

func onSignalEvent(ctx context.Context, cfg Config, handshakeSignals map[peer.Id]chan peer.Signal, offerResults, acceptResults chan<- handshakeResult, packets chan<- peer.InboundPacket, event peer.Event) {
	switch event.Kind {
	case peer.EventNewPeer:
		inbox := make(chan peer.Signal, 8)
		handshakeSignals[event.Peer] = inbox
		sp := signaling.NewSignalPeer(event.Peer, cfg.Client)
		go func() {
			res, err := cfg.offerFunc()(ctx, cfg.Socket, sp, inbox, packets)
			offerResults <- handshakeResult{res: res, err: err}
		}()

	case peer.EventSignal:
		inbox, ok := handshakeSignals[event.From]
		if !ok {
			inbox = make(chan peer.Signal, 8)
			handshakeSignals[event.From] = inbox
			sp := signaling.NewSignalPeer(event.From, cfg.Client)
			go func() {
				res, err := cfg.acceptFunc()(ctx, cfg.Socket, sp, inbox, packets)
				acceptResults <- handshakeResult{res: res, err: err}
			}()
		}
		select {
		case inbox <- event.Data:
		default:
			util.LogPeerWarning(event.From, "handshake inbox full, dropping signal")
		}
	}
}

// closeAllInboxes closes every pending or trickle-owned handshake inbox so
// in-flight handshakes and trickle listeners unblock and exit instead of
// leaking when the signalling stream ends.
func closeAllInboxes(handshakeSignals map[peer.Id]chan peer.Signal) {
	for _, inbox := range handshakeSignals {
		close(inbox)
	}
}

// sendOutbound only ever enqueues onto a sender's inbox; it never waits on
// a DataChannel's buffered-amount state, so it can't block Run's select.
func sendOutbound(senders map[peer.Id]peerSenders, out peer.OutboundPacket) {
	peerSet, ok := senders[out.To]
	if !ok {
		util.LogPeerWarning(out.To, "no data channel, dropping outbound packet")
		return
	}
	sender, ok := peerSet[out.Channel]
	if !ok {
		util.LogPeerWarning(out.To, "no %s channel, dropping outbound packet", out.Channel)
		return
	}
	sender.enqueue(out.Data)
}
