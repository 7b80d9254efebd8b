package handshake

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
	"github.com/1ureka/p2pmsg/internal/util"
)

// Offer drives the offering side of a handshake with remotePeer: create a
// connection and data channels, send an Offer, wait for the matching Answer,
// trickle candidates, and wait for every data channel to open.
func Offer(ctx context.Context, cfg config.WebRtcSocketConfig, signalPeer signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (Result, error) {
	util.LogPeerDebug(signalPeer.Id, "making offer")

	conn, trickle, err := newConnection(cfg.ICEServer, signalPeer)
	if err != nil {
		return Result{}, err
	}

	ready := make(chan peer.Channel, len(cfg.ChannelProfiles))
	channels, err := createDataChannels(conn, signalPeer.Id, cfg.ChannelProfiles, packets, ready)
	if err != nil {
		conn.Close()
		return Result{}, err
	}

	offer, err := conn.CreateOffer()
	if err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}

	util.LogDebug("created offer for new peer")
	signalPeer.Send(peer.OfferSignal(offer.SDP))

	answerSDP, err := awaitAnswer(ctx, inbox)
	if err != nil {
		conn.Close()
		return Result{}, err
	}

	if err := conn.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}); err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}
	trickle.SendPendingCandidates()

	trickleErrCh := startTrickleListener(ctx, conn, inbox)
	if err := waitForAllChannelsReady(ctx, cfg.ChannelProfiles, ready, trickleErrCh); err != nil {
		conn.Close()
		return Result{}, err
	}

	return Result{PeerID: signalPeer.Id, Channels: channels, Trickle: trickleErrCh}, nil
}

// awaitAnswer blocks until the expected Answer signal arrives, logging and
// ignoring any Offer/IceCandidate received while waiting, matching the
// original's "warn and continue" treatment of out-of-order signals.
func awaitAnswer(ctx context.Context, inbox <-chan peer.Signal) (string, error) {
	for {
		select {
		case signal, ok := <-inbox:
			if !ok {
				return "", socketerr.ErrSignallingClosedMidHandshake
			}
			switch signal.Kind {
			case peer.SignalAnswer:
				if signal.SDP == "" {
					return "", socketerr.ErrMalformedSdp
				}
				return signal.SDP, nil
			case peer.SignalOffer:
				util.LogWarning("Got an unexpected Offer, while waiting for Answer. Ignoring.")
			case peer.SignalIceCandidate:
				util.LogWarning("Got an ice candidate message while waiting for Answer. Ignoring.")
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
