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

// Accept drives the accepting side of a handshake with remotePeer: create a
// connection and data channels, wait for the initial Offer, answer it,
// trickle candidates, and wait for every data channel to open.
func Accept(ctx context.Context, cfg config.WebRtcSocketConfig, signalPeer signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (Result, error) {
	util.LogPeerDebug(signalPeer.Id, "handshake accept")

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

	offerSDP, err := awaitOffer(ctx, inbox)
	if err != nil {
		conn.Close()
		return Result{}, err
	}
	util.LogDebug("received offer")

	if err := conn.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}); err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}
	util.LogDebug("set remote_description from offer")

	answer, err := conn.CreateAnswer()
	if err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}
	util.LogDebug("created answer")

	signalPeer.Send(peer.AnswerSignal(answer.SDP))

	if err := conn.SetLocalDescription(answer); err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}
	trickle.SendPendingCandidates()

	trickleErrCh := startTrickleListener(ctx, conn, inbox)
	util.LogDebug("waiting for data channel to open")
	if err := waitForAllChannelsReady(ctx, cfg.ChannelProfiles, ready, trickleErrCh); err != nil {
		conn.Close()
		return Result{}, err
	}

	return Result{PeerID: signalPeer.Id, Channels: channels, Trickle: trickleErrCh}, nil
}

// awaitOffer blocks until the initial Offer signal arrives, logging and
// ignoring anything else received first.
func awaitOffer(ctx context.Context, inbox <-chan peer.Signal) (string, error) {
	for {
		select {
		case signal, ok := <-inbox:
			if !ok {
				return "", socketerr.ErrSignallingClosedMidHandshake
			}
			if signal.Kind == peer.SignalOffer {
				if signal.SDP == "" {
					return "", socketerr.ErrMalformedSdp
				}
				return signal.SDP, nil
			}
			util.LogWarning("ignoring other signal while awaiting offer: kind=%d", signal.Kind)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
