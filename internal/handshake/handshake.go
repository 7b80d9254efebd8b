// Package handshake implements the Offerer and Accepter sides of the SDP
// exchange (spec §4.3/§4.4): create a peer connection and its data channels,
// exchange Offer/Answer through the signalling service, trickle ICE
// candidates, and wait for every data channel to open. Ported from
// matchbox_socket's handshake_offer/handshake_accept.
package handshake

import (
	"context"
	"fmt"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
	"github.com/1ureka/p2pmsg/internal/trickle"
	"github.com/1ureka/p2pmsg/internal/util"

	"github.com/pion/webrtc/v4"
)

// DataChannelLabel is the fixed label used for every negotiated data
// channel, matching the original's single "webudp" channel.
const DataChannelLabel = "webudp"

// Data channel ids are pre-agreed (negotiated=true) so no renegotiation is
// needed to open them; spec §6 fixes one id per channel profile.
const (
	DataChannelIDUnreliable uint16 = 0
	DataChannelIDReliable   uint16 = 1
)

func channelID(ch peer.Channel) uint16 {
	if ch == peer.Reliable {
		return DataChannelIDReliable
	}
	return DataChannelIDUnreliable
}

// Channels maps each negotiated channel profile to its open data channel.
type Channels map[peer.Channel]rtcconn.DataChannel

// Result is what a completed handshake hands back to the message loop: the
// remote peer's id, its open data channels, and a future that reports
// whether the trickle-ICE listener for this peer ever stops (fatal if it
// does while the session is still live).
type Result struct {
	PeerID   peer.Id
	Channels Channels
	Trickle  <-chan error
}

// newConnection opens a platform connection and wires up its trickle.
// newPeerConnection is a seam over rtcconn.New so tests can substitute a
// fake Connection without touching the real platform.
var newPeerConnection = func(server webrtc.ICEServer) (rtcconn.Connection, error) {
	return rtcconn.New(server)
}

func newConnection(cfg config.ICEServer, signalPeer signaling.SignalPeer) (rtcconn.Connection, *trickle.CandidateTrickle, error) {
	server := webrtc.ICEServer{
		URLs:       cfg.URLs,
		Username:   cfg.Username,
		Credential: cfg.Credential,
	}
	conn, err := newPeerConnection(server)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
	}

	t := trickle.New(signalPeer)
	conn.OnICECandidate(func(candidate string) {
		t.OnLocalCandidate(conn, candidate)
	})

	return conn, t, nil
}

// createDataChannels creates one negotiated, unordered, unreliable data
// channel per configured profile, wiring each one's OnMessage callback to
// forward InboundPacket values to inbox and its OnOpen callback to signal
// readiness on ready.
func createDataChannels(conn rtcconn.Connection, from peer.Id, profiles []peer.Channel, inbox chan<- peer.InboundPacket, ready chan<- peer.Channel) (Channels, error) {
	channels := make(Channels, len(profiles))
	for _, profile := range profiles {
		dc, err := conn.CreateDataChannel(DataChannelLabel, false, 0, true, channelID(profile))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", socketerr.ErrPlatformRejection, err)
		}

		profile := profile
		dc.OnMessage(func(data []byte) {
			util.Stats.AddRecv(len(data))
			inbox <- peer.InboundPacket{From: from, Channel: profile, Data: peer.Packet(data)}
		})
		dc.OnOpen(func() {
			util.LogPeerDebug(from, "data channel %s opened", profile)
			ready <- profile
		})

		channels[profile] = dc
	}
	return channels, nil
}

// waitForAllChannelsReady blocks until every profile in profiles has reported
// through ready, or trickleErr fires first (matching the original's
// "keep looping past trickle errors until the channel is ready" shape, but
// surfacing a fatal trickle failure to the caller instead of looping
// forever).
func waitForAllChannelsReady(ctx context.Context, profiles []peer.Channel, ready <-chan peer.Channel, trickleErr <-chan error) error {
	remaining := make(map[peer.Channel]struct{}, len(profiles))
	for _, p := range profiles {
		remaining[p] = struct{}{}
	}

	for len(remaining) > 0 {
		select {
		case p := <-ready:
			delete(remaining, p)
		case err := <-trickleErr:
			util.LogError("ice candidate trickle loop stopped while waiting for data channel: %v", err)
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func startTrickleListener(ctx context.Context, conn rtcconn.Connection, inbox <-chan peer.Signal) <-chan error {
	out := make(chan error, 1)
	go func() {
		out <- trickle.ListenForRemoteCandidates(ctx, conn, inbox)
	}()
	return out
}
