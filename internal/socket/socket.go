// Package socket assembles the signalling client and the message loop into
// the application-facing WebRtcSocket described by the external interface:
// a stream of newly connected peers, a stream of inbound packets, and a sink
// for outbound packets.
package socket

import (
	"context"
	"fmt"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/messageloop"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/util"
)

// WebRtcSocket is a live connection to the signalling service plus its
// message loop. Construct with New; call Close (or cancel the context
// passed to New) to tear it down.
type WebRtcSocket struct {
	id     peer.Id
	client signaling.Client

	connectedPeers    chan peer.Id
	messagesFromPeers chan peer.InboundPacket
	outboundPackets   chan peer.OutboundPacket

	done chan error
}

// New dials the signalling service at wsURL and starts the message loop.
// The returned socket is immediately usable; ConnectedPeers and
// MessagesFromPeers begin delivering as soon as peers are discovered.
func New(ctx context.Context, wsURL string, cfg config.WebRtcSocketConfig) (*WebRtcSocket, error) {
	client, err := signaling.Dial(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	s := &WebRtcSocket{
		id:                peer.NewId(),
		client:            client,
		connectedPeers:    make(chan peer.Id, 16),
		messagesFromPeers: make(chan peer.InboundPacket, 256),
		outboundPackets:   make(chan peer.OutboundPacket, 256),
		done:              make(chan error, 1),
	}

	util.Stats.AddPeer()
	util.LogPeerInfo(s.id, "socket connecting to signalling service")

	go func() {
		s.done <- messageloop.Run(ctx, messageloop.Config{
			SelfID:            s.id,
			Socket:            cfg,
			Client:            client,
			ConnectedPeers:    s.connectedPeers,
			MessagesFromPeers: s.messagesFromPeers,
			OutboundPackets:   s.outboundPackets,
		})
	}()

	return s, nil
}

// ID returns this socket's own peer id, as minted locally and announced to
// the signalling service via PeerRequest::Uuid.
func (s *WebRtcSocket) ID() peer.Id { return s.id }

// ConnectedPeers delivers one PeerId per successful handshake.
func (s *WebRtcSocket) ConnectedPeers() <-chan peer.Id { return s.connectedPeers }

// MessagesFromPeers delivers every inbound application packet.
func (s *WebRtcSocket) MessagesFromPeers() <-chan peer.InboundPacket { return s.messagesFromPeers }

// Send enqueues an outbound application packet, best-effort: there is no
// acknowledgement of delivery or backpressure beyond the channel's buffer.
func (s *WebRtcSocket) Send(to peer.Id, channel peer.Channel, data peer.Packet) {
	s.outboundPackets <- peer.OutboundPacket{To: to, Channel: channel, Data: data}
}

// Done reports the message loop's terminal error, or nil on clean shutdown.
func (s *WebRtcSocket) Done() <-chan error { return s.done }

// Close tears the socket down: closes the outbound sink so the message loop
// exits cleanly, then disconnects from the signalling service.
func (s *WebRtcSocket) Close() error {
	close(s.outboundPackets)
	util.Stats.RemovePeer()
	return s.client.Close()
}
