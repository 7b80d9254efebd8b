package messageloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/handshake"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
)

// fakeClient is an in-memory signaling.Client for driving the loop directly
// from test code, without a real WebSocket.
type fakeClient struct {
	sent   chan peer.Request
	events chan peer.Event
}

func newFakeClient() *fakeClient {
	return &fakeClient{sent: make(chan peer.Request, 16), events: make(chan peer.Event, 16)}
}

func (c *fakeClient) Send(req peer.Request)     { c.sent <- req }
func (c *fakeClient) Events() <-chan peer.Event { return c.events }
func (c *fakeClient) Close() error              { close(c.events); return nil }

func testCfg(client *fakeClient) (Config, chan peer.Id, chan peer.InboundPacket, chan peer.OutboundPacket) {
	connected := make(chan peer.Id, 8)
	inbound := make(chan peer.InboundPacket, 8)
	outbound := make(chan peer.OutboundPacket, 8)
	cfg := Config{
		SelfID:            peer.NewId(),
		Socket:            config.WebRtcSocketConfig{ChannelProfiles: []peer.Channel{peer.Unreliable}},
		Client:            client,
		ConnectedPeers:    connected,
		MessagesFromPeers: inbound,
		OutboundPackets:   outbound,
	}
	return cfg, connected, inbound, outbound
}

func TestRunTwoPeerOfferAnswer(t *testing.T) {
	client := newFakeClient()
	cfg, connected, _, _ := testCfg(client)

	peerB := peer.NewId()
	cfg.Offer = func(ctx context.Context, c config.WebRtcSocketConfig, sp signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (handshake.Result, error) {
		<-inbox // consumes the Answer the test relays as a signalling event below
		return handshake.Result{PeerID: sp.Id, Channels: handshake.Channels{}, Trickle: make(chan error)}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	client.events <- peer.Event{Kind: peer.EventNewPeer, Peer: peerB}
	client.events <- peer.Event{Kind: peer.EventSignal, From: peerB, Data: peer.AnswerSignal("sdpB")}

	select {
	case id := <-connected:
		if id != peerB {
			t.Fatalf("expected peer %v connected, got %v", peerB, id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connected peer")
	}
	cancel()
	<-done
}

func TestRunAccepterPath(t *testing.T) {
	client := newFakeClient()
	cfg, connected, _, _ := testCfg(client)

	peerC := peer.NewId()
	cfg.Accept = func(ctx context.Context, c config.WebRtcSocketConfig, sp signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (handshake.Result, error) {
		<-inbox
		return handshake.Result{PeerID: sp.Id, Channels: handshake.Channels{}, Trickle: make(chan error)}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	client.events <- peer.Event{Kind: peer.EventSignal, From: peerC, Data: peer.OfferSignal("sdpC")}

	select {
	case id := <-connected:
		if id != peerC {
			t.Fatalf("expected peer %v connected, got %v", peerC, id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connected peer")
	}
	cancel()
	<-done
}

func TestRunSignallingDisconnectMidHandshakeDoesNotPublishPeer(t *testing.T) {
	client := newFakeClient()
	cfg, connected, _, _ := testCfg(client)

	peerB := peer.NewId()
	cfg.Offer = func(ctx context.Context, c config.WebRtcSocketConfig, sp signaling.SignalPeer, inbox <-chan peer.Signal, packets chan<- peer.InboundPacket) (handshake.Result, error) {
		_, ok := <-inbox
		if !ok {
			return handshake.Result{}, socketerr.ErrSignallingClosedMidHandshake
		}
		return handshake.Result{PeerID: sp.Id}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	client.events <- peer.Event{Kind: peer.EventNewPeer, Peer: peerB}
	time.Sleep(10 * time.Millisecond)
	client.Close() // signalling lost mid-handshake

	select {
	case id := <-connected:
		t.Fatalf("expected no connected peer, got %v", id)
	case err := <-done:
		if !errors.Is(err, socketerr.ErrSignallingGone) {
			t.Fatalf("expected ErrSignallingGone, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loop to exit")
	}
}

func TestRunApplicationShutdownExitsCleanly(t *testing.T) {
	client := newFakeClient()
	cfg, _, _, outbound := testCfg(client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	close(outbound)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loop to exit")
	}
}
