package handshake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn"
	"github.com/1ureka/p2pmsg/internal/rtcconn/rtcconntest"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
)

type noopSignalClient struct{}

func (noopSignalClient) Send(peer.Request)         {}
func (noopSignalClient) Events() <-chan peer.Event { return nil }
func (noopSignalClient) Close() error              { return nil }

func withFakeConnection(t *testing.T, fake *rtcconntest.Connection) {
	t.Helper()
	prev := newPeerConnection
	newPeerConnection = func(webrtc.ICEServer) (rtcconn.Connection, error) { return fake, nil }
	t.Cleanup(func() { newPeerConnection = prev })
}

func testConfig() config.WebRtcSocketConfig {
	return config.WebRtcSocketConfig{ChannelProfiles: []peer.Channel{peer.Unreliable}}
}

// openAllChannels marks each channel created on fake under one of ids as
// open, simulating the platform firing that data channel's open event.
func openAllChannels(fake *rtcconntest.Connection, ids ...uint16) {
	for _, id := range ids {
		if dc := fake.Channel(id); dc != nil {
			dc.Open()
		}
	}
}

func TestOfferHappyPath(t *testing.T) {
	fake := rtcconntest.NewConnection("offer-sdp", "")
	withFakeConnection(t, fake)

	sp := signaling.NewSignalPeer(peer.NewId(), noopSignalClient{})
	inbox := make(chan peer.Signal, 1)
	packets := make(chan peer.InboundPacket, 1)

	go func() {
		time.Sleep(5 * time.Millisecond)
		openAllChannels(fake, DataChannelIDUnreliable)
	}()
	inbox <- peer.AnswerSignal("answer-sdp")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := Offer(ctx, testConfig(), sp, inbox, packets)
	if err != nil {
		t.Fatalf("Offer returned error: %v", err)
	}
	if result.PeerID != sp.Id {
		t.Fatalf("expected peer id %v, got %v", sp.Id, result.PeerID)
	}
	if _, ok := result.Channels[peer.Unreliable]; !ok {
		t.Fatalf("expected Unreliable channel in result")
	}
}

func TestOfferMalformedAnswerSdp(t *testing.T) {
	fake := rtcconntest.NewConnection("offer-sdp", "")
	withFakeConnection(t, fake)

	sp := signaling.NewSignalPeer(peer.NewId(), noopSignalClient{})
	inbox := make(chan peer.Signal, 1)
	packets := make(chan peer.InboundPacket, 1)
	inbox <- peer.AnswerSignal("")

	_, err := Offer(context.Background(), testConfig(), sp, inbox, packets)
	if !errors.Is(err, socketerr.ErrMalformedSdp) {
		t.Fatalf("expected ErrMalformedSdp, got %v", err)
	}
}

func TestOfferSignallingClosedMidHandshake(t *testing.T) {
	fake := rtcconntest.NewConnection("offer-sdp", "")
	withFakeConnection(t, fake)

	sp := signaling.NewSignalPeer(peer.NewId(), noopSignalClient{})
	inbox := make(chan peer.Signal)
	close(inbox)
	packets := make(chan peer.InboundPacket, 1)

	_, err := Offer(context.Background(), testConfig(), sp, inbox, packets)
	if !errors.Is(err, socketerr.ErrSignallingClosedMidHandshake) {
		t.Fatalf("expected ErrSignallingClosedMidHandshake, got %v", err)
	}
}

func TestAcceptHappyPath(t *testing.T) {
	fake := rtcconntest.NewConnection("", "answer-sdp")
	withFakeConnection(t, fake)

	sp := signaling.NewSignalPeer(peer.NewId(), noopSignalClient{})
	inbox := make(chan peer.Signal, 1)
	packets := make(chan peer.InboundPacket, 1)

	go func() {
		time.Sleep(5 * time.Millisecond)
		openAllChannels(fake, DataChannelIDUnreliable)
	}()
	inbox <- peer.OfferSignal("offer-sdp")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := Accept(ctx, testConfig(), sp, inbox, packets)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if _, ok := result.Channels[peer.Unreliable]; !ok {
		t.Fatalf("expected Unreliable channel in result")
	}
}

func TestAcceptIgnoresStraySignalsBeforeOffer(t *testing.T) {
	fake := rtcconntest.NewConnection("", "answer-sdp")
	withFakeConnection(t, fake)

	sp := signaling.NewSignalPeer(peer.NewId(), noopSignalClient{})
	inbox := make(chan peer.Signal, 2)
	packets := make(chan peer.InboundPacket, 1)

	inbox <- peer.IceCandidateSignal("stray-candidate")
	inbox <- peer.OfferSignal("offer-sdp")

	go func() {
		time.Sleep(5 * time.Millisecond)
		openAllChannels(fake, DataChannelIDUnreliable)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Accept(ctx, testConfig(), sp, inbox, packets); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
}
