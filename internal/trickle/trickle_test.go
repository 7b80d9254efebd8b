package trickle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/rtcconn/rtcconntest"
	"github.com/1ureka/p2pmsg/internal/signaling"
	"github.com/1ureka/p2pmsg/internal/socketerr"
)

func mustAnswer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer-sdp"}
}

type recordingClient struct {
	sent []peer.Request
}

func (c *recordingClient) Send(req peer.Request)     { c.sent = append(c.sent, req) }
func (c *recordingClient) Events() <-chan peer.Event { return nil }
func (c *recordingClient) Close() error              { return nil }

func TestOnLocalCandidateBuffersBeforeRemoteDescription(t *testing.T) {
	client := &recordingClient{}
	sp := signaling.NewSignalPeer(peer.NewId(), client)
	tr := New(sp)
	conn := rtcconntest.NewConnection("offer-sdp", "answer-sdp")

	tr.OnLocalCandidate(conn, "candidate-a")
	tr.OnLocalCandidate(conn, "candidate-b")

	if len(client.sent) != 0 {
		t.Fatalf("expected no sends before remote description set, got %d", len(client.sent))
	}

	if err := conn.SetRemoteDescription(mustAnswer()); err != nil {
		t.Fatal(err)
	}
	tr.SendPendingCandidates()

	if len(client.sent) != 2 {
		t.Fatalf("expected 2 buffered candidates flushed, got %d", len(client.sent))
	}
}

func TestOnLocalCandidateSendsImmediatelyAfterRemoteDescription(t *testing.T) {
	client := &recordingClient{}
	sp := signaling.NewSignalPeer(peer.NewId(), client)
	tr := New(sp)
	conn := rtcconntest.NewConnection("offer-sdp", "answer-sdp")

	if err := conn.SetRemoteDescription(mustAnswer()); err != nil {
		t.Fatal(err)
	}

	tr.OnLocalCandidate(conn, "candidate-a")

	if len(client.sent) != 1 {
		t.Fatalf("expected immediate send, got %d sends", len(client.sent))
	}
}

func TestListenForRemoteCandidatesAppliesCandidatesAndIgnoresStraySignals(t *testing.T) {
	conn := rtcconntest.NewConnection("offer-sdp", "answer-sdp")
	inbox := make(chan peer.Signal, 4)
	inbox <- peer.OfferSignal("stray-offer")
	inbox <- peer.IceCandidateSignal("candidate-a")
	inbox <- peer.AnswerSignal("stray-answer")
	close(inbox)

	err := ListenForRemoteCandidates(context.Background(), conn, inbox)
	if !errors.Is(err, socketerr.ErrTrickleEnded) {
		t.Fatalf("expected ErrTrickleEnded on clean inbox close, got %v", err)
	}

	got := conn.ReceivedCandidates()
	if len(got) != 1 || got[0].Candidate != "candidate-a" {
		t.Fatalf("expected exactly one applied candidate, got %+v", got)
	}
}

func TestListenForRemoteCandidatesStopsOnContextCancel(t *testing.T) {
	conn := rtcconntest.NewConnection("offer-sdp", "answer-sdp")
	inbox := make(chan peer.Signal)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ListenForRemoteCandidates(ctx, conn, inbox)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}
