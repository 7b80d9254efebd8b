// Package signaling is the WebSocket transport between this socket and the
// signalling service: it turns peer.Request/peer.Event values into wire
// messages and back. The signalling service itself — how it allocates peer
// ids, relays Signal messages between sockets, and drops disconnected peers —
// is out of scope here; this package only speaks its wire protocol.
package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/1ureka/p2pmsg/internal/peer"
)

// msgType names the flattened JSON message shape exchanged with the
// signalling service, the same "single struct with a Type discriminant and
// omitempty payload fields" shape the teacher uses for its host/client SDP exchange,
// generalised here with Sender/Receiver/PeerID fields for N-peer routing.
type msgType string

const (
	msgUuid         msgType = "uuid"
	msgKeepAlive    msgType = "keep_alive"
	msgNewPeer      msgType = "new_peer"
	msgOffer        msgType = "offer"
	msgAnswer       msgType = "answer"
	msgIceCandidate msgType = "ice_candidate"
)

// wireMessage is the JSON structure exchanged over the WebSocket in both
// directions. Outbound (Request), PeerID carries RequestUuid's minted id and
// Receiver carries the destination peer for Signal (KeepAlive carries only
// its Type). Inbound
// (Event), PeerID carries the newly announced peer for NewPeer and Sender
// carries the originating peer for Signal.
type wireMessage struct {
	Type      msgType `json:"type"`
	PeerID    string  `json:"peer_id,omitempty"`
	Sender    string  `json:"sender,omitempty"`
	Receiver  string  `json:"receiver,omitempty"`
	SDP       string  `json:"sdp,omitempty"`
	Candidate string  `json:"candidate,omitempty"`
}

func encodeRequest(req peer.Request) (wireMessage, error) {
	switch req.Kind {
	case peer.RequestUuid:
		return wireMessage{Type: msgUuid, PeerID: req.Id.String()}, nil
	case peer.RequestKeepAlive:
		return wireMessage{Type: msgKeepAlive}, nil
	case peer.RequestSignal:
		w := wireMessage{Receiver: req.To.String()}
		switch req.Data.Kind {
		case peer.SignalOffer:
			w.Type = msgOffer
			w.SDP = req.Data.SDP
		case peer.SignalAnswer:
			w.Type = msgAnswer
			w.SDP = req.Data.SDP
		case peer.SignalIceCandidate:
			w.Type = msgIceCandidate
			w.Candidate = req.Data.Candidate
		default:
			return wireMessage{}, fmt.Errorf("signaling: unknown signal kind %d", req.Data.Kind)
		}
		return w, nil
	default:
		return wireMessage{}, fmt.Errorf("signaling: unknown request kind %d", req.Kind)
	}
}

func decodeEvent(w wireMessage) (peer.Event, error) {
	switch w.Type {
	case msgNewPeer:
		return peer.Event{Kind: peer.EventNewPeer, Peer: peer.Id(w.PeerID)}, nil
	case msgOffer:
		return peer.Event{Kind: peer.EventSignal, From: peer.Id(w.Sender), Data: peer.OfferSignal(w.SDP)}, nil
	case msgAnswer:
		return peer.Event{Kind: peer.EventSignal, From: peer.Id(w.Sender), Data: peer.AnswerSignal(w.SDP)}, nil
	case msgIceCandidate:
		return peer.Event{Kind: peer.EventSignal, From: peer.Id(w.Sender), Data: peer.IceCandidateSignal(w.Candidate)}, nil
	default:
		return peer.Event{}, fmt.Errorf("signaling: unrecognised event type %q", w.Type)
	}
}

func marshal(req peer.Request) ([]byte, error) {
	w, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func unmarshal(data []byte) (peer.Event, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return peer.Event{}, fmt.Errorf("signaling: malformed message: %w", err)
	}
	return decodeEvent(w)
}
