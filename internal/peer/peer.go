// Package peer defines the wire-agnostic data model shared between the
// signalling transport, the handshake state machines, and the message loop:
// peer identifiers, application packets, and the tagged signal/event/request
// variants that flow between this socket and the signalling service.
package peer

import "github.com/google/uuid"

// Id is an opaque, comparable identifier for a remote peer, assigned by the
// signalling server (or self-generated when this socket announces itself).
type Id string

// NewId mints a fresh, locally-generated peer id. Used once per socket, at
// construction, to announce this socket's identity to the signalling server.
func NewId() Id {
	return Id(uuid.NewString())
}

func (id Id) String() string { return string(id) }

// Packet is an immutable application payload. Its length is bounded by the
// underlying DataChannel's MTU; that bound is enforced by the platform, not
// by this package.
type Packet []byte

// Channel selects a DataChannel quality-of-service profile.
type Channel int

const (
	Unreliable Channel = iota
	Reliable
)

func (c Channel) String() string {
	switch c {
	case Unreliable:
		return "unreliable"
	case Reliable:
		return "reliable"
	default:
		return "unknown"
	}
}

// SignalKind discriminates the PeerSignal tagged union.
type SignalKind int

const (
	SignalOffer SignalKind = iota
	SignalAnswer
	SignalIceCandidate
)

// Signal is the tagged variant exchanged in both directions over signalling:
// Offer(sdp), Answer(sdp), or IceCandidate(candidate).
type Signal struct {
	Kind      SignalKind
	SDP       string // set for SignalOffer / SignalAnswer
	Candidate string // set for SignalIceCandidate; the raw "candidate:" line
}

func OfferSignal(sdp string) Signal      { return Signal{Kind: SignalOffer, SDP: sdp} }
func AnswerSignal(sdp string) Signal     { return Signal{Kind: SignalAnswer, SDP: sdp} }
func IceCandidateSignal(c string) Signal { return Signal{Kind: SignalIceCandidate, Candidate: c} }

// EventKind discriminates the PeerEvent tagged union.
type EventKind int

const (
	EventNewPeer EventKind = iota
	EventSignal
)

// Event is inbound from the signalling service.
type Event struct {
	Kind EventKind
	Peer Id     // set for EventNewPeer: the peer we should offer to
	From Id     // set for EventSignal: the peer the signal came from
	Data Signal // set for EventSignal
}

// RequestKind discriminates the PeerRequest tagged union.
type RequestKind int

const (
	RequestUuid RequestKind = iota
	RequestKeepAlive
	RequestSignal
)

// Request is outbound to the signalling service.
type Request struct {
	Kind RequestKind
	Id   Id     // set for RequestUuid: this socket's self-identifier
	To   Id     // set for RequestSignal: the destination peer
	Data Signal // set for RequestSignal
}

// InboundPacket is delivered to the application for every message received
// on an open DataChannel.
type InboundPacket struct {
	From    Id
	Channel Channel
	Data    Packet
}

// OutboundPacket is submitted by the application for delivery to a peer.
type OutboundPacket struct {
	To      Id
	Channel Channel
	Data    Packet
}
