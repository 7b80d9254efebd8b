// Package rtcconn wraps pion/webrtc's PeerConnection and DataChannel behind
// small interfaces (Connection, DataChannel) so the handshake state machines
// in internal/handshake can be driven by a fake implementation in tests,
// the same way the teacher repo isolates its transport.Transport behind an
// interface for the adapter package's tests.
package rtcconn

import (
	"github.com/pion/webrtc/v4"
)

// Connection is the subset of *webrtc.PeerConnection the handshake state
// machines depend on.
type Connection interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	HasRemoteDescription() bool
	OnICECandidate(fn func(candidate string))
	CreateDataChannel(label string, ordered bool, maxRetransmits uint16, negotiated bool, id uint16) (DataChannel, error)
	Close() error
}

// DataChannel is the subset of *webrtc.DataChannel the handshake and
// message-loop layers depend on. BufferedAmount/OnBufferedAmountLow expose
// the backpressure state so a caller can pace sends itself instead of
// blocking inside Send; see messageloop's per-peer sender.
type DataChannel interface {
	OnOpen(fn func())
	OnMessage(fn func(data []byte))
	Send(data []byte) error
	BufferedAmount() uint64
	OnBufferedAmountLow(fn func())
	Close() error
}

// pionConnection adapts *webrtc.PeerConnection to Connection.
type pionConnection struct {
	pc *webrtc.PeerConnection
}

// New creates a PeerConnection configured with the given ICE server,
// following the same single-ICE-server shape as the teacher's
// transport.newPeerConnection.
func New(server webrtc.ICEServer) (Connection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{server},
	})
	if err != nil {
		return nil, err
	}
	return &pionConnection{pc: pc}, nil
}

func (c *pionConnection) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

func (c *pionConnection) CreateAnswer() (webrtc.SessionDescription, error) {
	return c.pc.CreateAnswer(nil)
}

func (c *pionConnection) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(sdp)
}

func (c *pionConnection) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(sdp)
}

func (c *pionConnection) AddICECandidate(init webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(init)
}

func (c *pionConnection) HasRemoteDescription() bool {
	return c.pc.RemoteDescription() != nil
}

func (c *pionConnection) OnICECandidate(fn func(candidate string)) {
	c.pc.OnICECandidate(func(ice *webrtc.ICECandidate) {
		if ice == nil {
			return
		}
		fn(ice.ToJSON().Candidate)
	})
}

func (c *pionConnection) CreateDataChannel(label string, ordered bool, maxRetransmits uint16, negotiated bool, id uint16) (DataChannel, error) {
	dc, err := c.pc.CreateDataChannel(label, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
		Negotiated:     &negotiated,
		ID:             &id,
	})
	if err != nil {
		return nil, err
	}
	dc.OnOpen(func() {}) // ensure pion allocates its internal handler slot before callers attach one
	return newPionDataChannel(dc), nil
}

func (c *pionConnection) Close() error {
	return c.pc.Close()
}
