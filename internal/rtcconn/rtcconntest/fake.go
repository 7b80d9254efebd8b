// Package rtcconntest provides an in-memory fake of rtcconn.Connection and
// rtcconn.DataChannel for exercising the handshake state machines without a
// real platform, mirroring the teacher's mockTransport used by the adapter
// package's tests.
package rtcconntest

import (
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2pmsg/internal/rtcconn"
)

// Connection is a scriptable fake rtcconn.Connection.
type Connection struct {
	mu sync.Mutex

	OfferSDP  string
	AnswerSDP string
	OfferErr  error
	AnswerErr error

	LocalDescErr  error
	RemoteDescErr error
	ICECandErr    error

	localDesc   *webrtc.SessionDescription
	remoteDesc  *webrtc.SessionDescription
	candidates  []webrtc.ICECandidateInit
	iceHandler  func(candidate string)
	channels    map[uint16]*DataChannel
	closed      bool
	closeCalled int
}

// NewConnection returns a fake with the given canned offer/answer SDP bodies.
func NewConnection(offerSDP, answerSDP string) *Connection {
	return &Connection{
		OfferSDP:  offerSDP,
		AnswerSDP: answerSDP,
		channels:  make(map[uint16]*DataChannel),
	}
}

func (c *Connection) CreateOffer() (webrtc.SessionDescription, error) {
	if c.OfferErr != nil {
		return webrtc.SessionDescription{}, c.OfferErr
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: c.OfferSDP}, nil
}

func (c *Connection) CreateAnswer() (webrtc.SessionDescription, error) {
	if c.AnswerErr != nil {
		return webrtc.SessionDescription{}, c.AnswerErr
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: c.AnswerSDP}, nil
}

func (c *Connection) SetLocalDescription(sdp webrtc.SessionDescription) error {
	if c.LocalDescErr != nil {
		return c.LocalDescErr
	}
	c.mu.Lock()
	c.localDesc = &sdp
	c.mu.Unlock()
	return nil
}

func (c *Connection) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	if c.RemoteDescErr != nil {
		return c.RemoteDescErr
	}
	c.mu.Lock()
	c.remoteDesc = &sdp
	c.mu.Unlock()
	return nil
}

func (c *Connection) AddICECandidate(init webrtc.ICECandidateInit) error {
	if c.ICECandErr != nil {
		return c.ICECandErr
	}
	c.mu.Lock()
	c.candidates = append(c.candidates, init)
	c.mu.Unlock()
	return nil
}

func (c *Connection) HasRemoteDescription() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteDesc != nil
}

func (c *Connection) OnICECandidate(fn func(candidate string)) {
	c.mu.Lock()
	c.iceHandler = fn
	c.mu.Unlock()
}

// EmitLocalCandidate simulates the platform discovering a local ICE
// candidate, invoking whatever handler OnICECandidate last registered.
func (c *Connection) EmitLocalCandidate(candidate string) {
	c.mu.Lock()
	fn := c.iceHandler
	c.mu.Unlock()
	if fn != nil {
		fn(candidate)
	}
}

func (c *Connection) CreateDataChannel(label string, ordered bool, maxRetransmits uint16, negotiated bool, id uint16) (rtcconn.DataChannel, error) {
	dc := NewDataChannel(label, id)
	c.mu.Lock()
	c.channels[id] = dc
	c.mu.Unlock()
	return dc, nil
}

// Channel returns the fake data channel previously created for id, if any.
func (c *Connection) Channel(id uint16) *DataChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[id]
}

// ReceivedCandidates returns every candidate passed to AddICECandidate so far.
func (c *Connection) ReceivedCandidates() []webrtc.ICECandidateInit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]webrtc.ICECandidateInit, len(c.candidates))
	copy(out, c.candidates)
	return out
}

func (c *Connection) Close() error {
	c.mu.Lock()
	c.closed = true
	c.closeCalled++
	c.mu.Unlock()
	return nil
}

// DataChannel is a scriptable fake rtcconn.DataChannel.
type DataChannel struct {
	mu sync.Mutex

	Label string
	ID    uint16

	SendErr error
	Sent    [][]byte

	// Buffered is the fake's canned BufferedAmount() reading; set it to
	// exercise a caller's backpressure pacing.
	Buffered uint64

	onOpen        func()
	onMessage     func(data []byte)
	onBufferedLow func()
	opened        bool
	closed        bool
}

// NewDataChannel returns a fake channel that has not yet fired OnOpen.
func NewDataChannel(label string, id uint16) *DataChannel {
	return &DataChannel{Label: label, ID: id}
}

func (d *DataChannel) OnOpen(fn func()) {
	d.mu.Lock()
	d.onOpen = fn
	already := d.opened
	d.mu.Unlock()
	if already && fn != nil {
		fn()
	}
}

func (d *DataChannel) OnMessage(fn func(data []byte)) {
	d.mu.Lock()
	d.onMessage = fn
	d.mu.Unlock()
}

func (d *DataChannel) Send(data []byte) error {
	if d.SendErr != nil {
		return d.SendErr
	}
	d.mu.Lock()
	d.Sent = append(d.Sent, data)
	d.mu.Unlock()
	return nil
}

func (d *DataChannel) BufferedAmount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Buffered
}

func (d *DataChannel) OnBufferedAmountLow(fn func()) {
	d.mu.Lock()
	d.onBufferedLow = fn
	d.mu.Unlock()
}

// FireBufferedAmountLow simulates the platform signalling that the channel's
// buffered amount has dropped back below its low-water mark.
func (d *DataChannel) FireBufferedAmountLow() {
	d.mu.Lock()
	fn := d.onBufferedLow
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *DataChannel) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Open simulates the platform firing the channel's open event.
func (d *DataChannel) Open() {
	d.mu.Lock()
	d.opened = true
	fn := d.onOpen
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Deliver simulates an inbound message arriving on the channel.
func (d *DataChannel) Deliver(data []byte) {
	d.mu.Lock()
	fn := d.onMessage
	d.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}
