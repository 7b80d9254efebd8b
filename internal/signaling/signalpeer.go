package signaling

import "github.com/1ureka/p2pmsg/internal/peer"

// SignalPeer binds a remote peer id to the shared Client so handshake and
// trickle code can address that one peer without threading both id and
// client through every call, mirroring the Rust original's SignalPeer
// (id + a clone of the requests sender).
type SignalPeer struct {
	Id     peer.Id
	client Client
}

// NewSignalPeer returns a SignalPeer addressed at id, sending through client.
func NewSignalPeer(id peer.Id, client Client) SignalPeer {
	return SignalPeer{Id: id, client: client}
}

// Send forwards a signal to this peer via the signalling service.
func (s SignalPeer) Send(signal peer.Signal) {
	s.client.Send(peer.Request{Kind: peer.RequestSignal, To: s.Id, Data: signal})
}
