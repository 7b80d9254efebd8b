// Package socketerr collects the sentinel error kinds from the handshake and
// message-loop error taxonomy. Callers use errors.Is against these to tell
// fatal-to-the-socket conditions (trickle ended, signalling gone) apart from
// per-peer handshake failures that the message loop merely logs and drops.
package socketerr

import "errors"

var (
	// ErrSignallingClosedMidHandshake: the handshake inbox closed before the
	// expected SDP arrived. The handshake fails; the peer is never published.
	ErrSignallingClosedMidHandshake = errors.New("signal server connection lost in the middle of a handshake")

	// ErrPlatformRejection wraps any rejected platform promise/call
	// (CreateOffer, SetLocalDescription, AddICECandidate, ...).
	ErrPlatformRejection = errors.New("platform webrtc call rejected")

	// ErrMalformedSdp: a received Offer/Answer was missing its SDP body.
	ErrMalformedSdp = errors.New("malformed sdp: missing or empty sdp field")

	// ErrChannelSendFailure: DataChannel.Send raised. Logged, not fatal.
	ErrChannelSendFailure = errors.New("data channel send failed")

	// ErrTrickleEnded: the remote-candidate listener returned while the
	// session was still live. Fatal to the whole socket.
	ErrTrickleEnded = errors.New("ice candidate trickle loop stopped")

	// ErrSignallingGone: the inbound signalling events stream ended. Fatal
	// to the socket, clean exit.
	ErrSignallingGone = errors.New("disconnected from signalling server")
)
