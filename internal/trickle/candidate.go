package trickle

import "github.com/pion/webrtc/v4"

// iceCandidateInit builds the ICECandidateInit the platform expects for a
// trickled candidate string. SDPMLineIndex is pinned to 0 since this socket
// only ever negotiates a single "m=" line worth of data channels.
func iceCandidateInit(candidate string) webrtc.ICECandidateInit {
	var idx uint16
	return webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMLineIndex: &idx,
	}
}
