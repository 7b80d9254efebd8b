// Package config holds the socket-level configuration types (spec §6).
package config

import (
	"time"

	"github.com/1ureka/p2pmsg/internal/peer"
)

// DefaultKeepAliveInterval is the suggested keep-alive period from spec §6.
const DefaultKeepAliveInterval = 10 * time.Second

// ICEServer mirrors RTCConfiguration.iceServers[0] verbatim; passed straight
// through to the platform PeerConnection constructor.
type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

// WebRtcSocketConfig is the recognised set of construction-time options.
type WebRtcSocketConfig struct {
	// ICEServer is passed verbatim to RTCConfiguration.iceServers[0].
	ICEServer ICEServer

	// ChannelProfiles selects one or two of {Unreliable, Reliable}. Mixing
	// profile counts across peers within one socket is undefined (spec §9);
	// this socket applies the same profile set to every peer it negotiates.
	ChannelProfiles []peer.Channel

	// KeepAliveInterval is the period between PeerRequest::KeepAlive
	// messages. Zero disables the keep-alive timer entirely.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns a single-channel, unreliable-profile configuration
// with the default keep-alive interval and no ICE servers configured (the
// caller is expected to set at least one STUN/TURN URL).
func DefaultConfig() WebRtcSocketConfig {
	return WebRtcSocketConfig{
		ChannelProfiles:   []peer.Channel{peer.Unreliable},
		KeepAliveInterval: DefaultKeepAliveInterval,
	}
}
