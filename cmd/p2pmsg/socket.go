package main

import (
	"context"
	"os"
	"sync"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/socket"
	"github.com/1ureka/p2pmsg/internal/util"
)

// newSocketOrExit dials the signalling service, exiting the process on
// failure the same way the teacher's runHost/runClient exit on a failed
// EstablishAsHost/EstablishAsClient.
func newSocketOrExit(ctx context.Context, wsURL string, cfg config.WebRtcSocketConfig) (*socket.WebRtcSocket, error) {
	sock, err := socket.New(ctx, wsURL, cfg)
	if err != nil {
		util.LogError("failed to connect to signalling service: %v", err)
		os.Exit(1)
	}
	return sock, nil
}

// peerSet tracks the currently connected peer set for readStdinAndBroadcast,
// fed by the same ConnectedPeers stream the CLI prints from.
type peerSet struct {
	mu  sync.Mutex
	ids []peer.Id
}

// trackPeers is the sole consumer of sock.ConnectedPeers(): it logs each new
// peer and records it so readStdinAndBroadcast knows who to send to.
func trackPeers(sock socketLike) *peerSet {
	ps := &peerSet{}
	go func() {
		for id := range sock.ConnectedPeers() {
			util.LogPeerSuccess(id, "peer connected")
			ps.mu.Lock()
			ps.ids = append(ps.ids, id)
			ps.mu.Unlock()
		}
	}()
	return ps
}

func (ps *peerSet) snapshot() []peer.Id {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]peer.Id, len(ps.ids))
	copy(out, ps.ids)
	return out
}
