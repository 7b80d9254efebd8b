// p2pmsg — CLI entry point.
//
// This tool connects to a signalling service and opens mesh WebRTC
// DataChannel connections to every peer the service introduces it to. No
// relay servers are needed after the signalling phase (which uses
// WebSocket); messages are exchanged directly, peer to peer.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-wsUrl, -stunUrl, -channel, -debug).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/p2pmsg/internal/config"
	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wsURLFlag := flag.String("wsUrl", "", "WebSocket URL of the signalling service")
	stunURLFlag := flag.String("stunUrl", "stun:stun.l.google.com:19302", "STUN server URL")
	channelFlag := flag.String("channel", "unreliable", "Channel profile: unreliable, reliable, or both")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("p2pmsg — v%s", version))
	pterm.Println()

	wsURL := *wsURLFlag
	if wsURL == "" {
		wsURL = askWSURL()
	}

	profiles, err := parseChannelProfiles(*channelFlag)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.ChannelProfiles = profiles
	cfg.ICEServer = config.ICEServer{URLs: []string{*stunURLFlag}}

	run(ctx, wsURL, cfg)

	util.LogInfo("successfully closed socket")
}

// run connects the socket, starts the stats reporter, and bridges it to
// stdin/stdout for an interactive chat-style session.
func run(ctx context.Context, wsURL string, cfg config.WebRtcSocketConfig) {
	sock, err := newSocketOrExit(ctx, wsURL, cfg)
	if err != nil {
		return
	}
	defer sock.Close()

	util.StartStatsReporter(ctx)
	util.LogPeerSuccess(sock.ID(), "socket ready — waiting for peers")

	peers := trackPeers(sock)
	go printInboundMessages(sock)
	go readStdinAndBroadcast(sock, peers, cfg.ChannelProfiles[0])

	select {
	case err := <-sock.Done():
		if err != nil {
			util.LogError("socket closed: %v", err)
		}
	case <-ctx.Done():
	}
}

// parseChannelProfiles maps the -channel flag to one or two peer.Channel
// values, fixed ids per spec §6.
func parseChannelProfiles(raw string) ([]peer.Channel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unreliable":
		return []peer.Channel{peer.Unreliable}, nil
	case "reliable":
		return []peer.Channel{peer.Reliable}, nil
	case "both":
		return []peer.Channel{peer.Unreliable, peer.Reliable}, nil
	default:
		return nil, fmt.Errorf("invalid -channel: must be unreliable, reliable, or both")
	}
}

// askWSURL prompts interactively for a signalling service URL.
func askWSURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Signalling service WebSocket URL (e.g. wss://example.com/ws)").
			Show()

		raw = strings.TrimSpace(raw)
		if raw != "" {
			pterm.Println()
			return raw
		}

		util.LogWarning("a signalling URL is required")
		pterm.Println()
	}
}

// printInboundMessages logs every inbound application packet.
func printInboundMessages(sock socketLike) {
	for pkt := range sock.MessagesFromPeers() {
		fmt.Printf("[%s] %s\n", pkt.From, string(pkt.Data))
	}
}

// readStdinAndBroadcast reads one line at a time from stdin and sends it to
// every currently known peer over the given channel profile.
func readStdinAndBroadcast(sock socketLike, peers *peerSet, channel peer.Channel) {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		for _, id := range peers.snapshot() {
			sock.Send(id, channel, peer.Packet(line))
		}
	}
}

// socketLike is the subset of *socket.WebRtcSocket this command depends on,
// kept narrow so a fake can stand in during manual testing of the CLI glue.
type socketLike interface {
	ID() peer.Id
	ConnectedPeers() <-chan peer.Id
	MessagesFromPeers() <-chan peer.InboundPacket
	Send(to peer.Id, channel peer.Channel, data peer.Packet)
	Done() <-chan error
	Close() error
}
