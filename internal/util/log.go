package util

import "github.com/pterm/pterm"

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 2006 15:04:05"
}

// Leveled logging functions backed by pterm prefixed printers.
// All output goes to stderr by default (pterm's default).

func LogDebug(format string, args ...interface{}) {
	pterm.Debug.Printfln(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	pterm.Info.Printfln(format, args...)
}

func LogSuccess(format string, args ...interface{}) {
	pterm.Success.Printfln(format, args...)
}

func LogWarning(format string, args ...interface{}) {
	pterm.Warning.Printfln(format, args...)
}

func LogError(format string, args ...interface{}) {
	pterm.Error.Printfln(format, args...)
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
	pterm.EnableDebugMessages()
}

// peerStringer is satisfied by peer.Id without importing internal/peer here
// (that package already imports uuid, and util sits below it in the import
// graph); any type with a String method works, matching the duck-typed
// fmt.Stringer contract.
type peerStringer interface {
	String() string
}

// peerPrefix formats a peer-scoped log line with the id set off in brackets,
// the single shape every handshake/message-loop log line that names a peer
// now goes through, instead of each call site splicing "%s" into its own
// format string ad hoc.
func peerPrefix(id peerStringer, format string) string {
	return "[" + id.String() + "] " + format
}

// LogPeerDebug logs a debug-level message scoped to one peer.
func LogPeerDebug(id peerStringer, format string, args ...interface{}) {
	pterm.Debug.Printfln(peerPrefix(id, format), args...)
}

// LogPeerInfo logs an info-level message scoped to one peer.
func LogPeerInfo(id peerStringer, format string, args ...interface{}) {
	pterm.Info.Printfln(peerPrefix(id, format), args...)
}

// LogPeerSuccess logs a success-level message scoped to one peer.
func LogPeerSuccess(id peerStringer, format string, args ...interface{}) {
	pterm.Success.Printfln(peerPrefix(id, format), args...)
}

// LogPeerWarning logs a warning-level message scoped to one peer.
func LogPeerWarning(id peerStringer, format string, args ...interface{}) {
	pterm.Warning.Printfln(peerPrefix(id, format), args...)
}

// LogPeerError logs an error-level message scoped to one peer.
func LogPeerError(id peerStringer, format string, args ...interface{}) {
	pterm.Error.Printfln(peerPrefix(id, format), args...)
}
