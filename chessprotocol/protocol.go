// Package chessprotocol implements the client side of the chess server's
// line protocol.
//
// Protocol Format:
//
//	Command (client -> server):  VERB|field1|field2\n
//	Reply   (server -> client):  VERB|field1|field2\n
//	Push    (server -> client):  VERB|field1|field2\n
//	Error   (server -> client):  ERROR|<message>\n
//
// Replies and pushes are indistinguishable on the wire. There is no length
// prefix, checksum or request id; a reply is recognised only because its
// verb belongs to the set registered for the command that is outstanding.
//
// Example Session:
//
//	SRV: WELCOME|Chess Server v1.0
//	CLI: LOGIN|alice|secret
//	SRV: LOGIN_SUCCESS|7|alice|1200
//	CLI: MOVE|5|7|e2|e4
//	SRV: OPPONENT_MOVE|e7e5          (push, arrived first)
//	SRV: MOVE_SUCCESS|e2e4|rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1
package chessprotocol

import (
	"strconv"
	"time"
)

// Protocol constants.
const (
	// FieldSeparator separates the verb and the fields of a frame.
	FieldSeparator = "|"

	// FrameTerminator ends every frame.
	FrameTerminator = '\n'

	// GreetingVerb is the verb of the line the server sends on accept.
	GreetingVerb = "WELCOME"

	// ErrorVerb is the verb of an application-level error reply.
	ErrorVerb = "ERROR"

	// MaxLineLength is the maximum accepted length of a frame in bytes.
	// HISTORY and REPLAY replies carry JSON, so the limit is generous.
	MaxLineLength = 64 * 1024

	// DefaultHost is the server host used when none is configured.
	DefaultHost = "localhost"

	// DefaultPort is the server port used when none is configured.
	DefaultPort = 8888

	// ConnectionTimeout is the default timeout for establishing connections.
	ConnectionTimeout = 5 * time.Second

	// CommandTimeout is the default time a synchronous command waits for
	// its reply.
	CommandTimeout = 5 * time.Second

	// GreetingWait is how long Connect waits for the server greeting.
	GreetingWait = 250 * time.Millisecond

	// PollInterval is the cadence at which a host loop is expected to
	// drive a Poller.
	PollInterval = 30 * time.Millisecond

	// MaxOutboundQueue is the default cap of a Poller's outbound queue.
	MaxOutboundQueue = 1024

	// readChunkSize is the size of a single socket read.
	readChunkSize = 4096
)

// Address joins host and port the way net.Dial expects.
func Address(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return host + ":" + strconv.Itoa(port)
}
