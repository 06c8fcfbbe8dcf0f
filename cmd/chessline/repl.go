// =============================================================================
// repl.go - Synchronous REPL Loop
// =============================================================================
//
// The default mode: every command blocks until its reply arrives (or the
// command timeout passes), and the reply is printed before the next prompt.
// Unsolicited frames that arrive while waiting (an opponent's move, a timer
// tick) are printed as "*** " notices ahead of the reply.
//
// Lines starting with "." are handled locally and never reach the server:
//
//	.help [topic]   .status   .reconnect   .quit
//
// Everything else is translated by translate.go into a protocol command.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/config"
)

// dotAction tells the loop what to do after a dot-command.
type dotAction int

const (
	// dotContinue means the command was handled; prompt again.
	dotContinue dotAction = iota
	// dotQuit ends the REPL.
	dotQuit
	// dotReconnect asks the loop to replace the connection.
	dotReconnect
)

// handleDotCommand runs a local command. status supplies the connection
// lines of .status, which differ between the sync and async loops.
func handleDotCommand(line string, sess *session, status func() string) dotAction {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ".quit", ".exit":
		return dotQuit
	case ".help":
		topic := ""
		if len(fields) > 1 {
			topic = fields[1]
		}
		printHelp(topic)
	case ".status":
		fmt.Println(sess.describe())
		fmt.Println(status())
	case ".reconnect":
		return dotReconnect
	default:
		printError(fmt.Sprintf("Unknown command: %s. Type .help for available commands.", fields[0]))
	}
	return dotContinue
}

// connectionStatus describes a connection for .status.
func connectionStatus(conn *chessprotocol.Conn) string {
	return fmt.Sprintf("Connection: %s (%s)", conn.State(), conn.Addr())
}

// newSyncClient builds the blocking client. Pushes are delivered on the
// goroutine that sent the command, so the handler may touch sess freely.
func newSyncClient(cfg *config.Config, sess *session, log *slog.Logger) *chessprotocol.Client {
	conn := chessprotocol.NewConn(cfg.ConnOptions(log))
	opts := append(cfg.ClientOptions(log), chessprotocol.WithPushHandler(func(f chessprotocol.Frame) {
		sess.observe(f)
		fmt.Println(formatPush(f))
	}))
	return chessprotocol.NewClient(conn, opts...)
}

// runREPL runs the synchronous REPL until .quit or end of input.
//
// GO CONCEPT: Context Cancellation
// --------------------------------
// ctx is handed to every blocking call. When the signal handler cancels
// it, a command that is waiting for its reply returns at once instead of
// sitting out the full command timeout.
func runREPL(ctx context.Context, client *chessprotocol.Client, editor *LineEditor, sess *session) {
	status := func() string { return connectionStatus(client.Conn()) }

	for {
		line, err := editor.GetLine(sess.prompt())
		if err != nil {
			// EOF (Ctrl-D) or error
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch handleDotCommand(line, sess, status) {
			case dotQuit:
				return
			case dotReconnect:
				reconnectClient(ctx, client, sess)
			}
			continue
		}

		executeLine(ctx, client, sess, line)
		if ctx.Err() != nil {
			return
		}
	}
}

// executeLine sends one command and prints its outcome.
func executeLine(ctx context.Context, client *chessprotocol.Client, sess *session, line string) {
	cmd, err := translateToProtocol(line, sess)
	if err != nil {
		printError(err.Error())
		return
	}

	reply, err := client.Send(ctx, cmd)
	if !reply.IsZero() {
		sess.observe(reply)
	}

	var appErr *chessprotocol.ApplicationError
	switch {
	case errors.As(err, &appErr):
		printError(appErr.Message)
	case errors.Is(err, chessprotocol.ErrTimeout):
		printError(fmt.Sprintf("no reply to %s from server", cmd.Verb))
	case err != nil:
		printError(err.Error())
	case reply.IsZero():
		// Fire-and-forget commands have no reply to show.
	default:
		fmt.Println(formatReply(reply))
	}
}

// reconnectClient replaces the connection. The server ties a login to its
// socket, so the session starts over.
func reconnectClient(ctx context.Context, client *chessprotocol.Client, sess *session) {
	client.Disconnect()
	*sess = session{}
	if err := client.Connect(ctx); err != nil {
		printError(fmt.Sprintf("Reconnect failed: %v", err))
		return
	}
	fmt.Printf("Reconnected to %s\n", client.Conn().Addr())
}
