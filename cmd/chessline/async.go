// =============================================================================
// async.go - Asynchronous REPL Loop (--async)
// =============================================================================
//
// In async mode the prompt comes back as soon as a command is queued. One
// goroutine owns the connection and ticks every poll interval:
//
//	Poll(0) → Demux.Dispatch → Demux.Expire
//
// Replies complete the pending command's intent and print its result;
// everything else is a push and prints as a "*** " notice, which readline
// draws above the line being typed.
//
// If the server drops the connection, the loop reconnects with exponential
// backoff. Queued frames and the pending intent die with the old socket,
// and so does the server-side login.
//
// With piped input the next line is read only after the previous reply (or
// its timeout), so scripts run in order.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/config"
)

// reconnectInitialInterval is the first backoff delay after a lost
// connection.
const reconnectInitialInterval = 250 * time.Millisecond

// asyncREPL is the state of the --async loop. Every field is owned by the
// goroutine running run; the reader goroutine only talks through channels.
type asyncREPL struct {
	poller *chessprotocol.Poller
	demux  *chessprotocol.Demux
	editor *LineEditor
	sess   *session
	log    *slog.Logger

	interval   time.Duration
	drainWait  time.Duration
	maxElapsed time.Duration

	// offline is set when reconnecting gave up; polling stops until the
	// user asks for .reconnect.
	offline bool

	// holdPrompt is set while a non-interactive run waits for a reply
	// before reading the next line.
	holdPrompt bool
}

// newAsyncREPL wires a poller and demultiplexer over a new connection.
// The connection is opened by connect.
func newAsyncREPL(cfg *config.Config, editor *LineEditor, sess *session, log *slog.Logger) *asyncREPL {
	conn := chessprotocol.NewConn(cfg.ConnOptions(log))
	poller := chessprotocol.NewPoller(conn, cfg.PollerOptions(log)...)
	a := &asyncREPL{
		poller:     poller,
		editor:     editor,
		sess:       sess,
		log:        log,
		interval:   cfg.Poller.Interval,
		drainWait:  cfg.Bridge.CommandTimeout,
		maxElapsed: cfg.Poller.ReconnectMaxElapsed,
	}
	a.demux = chessprotocol.NewDemux(nil, poller,
		chessprotocol.WithIntentTimeout(cfg.Bridge.CommandTimeout),
		chessprotocol.WithDemuxLogger(log))
	poller.RegisterListener(a.onPush)
	return a
}

// connect opens the first connection.
func (a *asyncREPL) connect(ctx context.Context) error {
	return a.poller.Conn().Connect(ctx)
}

// close releases the connection.
func (a *asyncREPL) close() {
	a.poller.Close()
}

func (a *asyncREPL) onPush(f chessprotocol.Frame) {
	a.sess.observe(f)
	a.editor.Notify(formatPush(f))
}

func (a *asyncREPL) status() string {
	text := connectionStatus(a.poller.Conn())
	if a.offline {
		text += ", gave up reconnecting"
	}
	text += fmt.Sprintf("\nOutbound queue: %d pending, %d dropped", a.poller.Pending(), a.poller.Dropped())
	if in, ok := a.demux.Pending(); ok {
		text += fmt.Sprintf("\nWaiting for reply to %s (%s)", in.Verb, time.Since(in.Started).Round(time.Millisecond))
	}
	return text
}

// GO CONCEPT: select Over Several Channels
// ----------------------------------------
// select blocks until one of its cases can proceed. Here it multiplexes
// three event sources onto one goroutine: typed lines, the poll ticker and
// cancellation. Because only this goroutine touches the poller, demux and
// session, none of them needs a mutex.

// run drives the loop until .quit, end of input or ctx cancellation.
func (a *asyncREPL) run(ctx context.Context) {
	prompts := make(chan string, 1)
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go a.readLines(prompts, lines, done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	prompts <- a.sess.prompt()
	for {
		select {
		case <-ctx.Done():
			return

		case line, ok := <-lines:
			if !ok {
				a.drain(ctx)
				fmt.Println()
				return
			}
			if quit := a.handleLine(ctx, line); quit {
				return
			}
			if _, waiting := a.demux.Pending(); waiting && !a.editor.IsInteractive() {
				a.holdPrompt = true
				continue
			}
			prompts <- a.sess.prompt()

		case <-ticker.C:
			a.tick(ctx)
			if _, waiting := a.demux.Pending(); a.holdPrompt && !waiting {
				a.holdPrompt = false
				prompts <- a.sess.prompt()
			}
		}
	}
}

// readLines reads one line per prompt received.
func (a *asyncREPL) readLines(prompts <-chan string, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	for {
		select {
		case <-done:
			return
		case p := <-prompts:
			line, err := a.editor.GetLine(p)
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}
}

// handleLine queues one command. It reports whether the user quit.
func (a *asyncREPL) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		switch handleDotCommand(line, a.sess, a.status) {
		case dotQuit:
			return true
		case dotReconnect:
			a.offline = false
			if err := a.reconnect(ctx); err != nil {
				printError(fmt.Sprintf("Reconnect failed: %v", err))
			}
		}
		return false
	}

	cmd, err := translateToProtocol(line, a.sess)
	if err == nil {
		err = cmd.Validate()
	}
	if err != nil {
		printError(err.Error())
		return false
	}
	if a.offline {
		printError("not connected; type .reconnect to try again")
		return false
	}

	verb := chessprotocol.CommandVerb(cmd.Format())
	a.poller.Send(cmd.Format())
	a.demux.Track(verb,
		func(f chessprotocol.Frame) {
			a.sess.observe(f)
			a.editor.Notify(formatReply(f))
		},
		func() {
			a.editor.Notify(fmt.Sprintf("Error: no reply to %s from server", verb))
		})
	return false
}

// tick runs one poll cycle.
func (a *asyncREPL) tick(ctx context.Context) {
	if a.offline {
		return
	}
	frames, err := a.poller.Poll(0)
	a.demux.Dispatch(frames)
	a.demux.Expire(time.Now())

	switch {
	case err == nil && a.poller.Stale():
		a.editor.Notify(pushMarker + "Garbled data from server, reconnecting...")
	case err == nil:
		return
	case errors.Is(err, chessprotocol.ErrConnectionClosed), errors.Is(err, chessprotocol.ErrNotConnected):
		a.editor.Notify(pushMarker + "Connection lost, reconnecting...")
	default:
		a.log.Warn("poll failed", "error", err)
		return
	}

	if err := a.reconnect(ctx); err != nil {
		a.offline = true
		a.editor.Notify(pushMarker + fmt.Sprintf("Could not reconnect (%v); type .reconnect to try again", err))
	}
}

// reconnect replaces the socket with exponential backoff, giving up after
// the configured elapsed time.
func (a *asyncREPL) reconnect(ctx context.Context) error {
	a.demux.Cancel()
	*a.sess = session{}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitialInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, a.poller.Reconnect(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(a.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.log.Warn("reconnect failed", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return err
	}
	a.offline = false
	a.editor.Notify(pushMarker + fmt.Sprintf("Reconnected to %s; log in again", a.poller.Conn().Addr()))
	return nil
}

// drain keeps polling after end of input until the last command has its
// reply and the queue is written, or drainWait passes.
func (a *asyncREPL) drain(ctx context.Context) {
	deadline := time.Now().Add(a.drainWait)
	for time.Now().Before(deadline) && ctx.Err() == nil && !a.offline {
		_, waiting := a.demux.Pending()
		if !waiting && a.poller.Pending() == 0 {
			return
		}
		frames, err := a.poller.Poll(a.interval)
		a.demux.Dispatch(frames)
		if err != nil {
			return
		}
	}
	a.demux.Expire(time.Now())
}

// runAsync connects and runs the async loop.
func runAsync(ctx context.Context, cfg *config.Config, editor *LineEditor, sess *session, log *slog.Logger) error {
	a := newAsyncREPL(cfg, editor, sess, log)
	if err := a.connect(ctx); err != nil {
		return err
	}
	defer a.close()

	if g := a.poller.Conn().Greeting(); g != "" {
		fmt.Println(g)
	}
	a.run(ctx)
	return nil
}
