// =============================================================================
// repl_test.go - Tests for the Sync and Async REPL Loops
// =============================================================================
//
// The REPL reads os.Stdin and writes os.Stdout, so these tests swap both
// for pipes, feed a script of lines and collect everything printed. Each
// test talks to a mockServer over loopback TCP.
//
// =============================================================================

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/config"
)

// =============================================================================
// Capture Helpers
// =============================================================================

// GO CONCEPT: Integration Testing with Pipes
// --------------------------------------------
// To test functions that read from os.Stdin and write to os.Stdout, we
// use os.Pipe() to create connected file descriptors. One end feeds
// input to the function under test, the other captures its output.
//
//   reader, writer, _ := os.Pipe()
//   os.Stdin = reader     // Function reads from this end
//   writer.Write(...)     // We write test input into this end

// captureOutput runs fn with stdin fed from input and returns everything
// fn wrote to stdout and stderr, interleaved as written.
//
// The LineEditor is created AFTER the redirect so its scanner reads the
// test pipe. The pipe is not a TTY, so the editor runs non-interactive,
// the same way the CLI behaves under "echo 'stats 7' | chessline".
func captureOutput(t *testing.T, input string, fn func(editor *LineEditor)) string {
	t.Helper()

	oldStdin, oldStdout, oldStderr := os.Stdin, os.Stdout, os.Stderr
	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdin pipe: %v", err)
	}
	outReader, outWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdin, os.Stdout, os.Stderr = stdinReader, outWriter, outWriter
	defer func() { os.Stdin, os.Stdout, os.Stderr = oldStdin, oldStdout, oldStderr }()

	// GO CONCEPT: sync.WaitGroup
	// ---------------------------
	// WaitGroup waits for a collection of goroutines to finish: Add before
	// launching, Done at the end of each goroutine, Wait to block.
	var wg sync.WaitGroup
	var output string

	wg.Add(1)
	go func() {
		defer wg.Done()
		var buf strings.Builder
		scanner := bufio.NewScanner(outReader)
		for scanner.Scan() {
			buf.WriteString(scanner.Text())
			buf.WriteString("\n")
		}
		output = buf.String()
	}()

	editor := NewLineEditor()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(editor)
		editor.Close()
		outWriter.Close()
	}()

	fmt.Fprint(stdinWriter, input)
	stdinWriter.Close()

	wg.Wait()
	outReader.Close()
	stdinReader.Close()
	return output
}

// captureREPL runs the synchronous REPL against a mock server.
func captureREPL(t *testing.T, ms *mockServer, input string) string {
	t.Helper()
	return captureREPLWithConfig(t, ms.config(), input)
}

func captureREPLWithConfig(t *testing.T, cfg *config.Config, input string) string {
	t.Helper()
	sess := &session{}
	client := newSyncClient(cfg, sess, slog.New(slog.DiscardHandler))
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to mock server: %v", err)
	}
	t.Cleanup(func() { client.Disconnect() })

	return captureOutput(t, input, func(editor *LineEditor) {
		runREPL(context.Background(), client, editor, sess)
	})
}

// captureAsync runs the async REPL against a mock server.
func captureAsync(t *testing.T, cfg *config.Config, input string) string {
	t.Helper()
	return captureOutput(t, input, func(editor *LineEditor) {
		if err := runAsync(context.Background(), cfg, editor, &session{}, slog.New(slog.DiscardHandler)); err != nil {
			t.Errorf("runAsync failed: %v", err)
		}
	})
}

// assertOrder checks that each of parts appears in output after the
// previous one.
func assertOrder(t *testing.T, output string, parts ...string) {
	t.Helper()
	rest := output
	for _, p := range parts {
		i := strings.Index(rest, p)
		if i < 0 {
			t.Errorf("expected %q (in order) in output, got:\n%s", p, output)
			return
		}
		rest = rest[i+len(p):]
	}
}

func assertCommands(t *testing.T, ms *mockServer, want ...string) {
	t.Helper()
	got := ms.commands()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("server received %q, want %q", got, want)
	}
}

// =============================================================================
// Sync REPL
// =============================================================================

// TestREPLQuitCommand verifies that .quit exits before later lines run.
func TestREPLQuitCommand(t *testing.T) {
	ms := startMockServer(t, nil)
	captureREPL(t, ms, ".quit\nlogin alice secret\n")
	assertCommands(t, ms)
}

// TestREPLEOFExits verifies that end of input ends the loop.
func TestREPLEOFExits(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "")
	if !strings.Contains(output, "chess> ") {
		t.Errorf("expected the initial prompt, got:\n%s", output)
	}
}

func TestREPLHelp(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, ".help\n.help move\n")
	assertOrder(t, output, "Local Commands:", "MOVE|<match>|<user>|<from>|<to>")
	assertCommands(t, ms)
}

// TestREPLLoginAndStats covers the typical first two commands: the login
// reply fills the session, and "stats" picks up the user id from it.
func TestREPLLoginAndStats(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice secret\nstats\n")

	assertOrder(t, output,
		"chess> ",
		"Logged in as alice (id 7, elo 1200)",
		"alice> ",
		"Games 10  W 6  L 3  D 1  Elo 1200",
	)
	assertCommands(t, ms, "LOGIN|alice|secret", "GET_STATS|7")
}

func TestREPLLoginFail(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice wrong\nstats\n")

	if !strings.Contains(output, "Failed: Invalid credentials") {
		t.Errorf("expected login failure, got:\n%s", output)
	}
	// Without a login "stats" has no user id and fails to parse locally.
	assertCommands(t, ms, "LOGIN|alice|wrong")
}

// TestREPLMatchmakingAndMove plays through matchmaking into a move. The
// mock sends a TIMER_UPDATE push ahead of the MOVE_SUCCESS reply.
func TestREPLMatchmakingAndMove(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice secret\nmm join\nmove e2 e4\n")

	assertOrder(t, output,
		"Matched! Match 5, you play white",
		"alice#5> ",
		"*** Clock  white 4:59  black 5:00",
		"Played e2e4",
	)
	assertCommands(t, ms, "LOGIN|alice|secret", "MMJOIN|7|1200|BLITZ", "MOVE|5|7|e2|e4")
}

// TestREPLResignEndsMatch verifies the GAME_END push clears the match so
// the prompt drops the match id.
func TestREPLResignEndsMatch(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice secret\nmm join\nresign\n")

	assertOrder(t, output,
		"*** Game over (surrender): 8 wins",
		"You resigned; winner is user 8",
	)
	if !strings.HasSuffix(strings.TrimSpace(output), "alice>") {
		t.Errorf("expected final prompt without match, got:\n%s", output)
	}
	assertCommands(t, ms, "LOGIN|alice|secret", "MMJOIN|7|1200|BLITZ", "SURRENDER|5|7")
}

func TestREPLBotGame(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice secret\nbot start\nmove e2 e4\n")

	assertOrder(t, output, "Match 11 ready", "alice#11> ", "Bot played e7e5")
	assertCommands(t, ms, "LOGIN|alice|secret", "MODE_BOT|7", "BOT_MOVE|11|e2e4")
}

// TestREPLServerErrorResponse verifies an ERROR reply prints as an error
// and the REPL keeps going on the same connection.
func TestREPLServerErrorResponse(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "FROBNICATE|1\nGET_STATS|7\n")

	assertOrder(t, output, "Error: Unknown command", "Games 10")
	if n := ms.acceptCount(); n != 1 {
		t.Errorf("expected 1 connection, got %d", n)
	}
}

// TestREPLParseErrorNotSent verifies malformed input never reaches the
// server.
func TestREPLParseErrorNotSent(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "move 5 7 e9 e4\nfrobnicate\n")

	if strings.Count(output, "Error:") != 2 {
		t.Errorf("expected two errors, got:\n%s", output)
	}
	assertCommands(t, ms)
}

// TestREPLFireAndForget verifies chat returns without waiting for a reply.
func TestREPLFireAndForget(t *testing.T) {
	ms := startMockServer(t, nil)
	cfg := ms.config()
	cfg.Bridge.CommandTimeout = 10 * time.Second

	start := time.Now()
	output := captureREPLWithConfig(t, cfg, "chat bob good luck\nGET_STATS|7\n")
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("chat waited for a reply (%v)", elapsed)
	}
	if !strings.Contains(output, "Games 10") {
		t.Errorf("expected stats after chat, got:\n%s", output)
	}
	assertCommands(t, ms, "CHAT|bob|good luck", "GET_STATS|7")
}

func TestREPLTimeout(t *testing.T) {
	ms := startMockServer(t, func(line string) []string { return nil })
	cfg := ms.config()
	cfg.Bridge.CommandTimeout = 100 * time.Millisecond

	output := captureREPLWithConfig(t, cfg, "GET_STATS|7\n")
	if !strings.Contains(output, "Error: no reply to GET_STATS from server") {
		t.Errorf("expected timeout error, got:\n%s", output)
	}
}

func TestREPLStatus(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, ".status\nlogin alice secret\n.status\n")

	assertOrder(t, output,
		"Not logged in",
		fmt.Sprintf("Connection: connected (127.0.0.1:%d)", ms.port()),
		"Logged in as alice (id 7, elo 1200)",
		"Connection: connected",
	)
	assertCommands(t, ms, "LOGIN|alice|secret")
}

// TestREPLReconnect verifies .reconnect opens a new connection and forgets
// the login.
func TestREPLReconnect(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "login alice secret\n.reconnect\nstats\n")

	assertOrder(t, output, "Reconnected to 127.0.0.1", "chess> ")
	if n := ms.acceptCount(); n != 2 {
		t.Errorf("expected 2 connections, got %d", n)
	}
	// "stats" without a session is not sent.
	assertCommands(t, ms, "LOGIN|alice|secret")
}

// TestREPLCaseInsensitiveDotCommands verifies .QUIT works like .quit.
func TestREPLCaseInsensitiveDotCommands(t *testing.T) {
	ms := startMockServer(t, nil)
	captureREPL(t, ms, ".HELP\n.QUIT\nGET_STATS|7\n")
	assertCommands(t, ms)
}

func TestREPLUnknownDotCommand(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, ".monitor\n")
	if !strings.Contains(output, "Unknown command: .monitor") {
		t.Errorf("expected unknown command error, got:\n%s", output)
	}
	assertCommands(t, ms)
}

// TestREPLWhitespaceOnlyInput verifies blank lines are ignored.
func TestREPLWhitespaceOnlyInput(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureREPL(t, ms, "\n   \n\t\n")
	if strings.Contains(output, "Error") {
		t.Errorf("blank lines should be ignored, got:\n%s", output)
	}
	assertCommands(t, ms)
}

// =============================================================================
// Async REPL
// =============================================================================

func TestAsyncLoginAndStats(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureAsync(t, ms.config(), "login alice secret\nstats\n")

	assertOrder(t, output,
		"Logged in as alice (id 7, elo 1200)",
		"alice> ",
		"Games 10  W 6  L 3  D 1  Elo 1200",
	)
	assertCommands(t, ms, "LOGIN|alice|secret", "GET_STATS|7")
}

// TestAsyncPushesAndReply verifies pushes print as notices and the reply
// completes the intent.
func TestAsyncPushesAndReply(t *testing.T) {
	ms := startMockServer(t, nil)
	output := captureAsync(t, ms.config(), "login alice secret\nmm join\nmove e2 e4\n")

	assertOrder(t, output,
		"Matched! Match 5, you play white",
		"alice#5> ",
		"*** Clock  white 4:59  black 5:00",
		"Played e2e4",
	)
}

func TestAsyncGreeting(t *testing.T) {
	ms := startMockServer(t, nil)
	ms.setGreeting("WELCOME|chess server")
	output := captureAsync(t, ms.config(), "")

	if !strings.Contains(output, "WELCOME|chess server") {
		t.Errorf("expected greeting, got:\n%s", output)
	}
}

func TestAsyncTimeout(t *testing.T) {
	ms := startMockServer(t, func(line string) []string { return nil })
	cfg := ms.config()
	cfg.Bridge.CommandTimeout = 100 * time.Millisecond

	output := captureAsync(t, cfg, "GET_STATS|7\n")
	if !strings.Contains(output, "Error: no reply to GET_STATS from server") {
		t.Errorf("expected timeout notice, got:\n%s", output)
	}
}

// TestAsyncFireAndForget verifies queued chat is flushed at end of input.
func TestAsyncFireAndForget(t *testing.T) {
	ms := startMockServer(t, nil)
	captureAsync(t, ms.config(), "chat bob hi\n")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(ms.commands()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assertCommands(t, ms, "CHAT|bob|hi")
}

func TestAsyncConnectFails(t *testing.T) {
	ms := startMockServer(t, nil)
	cfg := ms.config()
	ms.stop()

	a := newAsyncREPL(cfg, &LineEditor{out: &bytes.Buffer{}}, &session{}, slog.New(slog.DiscardHandler))
	if err := a.connect(context.Background()); err == nil {
		t.Error("expected connect to fail with the server stopped")
	}
}

// newTickTestREPL builds an async loop whose notices go to a buffer, for
// driving tick by hand.
func newTickTestREPL(t *testing.T, ms *mockServer) (*asyncREPL, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := newAsyncREPL(ms.config(), &LineEditor{out: &out}, &session{}, slog.New(slog.DiscardHandler))
	if err := a.connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(a.close)
	return a, &out
}

// tickUntil ticks until cond holds or a second passes.
func tickUntil(a *asyncREPL, cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		a.tick(context.Background())
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

// TestAsyncReconnectAfterDrop verifies a server-side close triggers a
// reconnect and clears the session.
func TestAsyncReconnectAfterDrop(t *testing.T) {
	ms := startMockServer(t, nil)
	a, out := newTickTestREPL(t, ms)

	a.handleLine(context.Background(), "login alice secret")
	if !tickUntil(a, a.sess.loggedIn) {
		t.Fatalf("login never completed, output:\n%s", out)
	}

	ms.dropConnections()
	if !tickUntil(a, func() bool { return ms.acceptCount() == 2 }) {
		t.Fatalf("expected a reconnect, output:\n%s", out)
	}
	assertOrder(t, out.String(), "Connection lost, reconnecting...", "Reconnected to 127.0.0.1")
	if a.sess.loggedIn() {
		t.Error("session should be cleared after reconnect")
	}
	if a.offline {
		t.Error("loop should be online after reconnect")
	}
}

// TestAsyncReconnectAfterGarbledFrame verifies an empty frame from the
// server replaces the connection even though the socket stays open.
func TestAsyncReconnectAfterGarbledFrame(t *testing.T) {
	ms := startMockServer(t, func(line string) []string {
		if strings.HasPrefix(line, "GET_LEADERBOARD") {
			return []string{""}
		}
		return defaultMockHandler(line)
	})
	a, out := newTickTestREPL(t, ms)

	a.handleLine(context.Background(), "leaderboard")
	if !tickUntil(a, func() bool { return ms.acceptCount() == 2 }) {
		t.Fatalf("expected a reconnect, output:\n%s", out)
	}
	assertOrder(t, out.String(), "Garbled data from server, reconnecting...", "Reconnected to 127.0.0.1")
	if a.offline {
		t.Error("loop should be online after reconnect")
	}
	if a.poller.Stale() {
		t.Error("new connection should not be stale")
	}
}

// TestAsyncGivesUp verifies the loop goes offline when the server stays
// away, and stops polling until .reconnect.
func TestAsyncGivesUp(t *testing.T) {
	ms := startMockServer(t, nil)
	a, out := newTickTestREPL(t, ms)
	a.maxElapsed = 300 * time.Millisecond

	ms.stop()
	if !tickUntil(a, func() bool { return a.offline }) {
		t.Fatalf("expected the loop to give up, output:\n%s", out)
	}
	if !strings.Contains(out.String(), "Could not reconnect") {
		t.Errorf("expected give-up notice, got:\n%s", out)
	}
	if !strings.Contains(a.status(), "gave up reconnecting") {
		t.Errorf("status should report offline, got %q", a.status())
	}
}

func TestAsyncStatus(t *testing.T) {
	ms := startMockServer(t, nil)
	a, _ := newTickTestREPL(t, ms)

	status := a.status()
	if !strings.Contains(status, "Outbound queue: 0 pending, 0 dropped") {
		t.Errorf("unexpected status %q", status)
	}

	a.handleLine(context.Background(), "GET_STATS|7")
	status = a.status()
	if !strings.Contains(status, "Outbound queue: 1 pending") || !strings.Contains(status, "Waiting for reply to GET_STATS") {
		t.Errorf("expected queued command in status, got %q", status)
	}
}

// TestAsyncInvalidLineNotQueued verifies parse errors never reach the
// poller.
func TestAsyncInvalidLineNotQueued(t *testing.T) {
	ms := startMockServer(t, nil)
	a, _ := newTickTestREPL(t, ms)

	captureOutput(t, "", func(*LineEditor) {
		a.handleLine(context.Background(), "move 1 2 z9 e4")
		a.handleLine(context.Background(), "login onlyuser")
	})
	if n := a.poller.Pending(); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}
	if _, ok := a.demux.Pending(); ok {
		t.Error("expected no pending intent")
	}
}

func TestAsyncQuit(t *testing.T) {
	ms := startMockServer(t, nil)
	a, _ := newTickTestREPL(t, ms)
	if !a.handleLine(context.Background(), ".quit") {
		t.Error(".quit should end the loop")
	}
	if a.handleLine(context.Background(), "   ") {
		t.Error("blank line should not end the loop")
	}
}
