// =============================================================================
// mockserver_test.go - Mock Chess Server for Testing
// =============================================================================
//
// GO CONCEPT: Test Helpers (Shared Test Infrastructure)
// -----------------------------------------------------
// Go test files (*_test.go) are ONLY compiled during testing. They can
// define helper types and functions used across multiple test files in the
// same package. This file provides a mock chess server that listens on a
// loopback TCP port and speaks the pipe-delimited protocol, so the CLI can
// be tested without the real server or its database.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/config"
)

// mockServer is a lightweight mock of the chess server.
//
// Each received line is passed to handler, which returns the lines to send
// back: pushes first, then the reply, or nothing for fire-and-forget
// commands.
type mockServer struct {
	listener net.Listener
	handler  func(line string) []string

	mu sync.Mutex
	// greeting, when set, is sent to every new connection.
	greeting    string
	connections []net.Conn
	received    []string
	accepted    int

	wg sync.WaitGroup
}

// startMockServer creates and starts a mock server on 127.0.0.1 with a
// kernel-chosen port. The server is stopped when the test finishes.
//
// If handler is nil, defaultMockHandler is used.
func startMockServer(t *testing.T, handler func(line string) []string) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock server listener: %v", err)
	}
	if handler == nil {
		handler = defaultMockHandler
	}

	ms := &mockServer{
		listener: listener,
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(func() {
		ms.stop()
	})
	return ms
}

// port returns the port the server listens on.
func (ms *mockServer) port() int {
	return ms.listener.Addr().(*net.TCPAddr).Port
}

// config returns settings that point at the mock server with short
// timeouts suited to tests.
func (ms *mockServer) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ms.port()
	cfg.Bridge.ReadTimeout = -1
	cfg.Bridge.CommandTimeout = 2 * time.Second
	cfg.Poller.Interval = 5 * time.Millisecond
	cfg.Poller.ReconnectMaxElapsed = time.Second
	if ms.greetingLine() != "" {
		cfg.Bridge.ReadTimeout = 200 * time.Millisecond
	}
	return cfg
}

// setGreeting makes the server greet every later connection with line.
func (ms *mockServer) setGreeting(line string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.greeting = line
}

func (ms *mockServer) greetingLine() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.greeting
}

// commands returns every line the server received, in order.
func (ms *mockServer) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

// acceptCount returns how many connections the server accepted.
func (ms *mockServer) acceptCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.accepted
}

// dropConnections closes every open client connection, simulating a
// server restart without closing the listener.
func (ms *mockServer) dropConnections() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
}

// acceptLoop runs in a goroutine, accepting and handling client connections.
func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()

	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			// Listener was closed (normal shutdown).
			return
		}

		ms.mu.Lock()
		ms.connections = append(ms.connections, conn)
		ms.accepted++
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

// handleConnection reads frames from a client and writes the handler's
// responses.
func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()

	if g := ms.greetingLine(); g != "" {
		fmt.Fprintf(conn, "%s\n", g)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()

		ms.mu.Lock()
		ms.received = append(ms.received, line)
		ms.mu.Unlock()

		for _, out := range ms.handler(line) {
			if _, err := fmt.Fprintf(conn, "%s\n", out); err != nil {
				return
			}
		}
	}
}

// stop shuts the mock server down and waits for its goroutines.
func (ms *mockServer) stop() {
	ms.listener.Close()
	ms.dropConnections()
	ms.wg.Wait()
}

// defaultMockHandler answers like a small chess server with one user,
// alice (id 7, password "secret"), and one opponent, bob (id 8).
func defaultMockHandler(line string) []string {
	parts := strings.Split(line, "|")
	switch parts[0] {
	case "LOGIN":
		if len(parts) == 3 && parts[1] == "alice" && parts[2] == "secret" {
			return []string{"LOGIN_SUCCESS|7|alice|1200"}
		}
		return []string{"LOGIN_FAIL|Invalid credentials"}
	case "REGISTER":
		return []string{"REGISTER_OK|9"}
	case "LOGOUT":
		return []string{"LOGOUT_SUCCESS"}
	case "GET_STATS":
		return []string{"STATS|10|6|3|1|1200"}
	case "GET_LEADERBOARD":
		return []string{"LEADERBOARD|2|1|8|bob|1500|20|2|0|2|7|alice|1200|6|3|1"}
	case "MMJOIN":
		return []string{"MATCHED 5 7 8 white"}
	case "MMCANCEL":
		return []string{"NOTFOUND"}
	case "MODE_BOT":
		return []string{"BOT_MATCH_CREATED|11|rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}
	case "BOT_MOVE":
		return []string{"BOT_MOVE_RESULT|fen1|e7e5|fen2|ongoing"}
	case "MOVE":
		// The opponent's clock tick arrives before the reply.
		return []string{"TIMER_UPDATE|299000|300000", "MOVE_SUCCESS|e2e4|fen-after"}
	case "SURRENDER":
		return []string{"GAME_END|surrender|winner:8", "SURRENDER_SUCCESS|8"}
	case "GET_MATCH_STATUS":
		return []string{"MATCH_STATUS|5|ongoing"}
	case "CHAT", "GAME_CHAT":
		return nil
	default:
		return []string{"ERROR|Unknown command"}
	}
}
