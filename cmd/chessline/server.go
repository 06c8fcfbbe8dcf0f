// =============================================================================
// server.go - Chess Server Discovery and Launch
// =============================================================================
//
// With --launch the CLI starts the chess server itself when nothing is
// listening on the configured address. The server binary takes no
// arguments; it always listens on its compiled-in port, so the CLI simply
// starts it and dials until the port accepts connections.
//
// The server search order for the executable:
//   1. An absolute or relative path given in the configuration
//   2. Same directory as the CLI binary
//   3. PATH environment variable
//   4. Common locations: /usr/local/bin, ~/.local/bin, ./server-c
//
// When the CLI launches a server, it tracks the PID so it can send SIGTERM
// on exit. A server that was already running is left alone.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// serverStartTimeout is how long to wait for the server port to accept
	// connections after launching the server process.
	serverStartTimeout = 4 * time.Second

	// serverPollInterval is how often to dial the port during the wait.
	serverPollInterval = 100 * time.Millisecond
)

// serverListening reports whether something accepts TCP connections on addr.
func serverListening(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, serverPollInterval)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// launchServer starts the chess server binary and waits until addr accepts
// connections. Returns the server's PID.
//
// The server's output is discarded to keep the REPL readable.
func launchServer(binary, addr string) (pid int, err error) {
	exePath, err := findServerExecutable(binary)
	if err != nil {
		return 0, fmt.Errorf("could not find %s executable: %w", binary, err)
	}

	cmd := exec.Command(exePath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to launch %s: %w", exePath, err)
	}
	pid = cmd.Process.Pid

	// Reap the child when it exits so it never lingers as a zombie.
	go cmd.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), serverStartTimeout)
	defer cancel()
	if err := waitForPort(ctx, addr); err != nil {
		return pid, fmt.Errorf("%s started (PID: %d) but %s never opened: %w", binary, pid, addr, err)
	}
	return pid, nil
}

// findServerExecutable searches for the server binary. A name containing a
// path separator is used as given.
func findServerExecutable(binary string) (string, error) {
	if strings.ContainsRune(binary, filepath.Separator) {
		if isExecutable(binary) {
			return binary, nil
		}
		return "", fmt.Errorf("%s is not an executable file", binary)
	}

	if selfPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(selfPath), binary)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(binary); err == nil {
		return path, nil
	}

	commonPaths := []string{
		"/usr/local/bin",
		filepath.Join(homeDir(), ".local", "bin"),
		"server-c",
	}
	for _, dir := range commonPaths {
		candidate := filepath.Join(dir, binary)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH or common locations", binary)
}

// waitForPort dials addr until it accepts a connection or ctx ends.
func waitForPort(ctx context.Context, addr string) error {
	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()

	for {
		if serverListening(addr) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s: %w", addr, ctx.Err())
		case <-ticker.C:
		}
	}
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode().Perm()&0111 != 0
}

// homeDir returns the current user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
