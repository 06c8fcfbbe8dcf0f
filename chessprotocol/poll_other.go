//go:build !unix

package chessprotocol

import (
	"syscall"
	"time"
)

// waitReady reports the socket as ready so the caller's deadline-bounded
// read does the waiting.
func waitReady(_ syscall.RawConn, wantWrite bool, _ time.Duration) (readable, writable bool, err error) {
	return true, wantWrite, nil
}

// drainSocket is a no-op without poll(2); stale bytes are dropped from the
// buffer only.
func drainSocket(syscall.RawConn) int {
	return 0
}
