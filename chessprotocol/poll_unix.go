//go:build unix

package chessprotocol

import (
	"errors"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// waitReady blocks for at most timeout until the socket is readable or,
// if wantWrite is set, writable. Hang-ups and socket errors count as
// readable so the following read observes them.
func waitReady(rc syscall.RawConn, wantWrite bool, timeout time.Duration) (readable, writable bool, err error) {
	events := int16(unix.POLLIN)
	if wantWrite {
		events |= unix.POLLOUT
	}
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	var revents int16
	var perr error
	cerr := rc.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		deadline := time.Now().Add(timeout)
		for {
			_, perr = unix.Poll(fds, ms)
			if !errors.Is(perr, unix.EINTR) {
				break
			}
			ms = int(time.Until(deadline) / time.Millisecond)
			if ms < 0 {
				ms = 0
			}
		}
		revents = fds[0].Revents
	})
	if cerr != nil {
		return false, false, cerr
	}
	if perr != nil {
		return false, false, perr
	}

	readable = revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
	writable = revents&unix.POLLOUT != 0
	return readable, writable, nil
}

// drainSocket reads and drops whatever the kernel holds for the socket
// without waiting. It stops at EOF so the next read still reports it.
func drainSocket(rc syscall.RawConn) int {
	total := 0
	buf := make([]byte, readChunkSize)
	_ = rc.Read(func(fd uintptr) bool {
		for {
			n, err := unix.Read(int(fd), buf)
			if n > 0 {
				total += n
			}
			if err != nil || n <= 0 {
				return true
			}
		}
	})
	return total
}
