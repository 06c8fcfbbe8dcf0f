package chessprotocol

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serverConn is the server side of one accepted connection.
type serverConn struct {
	net.Conn
	r *bufio.Reader
}

// ReadLine returns the next line the client sent, without its terminator.
func (c *serverConn) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// Send writes each line followed by a newline in a single write.
func (c *serverConn) Send(lines ...string) {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	c.Write([]byte(b.String()))
}

// fakeServer is a scripted chess server on 127.0.0.1. handle runs once per
// accepted connection; n is the 1-based accept count.
type fakeServer struct {
	ln       net.Listener
	accepted atomic.Int32

	mu       sync.Mutex
	received []string
	conns    []net.Conn
}

func startFakeServer(t *testing.T, handle func(n int, c *serverConn)) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			n := int(s.accepted.Add(1))
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.mu.Unlock()

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()
				handle(n, &serverConn{Conn: conn, r: bufio.NewReader(conn)})
			}()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		wg.Wait()
	})
	return s
}

// Port returns the listening port.
func (s *fakeServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Options returns Conn options pointing at the server with the greeting
// read disabled.
func (s *fakeServer) Options() Options {
	return Options{
		Host:           "127.0.0.1",
		Port:           s.Port(),
		ConnectTimeout: time.Second,
		GreetingWait:   -1,
	}
}

// Accepted returns how many connections the server accepted.
func (s *fakeServer) Accepted() int {
	return int(s.accepted.Load())
}

func (s *fakeServer) record(line string) {
	s.mu.Lock()
	s.received = append(s.received, line)
	s.mu.Unlock()
}

// Received returns every line recorded by a responder handler.
func (s *fakeServer) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// responder returns a handler that answers each command verb with the
// scripted lines. Verbs without a script get no answer.
func (s *fakeServer) responder(script map[string][]string) func(int, *serverConn) {
	return func(_ int, c *serverConn) {
		for {
			line, err := c.ReadLine()
			if err != nil {
				return
			}
			s.record(line)
			if reply, ok := script[CommandVerb(line)]; ok && len(reply) > 0 {
				c.Send(reply...)
			}
		}
	}
}

// startResponder starts a fake server that answers from script.
func startResponder(t *testing.T, script map[string][]string) *fakeServer {
	t.Helper()
	var s *fakeServer
	ready := make(chan struct{})
	s = startFakeServer(t, func(n int, c *serverConn) {
		<-ready
		s.responder(script)(n, c)
	})
	close(ready)
	return s
}

// freePort returns a port with no listener behind it.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
