package chessprotocol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"time"
)

// ConnState is the lifecycle state of a Conn.
type ConnState int

const (
	// StateDisconnected means no socket is open.
	StateDisconnected ConnState = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateConnected means the socket is open and usable.
	StateConnected
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Options configure a Conn. Zero values fall back to the package defaults.
type Options struct {
	Host string
	Port int

	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// GreetingWait bounds how long Connect waits for the server greeting.
	// A negative value skips the greeting read.
	GreetingWait time.Duration

	MaxLineLength int
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = ConnectionTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = CommandTimeout
	}
	if o.GreetingWait == 0 {
		o.GreetingWait = GreetingWait
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = MaxLineLength
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Conn owns one TCP connection to the chess server and the buffer of
// bytes read from it.
//
// Every Connect creates a fresh socket and bumps a generation counter.
// A read that was in flight when the socket was replaced has its bytes
// dropped, so nothing from an old socket is ever seen on a new one.
//
// Thread Safety:
// Conn guards its state with a mutex. Reads and writes run outside the
// lock so that Close and Interrupt can reach a blocked socket.
type Conn struct {
	opts Options
	addr string
	log  *slog.Logger

	mu       sync.Mutex
	nc       net.Conn
	state    ConnState
	gen      uint64
	buf      *lineBuffer
	greeting string
	stale    bool
}

// NewConn creates a disconnected Conn.
func NewConn(opts Options) *Conn {
	opts = opts.withDefaults()
	return &Conn{
		opts: opts,
		addr: Address(opts.Host, opts.Port),
		log:  opts.Logger.With("addr", Address(opts.Host, opts.Port)),
		buf:  newLineBuffer(opts.MaxLineLength),
	}
}

// Addr returns the host:port this Conn dials.
func (c *Conn) Addr() string {
	return c.addr
}

// State returns the current connection state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected returns true if the socket is open.
func (c *Conn) IsConnected() bool {
	return c.State() == StateConnected
}

// Greeting returns the greeting line consumed by the last Connect, or ""
// if the server sent none.
func (c *Conn) Greeting() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.greeting
}

// Generation returns a counter that increases with every successful
// Connect.
func (c *Conn) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Connect dials the server. A refused dial returns an error matching
// ErrConnectionRefused, a dial that exceeds ConnectTimeout one matching
// ErrTimeout; in both cases the Conn stays disconnected.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return ErrAlreadyConnected
	case StateConnecting:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.opts.ConnectTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()

		kind := ErrConnectionRefused
		if isTimeout(err) {
			kind = ErrTimeout
		}
		c.log.Debug("connect failed", "error", err)
		return NewConnectionError(kind, "connect", c.addr, err)
	}

	c.mu.Lock()
	c.nc = nc
	c.gen++
	c.buf.Reset()
	c.greeting = ""
	c.stale = false
	c.state = StateConnected
	gen := c.gen
	c.mu.Unlock()

	c.log.Info("connected", "generation", gen)

	if c.opts.GreetingWait > 0 {
		if err := c.consumeGreeting(); err != nil {
			c.Close()
			return err
		}
	}
	return nil
}

// consumeGreeting reads for at most GreetingWait and swallows a first
// line carrying the greeting verb. Other complete lines stay buffered.
func (c *Conn) consumeGreeting() error {
	lines, err := c.readOnce(time.Now().Add(c.opts.GreetingWait))
	if err != nil && !errors.Is(err, ErrTimeout) {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	f, perr := ParseFrame(lines[0])
	if perr != nil || f.Verb != GreetingVerb {
		c.requeue(lines)
		return nil
	}

	c.mu.Lock()
	c.greeting = f.Raw
	c.mu.Unlock()
	c.requeue(lines[1:])
	c.log.Debug("greeting consumed", "greeting", f.Raw)
	return nil
}

// requeue puts lines that Connect read back in front of the buffer.
func (c *Conn) requeue(lines []string) {
	if len(lines) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var head []byte
	for _, l := range lines {
		head = append(head, l...)
		head = append(head, FrameTerminator)
	}
	c.buf.buf = append(head, c.buf.buf...)
}

// Close closes the socket and drops every buffered byte. It is safe to
// call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	nc := c.nc
	c.nc = nil
	c.buf.Reset()
	wasConnected := c.state != StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if nc == nil {
		return nil
	}
	if wasConnected {
		c.log.Info("connection closed")
	}
	if err := nc.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// ReadFrames performs one read bounded by deadline and returns every
// complete line in the buffer. A partial trailing line stays buffered.
//
// Errors match ErrConnectionClosed on EOF, ErrConnectionBroken on reset,
// ErrTimeout when the deadline passes and ErrLineTooLong when a line
// outgrows the limit. Lines completed before the error are still returned.
func (c *Conn) ReadFrames(deadline time.Time) ([]string, error) {
	return c.readOnce(deadline)
}

func (c *Conn) readOnce(deadline time.Time) ([]string, error) {
	c.mu.Lock()
	nc, gen := c.nc, c.gen
	if nc == nil || c.state != StateConnected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	// Lines already complete in the buffer are returned without a read.
	if lines, err := c.buf.Append(nil); len(lines) > 0 || err != nil {
		c.mu.Unlock()
		return lines, err
	}
	c.mu.Unlock()

	if err := nc.SetReadDeadline(deadline); err != nil {
		return nil, c.fail("read", gen, err)
	}

	chunk := make([]byte, readChunkSize)
	n, rerr := nc.Read(chunk)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("dropped bytes from replaced socket", "bytes", n)
		return nil, NewConnectionError(ErrConnectionBroken, "read", c.addr, net.ErrClosed)
	}
	var lines []string
	var lerr error
	if n > 0 {
		lines, lerr = c.buf.Append(chunk[:n])
	}
	c.mu.Unlock()

	if lerr != nil {
		return lines, lerr
	}
	if rerr != nil {
		return lines, c.fail("read", gen, rerr)
	}
	return lines, nil
}

// WriteFrame writes one line, appending the terminator if absent. It
// never reconnects; a failed write returns an error matching
// ErrConnectionBroken and leaves the Conn disconnected.
func (c *Conn) WriteFrame(line string) error {
	data, err := encodeLine(line)
	if err != nil {
		return err
	}

	c.mu.Lock()
	nc, gen := c.nc, c.gen
	connected := c.state == StateConnected
	c.mu.Unlock()
	if nc == nil || !connected {
		return ErrNotConnected
	}

	if err := nc.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return c.fail("write", gen, err)
	}
	if _, err := nc.Write(data); err != nil {
		return c.fail("write", gen, err)
	}
	return nil
}

// writePartial writes as much of p as the socket accepts before deadline
// and reports how many bytes went out. A deadline is not an error.
func (c *Conn) writePartial(p []byte, deadline time.Time) (int, error) {
	c.mu.Lock()
	nc, gen := c.nc, c.gen
	c.mu.Unlock()
	if nc == nil {
		return 0, ErrNotConnected
	}

	if err := nc.SetWriteDeadline(deadline); err != nil {
		return 0, c.fail("write", gen, err)
	}
	n, err := nc.Write(p)
	if err != nil && isTimeout(err) {
		return n, nil
	}
	if err != nil {
		return n, c.fail("write", gen, err)
	}
	return n, nil
}

// Discard drops every buffered byte and whatever the kernel already holds
// for this socket, without blocking. It returns the number of bytes
// dropped.
func (c *Conn) Discard() int {
	c.mu.Lock()
	n := c.buf.Reset()
	nc := c.nc
	c.mu.Unlock()

	if nc != nil {
		// A deadline in the past would make the raw read refuse to run.
		_ = nc.SetReadDeadline(time.Time{})
		if sc, ok := nc.(syscall.Conn); ok {
			if rc, err := sc.SyscallConn(); err == nil {
				n += drainSocket(rc)
			}
		}
	}
	if n > 0 {
		c.log.Debug("discarded stale bytes", "bytes", n)
	}
	return n
}

// Interrupt makes a read blocked in ReadFrames return immediately with a
// timeout.
func (c *Conn) Interrupt() {
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if nc != nil {
		_ = nc.SetReadDeadline(time.Unix(1, 0))
	}
}

// bufferedFrames returns the complete lines already held in the buffer
// without touching the socket.
func (c *Conn) bufferedFrames() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil, nil
	}
	return c.buf.Append(nil)
}

// markStale flags the socket for replacement before the next exchange.
func (c *Conn) markStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Stale reports whether the socket was flagged for replacement.
func (c *Conn) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// rawConn exposes the socket for readiness polling.
func (c *Conn) rawConn() (syscall.RawConn, error) {
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if nc == nil {
		return nil, ErrNotConnected
	}
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return nil, errors.New("connection does not expose a file descriptor")
	}
	return sc.SyscallConn()
}

// fail classifies an I/O error. Anything but a timeout tears the socket
// down, as long as it is still the socket the error came from.
func (c *Conn) fail(op string, gen uint64, err error) error {
	kind := classify(err)
	if kind != ErrTimeout {
		c.mu.Lock()
		same := gen == c.gen
		c.mu.Unlock()
		if same {
			c.log.Warn("connection lost", "op", op, "error", err)
			c.Close()
		}
	}
	return NewConnectionError(kind, op, c.addr, err)
}

// classify maps a socket error onto the sentinel taxonomy.
func classify(err error) error {
	switch {
	case isTimeout(err):
		return ErrTimeout
	case errors.Is(err, io.EOF):
		return ErrConnectionClosed
	default:
		// EPIPE, ECONNRESET, ECONNABORTED, use of a closed socket.
		return ErrConnectionBroken
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
