package chessprotocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ListenerID identifies a registered push listener.
type ListenerID uint64

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithMaxQueue caps the outbound queue.
func WithMaxQueue(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxQueue = n
		}
	}
}

// WithPollerLogger sets the logger.
func WithPollerLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// maxReadsPerPoll bounds how many socket reads one Poll performs.
const maxReadsPerPoll = 16

// minIOSlice is the shortest deadline handed to a single read or write,
// so a zero-timeout Poll still moves bytes the socket is ready for.
const minIOSlice = time.Millisecond

type outbound struct {
	data []byte
	sent int
	verb string
}

type listener struct {
	id ListenerID
	fn PushFunc
}

// Poller is the asynchronous bridge. Send queues frames, Poll moves bytes
// in both directions without blocking longer than its timeout, and
// listeners receive the pushes that a Demux hands back through Broadcast.
//
// Poller is not safe for concurrent use; call every method from the
// goroutine that drives the poll loop.
type Poller struct {
	conn     *Conn
	log      *slog.Logger
	maxQueue int

	queue   []*outbound
	dropped int
	closed  bool

	listeners []listener
	nextID    ListenerID
}

// NewPoller creates a Poller over conn. The caller connects conn first.
func NewPoller(conn *Conn, opts ...PollerOption) *Poller {
	p := &Poller{
		conn:     conn,
		log:      slog.New(slog.DiscardHandler),
		maxQueue: MaxOutboundQueue,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Conn returns the underlying connection.
func (p *Poller) Conn() *Conn {
	return p.conn
}

// Send queues one frame for transmission and returns immediately. A line
// that cannot be framed is logged and dropped. When the queue is full the
// oldest frame that has not started transmitting is dropped.
func (p *Poller) Send(line string) {
	data, err := encodeLine(line)
	if err != nil {
		p.log.Warn("rejecting outbound frame", "error", err)
		return
	}
	if len(p.queue) >= p.maxQueue && !p.dropOldest() {
		p.dropped++
		p.log.Warn("outbound queue full, dropping new frame", "verb", CommandVerb(line), "dropped", p.dropped)
		return
	}
	p.queue = append(p.queue, &outbound{data: data, verb: CommandVerb(line)})
}

// dropOldest removes the oldest queued frame that has no bytes on the
// wire yet.
func (p *Poller) dropOldest() bool {
	for i, o := range p.queue {
		if o.sent > 0 {
			continue
		}
		p.queue = append(p.queue[:i], p.queue[i+1:]...)
		p.dropped++
		p.log.Warn("outbound queue full, dropped oldest frame", "verb", o.verb, "dropped", p.dropped)
		return true
	}
	return false
}

// Pending returns the number of queued frames not yet fully written.
func (p *Poller) Pending() int {
	return len(p.queue)
}

// Dropped returns how many frames backpressure has discarded.
func (p *Poller) Dropped() int {
	return p.dropped
}

// Closed reports whether the server closed the connection and Reconnect
// has not yet succeeded.
func (p *Poller) Closed() bool {
	return p.closed
}

// Poll waits at most timeout for the socket, flushes what the socket
// accepts and returns every complete inbound frame in arrival order.
//
// When the server closes the connection the frames completed so far are
// returned with an error matching ErrConnectionClosed, and every later
// Poll returns ErrConnectionClosed until Reconnect succeeds.
func (p *Poller) Poll(timeout time.Duration) ([]Frame, error) {
	if p.closed {
		return nil, ErrConnectionClosed
	}
	if timeout < 0 {
		timeout = 0
	}
	rc, err := p.conn.rawConn()
	if err != nil {
		return nil, ErrNotConnected
	}

	// Lines can complete without a socket read, e.g. pushes that arrived
	// in the same segment as the greeting.
	lines, berr := p.conn.bufferedFrames()
	frames := p.decode(lines)
	if berr != nil {
		p.protocolError(berr)
	}
	if len(frames) > 0 {
		timeout = 0
	}
	deadline := time.Now().Add(timeout)

	readable, writable, err := waitReady(rc, len(p.queue) > 0, timeout)
	if err != nil {
		return frames, p.lost("poll", err)
	}

	if writable {
		if err := p.flush(deadline); err != nil {
			return frames, p.lost("write", err)
		}
	}
	if !readable {
		return frames, nil
	}

	for i := 0; i < maxReadsPerPoll; i++ {
		lines, rerr := p.conn.ReadFrames(ioDeadline(deadline))
		frames = append(frames, p.decode(lines)...)

		if rerr != nil {
			switch {
			case errors.Is(rerr, ErrTimeout):
				return frames, nil
			case errors.Is(rerr, ErrProtocol):
				p.protocolError(rerr)
				return frames, nil
			default:
				return frames, p.lost("read", rerr)
			}
		}

		more, _, err := waitReady(rc, false, 0)
		if err != nil || !more {
			break
		}
	}
	return frames, nil
}

// flush writes queued frames until the queue is empty or the socket stops
// accepting bytes. A partially written head stays at the front.
func (p *Poller) flush(deadline time.Time) error {
	for len(p.queue) > 0 {
		head := p.queue[0]
		n, err := p.conn.writePartial(head.data[head.sent:], ioDeadline(deadline))
		head.sent += n
		if err != nil {
			return err
		}
		if head.sent < len(head.data) {
			return nil
		}
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.log.Debug("frame sent", "verb", head.verb)
	}
	return nil
}

func (p *Poller) decode(lines []string) []Frame {
	frames := make([]Frame, 0, len(lines))
	for _, l := range lines {
		f, err := ParseFrame(l)
		if err != nil {
			p.protocolError(err)
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// protocolError skips the offending input and flags the connection so
// the host loop replaces it.
func (p *Poller) protocolError(err error) {
	p.log.Warn("skipping malformed inbound data", "error", err)
	p.conn.markStale()
}

// Stale reports whether malformed or over-long input was seen since the
// last connect. The stream may be out of step with the server, so the
// caller should Reconnect.
func (p *Poller) Stale() bool {
	return p.conn.Stale()
}

// lost marks the connection closed and wraps err so it matches
// ErrConnectionClosed.
func (p *Poller) lost(op string, err error) error {
	p.closed = true
	p.conn.Close()
	p.log.Warn("connection lost", "op", op, "error", err)
	if errors.Is(err, ErrConnectionClosed) {
		return err
	}
	return NewConnectionError(ErrConnectionClosed, op, p.conn.Addr(), err)
}

// Reconnect replaces the socket and clears inbound and outbound state.
func (p *Poller) Reconnect(ctx context.Context) error {
	p.conn.Close()
	if n := len(p.queue); n > 0 {
		p.log.Info("discarding queued frames on reconnect", "frames", n)
	}
	p.queue = nil
	if err := p.conn.Connect(ctx); err != nil {
		p.closed = true
		return fmt.Errorf("reconnect: %w", err)
	}
	p.closed = false
	p.log.Info("reconnected", "generation", p.conn.Generation())
	return nil
}

// Close closes the connection and drops queued frames.
func (p *Poller) Close() error {
	p.queue = nil
	p.closed = true
	return p.conn.Close()
}

// RegisterListener adds fn to the push listeners.
func (p *Poller) RegisterListener(fn PushFunc) ListenerID {
	p.nextID++
	p.listeners = append(p.listeners, listener{id: p.nextID, fn: fn})
	return p.nextID
}

// UnregisterListener removes a listener. Unknown ids are ignored.
func (p *Poller) UnregisterListener(id ListenerID) {
	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Broadcast hands f to every listener in registration order. A listener
// that panics is logged and the remaining listeners still run.
func (p *Poller) Broadcast(f Frame) {
	// Listeners may unregister themselves while running.
	snapshot := p.listeners
	for _, l := range snapshot {
		p.deliver(l, f)
	}
}

func (p *Poller) deliver(l listener, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("push listener panicked", "listener", l.id, "frame_verb", f.Verb, "panic", r)
		}
	}()
	l.fn(f)
}

func ioDeadline(deadline time.Time) time.Time {
	if floor := time.Now().Add(minIOSlice); deadline.Before(floor) {
		return floor
	}
	return deadline
}
