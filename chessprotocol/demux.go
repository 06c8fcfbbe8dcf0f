package chessprotocol

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Route says where a frame goes.
type Route int

const (
	// RoutePush sends the frame to every listener.
	RoutePush Route = iota
	// RouteReply completes the pending intent.
	RouteReply
)

// String returns the route name.
func (r Route) String() string {
	if r == RouteReply {
		return "reply"
	}
	return "push"
}

// Broadcaster delivers a push frame to its listeners. *Poller implements it.
type Broadcaster interface {
	Broadcast(f Frame)
}

// Intent is a command waiting for its reply.
type Intent struct {
	ID        string // for logs only, never sent
	Verb      string
	Expect    []string
	AcceptAny bool // the verb has no table entry; the first frame is the reply
	Started   time.Time
	Deadline  time.Time

	onReply   func(Frame)
	onTimeout func()
}

// Accepts reports whether verb completes the intent.
func (in Intent) Accepts(verb string) bool {
	if in.AcceptAny {
		return true
	}
	for _, v := range in.Expect {
		if v == verb {
			return true
		}
	}
	return false
}

// DemuxOption configures a Demux.
type DemuxOption func(*Demux)

// WithIntentTimeout sets how long a tracked intent waits before Expire
// drops it.
func WithIntentTimeout(d time.Duration) DemuxOption {
	return func(dm *Demux) {
		if d > 0 {
			dm.timeout = d
		}
	}
}

// WithDemuxLogger sets the logger.
func WithDemuxLogger(l *slog.Logger) DemuxOption {
	return func(dm *Demux) {
		if l != nil {
			dm.log = l
		}
	}
}

// Demux splits the frames of an asynchronous connection into the reply to
// the single outstanding intent and pushes for the listeners.
//
// Demux is not safe for concurrent use; drive it from the poll loop.
type Demux struct {
	expect  ExpectTable
	pushes  Broadcaster
	timeout time.Duration
	log     *slog.Logger

	pending *Intent
}

// NewDemux creates a Demux. pushes may be nil, in which case push frames
// are dropped after logging.
func NewDemux(expect ExpectTable, pushes Broadcaster, opts ...DemuxOption) *Demux {
	if expect == nil {
		expect = DefaultExpectations()
	}
	d := &Demux{
		expect:  expect,
		pushes:  pushes,
		timeout: CommandTimeout,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Track registers the intent for a command that was just queued. A
// fire-and-forget verb is resolved immediately and nothing is tracked.
// Tracking while another intent is pending supersedes it; the older
// intent's onTimeout fires so its owner is not left waiting.
func (d *Demux) Track(verb string, onReply func(Frame), onTimeout func()) Intent {
	verb = strings.ToUpper(verb)
	now := time.Now()
	in := &Intent{
		ID:        uuid.NewString(),
		Verb:      verb,
		Started:   now,
		Deadline:  now.Add(d.timeout),
		onReply:   onReply,
		onTimeout: onTimeout,
	}

	if d.expect.FireAndForget(verb) {
		d.log.Debug("fire-and-forget command, not tracked", "verb", verb, "request_id", in.ID)
		return *in
	}

	if old := d.pending; old != nil {
		d.pending = nil
		d.log.Warn("intent superseded", "verb", old.Verb, "request_id", old.ID, "by", verb)
		if old.onTimeout != nil {
			old.onTimeout()
		}
	}

	replies, ok := d.expect.Lookup(verb)
	in.Expect = replies
	in.AcceptAny = !ok
	d.pending = in
	d.log.Debug("tracking intent", "verb", verb, "request_id", in.ID)
	return *in
}

// Pending returns the outstanding intent, if any.
func (d *Demux) Pending() (Intent, bool) {
	if d.pending == nil {
		return Intent{}, false
	}
	return *d.pending, true
}

// Classify decides where f goes without changing any state.
func (d *Demux) Classify(f Frame) Route {
	if d.pending != nil && d.pending.Accepts(f.Verb) {
		return RouteReply
	}
	return RoutePush
}

// Dispatch routes frames in order. A reply clears the intent and goes to
// its onReply only; every other frame is broadcast.
func (d *Demux) Dispatch(frames []Frame) {
	for _, f := range frames {
		if d.Classify(f) == RouteReply {
			in := d.pending
			d.pending = nil
			d.log.Debug("intent completed", "verb", in.Verb, "request_id", in.ID,
				"reply", f.Verb, "elapsed", time.Since(in.Started))
			if in.onReply != nil {
				in.onReply(f)
			}
			continue
		}

		if d.pushes == nil {
			d.log.Debug("push dropped, no broadcaster", "frame_verb", f.Verb)
			continue
		}
		d.pushes.Broadcast(f)
	}
}

// Expire drops the pending intent if its deadline is not after now and
// fires its onTimeout. It reports whether an intent expired.
func (d *Demux) Expire(now time.Time) bool {
	in := d.pending
	if in == nil || now.Before(in.Deadline) {
		return false
	}
	d.pending = nil
	d.log.Warn("intent timed out", "verb", in.Verb, "request_id", in.ID)
	if in.onTimeout != nil {
		in.onTimeout()
	}
	return true
}

// Cancel drops the pending intent without calling either callback, e.g.
// after a reconnect.
func (d *Demux) Cancel() {
	if d.pending != nil {
		d.log.Debug("intent canceled", "verb", d.pending.Verb, "request_id", d.pending.ID)
	}
	d.pending = nil
}
