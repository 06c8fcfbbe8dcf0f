package chessprotocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PushFunc receives a frame the server sent without being asked.
type PushFunc func(f Frame)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets how long a command waits for its reply.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithExpectations replaces the reply table.
func WithExpectations(t ExpectTable) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.expect = t
		}
	}
}

// WithPushHandler sets the callback for frames that arrive during an
// exchange but are not its reply.
func WithPushHandler(fn PushFunc) ClientOption {
	return func(c *Client) {
		c.onPush = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetryOnBroken controls the single reconnect-and-retry after a
// broken connection. A retried command may reach the server twice; callers
// that cannot tolerate that turn it off.
func WithRetryOnBroken(retry bool) ClientOption {
	return func(c *Client) {
		c.retry = retry
	}
}

// Client is the synchronous bridge: every call writes one command and
// blocks until its reply, a timeout or a connection failure.
//
// Thread Safety:
// A mutex keeps exactly one request in flight on the connection, so
// concurrent callers are served one after another. That serialization
// is what lets replies be matched by verb alone.
type Client struct {
	mu sync.Mutex

	conn    *Conn
	timeout time.Duration
	expect  ExpectTable
	onPush  PushFunc
	log     *slog.Logger
	retry   bool
}

// NewClient creates a synchronous client over conn. The connection is
// dialed lazily by the first command.
func NewClient(conn *Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:    conn,
		timeout: CommandTimeout,
		expect:  DefaultExpectations(),
		log:     slog.New(slog.DiscardHandler),
		retry:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conn returns the underlying connection.
func (c *Client) Conn() *Conn {
	return c.conn
}

// Connect dials the server unless already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureConnected(ctx)
}

// Disconnect closes the connection. A later command reconnects.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Send validates and sends a command.
func (c *Client) Send(ctx context.Context, cmd Command) (Frame, error) {
	if err := cmd.Validate(); err != nil {
		return Frame{}, err
	}
	return c.SendCommand(ctx, cmd.Format())
}

// SendCommand writes line and returns the first frame whose verb belongs
// to the command's reply set.
//
// An ERROR reply is returned together with an *ApplicationError. For a
// fire-and-forget command the zero Frame is returned once the line is
// written. A broken connection is reconnected and the command retried
// once; a timeout is returned as is and the connection stays open.
func (c *Client) SendCommand(ctx context.Context, line string) (Frame, error) {
	if _, err := encodeLine(line); err != nil {
		return Frame{}, err
	}
	verb := CommandVerb(line)

	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.log.With("request_id", uuid.NewString(), "verb", verb)

	f, err := c.exchange(ctx, line, verb, log)
	if err != nil && c.retry && isBroken(err) {
		log.Info("connection lost during exchange, reconnecting", "error", err)
		c.conn.Close()
		f, err = c.exchange(ctx, line, verb, log)
		if err != nil && errors.Is(err, ErrConnectionRefused) {
			err = NewConnectionError(ErrConnectionBroken, "reconnect", c.conn.Addr(), err)
		}
	}
	if err != nil && errors.Is(err, ErrConnectionClosed) && !errors.Is(err, ErrConnectionBroken) {
		err = NewConnectionError(ErrConnectionBroken, "read", c.conn.Addr(), err)
	}
	if err != nil {
		log.Debug("command failed", "error", err)
		return Frame{}, err
	}

	if f.IsError() {
		log.Debug("command refused", "message", f.ErrorMessage())
		return f, &ApplicationError{Command: verb, Message: f.ErrorMessage(), Frame: f}
	}
	if !f.IsZero() {
		log.Debug("reply received", "reply", f.Verb)
	}
	return f, nil
}

// exchange performs one write and the reads that follow it.
func (c *Client) exchange(ctx context.Context, line, verb string, log *slog.Logger) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if err := c.ensureConnected(ctx); err != nil {
		return Frame{}, err
	}

	// Anything left over from an earlier exchange would be taken for
	// this command's reply.
	c.conn.Discard()

	if err := c.conn.WriteFrame(line); err != nil {
		return Frame{}, err
	}
	log.Debug("command sent")

	if c.expect.FireAndForget(verb) {
		return Frame{}, nil
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	stop := context.AfterFunc(ctx, c.conn.Interrupt)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, c.contextError(err)
		}

		lines, rerr := c.conn.ReadFrames(deadline)
		if reply, ok := c.route(lines, verb, log); ok {
			return reply, nil
		}

		if rerr == nil {
			continue
		}
		switch {
		case errors.Is(rerr, ErrProtocol):
			// Only an over-long line reaches here; the stream cannot be
			// resynchronized.
			log.Warn("protocol error, closing connection", "error", rerr)
			c.conn.Close()
			return Frame{}, rerr
		case errors.Is(rerr, ErrTimeout):
			if err := ctx.Err(); err != nil {
				return Frame{}, c.contextError(err)
			}
			return Frame{}, rerr
		default:
			return Frame{}, rerr
		}
	}
}

// route looks for the reply among lines. Frames before the reply, and
// complete frames after it, go to the push handler.
func (c *Client) route(lines []string, verb string, log *slog.Logger) (Frame, bool) {
	var reply Frame
	found := false
	for _, l := range lines {
		f, err := ParseFrame(l)
		if err != nil {
			log.Warn("skipping malformed frame", "error", err)
			c.conn.markStale()
			continue
		}
		if !found && c.expect.Expects(verb, f.Verb) {
			reply, found = f, true
			continue
		}
		log.Debug("stray frame", "frame_verb", f.Verb)
		if c.onPush != nil {
			c.onPush(f)
		}
	}
	return reply, found
}

func (c *Client) ensureConnected(ctx context.Context) error {
	if c.conn.Stale() {
		c.log.Info("replacing stale connection")
		c.conn.Close()
	}
	if c.conn.IsConnected() {
		return nil
	}
	err := c.conn.Connect(ctx)
	if err == nil || errors.Is(err, ErrAlreadyConnected) {
		return nil
	}
	if !errors.Is(err, ErrConnectionRefused) {
		err = NewConnectionError(ErrConnectionRefused, "connect", c.conn.Addr(), err)
	}
	return err
}

func (c *Client) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewConnectionError(ErrTimeout, "read", c.conn.Addr(), err)
	}
	return fmt.Errorf("command canceled: %w", err)
}

func isBroken(err error) bool {
	return errors.Is(err, ErrConnectionBroken) || errors.Is(err, ErrConnectionClosed)
}

// =============================================================================
// Typed helpers
// =============================================================================

// Login authenticates and returns the account. LOGIN_FAIL is reported as
// an *ApplicationError.
func (c *Client) Login(ctx context.Context, username, password string) (LoginSuccess, error) {
	f, err := c.Send(ctx, NewLoginCommand(username, password))
	if err != nil {
		return LoginSuccess{}, err
	}
	if f.Verb == "LOGIN_FAIL" {
		msg := f.Rest(0)
		if msg == "" {
			msg = "login failed"
		}
		return LoginSuccess{}, &ApplicationError{Command: VerbLogin, Message: msg, Frame: f}
	}
	return ParseLoginSuccess(f)
}

// Register creates an account and returns its user id. REGISTER_ERROR is
// reported as an *ApplicationError.
func (c *Client) Register(ctx context.Context, username, password, email string) (int, error) {
	f, err := c.Send(ctx, NewRegisterCommand(username, password, email))
	if err != nil {
		return 0, err
	}
	if f.Verb == "REGISTER_ERROR" {
		return 0, &ApplicationError{Command: VerbRegister, Message: f.Rest(0), Frame: f}
	}
	return ParseRegisterOK(f)
}

// Move plays from→to in a match.
func (c *Client) Move(ctx context.Context, matchID, userID int, from, to string) (MoveSuccess, error) {
	f, err := c.Send(ctx, NewMoveCommand(matchID, userID, from, to))
	if err != nil {
		return MoveSuccess{}, err
	}
	return ParseMoveSuccess(f)
}

// Surrender resigns a match and returns the winner's id.
func (c *Client) Surrender(ctx context.Context, matchID, userID int) (int, error) {
	f, err := c.Send(ctx, NewSurrenderCommand(matchID, userID))
	if err != nil {
		return 0, err
	}
	return ParseSurrenderSuccess(f)
}

// JoinMatchmaking enters the matchmaking queue.
func (c *Client) JoinMatchmaking(ctx context.Context, userID, elo int, timeMode string) (MatchmakingResult, error) {
	return c.matchmaking(ctx, NewMatchmakingJoinCommand(userID, elo, timeMode))
}

// MatchmakingStatus polls the matchmaking queue.
func (c *Client) MatchmakingStatus(ctx context.Context, userID int) (MatchmakingResult, error) {
	return c.matchmaking(ctx, NewMatchmakingStatusCommand(userID))
}

// CancelMatchmaking leaves the matchmaking queue.
func (c *Client) CancelMatchmaking(ctx context.Context, userID int) (MatchmakingResult, error) {
	return c.matchmaking(ctx, NewMatchmakingCancelCommand(userID))
}

func (c *Client) matchmaking(ctx context.Context, cmd Command) (MatchmakingResult, error) {
	f, err := c.Send(ctx, cmd)
	if err != nil {
		return MatchmakingResult{}, err
	}
	return ParseMatchmakingResult(f)
}

// History returns the HISTORY frame for a user; its payload is either a
// count-prefixed row list or JSON (see DecodeJSONPayload).
func (c *Client) History(ctx context.Context, userID int) (Frame, error) {
	return c.Send(ctx, NewHistoryCommand(userID))
}

// Stats returns a user's record.
func (c *Client) Stats(ctx context.Context, userID int) (Stats, error) {
	f, err := c.Send(ctx, NewStatsCommand(userID))
	if err != nil {
		return Stats{}, err
	}
	return ParseStats(f)
}

// Leaderboard returns the top players.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	f, err := c.Send(ctx, NewLeaderboardCommand(limit))
	if err != nil {
		return nil, err
	}
	return ParseLeaderboard(f)
}
