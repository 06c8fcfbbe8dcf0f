// Package chessprotocol is a Go client for the chess server's newline
// framed, pipe delimited text protocol.
//
// # Protocol Overview
//
// Every message is one line: a verb optionally followed by fields, all
// separated by '|' and terminated by '\n'. The server answers commands with
// reply verbs, and independently pushes events such as an opponent's move
// or an incoming chat message. Frames carry no correlation id, so this
// package separates replies from pushes with a per-command table of
// acceptable reply verbs (see ExpectTable).
//
// # Synchronous Use
//
// Client serializes callers so that only one request is in flight on the
// connection at any time, which is what makes verb-set correlation sound:
//
//	conn := chessprotocol.NewConn(chessprotocol.Options{Host: "localhost", Port: 8888})
//	client := chessprotocol.NewClient(conn)
//	defer client.Disconnect()
//
//	login, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(login.UserID, login.Elo)
//
//	reply, err := client.Send(ctx, chessprotocol.NewMoveCommand(5, login.UserID, "e2", "e4"))
//	var appErr *chessprotocol.ApplicationError
//	if errors.As(err, &appErr) {
//	    fmt.Println("server refused:", appErr.Message)
//	}
//
// A reply with the ERROR verb is returned as an *ApplicationError next to
// the frame itself; the connection stays usable. Broken connections are
// reconnected and the command retried exactly once. Timeouts are never
// retried.
//
// # Asynchronous Use
//
// Poller never blocks longer than the timeout handed to Poll and is meant
// to be driven from a single goroutine at a fixed cadence. Pair it with a
// Demux to route each frame either to the intent waiting for it or to the
// registered listeners:
//
//	poller := chessprotocol.NewPoller(conn)
//	demux := chessprotocol.NewDemux(chessprotocol.DefaultExpectations(), poller)
//	poller.RegisterListener(func(f chessprotocol.Frame) {
//	    fmt.Println("push:", f.Raw)
//	})
//
//	poller.Send("GET_STATS|7")
//	demux.Track("GET_STATS", func(f chessprotocol.Frame) { fmt.Println("stats:", f.Rest(0)) }, nil)
//
//	for range time.Tick(chessprotocol.PollInterval) {
//	    frames, err := poller.Poll(10 * time.Millisecond)
//	    demux.Dispatch(frames)
//	    if errors.Is(err, chessprotocol.ErrConnectionClosed) {
//	        break
//	    }
//	    demux.Expire(time.Now())
//	}
//
// # Thread Safety
//
// Client and Conn are safe for concurrent use. Poller and Demux are not:
// all of their methods must be called from the goroutine that drives the
// poll loop.
package chessprotocol
