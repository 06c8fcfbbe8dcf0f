// =============================================================================
// session.go - Who Is Logged In and Which Match Is Active
// =============================================================================
//
// The server identifies players and matches by numeric id in every command.
// Typing "move 5 7 e2 e4" gets old quickly, so the REPL remembers the ids
// the server handed out and lets the user type "move e2 e4" instead.
//
// The session learns from frames only: LOGIN_SUCCESS sets the user, the
// match-creating replies (and MATCHED from matchmaking) set the match, and
// GAME_END / LOGOUT_SUCCESS clear what they end.
//
// =============================================================================

package main

import (
	"fmt"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
)

// session holds the ids the REPL fills into shorthand commands.
//
// GO CONCEPT: Zero Values as a Valid State
// ----------------------------------------
// A zero session (userID 0, matchID 0) means "not logged in, no match".
// The server never hands out id 0, so no separate "valid" flag is needed.
type session struct {
	userID   int
	username string
	elo      int

	matchID int
	color   string
	vsBot   bool
}

// loggedIn reports whether LOGIN_SUCCESS has been seen.
func (s *session) loggedIn() bool {
	return s.userID > 0
}

// inMatch reports whether a match is active.
func (s *session) inMatch() bool {
	return s.matchID > 0
}

// prompt shows the user and match so the player always knows which ids
// shorthand commands will use.
func (s *session) prompt() string {
	switch {
	case !s.loggedIn():
		return "chess> "
	case s.inMatch():
		return fmt.Sprintf("%s#%d> ", s.username, s.matchID)
	default:
		return s.username + "> "
	}
}

// observe updates the session from a reply or push.
func (s *session) observe(f chessprotocol.Frame) {
	switch f.Verb {
	case "LOGIN_SUCCESS":
		if ls, err := chessprotocol.ParseLoginSuccess(f); err == nil {
			s.userID, s.username, s.elo = ls.UserID, ls.Username, ls.Elo
		}
	case "LOGOUT_SUCCESS":
		*s = session{}
	case "MATCH_CREATED", "MATCH_JOINED", "REMATCH_START":
		if info, err := chessprotocol.ParseMatchInfo(f); err == nil {
			s.matchID, s.vsBot = info.MatchID, false
			if f.Verb == "REMATCH_START" {
				s.color = info.Detail
			}
		}
	case "BOT_MATCH_CREATED":
		if info, err := chessprotocol.ParseMatchInfo(f); err == nil {
			s.matchID, s.vsBot, s.color = info.MatchID, true, "white"
		}
	case "MATCHED":
		if mm, err := chessprotocol.ParseMatchmakingResult(f); err == nil && mm.Matched() {
			s.matchID, s.color, s.vsBot = mm.MatchID, mm.Color, false
		}
	case "GAME_END", "BOT_GAME_END":
		s.matchID, s.color, s.vsBot = 0, "", false
	}
}

// describe is the text of .status.
func (s *session) describe() string {
	if !s.loggedIn() {
		return "Not logged in"
	}
	text := fmt.Sprintf("Logged in as %s (id %d, elo %d)", s.username, s.userID, s.elo)
	if s.inMatch() {
		text += fmt.Sprintf("\nActive match: %d", s.matchID)
		if s.vsBot {
			text += " (vs bot)"
		}
		if s.color != "" {
			text += ", playing " + s.color
		}
	}
	return text
}
