// =============================================================================
// translate.go - REPL Input to Protocol Commands
// =============================================================================
//
// The chessprotocol.CommandParser understands the full command forms, which
// spell out every id: "move 5 7 e2 e4". This file adds the shorthand forms a
// player actually types once logged in and inside a match:
//
//	move e2 e4              → move <match> <user> e2 e4
//	resign                  → surrender <match> <user>
//	draw accept             → draw accept <match> <user>
//	mm join                 → mm join <user> <elo> BLITZ
//	stats                   → stats <user>
//	gchat good game         → gchat <match> good game
//
// Shorthand is expanded into the full form and handed to the parser, so
// validation (squares, ids) lives in one place. Anything that is not a
// recognised shorthand goes to the parser unchanged, including raw wire
// frames such as "GET_STATS|7".
//
// =============================================================================

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
)

// defaultTimeMode is the matchmaking pool used by "mm join" without a mode.
const defaultTimeMode = "BLITZ"

var commandParser = chessprotocol.NewCommandParser()

// translateToProtocol converts one REPL line into a protocol command,
// filling in ids from the session where the user left them out.
func translateToProtocol(line string, s *session) (chessprotocol.Command, error) {
	trimmed := strings.TrimSpace(line)
	if expanded, ok := expandShorthand(trimmed, s); ok {
		return commandParser.Parse(expanded)
	}
	return commandParser.Parse(trimmed)
}

// expandShorthand returns the full form of a shorthand command. ok is false
// when line is not shorthand or the session lacks the ids it needs.
//
// GO CONCEPT: Multiple Return Values ("comma ok")
// -----------------------------------------------
// Returning (value, ok) instead of a sentinel like "" keeps "no expansion"
// distinct from "expanded to the empty string". The same idiom is used by
// map lookups (v, ok := m[k]) and type assertions (v, ok := x.(T)).
func expandShorthand(line string, s *session) (string, bool) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", false
	}
	keyword := strings.ToLower(words[0])
	args := words[1:]

	switch keyword {
	case "logout", "stats", "history", "elo":
		if len(args) == 0 && s.loggedIn() {
			return join(keyword, s.userID), true
		}

	case "status":
		if len(args) == 0 && s.inMatch() {
			return join(keyword, s.matchID), true
		}

	case "move", "mv":
		if !s.loggedIn() || !s.inMatch() || len(args) < 1 || len(args) > 2 || isNumber(args[0]) {
			return "", false
		}
		if s.vsBot {
			return join("bot move", s.matchID, strings.Join(args, "")), true
		}
		return join(keyword, s.matchID, s.userID, strings.Join(args, " ")), true

	case "surrender", "resign", "pause", "resume":
		if len(args) == 0 && s.loggedIn() && s.inMatch() {
			return join(keyword, s.matchID, s.userID), true
		}

	case "draw", "rematch":
		if !s.loggedIn() || !s.inMatch() {
			return "", false
		}
		switch {
		case len(args) == 0:
			return join(keyword, s.matchID, s.userID), true
		case len(args) == 1 && !isNumber(args[0]):
			return join(keyword, args[0], s.matchID, s.userID), true
		}

	case "friend":
		if !s.loggedIn() || len(args) == 0 {
			return "", false
		}
		sub := strings.ToLower(args[0])
		switch sub {
		case "list", "requests", "pending":
			if len(args) == 1 {
				return join(keyword, sub, s.userID), true
			}
		case "add", "request", "accept", "decline":
			if len(args) == 2 {
				return join(keyword, sub, s.userID, args[1]), true
			}
		}

	case "mm", "matchmaking":
		if !s.loggedIn() || len(args) == 0 {
			return "", false
		}
		sub := strings.ToLower(args[0])
		switch sub {
		case "join":
			switch {
			case len(args) == 1:
				return join(keyword, sub, s.userID, s.elo, defaultTimeMode), true
			case len(args) == 2 && !isNumber(args[1]):
				return join(keyword, sub, s.userID, s.elo, strings.ToUpper(args[1])), true
			}
		case "status", "cancel", "leave":
			if len(args) == 1 {
				return join(keyword, sub, s.userID), true
			}
		}

	case "bot":
		if !s.loggedIn() || len(args) == 0 {
			return "", false
		}
		sub := strings.ToLower(args[0])
		switch sub {
		case "start", "new":
			if len(args) == 1 || (len(args) == 2 && !isNumber(args[1])) {
				return join("bot", sub, s.userID, strings.Join(args[1:], " ")), true
			}
		case "move":
			if s.inMatch() && len(args) == 2 && !isNumber(args[1]) {
				return join("bot", sub, s.matchID, args[1]), true
			}
		}

	case "gchat", "gamechat":
		if s.inMatch() && len(args) > 0 && !isNumber(args[0]) {
			return join(keyword, s.matchID, afterWords(line, 1)), true
		}
	}
	return "", false
}

// join renders parts separated by single spaces, skipping empty strings.
func join(parts ...any) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := fmt.Sprint(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// afterWords returns line with its first n words removed, keeping the
// spacing of the rest.
func afterWords(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = strings.TrimLeft(rest[idx:], " \t")
	}
	return rest
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
