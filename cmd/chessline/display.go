// =============================================================================
// display.go - Rendering Server Frames for the Terminal
// =============================================================================
//
// Replies are shown one per command. Pushes (opponent moves, timers, chat)
// are shown as "*** " notices so they stand out from the reply stream, the
// same marker the REPL uses for every asynchronous event.
//
// Frames the renderer does not know are shown raw. That keeps the client
// usable against a newer server that added verbs.
//
// =============================================================================

package main

import (
	"fmt"
	"strings"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
)

// pushMarker prefixes every asynchronous notice.
const pushMarker = "*** "

// formatReply renders the reply to a command.
func formatReply(f chessprotocol.Frame) string {
	switch f.Verb {
	case "LOGIN_SUCCESS":
		if ls, err := chessprotocol.ParseLoginSuccess(f); err == nil {
			return fmt.Sprintf("Logged in as %s (id %d, elo %d)", ls.Username, ls.UserID, ls.Elo)
		}
	case "LOGIN_FAIL", "REGISTER_ERROR":
		return "Failed: " + f.Rest(0)
	case "REGISTER_OK":
		if id, err := chessprotocol.ParseRegisterOK(f); err == nil {
			return fmt.Sprintf("Registered, user id %d", id)
		}
	case "LOGOUT_SUCCESS":
		return "Logged out"
	case "MATCH_CREATED", "MATCH_JOINED", "BOT_MATCH_CREATED":
		if info, err := chessprotocol.ParseMatchInfo(f); err == nil {
			return fmt.Sprintf("Match %d ready\n%s", info.MatchID, info.Detail)
		}
	case "MOVE_SUCCESS":
		if mv, err := chessprotocol.ParseMoveSuccess(f); err == nil {
			return fmt.Sprintf("Played %s\n%s", mv.Notation, mv.FEN)
		}
	case "BOT_MOVE_RESULT":
		if r, err := chessprotocol.ParseBotMoveResult(f); err == nil {
			text := "Bot played " + r.BotMove
			if r.BotFEN != "" {
				text += "\n" + r.BotFEN
			}
			if r.Status != "" && r.Status != "ongoing" {
				text += "\nStatus: " + r.Status
			}
			return text
		}
	case "SURRENDER_SUCCESS":
		if winner, err := chessprotocol.ParseSurrenderSuccess(f); err == nil {
			return fmt.Sprintf("You resigned; winner is user %d", winner)
		}
	case "QUEUED":
		return "Waiting for an opponent..."
	case "WAITING":
		return "Still waiting for an opponent"
	case "CANCELED":
		return "Left the matchmaking queue"
	case "NOTFOUND":
		return "Not in the matchmaking queue"
	case "MATCHED":
		if mm, err := chessprotocol.ParseMatchmakingResult(f); err == nil && mm.Matched() {
			return fmt.Sprintf("Matched! Match %d, you play %s", mm.MatchID, mm.Color)
		}
	case "FRIEND_LIST", "FRIEND_REQUESTS":
		if ids, err := chessprotocol.ParseFriendIDs(f); err == nil {
			if len(ids) == 0 {
				return "(none)"
			}
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprint(id)
			}
			return "Users: " + strings.Join(parts, ", ")
		}
	case "STATS":
		if s, err := chessprotocol.ParseStats(f); err == nil {
			return fmt.Sprintf("Games %d  W %d  L %d  D %d  Elo %d", s.Games, s.Wins, s.Losses, s.Draws, s.Elo)
		}
	case "LEADERBOARD":
		if entries, err := chessprotocol.ParseLeaderboard(f); err == nil {
			return formatLeaderboard(entries)
		}
	case "HISTORY", "REPLAY", "ELO_HISTORY", "MATCH_STATUS":
		return f.Rest(0)
	case "BOT_GAME_END", "GAME_END":
		return formatGameEnd(f)
	case chessprotocol.ErrorVerb:
		return "Error: " + f.ErrorMessage()
	}
	return f.Raw
}

// formatPush renders an unsolicited frame as a notice.
func formatPush(f chessprotocol.Frame) string {
	var text string
	switch f.Verb {
	case "OPPONENT_MOVE":
		if om, err := chessprotocol.ParseOpponentMove(f); err == nil {
			text = "Opponent played " + om.Move
		}
	case "YOUR_TURN":
		text = "Your turn"
	case "TIMER_UPDATE":
		if tu, err := chessprotocol.ParseTimerUpdate(f); err == nil {
			text = fmt.Sprintf("Clock  white %s  black %s", clock(tu.White), clock(tu.Black))
		}
	case "GAME_END", "BOT_GAME_END":
		text = formatGameEnd(f)
	case "CHAT_FROM", "GAME_CHAT_FROM":
		if m, err := chessprotocol.ParseChatMessage(f); err == nil {
			text = fmt.Sprintf("<%s> %s", m.From, m.Text)
		}
	case "MATCHED":
		text = formatReply(f)
	case "OPPONENT_DISCONNECTED":
		text = "Opponent disconnected"
	case "GAME_PAUSED_BY_OPPONENT":
		text = "Opponent paused the game"
	case "DRAW_REQUEST_FROM_OPPONENT":
		text = "Opponent offers a draw (draw accept / draw decline)"
	case "OPPONENT_REMATCH_REQUEST":
		text = "Opponent wants a rematch (rematch accept / rematch decline)"
	}
	if text == "" {
		text = f.Raw
	}
	return pushMarker + text
}

func formatGameEnd(f chessprotocol.Frame) string {
	g, err := chessprotocol.ParseGameEnd(f)
	if err != nil {
		return f.Raw
	}
	switch {
	case g.IsDraw():
		return fmt.Sprintf("Game over (%s): draw", g.Reason)
	case g.Winner != "":
		return fmt.Sprintf("Game over (%s): %s wins", g.Reason, g.Winner)
	default:
		return fmt.Sprintf("Game over (%s)", g.Reason)
	}
}

func formatLeaderboard(entries []chessprotocol.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "(empty leaderboard)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-16s %5s %5s %5s %5s", "#", "Player", "Elo", "W", "L", "D")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%-4d %-16s %5d %5d %5d %5d", e.Rank, e.Username, e.Elo, e.Wins, e.Losses, e.Draws)
	}
	return b.String()
}

// clock renders milliseconds as m:ss.
func clock(ms int) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
