// =============================================================================
// display_test.go - Tests for Frame Rendering (display.go)
// =============================================================================

package main

import (
	"strings"
	"testing"
)

func TestFormatReply(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"LOGIN_SUCCESS|7|alice|1200", "Logged in as alice (id 7, elo 1200)"},
		{"LOGIN_FAIL|Invalid credentials", "Failed: Invalid credentials"},
		{"REGISTER_ERROR|Username taken", "Failed: Username taken"},
		{"REGISTER_OK|9", "Registered, user id 9"},
		{"LOGOUT_SUCCESS", "Logged out"},
		{"MATCH_CREATED|6|fen", "Match 6 ready\nfen"},
		{"MOVE_SUCCESS|e2e4|fen-after", "Played e2e4\nfen-after"},
		{"BOT_MOVE_RESULT|fen1|e7e5|fen2|ongoing", "Bot played e7e5\nfen2"},
		{"BOT_MOVE_RESULT|fen1|d8h4|fen2|checkmate", "Bot played d8h4\nfen2\nStatus: checkmate"},
		{"SURRENDER_SUCCESS|8", "You resigned; winner is user 8"},
		{"QUEUED", "Waiting for an opponent..."},
		{"WAITING", "Still waiting for an opponent"},
		{"CANCELED", "Left the matchmaking queue"},
		{"NOTFOUND", "Not in the matchmaking queue"},
		{"MATCHED 5 7 8 white", "Matched! Match 5, you play white"},
		{"FRIEND_LIST|8,9", "Users: 8, 9"},
		{"STATS|10|6|3|1|1200", "Games 10  W 6  L 3  D 1  Elo 1200"},
		{"MATCH_STATUS|5|ongoing", "5|ongoing"},
		{"GAME_END|checkmate|winner:7", "Game over (checkmate): 7 wins"},
		{"GAME_END|stalemate|draw", "Game over (stalemate): draw"},
		{"ERROR|Unknown command", "Error: Unknown command"},
		{"ERROR INVALID MOVE", "Error: INVALID MOVE"},
		{"SOMETHING_NEW|1|2", "SOMETHING_NEW|1|2"},
		{"STATS|not-a-number", "STATS|not-a-number"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := formatReply(frame(t, tt.line)); got != tt.want {
				t.Errorf("formatReply(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestFormatPush(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"OPPONENT_MOVE|e7e5|fen", "*** Opponent played e7e5"},
		{"YOUR_TURN", "*** Your turn"},
		{"TIMER_UPDATE|299000|61500", "*** Clock  white 4:59  black 1:01"},
		{"GAME_END|surrender|winner:8", "*** Game over (surrender): 8 wins"},
		{"BOT_GAME_END|draw", "*** Game over (draw): draw"},
		{"CHAT_FROM|bob|hi|there", "*** <bob> hi|there"},
		{"GAME_CHAT_FROM|bob|gg", "*** <bob> gg"},
		{"MATCHED 5 7 8 black", "*** Matched! Match 5, you play black"},
		{"OPPONENT_DISCONNECTED", "*** Opponent disconnected"},
		{"DRAW_REQUEST_FROM_OPPONENT", "*** Opponent offers a draw (draw accept / draw decline)"},
		{"BRAND_NEW_PUSH|x", "*** BRAND_NEW_PUSH|x"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := formatPush(frame(t, tt.line)); got != tt.want {
				t.Errorf("formatPush(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestFormatLeaderboard(t *testing.T) {
	got := formatReply(frame(t, "LEADERBOARD|2|1|8|bob|1500|20|2|0|2|7|alice|1200|6|3|1"))
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("leaderboard has %d lines, want 3:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[1], "1") || !strings.Contains(lines[1], "bob") || !strings.Contains(lines[1], "1500") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "alice") {
		t.Errorf("second row = %q", lines[2])
	}

	if got := formatLeaderboard(nil); got != "(empty leaderboard)" {
		t.Errorf("formatLeaderboard(nil) = %q", got)
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{59000, "0:59"},
		{300000, "5:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := clock(tt.ms); got != tt.want {
			t.Errorf("clock(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
