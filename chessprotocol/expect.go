package chessprotocol

import "strings"

// ExpectTable maps a command verb to the set of reply verbs that complete
// it. Lookup distinguishes three cases:
//
//   - no entry: the command's reply is the first frame that arrives
//   - an entry with no verbs: the command is fire-and-forget
//   - otherwise: the first frame whose verb is in the set is the reply
type ExpectTable map[string][]string

// DefaultExpectations returns the reply table of the chess server. The
// returned table is a fresh copy the caller may modify.
func DefaultExpectations() ExpectTable {
	t := ExpectTable{
		"LOGIN":             {"LOGIN_SUCCESS", "LOGIN_FAIL"},
		"REGISTER":          {"REGISTER_OK", "REGISTER_ERROR"},
		"REGISTER_VALIDATE": {"REGISTER_OK", "REGISTER_ERROR"},
		"LOGOUT":            {"LOGOUT_SUCCESS"},

		"START_MATCH":      {"MATCH_CREATED"},
		"JOIN_MATCH":       {"MATCH_JOINED", "MATCH_STATUS"},
		"GET_MATCH_STATUS": {"MATCH_STATUS"},
		"MOVE":             {"MOVE_SUCCESS"},
		"SURRENDER":        {"SURRENDER_SUCCESS"},

		"DRAW":         {"DRAW_REQUESTED"},
		"DRAW_ACCEPT":  {"DRAW_ACCEPTED"},
		"DRAW_DECLINE": {"DRAW_DECLINED"},

		"REMATCH":         {"REMATCH_REQUESTED"},
		"REMATCH_ACCEPT":  {"REMATCH_ACCEPTED", "REMATCH_START"},
		"REMATCH_DECLINE": {"REMATCH_DECLINED"},

		"PAUSE":  {"GAME_PAUSED"},
		"RESUME": {"GAME_RESUMED"},

		"FRIEND_REQUEST":  {"FRIEND_REQUESTED"},
		"FRIEND_ACCEPT":   {"FRIEND_ACCEPTED"},
		"FRIEND_DECLINE":  {"FRIEND_DECLINED"},
		"FRIEND_LIST":     {"FRIEND_LIST"},
		"FRIEND_REQUESTS": {"FRIEND_REQUESTS"},

		"MMJOIN":   {"QUEUED", "MATCHED"},
		"MMSTATUS": {"WAITING", "MATCHED", "NOTFOUND"},
		"MMCANCEL": {"CANCELED", "NOTFOUND"},

		"MODE_BOT": {"BOT_MATCH_CREATED"},
		"BOT_MOVE": {"BOT_MOVE_RESULT", "BOT_GAME_END"},

		"GET_HISTORY":     {"HISTORY"},
		"GET_REPLAY":      {"REPLAY"},
		"GET_STATS":       {"STATS"},
		"GET_LEADERBOARD": {"LEADERBOARD"},
		"GET_ELO_HISTORY": {"ELO_HISTORY"},
	}

	// Every command can be refused.
	for verb, replies := range t {
		t[verb] = append(replies, ErrorVerb)
	}

	t["CHAT"] = []string{}
	t["GAME_CHAT"] = []string{}
	return t
}

// PushVerbs lists the unsolicited verbs the server is known to send.
// It is informational; classification never relies on it.
var PushVerbs = []string{
	"OPPONENT_MOVE",
	"YOUR_TURN",
	"TIMER_UPDATE",
	"GAME_END",
	"CHAT_FROM",
	"GAME_CHAT_FROM",
	"GAME_PAUSED_BY_OPPONENT",
	"OPPONENT_DISCONNECTED",
	"OPPONENT_JOINED",
	"MATCH_FOUND",
	"DRAW_REQUEST_FROM_OPPONENT",
	"DRAW_DECLINED_BY_OPPONENT",
	"OPPONENT_REMATCH_REQUEST",
	"REMATCH_DECLINED_BY_OPPONENT",
	GreetingVerb,
}

// Lookup returns the reply verbs for a command verb and whether the table
// has an entry for it.
func (t ExpectTable) Lookup(verb string) ([]string, bool) {
	replies, ok := t[strings.ToUpper(verb)]
	return replies, ok
}

// FireAndForget reports whether verb has an explicit empty entry.
func (t ExpectTable) FireAndForget(verb string) bool {
	replies, ok := t.Lookup(verb)
	return ok && len(replies) == 0
}

// Expects reports whether reply completes a command with verb cmd.
// A command without an entry accepts any reply; a fire-and-forget
// command accepts none.
func (t ExpectTable) Expects(cmd, reply string) bool {
	replies, ok := t.Lookup(cmd)
	if !ok {
		return true
	}
	for _, r := range replies {
		if r == reply {
			return true
		}
	}
	return false
}

// Register adds or replaces the entry for verb. Calling it with no
// replies marks verb as fire-and-forget.
func (t ExpectTable) Register(verb string, replies ...string) {
	if replies == nil {
		replies = []string{}
	}
	t[strings.ToUpper(verb)] = replies
}

// CommandVerb extracts the verb of an outbound line.
func CommandVerb(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, FieldSeparator); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		line = line[:i]
	}
	return strings.ToUpper(line)
}
