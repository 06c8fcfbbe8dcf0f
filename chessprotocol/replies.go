package chessprotocol

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LoginSuccess is the payload of LOGIN_SUCCESS|id|name|elo.
type LoginSuccess struct {
	UserID   int
	Username string
	Elo      int
}

// ParseLoginSuccess decodes a LOGIN_SUCCESS frame.
func ParseLoginSuccess(f Frame) (LoginSuccess, error) {
	if err := expectVerb(f, "LOGIN_SUCCESS", 2); err != nil {
		return LoginSuccess{}, err
	}
	id, err := f.Int(0)
	if err != nil {
		return LoginSuccess{}, err
	}
	out := LoginSuccess{UserID: id, Username: f.Field(1)}
	// Older servers omit the rating.
	if f.NumFields() > 2 {
		if out.Elo, err = f.Int(2); err != nil {
			return LoginSuccess{}, err
		}
	}
	return out, nil
}

// ParseRegisterOK decodes REGISTER_OK|id and returns the new user id.
func ParseRegisterOK(f Frame) (int, error) {
	if err := expectVerb(f, "REGISTER_OK", 1); err != nil {
		return 0, err
	}
	return f.Int(0)
}

// MoveSuccess is the payload of MOVE_SUCCESS|notation|fen.
type MoveSuccess struct {
	Notation string
	FEN      string
}

// ParseMoveSuccess decodes a MOVE_SUCCESS frame.
func ParseMoveSuccess(f Frame) (MoveSuccess, error) {
	if err := expectVerb(f, "MOVE_SUCCESS", 0); err != nil {
		return MoveSuccess{}, err
	}
	return MoveSuccess{Notation: f.Field(0), FEN: f.Field(1)}, nil
}

// MatchInfo is the payload shared by MATCH_CREATED, MATCH_JOINED,
// BOT_MATCH_CREATED (id|fen) and REMATCH_START (id|color).
type MatchInfo struct {
	MatchID int
	Detail  string
}

// ParseMatchInfo decodes any of the id|detail match frames.
func ParseMatchInfo(f Frame) (MatchInfo, error) {
	switch f.Verb {
	case "MATCH_CREATED", "MATCH_JOINED", "BOT_MATCH_CREATED", "REMATCH_START":
	default:
		return MatchInfo{}, newUnexpectedResponseError(f.Raw)
	}
	id, err := f.Int(0)
	if err != nil {
		return MatchInfo{}, err
	}
	return MatchInfo{MatchID: id, Detail: f.Rest(1)}, nil
}

// MatchmakingResult is the reply to MMJOIN, MMSTATUS and MMCANCEL. Status
// is the reply verb; the ids are only set for MATCHED.
type MatchmakingResult struct {
	Status  string // QUEUED, WAITING, MATCHED, CANCELED, NOTFOUND
	MatchID int
	WhiteID int
	BlackID int
	Color   string
}

// Matched reports whether the player was paired.
func (r MatchmakingResult) Matched() bool {
	return r.Status == "MATCHED"
}

// ParseMatchmakingResult decodes the matchmaking replies. MATCHED arrives
// space separated: "MATCHED 12 3 4 white".
func ParseMatchmakingResult(f Frame) (MatchmakingResult, error) {
	switch f.Verb {
	case "QUEUED", "WAITING", "CANCELED", "NOTFOUND":
		return MatchmakingResult{Status: f.Verb}, nil
	case "MATCHED":
	default:
		return MatchmakingResult{}, newUnexpectedResponseError(f.Raw)
	}
	if f.NumFields() < 4 {
		return MatchmakingResult{}, newUnexpectedResponseError(f.Raw)
	}
	ids := make([]int, 3)
	for i := range ids {
		n, err := f.Int(i)
		if err != nil {
			return MatchmakingResult{}, err
		}
		ids[i] = n
	}
	return MatchmakingResult{
		Status:  f.Verb,
		MatchID: ids[0],
		WhiteID: ids[1],
		BlackID: ids[2],
		Color:   f.Field(3),
	}, nil
}

// BotMoveResult is the payload of
// BOT_MOVE_RESULT|fen_after_player|bot_move|fen_after_bot|status.
type BotMoveResult struct {
	PlayerFEN string
	BotMove   string
	BotFEN    string
	Status    string
}

// ParseBotMoveResult decodes a BOT_MOVE_RESULT frame. Short forms with
// fewer fields leave the trailing members empty.
func ParseBotMoveResult(f Frame) (BotMoveResult, error) {
	if err := expectVerb(f, "BOT_MOVE_RESULT", 1); err != nil {
		return BotMoveResult{}, err
	}
	return BotMoveResult{
		PlayerFEN: f.Field(0),
		BotMove:   f.Field(1),
		BotFEN:    f.Field(2),
		Status:    f.Field(3),
	}, nil
}

// GameEnd is the payload of GAME_END|reason|winner:N, GAME_END|reason|draw
// and the BOT_GAME_END variants.
type GameEnd struct {
	Reason   string // checkmate, surrender, timeout, stalemate, ...
	Result   string // "winner" or "draw"
	WinnerID int    // 0 for draws and bot wins
	Winner   string // raw winner token, e.g. "7" or "bot"
}

// IsDraw reports whether the game ended drawn.
func (g GameEnd) IsDraw() bool {
	return g.Result == "draw"
}

// ParseGameEnd decodes GAME_END and BOT_GAME_END frames.
func ParseGameEnd(f Frame) (GameEnd, error) {
	if f.Verb != "GAME_END" && f.Verb != "BOT_GAME_END" {
		return GameEnd{}, newUnexpectedResponseError(f.Raw)
	}
	if f.NumFields() == 0 {
		return GameEnd{}, newUnexpectedResponseError(f.Raw)
	}

	out := GameEnd{Reason: f.Field(0)}
	// BOT_GAME_END|draw carries only the result.
	if f.NumFields() == 1 {
		if out.Reason == "draw" {
			out.Result = "draw"
		}
		return out, nil
	}

	result := f.Field(1)
	if result == "draw" {
		out.Result = "draw"
		return out, nil
	}
	winner, ok := strings.CutPrefix(result, "winner:")
	if !ok {
		return GameEnd{}, newUnexpectedResponseError(f.Raw)
	}
	out.Result = "winner"
	out.Winner = winner
	if id, err := strconv.Atoi(winner); err == nil {
		out.WinnerID = id
	}
	return out, nil
}

// OpponentMove is the payload of OPPONENT_MOVE|move and
// OPPONENT_MOVE|move|fen.
type OpponentMove struct {
	Move string
	FEN  string
}

// ParseOpponentMove decodes an OPPONENT_MOVE push.
func ParseOpponentMove(f Frame) (OpponentMove, error) {
	if err := expectVerb(f, "OPPONENT_MOVE", 1); err != nil {
		return OpponentMove{}, err
	}
	return OpponentMove{Move: f.Field(0), FEN: f.Field(1)}, nil
}

// TimerUpdate is the payload of TIMER_UPDATE|white_ms|black_ms.
type TimerUpdate struct {
	White int
	Black int
}

// ParseTimerUpdate decodes a TIMER_UPDATE push.
func ParseTimerUpdate(f Frame) (TimerUpdate, error) {
	if err := expectVerb(f, "TIMER_UPDATE", 2); err != nil {
		return TimerUpdate{}, err
	}
	w, err := f.Int(0)
	if err != nil {
		return TimerUpdate{}, err
	}
	b, err := f.Int(1)
	if err != nil {
		return TimerUpdate{}, err
	}
	return TimerUpdate{White: w, Black: b}, nil
}

// ChatMessage is the payload of CHAT_FROM|from|text and
// GAME_CHAT_FROM|user|text. Text may itself contain '|'.
type ChatMessage struct {
	InGame bool
	From   string
	Text   string
}

// ParseChatMessage decodes chat pushes.
func ParseChatMessage(f Frame) (ChatMessage, error) {
	var inGame bool
	switch f.Verb {
	case "CHAT_FROM":
	case "GAME_CHAT_FROM":
		inGame = true
	default:
		return ChatMessage{}, newUnexpectedResponseError(f.Raw)
	}
	if f.NumFields() < 1 {
		return ChatMessage{}, newUnexpectedResponseError(f.Raw)
	}
	return ChatMessage{InGame: inGame, From: f.Field(0), Text: f.Rest(1)}, nil
}

// ParseFriendIDs decodes FRIEND_LIST|1,2,3 and FRIEND_REQUESTS|1,2.
func ParseFriendIDs(f Frame) ([]int, error) {
	if f.Verb != "FRIEND_LIST" && f.Verb != "FRIEND_REQUESTS" {
		return nil, newUnexpectedResponseError(f.Raw)
	}
	list := strings.TrimSpace(f.Rest(0))
	if list == "" {
		return nil, nil
	}
	var ids []int
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, newInvalidIDError(s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseSurrenderSuccess decodes SURRENDER_SUCCESS|winner_id.
func ParseSurrenderSuccess(f Frame) (int, error) {
	if err := expectVerb(f, "SURRENDER_SUCCESS", 1); err != nil {
		return 0, err
	}
	return f.Int(0)
}

// Stats is the payload of STATS|total|wins|losses|draws|elo.
type Stats struct {
	Games  int `json:"total_games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
	Elo    int `json:"elo"`
}

// ParseStats decodes a STATS reply in either its pipe or its JSON form.
func ParseStats(f Frame) (Stats, error) {
	if err := expectVerb(f, "STATS", 1); err != nil {
		return Stats{}, err
	}
	if IsJSONPayload(f) {
		var s Stats
		err := DecodeJSONPayload(f, &s)
		return s, err
	}
	if f.NumFields() < 5 {
		return Stats{}, newUnexpectedResponseError(f.Raw)
	}
	var vals [5]int
	for i := range vals {
		n, err := f.Int(i)
		if err != nil {
			return Stats{}, err
		}
		vals[i] = n
	}
	return Stats{Games: vals[0], Wins: vals[1], Losses: vals[2], Draws: vals[3], Elo: vals[4]}, nil
}

// LeaderboardEntry is one row of a LEADERBOARD reply.
type LeaderboardEntry struct {
	Rank     int
	UserID   int
	Username string
	Elo      int
	Wins     int
	Losses   int
	Draws    int
}

const leaderboardRowFields = 7

// ParseLeaderboard decodes LEADERBOARD|count followed by count rows of
// rank|id|name|elo|wins|losses|draws.
func ParseLeaderboard(f Frame) ([]LeaderboardEntry, error) {
	if err := expectVerb(f, "LEADERBOARD", 1); err != nil {
		return nil, err
	}
	count, err := f.Int(0)
	if err != nil {
		return nil, err
	}
	// The server truncates rows that do not fit its buffer.
	avail := (f.NumFields() - 1) / leaderboardRowFields
	if count > avail {
		count = avail
	}

	entries := make([]LeaderboardEntry, 0, count)
	for i := 0; i < count; i++ {
		base := 1 + i*leaderboardRowFields
		var nums [6]int
		for j, idx := range []int{0, 1, 3, 4, 5, 6} {
			n, err := f.Int(base + idx)
			if err != nil {
				return nil, err
			}
			nums[j] = n
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     nums[0],
			UserID:   nums[1],
			Username: f.Field(base + 2),
			Elo:      nums[2],
			Wins:     nums[3],
			Losses:   nums[4],
			Draws:    nums[5],
		})
	}
	return entries, nil
}

// IsJSONPayload reports whether the frame's payload is a JSON document,
// as HISTORY, REPLAY and ELO_HISTORY may be.
func IsJSONPayload(f Frame) bool {
	p := strings.TrimSpace(f.Rest(0))
	return strings.HasPrefix(p, "{") || strings.HasPrefix(p, "[")
}

// DecodeJSONPayload unmarshals the frame's payload into v.
func DecodeJSONPayload(f Frame, v any) error {
	if !IsJSONPayload(f) {
		return newUnexpectedResponseError(f.Raw)
	}
	return json.Unmarshal([]byte(f.Rest(0)), v)
}

func expectVerb(f Frame, verb string, minFields int) error {
	if f.Verb != verb || f.NumFields() < minFields {
		return newUnexpectedResponseError(f.Raw)
	}
	return nil
}
