package chessprotocol

import (
	"strconv"
	"strings"
)

// Command verbs understood by the chess server.
const (
	// Account
	VerbLogin            = "LOGIN"
	VerbRegister         = "REGISTER"
	VerbRegisterValidate = "REGISTER_VALIDATE"
	VerbLogout           = "LOGOUT"

	// Matches
	VerbStartMatch     = "START_MATCH"
	VerbJoinMatch      = "JOIN_MATCH"
	VerbGetMatchStatus = "GET_MATCH_STATUS"
	VerbMove           = "MOVE"

	// Match control
	VerbSurrender      = "SURRENDER"
	VerbDraw           = "DRAW"
	VerbDrawAccept     = "DRAW_ACCEPT"
	VerbDrawDecline    = "DRAW_DECLINE"
	VerbRematch        = "REMATCH"
	VerbRematchAccept  = "REMATCH_ACCEPT"
	VerbRematchDecline = "REMATCH_DECLINE"
	VerbPause          = "PAUSE"
	VerbResume         = "RESUME"

	// Friends
	VerbFriendRequest  = "FRIEND_REQUEST"
	VerbFriendAccept   = "FRIEND_ACCEPT"
	VerbFriendDecline  = "FRIEND_DECLINE"
	VerbFriendList     = "FRIEND_LIST"
	VerbFriendRequests = "FRIEND_REQUESTS"

	// Matchmaking
	VerbMatchmakingJoin   = "MMJOIN"
	VerbMatchmakingStatus = "MMSTATUS"
	VerbMatchmakingCancel = "MMCANCEL"

	// Bot games
	VerbModeBot = "MODE_BOT"
	VerbBotMove = "BOT_MOVE"

	// History and ratings
	VerbGetHistory     = "GET_HISTORY"
	VerbGetReplay      = "GET_REPLAY"
	VerbGetStats       = "GET_STATS"
	VerbGetLeaderboard = "GET_LEADERBOARD"
	VerbGetEloHistory  = "GET_ELO_HISTORY"

	// Chat (fire-and-forget)
	VerbChat     = "CHAT"
	VerbGameChat = "GAME_CHAT"
)

// Command is one outbound frame: a verb and its arguments.
// Use the constructor functions (NewLoginCommand, NewMoveCommand, etc.)
// to create Command instances.
type Command struct {
	Verb string
	Args []string
}

// Format returns the command as a wire line without the terminator.
func (c Command) Format() string {
	return FormatFrame(c.Verb, c.Args...)
}

// FormatLine returns the command formatted for transmission, including
// the trailing newline.
func (c Command) FormatLine() string {
	return c.Format() + "\n"
}

// String returns the formatted command.
func (c Command) String() string {
	return c.Format()
}

// Validate checks that the command can be framed. No argument may contain
// a newline, and only the last argument may contain the separator, since
// the server reads a trailing free-text field verbatim.
func (c Command) Validate() error {
	if c.Verb == "" {
		return newInvalidCommandError("")
	}
	if strings.ContainsAny(c.Verb, "|\r\n \t") {
		return newInvalidCommandError(c.Verb)
	}
	for i, a := range c.Args {
		if strings.ContainsAny(a, "\r\n") {
			return newInvalidFieldError(a)
		}
		if i < len(c.Args)-1 && strings.Contains(a, FieldSeparator) {
			return newInvalidFieldError(a)
		}
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// =============================================================================
// Account Commands
// =============================================================================

// NewLoginCommand creates LOGIN|user|password.
func NewLoginCommand(username, password string) Command {
	return Command{Verb: VerbLogin, Args: []string{username, password}}
}

// NewRegisterCommand creates REGISTER|user|password|email.
func NewRegisterCommand(username, password, email string) Command {
	return Command{Verb: VerbRegister, Args: []string{username, password, email}}
}

// NewRegisterValidateCommand creates REGISTER_VALIDATE|user|password|email,
// which checks the fields without creating the account.
func NewRegisterValidateCommand(username, password, email string) Command {
	return Command{Verb: VerbRegisterValidate, Args: []string{username, password, email}}
}

// NewLogoutCommand creates LOGOUT|user_id.
func NewLogoutCommand(userID int) Command {
	return Command{Verb: VerbLogout, Args: []string{itoa(userID)}}
}

// =============================================================================
// Match Commands
// =============================================================================

// NewStartMatchCommand creates START_MATCH|white_id|white_name|black_id|black_name.
func NewStartMatchCommand(whiteID int, whiteName string, blackID int, blackName string) Command {
	return Command{Verb: VerbStartMatch, Args: []string{itoa(whiteID), whiteName, itoa(blackID), blackName}}
}

// NewJoinMatchCommand creates JOIN_MATCH|match_id|player_id|player_name.
func NewJoinMatchCommand(matchID, playerID int, playerName string) Command {
	return Command{Verb: VerbJoinMatch, Args: []string{itoa(matchID), itoa(playerID), playerName}}
}

// NewMatchStatusCommand creates GET_MATCH_STATUS|match_id.
func NewMatchStatusCommand(matchID int) Command {
	return Command{Verb: VerbGetMatchStatus, Args: []string{itoa(matchID)}}
}

// NewMoveCommand creates MOVE|match_id|user_id|from|to. Squares are not
// checked; move legality is the server's business.
func NewMoveCommand(matchID, userID int, from, to string) Command {
	return Command{Verb: VerbMove, Args: []string{itoa(matchID), itoa(userID), from, to}}
}

// matchControl builds the VERB|match_id|user_id family.
func matchControl(verb string, matchID, userID int) Command {
	return Command{Verb: verb, Args: []string{itoa(matchID), itoa(userID)}}
}

// NewSurrenderCommand creates SURRENDER|match_id|user_id.
func NewSurrenderCommand(matchID, userID int) Command {
	return matchControl(VerbSurrender, matchID, userID)
}

// NewDrawCommand offers a draw.
func NewDrawCommand(matchID, userID int) Command {
	return matchControl(VerbDraw, matchID, userID)
}

// NewDrawAcceptCommand accepts the opponent's draw offer.
func NewDrawAcceptCommand(matchID, userID int) Command {
	return matchControl(VerbDrawAccept, matchID, userID)
}

// NewDrawDeclineCommand declines the opponent's draw offer.
func NewDrawDeclineCommand(matchID, userID int) Command {
	return matchControl(VerbDrawDecline, matchID, userID)
}

// NewRematchCommand asks for a rematch of a finished match.
func NewRematchCommand(matchID, userID int) Command {
	return matchControl(VerbRematch, matchID, userID)
}

// NewRematchAcceptCommand accepts a rematch request.
func NewRematchAcceptCommand(matchID, userID int) Command {
	return matchControl(VerbRematchAccept, matchID, userID)
}

// NewRematchDeclineCommand declines a rematch request.
func NewRematchDeclineCommand(matchID, userID int) Command {
	return matchControl(VerbRematchDecline, matchID, userID)
}

// NewPauseCommand pauses a running match.
func NewPauseCommand(matchID, userID int) Command {
	return matchControl(VerbPause, matchID, userID)
}

// NewResumeCommand resumes a paused match.
func NewResumeCommand(matchID, userID int) Command {
	return matchControl(VerbResume, matchID, userID)
}

// =============================================================================
// Friend Commands
// =============================================================================

// NewFriendRequestCommand creates FRIEND_REQUEST|user_id|friend_id.
func NewFriendRequestCommand(userID, friendID int) Command {
	return Command{Verb: VerbFriendRequest, Args: []string{itoa(userID), itoa(friendID)}}
}

// NewFriendAcceptCommand creates FRIEND_ACCEPT|user_id|friend_id.
func NewFriendAcceptCommand(userID, friendID int) Command {
	return Command{Verb: VerbFriendAccept, Args: []string{itoa(userID), itoa(friendID)}}
}

// NewFriendDeclineCommand creates FRIEND_DECLINE|user_id|friend_id.
func NewFriendDeclineCommand(userID, friendID int) Command {
	return Command{Verb: VerbFriendDecline, Args: []string{itoa(userID), itoa(friendID)}}
}

// NewFriendListCommand creates FRIEND_LIST|user_id.
func NewFriendListCommand(userID int) Command {
	return Command{Verb: VerbFriendList, Args: []string{itoa(userID)}}
}

// NewFriendRequestsCommand creates FRIEND_REQUESTS|user_id.
func NewFriendRequestsCommand(userID int) Command {
	return Command{Verb: VerbFriendRequests, Args: []string{itoa(userID)}}
}

// =============================================================================
// Matchmaking Commands
// =============================================================================

// NewMatchmakingJoinCommand creates MMJOIN|user_id|elo|time_mode.
func NewMatchmakingJoinCommand(userID, elo int, timeMode string) Command {
	return Command{Verb: VerbMatchmakingJoin, Args: []string{itoa(userID), itoa(elo), timeMode}}
}

// NewMatchmakingStatusCommand creates MMSTATUS|user_id.
func NewMatchmakingStatusCommand(userID int) Command {
	return Command{Verb: VerbMatchmakingStatus, Args: []string{itoa(userID)}}
}

// NewMatchmakingCancelCommand creates MMCANCEL|user_id.
func NewMatchmakingCancelCommand(userID int) Command {
	return Command{Verb: VerbMatchmakingCancel, Args: []string{itoa(userID)}}
}

// =============================================================================
// Bot Commands
// =============================================================================

// NewBotModeCommand starts a game against the engine: MODE_BOT|user_id|difficulty.
// An empty difficulty lets the server pick its default.
func NewBotModeCommand(userID int, difficulty string) Command {
	args := []string{itoa(userID)}
	if difficulty != "" {
		args = append(args, difficulty)
	}
	return Command{Verb: VerbModeBot, Args: args}
}

// NewBotMoveCommand creates BOT_MOVE|match_id|move|difficulty.
func NewBotMoveCommand(matchID int, move, difficulty string) Command {
	args := []string{itoa(matchID), move}
	if difficulty != "" {
		args = append(args, difficulty)
	}
	return Command{Verb: VerbBotMove, Args: args}
}

// =============================================================================
// History Commands
// =============================================================================

// NewHistoryCommand creates GET_HISTORY|user_id.
func NewHistoryCommand(userID int) Command {
	return Command{Verb: VerbGetHistory, Args: []string{itoa(userID)}}
}

// NewReplayCommand creates GET_REPLAY|match_id.
func NewReplayCommand(matchID int) Command {
	return Command{Verb: VerbGetReplay, Args: []string{itoa(matchID)}}
}

// NewStatsCommand creates GET_STATS|user_id.
func NewStatsCommand(userID int) Command {
	return Command{Verb: VerbGetStats, Args: []string{itoa(userID)}}
}

// NewLeaderboardCommand creates GET_LEADERBOARD|limit.
func NewLeaderboardCommand(limit int) Command {
	return Command{Verb: VerbGetLeaderboard, Args: []string{itoa(limit)}}
}

// NewEloHistoryCommand creates GET_ELO_HISTORY|user_id.
func NewEloHistoryCommand(userID int) Command {
	return Command{Verb: VerbGetEloHistory, Args: []string{itoa(userID)}}
}

// =============================================================================
// Chat Commands
// =============================================================================

// NewChatCommand creates CHAT|recipient|text. The server sends no reply.
func NewChatCommand(recipient, text string) Command {
	return Command{Verb: VerbChat, Args: []string{recipient, text}}
}

// NewGameChatCommand creates GAME_CHAT|match_id|text. The server sends no
// reply.
func NewGameChatCommand(matchID int, text string) Command {
	return Command{Verb: VerbGameChat, Args: []string{itoa(matchID), text}}
}

// NewRawCommand splits a literal VERB|a|b line into a Command. The verb is
// upper-cased; arguments are kept verbatim.
func NewRawCommand(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, FieldSeparator)
	cmd := Command{Verb: strings.ToUpper(strings.TrimSpace(parts[0]))}
	if len(parts) > 1 {
		cmd.Args = parts[1:]
	}
	return cmd
}
