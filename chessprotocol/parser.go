package chessprotocol

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandParser turns the short command words typed at a prompt into
// protocol Commands. Lines that already look like wire frames
// ("LOGIN|alice|secret") pass through unchanged.
type CommandParser struct{}

// NewCommandParser creates a new command parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// DefaultLeaderboardLimit is used by "leaderboard" without an argument.
const DefaultLeaderboardLimit = 10

var (
	squarePattern  = regexp.MustCompile(`^[a-h][1-8]$`)
	rawVerbPattern = regexp.MustCompile(`^[A-Z][A-Z_]*$`)
)

// Parse parses one line of user input.
func (p *CommandParser) Parse(line string) (Command, error) {
	commandLine := strings.TrimSpace(line)
	if len(commandLine) > MaxLineLength {
		return Command{}, ErrLineTooLong
	}
	if commandLine == "" {
		return Command{}, newInvalidCommandError("")
	}

	if isRawFrame(commandLine) {
		cmd := NewRawCommand(commandLine)
		return cmd, cmd.Validate()
	}

	// Split into command and arguments
	parts := strings.SplitN(commandLine, " ", 2)
	command := strings.ToLower(parts[0])
	argsString := ""
	if len(parts) > 1 {
		argsString = strings.TrimSpace(parts[1])
	}

	switch command {
	// Account
	case "login":
		args, err := fields(argsString, 2, "login requires username and password")
		if err != nil {
			return Command{}, err
		}
		return NewLoginCommand(args[0], args[1]), nil
	case "register":
		args, err := fields(argsString, 3, "register requires username, password and email")
		if err != nil {
			return Command{}, err
		}
		return NewRegisterCommand(args[0], args[1], args[2]), nil
	case "logout":
		return p.parseUserCommand(argsString, NewLogoutCommand)

	// Matches
	case "start":
		return p.parseStart(argsString)
	case "join":
		return p.parseJoin(argsString)
	case "status":
		return p.parseMatchCommand(argsString, NewMatchStatusCommand)
	case "move", "mv":
		return p.parseMove(argsString)

	// Match control
	case "surrender", "resign":
		return p.parseControl(argsString, NewSurrenderCommand)
	case "draw":
		return p.parseSubControl("draw", argsString, NewDrawCommand, NewDrawAcceptCommand, NewDrawDeclineCommand)
	case "rematch":
		return p.parseSubControl("rematch", argsString, NewRematchCommand, NewRematchAcceptCommand, NewRematchDeclineCommand)
	case "pause":
		return p.parseControl(argsString, NewPauseCommand)
	case "resume":
		return p.parseControl(argsString, NewResumeCommand)

	// Social
	case "friend", "friends":
		return p.parseFriend(argsString)
	case "chat":
		return p.parseChat(argsString)
	case "gchat", "gamechat":
		return p.parseGameChat(argsString)

	// Matchmaking
	case "mm", "matchmaking":
		return p.parseMatchmaking(argsString)

	// Bot
	case "bot":
		return p.parseBot(argsString)

	// History
	case "history":
		return p.parseUserCommand(argsString, NewHistoryCommand)
	case "replay":
		return p.parseMatchCommand(argsString, NewReplayCommand)
	case "stats":
		return p.parseUserCommand(argsString, NewStatsCommand)
	case "elo":
		return p.parseUserCommand(argsString, NewEloHistoryCommand)
	case "leaderboard", "top":
		return p.parseLeaderboard(argsString)

	default:
		return Command{}, newInvalidCommandError(command)
	}
}

// isRawFrame reports whether the line is already a wire frame: its first
// word holds a separator, or the line is a single upper-case verb such as
// "LOGOUT".
func isRawFrame(line string) bool {
	first, _, _ := strings.Cut(line, " ")
	if strings.Contains(first, FieldSeparator) {
		return true
	}
	return rawVerbPattern.MatchString(line)
}

func (p *CommandParser) parseStart(args string) (Command, error) {
	parts, err := fields(args, 4, "start requires white id, white name, black id and black name")
	if err != nil {
		return Command{}, err
	}
	whiteID, err := parseID(parts[0])
	if err != nil {
		return Command{}, err
	}
	blackID, err := parseID(parts[2])
	if err != nil {
		return Command{}, err
	}
	return NewStartMatchCommand(whiteID, parts[1], blackID, parts[3]), nil
}

func (p *CommandParser) parseJoin(args string) (Command, error) {
	parts, err := fields(args, 3, "join requires match id, player id and player name")
	if err != nil {
		return Command{}, err
	}
	ids, err := parseIDs(parts[:2])
	if err != nil {
		return Command{}, err
	}
	return NewJoinMatchCommand(ids[0], ids[1], parts[2]), nil
}

// parseMove accepts "move <match> <user> e2 e4" and "move <match> <user> e2e4".
func (p *CommandParser) parseMove(args string) (Command, error) {
	parts := strings.Fields(args)
	var from, to string
	switch len(parts) {
	case 3:
		if len(parts[2]) != 4 {
			return Command{}, newInvalidSquareError(parts[2])
		}
		from, to = parts[2][:2], parts[2][2:]
	case 4:
		from, to = parts[2], parts[3]
	default:
		return Command{}, newMissingArgumentError("move requires match id, user id, from and to squares")
	}

	ids, err := parseIDs(parts[:2])
	if err != nil {
		return Command{}, err
	}
	from, err = parseSquare(from)
	if err != nil {
		return Command{}, err
	}
	to, err = parseSquare(to)
	if err != nil {
		return Command{}, err
	}
	return NewMoveCommand(ids[0], ids[1], from, to), nil
}

func (p *CommandParser) parseControl(args string, build func(matchID, userID int) Command) (Command, error) {
	parts, err := fields(args, 2, "match id and user id required")
	if err != nil {
		return Command{}, err
	}
	ids, err := parseIDs(parts[:2])
	if err != nil {
		return Command{}, err
	}
	return build(ids[0], ids[1]), nil
}

// parseSubControl handles "draw <m> <u>", "draw accept <m> <u>" and
// "draw decline <m> <u>", and the same three forms for rematch.
func (p *CommandParser) parseSubControl(name, args string, offer, accept, decline func(matchID, userID int) Command) (Command, error) {
	sub, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(sub) {
	case "accept", "yes":
		return p.parseControl(rest, accept)
	case "decline", "no":
		return p.parseControl(rest, decline)
	case "offer", "request":
		return p.parseControl(rest, offer)
	case "":
		return Command{}, newMissingArgumentError(name + " requires match id and user id")
	default:
		return p.parseControl(args, offer)
	}
}

func (p *CommandParser) parseFriend(args string) (Command, error) {
	sub, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(sub) {
	case "list":
		return p.parseUserCommand(rest, NewFriendListCommand)
	case "requests", "pending":
		return p.parseUserCommand(rest, NewFriendRequestsCommand)
	case "request", "add":
		return p.parsePair(rest, NewFriendRequestCommand)
	case "accept":
		return p.parsePair(rest, NewFriendAcceptCommand)
	case "decline":
		return p.parsePair(rest, NewFriendDeclineCommand)
	case "":
		return Command{}, newMissingArgumentError("friend requires a subcommand (list, requests, request, accept, decline)")
	default:
		return Command{}, newInvalidCommandError("friend " + sub)
	}
}

func (p *CommandParser) parsePair(args string, build func(userID, friendID int) Command) (Command, error) {
	parts, err := fields(args, 2, "user id and friend id required")
	if err != nil {
		return Command{}, err
	}
	ids, err := parseIDs(parts[:2])
	if err != nil {
		return Command{}, err
	}
	return build(ids[0], ids[1]), nil
}

func (p *CommandParser) parseMatchmaking(args string) (Command, error) {
	sub, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(sub) {
	case "join":
		parts, err := fields(rest, 3, "mm join requires user id, elo and time mode")
		if err != nil {
			return Command{}, err
		}
		userID, err := parseID(parts[0])
		if err != nil {
			return Command{}, err
		}
		elo, err := strconv.Atoi(parts[1])
		if err != nil || elo < 0 {
			return Command{}, newInvalidValueError(parts[1])
		}
		return NewMatchmakingJoinCommand(userID, elo, parts[2]), nil
	case "status":
		return p.parseUserCommand(rest, NewMatchmakingStatusCommand)
	case "cancel", "leave":
		return p.parseUserCommand(rest, NewMatchmakingCancelCommand)
	case "":
		return Command{}, newMissingArgumentError("mm requires a subcommand (join, status, cancel)")
	default:
		return Command{}, newInvalidCommandError("mm " + sub)
	}
}

func (p *CommandParser) parseBot(args string) (Command, error) {
	sub, rest, _ := strings.Cut(args, " ")
	parts := strings.Fields(rest)
	switch strings.ToLower(sub) {
	case "start", "new":
		if len(parts) < 1 || len(parts) > 2 {
			return Command{}, newMissingArgumentError("bot start requires user id and optional difficulty")
		}
		userID, err := parseID(parts[0])
		if err != nil {
			return Command{}, err
		}
		difficulty := ""
		if len(parts) == 2 {
			difficulty = parts[1]
		}
		return NewBotModeCommand(userID, difficulty), nil
	case "move":
		if len(parts) < 2 || len(parts) > 3 {
			return Command{}, newMissingArgumentError("bot move requires match id, move and optional difficulty")
		}
		matchID, err := parseID(parts[0])
		if err != nil {
			return Command{}, err
		}
		difficulty := ""
		if len(parts) == 3 {
			difficulty = parts[2]
		}
		return NewBotMoveCommand(matchID, parts[1], difficulty), nil
	case "":
		return Command{}, newMissingArgumentError("bot requires a subcommand (start, move)")
	default:
		return Command{}, newInvalidCommandError("bot " + sub)
	}
}

func (p *CommandParser) parseChat(args string) (Command, error) {
	to, text, ok := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if !ok || to == "" || text == "" {
		return Command{}, newMissingArgumentError("chat requires recipient and message")
	}
	return NewChatCommand(to, text), nil
}

func (p *CommandParser) parseGameChat(args string) (Command, error) {
	id, text, ok := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return Command{}, newMissingArgumentError("gchat requires match id and message")
	}
	matchID, err := parseID(id)
	if err != nil {
		return Command{}, err
	}
	return NewGameChatCommand(matchID, text), nil
}

func (p *CommandParser) parseLeaderboard(args string) (Command, error) {
	if args == "" {
		return NewLeaderboardCommand(DefaultLeaderboardLimit), nil
	}
	limit, err := strconv.Atoi(args)
	if err != nil || limit <= 0 {
		return Command{}, newInvalidValueError(args)
	}
	return NewLeaderboardCommand(limit), nil
}

func (p *CommandParser) parseUserCommand(args string, build func(userID int) Command) (Command, error) {
	parts, err := fields(args, 1, "user id required")
	if err != nil {
		return Command{}, err
	}
	id, err := parseID(parts[0])
	if err != nil {
		return Command{}, err
	}
	return build(id), nil
}

func (p *CommandParser) parseMatchCommand(args string, build func(matchID int) Command) (Command, error) {
	parts, err := fields(args, 1, "match id required")
	if err != nil {
		return Command{}, err
	}
	id, err := parseID(parts[0])
	if err != nil {
		return Command{}, err
	}
	return build(id), nil
}

// =============================================================================
// Helpers
// =============================================================================

// fields splits args on whitespace and requires exactly n fields.
func fields(args string, n int, msg string) ([]string, error) {
	parts := strings.Fields(args)
	if len(parts) != n {
		return nil, newMissingArgumentError(msg)
	}
	return parts, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, newInvalidIDError(s)
	}
	return id, nil
}

func parseIDs(ss []string) ([]int, error) {
	ids := make([]int, len(ss))
	for i, s := range ss {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// parseSquare checks board square syntax only.
func parseSquare(s string) (string, error) {
	sq := strings.ToLower(s)
	if !squarePattern.MatchString(sq) {
		return "", newInvalidSquareError(s)
	}
	return sq, nil
}
