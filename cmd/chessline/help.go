// =============================================================================
// help.go - Help System (Overview and Per-Command Help Text)
// =============================================================================
//
// This file implements the CLI help system. It provides:
//   - ".help"          full command listing
//   - ".help <topic>"  detailed help for one command
//
// Help text is organized into two dictionaries:
//   - dotHelp:     Help for local dot-commands (.status, .reconnect, ...)
//   - commandHelp: Help for chess server commands (login, move, mm, ...)
//
// Every server command has a long form that spells out the ids and, once
// logged in, a short form that takes them from the session. Both are shown.
//
// =============================================================================

package main

import (
	"fmt"
	"os"
	"strings"
)

// GO CONCEPT: Map Literals for Lookup Tables
// -------------------------------------------
// Go uses map[string]string for string-to-string dictionaries, built with
// composite literals. Lookup returns (value, ok); ok is false when the key
// is absent and value is then the zero value ("" for strings).

// printHelp displays the full listing, or detailed help for one topic.
//
// Topics are case-insensitive. A leading dot selects the local command:
// ".help .status" describes the dot-command, ".help status" the server
// command. Aliases ("mv", "resign", "top") resolve to the command they
// stand for.
func printHelp(topic string) {
	if topic == "" {
		printHelpOverview()
		return
	}

	key, dotted := strings.CutPrefix(strings.ToLower(topic), ".")
	if alias, ok := helpAliases[key]; ok {
		key = alias
	}
	if text, ok := commandHelp[key]; ok && !dotted {
		fmt.Println(text)
		return
	}
	if text, ok := dotHelp[key]; ok {
		fmt.Println(text)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

// printHelpOverview prints the full command listing.
func printHelpOverview() {
	fmt.Print(`Local Commands:
  .help [cmd]       Show help (or help for a specific command)
  .status           Show login, match and connection state
  .reconnect        Drop the connection and connect again
  .quit             Exit the CLI

Account:
  register <user> <pass> <email>   Create an account
  login <user> <pass>              Log in
  logout                           Log out

Playing:
  move <from> <to>                 Play a move (e.g. move e2 e4)
  status                           Show the active match
  resign                           Surrender the active match
  draw [accept|decline]            Offer, accept or decline a draw
  rematch [accept|decline]         Offer, accept or decline a rematch
  pause / resume                   Pause or resume the active match
  gchat <text>                     Chat with your opponent

Finding games:
  mm join [mode]                   Join matchmaking (default BLITZ)
  mm status / mm cancel            Check or leave the queue
  bot start [difficulty]           Play against the bot
  start / join                     Create or join a match by id

Social and records:
  friend list|requests             List friends or pending requests
  friend add|accept|decline <id>   Manage friend requests
  chat <user> <text>               Send a private message
  stats / history / elo            Your statistics and games
  replay <match>                   Moves of a finished match
  leaderboard [n]                  Top players (default 10)

Raw protocol frames such as "GET_STATS|7" are sent unchanged.
Type ".help <cmd>" for details.
`)
}

// helpAliases maps alternate command names to their help topic.
var helpAliases = map[string]string{
	"mv":          "move",
	"resign":      "surrender",
	"top":         "leaderboard",
	"matchmaking": "mm",
	"friends":     "friend",
	"gamechat":    "gchat",
	"exit":        "quit",
}

// dotHelp holds help for the local dot-commands.
var dotHelp = map[string]string{
	"help": `
.help [command]
  Show the command overview, or detailed help for one command.
  Examples: .help move, .help .status`,

	"status": `
.status
  Show who is logged in, the active match and the connection state.
  Nothing is sent to the server.`,

	"reconnect": `
.reconnect
  Close the connection and open a new one. The server forgets the
  login of a closed connection, so log in again afterwards.`,

	"quit": `
.quit
  Disconnect and exit the CLI. Ctrl-D does the same.`,
}

// commandHelp holds help for the chess server commands.
var commandHelp = map[string]string{
	"login": `
login <username> <password>
  Log in. The user id and elo from the reply fill in the short forms
  of later commands.
  Sends: LOGIN|<username>|<password>`,

	"register": `
register <username> <password> <email>
  Create an account. Log in separately afterwards.
  Sends: REGISTER|<username>|<password>|<email>`,

	"logout": `
logout [user]
  Log out and clear the session.
  Sends: LOGOUT|<user>`,

	"start": `
start <white-id> <white-name> <black-id> <black-name>
  Create a match between two players.
  Sends: START_MATCH|...`,

	"join": `
join <match> <player-id> <player-name>
  Join an existing match as the given player.
  Sends: JOIN_MATCH|<match>|<player-id>|<player-name>`,

	"status": `
status [match]
  Show the state of a match (default: the active match).
  Sends: GET_MATCH_STATUS|<match>`,

	"move": `
move <from> <to>
move <match> <user> <from> <to>
  Play a move. Squares are a1..h8; "move e2e4" also works. Against the
  bot the move is sent as a bot move.
  Sends: MOVE|<match>|<user>|<from>|<to>`,

	"surrender": `
surrender [<match> <user>]
  Resign the active match. Alias: resign.
  Sends: SURRENDER|<match>|<user>`,

	"draw": `
draw [accept|decline] [<match> <user>]
  Offer a draw, or answer the opponent's offer.
  Sends: DRAW, DRAW_ACCEPT or DRAW_DECLINE`,

	"rematch": `
rematch [accept|decline] [<match> <user>]
  Offer a rematch after a game, or answer the opponent's offer.
  Sends: REMATCH, REMATCH_ACCEPT or REMATCH_DECLINE`,

	"pause": `
pause [<match> <user>]
  Pause the active match. Both clocks stop.
  Sends: PAUSE|<match>|<user>`,

	"resume": `
resume [<match> <user>]
  Resume a paused match.
  Sends: RESUME|<match>|<user>`,

	"friend": `
friend list|requests [user]
friend add|accept|decline [user] <friend-id>
  Manage your friends list.
  Sends: FRIEND_LIST, FRIEND_REQUESTS, FRIEND_REQUEST, FRIEND_ACCEPT
  or FRIEND_DECLINE`,

	"chat": `
chat <user> <message>
  Send a private message. No reply is expected.
  Sends: CHAT|<user>|<message>`,

	"gchat": `
gchat [match] <message>
  Chat with your opponent in the active match. No reply is expected.
  Sends: GAME_CHAT|<match>|<message>`,

	"mm": `
mm join [mode]
mm status
mm cancel
  Matchmaking. "join" queues you at your current elo in the given time
  mode (default BLITZ). A MATCHED notice sets the active match.
  Sends: MMJOIN, MMSTATUS or MMCANCEL`,

	"bot": `
bot start [difficulty]
bot move <move>
  Play against the server's bot. Inside a bot match "move e2 e4" is
  sent as a bot move automatically.
  Sends: MODE_BOT or BOT_MOVE`,

	"history": `
history [user]
  List finished games.
  Sends: GET_HISTORY|<user>`,

	"replay": `
replay <match>
  Show the recorded moves of a match.
  Sends: GET_REPLAY|<match>`,

	"stats": `
stats [user]
  Show games, wins, losses, draws and elo.
  Sends: GET_STATS|<user>`,

	"elo": `
elo [user]
  Show how the rating changed over time.
  Sends: GET_ELO_HISTORY|<user>`,

	"leaderboard": `
leaderboard [n]
  Show the top n players (default 10). Alias: top.
  Sends: GET_LEADERBOARD|<n>`,
}
