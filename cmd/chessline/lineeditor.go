// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// This file implements a dual-mode line editor for the chessline REPL.
// It detects whether the terminal is interactive (TTY) or not (piped input,
// a script, Emacs comint) and picks the input method:
//
//   - Interactive mode: ergochat/readline for line editing with Emacs
//     keybindings, persistent history and Ctrl-R history search.
//   - Non-interactive mode: bufio.Scanner for plain line-by-line reading,
//     printing the prompt to stdout by hand.
//
// History is kept in ~/.chessline_history, capped at 500 entries.
//
// In async mode, notices arrive while the user is typing. Notify prints
// them through readline so the prompt and the half-typed line are redrawn
// underneath instead of being overwritten.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the history file in the user's home directory.
	historyFileName = ".chessline_history"

	// historySize is the maximum number of history entries to retain.
	historySize = 500
)

// GO CONCEPT: Interfaces and Structural Typing
// ---------------------------------------------
// readline.Instance and bufio.Scanner read input through different APIs.
// LineEditor hides both behind GetLine/Close, and callers never learn which
// one is in use. Nothing declares that LineEditor "implements" anything;
// in Go a type satisfies an interface simply by having its methods.

// LineEditor wraps line input with dual-mode operation.
type LineEditor struct {
	// interactive is true when stdin is a TTY and we are not under Emacs.
	interactive bool

	// rl is the readline instance used in interactive mode, nil otherwise.
	rl *readline.Instance

	// scanner reads lines from stdin in non-interactive mode.
	scanner *bufio.Scanner

	// out receives prompts and notices in non-interactive mode.
	out io.Writer

	// mu serializes Notify with prompt printing in non-interactive mode.
	mu sync.Mutex
}

// NewLineEditor creates a LineEditor, choosing the mode from the terminal.
//
// The INSIDE_EMACS environment variable forces non-interactive mode because
// Emacs already provides its own line editing.
func NewLineEditor() *LineEditor {
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newPlainEditor()
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:  filepath.Join(homeDir(), historyFileName),
		HistoryLimit: historySize,
		// Lines are saved by hand so empty input never reaches history.
		DisableAutoSaveHistory: true,
		// The prompt changes with the session, so it is set before each read.
		Prompt: "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newPlainEditor()
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

func newPlainEditor() *LineEditor {
	// Long HISTORY lines are pasted back sometimes; allow them.
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LineEditor{
		interactive: false,
		scanner:     scanner,
		out:         os.Stdout,
	}
}

// GetLine reads one line with the given prompt.
//
// It returns ("", io.EOF) on Ctrl-D, on Ctrl-C and when piped input is
// exhausted.
//
// GO CONCEPT: Sentinel Errors
// ---------------------------
// io.EOF is a predefined error value used as a signal, not a failure.
// Callers compare against it (errors.Is(err, io.EOF)) to tell "input is
// over" apart from a real read error.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	// Comint matches the prompt to find where user input begins, so it is
	// printed even without a terminal.
	le.mu.Lock()
	fmt.Fprint(le.out, prompt)
	le.mu.Unlock()

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Notify prints text on its own line while a read may be in progress on
// another goroutine.
func (le *LineEditor) Notify(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if le.interactive && le.rl != nil {
		le.rl.Write([]byte(text))
		return
	}
	le.mu.Lock()
	defer le.mu.Unlock()
	fmt.Fprint(le.out, text)
}

// Close saves history and releases the terminal. It is safe to call more
// than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether full line editing is active.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
