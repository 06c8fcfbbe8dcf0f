// =============================================================================
// main.go - Chessline CLI Entry Point
// =============================================================================
//
// chessline is a terminal client for the chess server. It connects over
// TCP, speaks the newline-framed, pipe-delimited text protocol and offers a
// REPL for logging in, finding games and playing moves.
//
// Usage:
//
//	chessline                             Connect to localhost:8888
//	chessline --host chess.lan --port 9000
//	chessline --async                     Nonblocking mode with live notices
//	chessline --launch                    Start chess_server if none is running
//	chessline --help                      Show help
//
// The CLI supports two modes:
//   - Sync (default): each command waits for its reply before the prompt
//     returns.
//   - Async: the prompt returns at once; replies and pushes appear as they
//     arrive.
//
// Settings come from defaults, then chessline.yaml (or --config), then the
// environment, then flags.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/config"
	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/logger"
)

// =============================================================================
// Version Information
// =============================================================================

// GO CONCEPT: Constants
// ---------------------
// Go's "const" declares compile-time constants, grouped in a block with
// parentheses. They are limited to basic types (strings, numbers, booleans)
// and are untyped until used, which lets "4 * time.Second" style
// expressions work without conversions.
const (
	// version is the current version of the CLI.
	version = "0.3.0"

	// appName is the application name.
	appName = "Chessline"

	// copyright is the copyright notice.
	copyright = "Copyright (c) 2026"

	// defaultConfigFile is read when --config is not given. A missing file
	// is not an error.
	defaultConfigFile = "chessline.yaml"
)

// fullTitle returns the application name with version.
func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

// welcomeBanner returns the banner displayed when the REPL starts.
func welcomeBanner() string {
	return fmt.Sprintf(`%s - Chess Server Client
%s

Type '.help' for available commands.
Type '.quit' to exit.
`, fullTitle(), copyright)
}

// =============================================================================
// Command-Line Arguments
// =============================================================================

// arguments holds the parsed command-line arguments. Zero values mean
// "not given"; the configuration then decides.
type arguments struct {
	host       string
	port       int
	configPath string
	timeout    time.Duration
	logLevel   string

	// async selects the nonblocking poller loop.
	async bool

	// launch starts the server binary when nothing listens on the address.
	launch bool

	showHelp    bool
	showVersion bool
}

// parseArguments parses command-line arguments (without the program name).
//
// This is a simple hand-written parser. There are only a handful of flags
// and no subcommands, so a framework like cobra would be over-engineering.
func parseArguments(argv []string) (arguments, error) {
	args := arguments{}
	remaining := argv

	// value consumes the argument following a flag.
	value := func(flag string) (string, error) {
		if len(remaining) == 0 {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		v := remaining[0]
		remaining = remaining[1:]
		return v, nil
	}

	for len(remaining) > 0 {
		arg := remaining[0]
		remaining = remaining[1:]

		switch arg {
		case "--host":
			v, err := value(arg)
			if err != nil {
				return args, err
			}
			args.host = v

		case "--port", "-p":
			v, err := value(arg)
			if err != nil {
				return args, err
			}
			port, err := strconv.Atoi(v)
			if err != nil || port < 1 || port > 65535 {
				return args, fmt.Errorf("invalid port: %s", v)
			}
			args.port = port

		case "--config", "-c":
			v, err := value(arg)
			if err != nil {
				return args, err
			}
			args.configPath = v

		case "--timeout":
			v, err := value(arg)
			if err != nil {
				return args, err
			}
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return args, fmt.Errorf("invalid timeout: %s", v)
			}
			args.timeout = d

		case "--log-level":
			v, err := value(arg)
			if err != nil {
				return args, err
			}
			args.logLevel = v

		case "--async":
			args.async = true

		case "--launch":
			args.launch = true

		case "--help", "-h":
			args.showHelp = true

		case "--version", "-v":
			args.showVersion = true

		default:
			return args, fmt.Errorf("unknown argument: %s", arg)
		}
	}

	return args, nil
}

// loadSettings layers flags over the configuration file and environment.
func loadSettings(args arguments) (*config.Config, error) {
	path := args.configPath
	if path == "" {
		path = os.Getenv("CHESSLINE_CONFIG")
	}
	if path == "" {
		path = defaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if args.host != "" {
		cfg.Server.Host = args.host
	}
	if args.port != 0 {
		cfg.Server.Port = args.port
	}
	if args.timeout > 0 {
		cfg.Bridge.CommandTimeout = args.timeout
	}
	if args.logLevel != "" {
		cfg.Logging.Level = args.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Help and Usage
// =============================================================================

// printUsage prints usage information to stdout.
func printUsage() {
	fmt.Print(`USAGE: chessline [options]

OPTIONS:
  --host <host>         Server host (default localhost, env C_SERVER_HOST)
  --port, -p <port>     Server port (default 8888, env C_SERVER_PORT)
  --config, -c <path>   Settings file (default chessline.yaml)
  --timeout <dur>       Reply timeout, e.g. 5s or 750ms
  --log-level <level>   DEBUG, INFO, WARN or ERROR (logs go to stderr)
  --async               Nonblocking mode: prompt returns at once
  --launch              Start chess_server if nothing is listening
  --help, -h            Show this help
  --version, -v         Show version

EXAMPLES:
  chessline                          Connect to localhost:8888
  chessline --host 10.0.0.5          Connect to another machine
  chessline --async --launch         Start a local server, play live

MODES:
  In the default mode every command waits for its reply. With --async
  replies, opponent moves and clock updates appear as they arrive while
  you keep typing.
`)
}

// printVersion prints version information to stdout.
func printVersion() {
	fmt.Println(fullTitle())
}

// printError prints an error message to stderr.
func printError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// =============================================================================
// Signal Handling
// =============================================================================

// GO CONCEPT: Channels and Goroutines
// ------------------------------------
// signal.Notify delivers SIGINT and SIGTERM to a buffered channel instead
// of killing the process. A goroutine blocks on that channel and runs the
// cleanup when a signal arrives. "go func() { ... }()" starts the
// goroutine; the trailing () calls the function literal.

// setupSignalHandler installs handlers for SIGINT and SIGTERM so the CLI can
// clean up (save history, disconnect, optionally stop the server) on exit.
func setupSignalHandler(cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println()
		cleanup()
		os.Exit(0)
	}()
}

// =============================================================================
// Main
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without os.Exit, returning the exit status.
func run(argv []string) int {
	args, err := parseArguments(argv)
	if err != nil {
		printError(err.Error())
		printUsage()
		return 1
	}
	if args.showHelp {
		printUsage()
		return 0
	}
	if args.showVersion {
		printVersion()
		return 0
	}

	cfg, err := loadSettings(args)
	if err != nil {
		printError(err.Error())
		return 1
	}

	log, logCloser, err := logger.New(cfg.Logging, os.Stderr)
	if err != nil {
		printError(fmt.Sprintf("logging: %v", err))
		return 1
	}
	var closeLog sync.Once
	defer closeLog.Do(func() { logCloser.Close() })
	log = log.With("component", "chessline", "mode", modeName(args.async))

	var launchedPid int
	if args.launch && !serverListening(cfg.Address()) {
		fmt.Printf("No chess server on %s. Launching %s...\n", cfg.Address(), cfg.Server.Binary)
		launchedPid, err = launchServer(cfg.Server.Binary, cfg.Address())
		if err != nil {
			printError(fmt.Sprintf("Failed to start chess server: %v", err))
			stopServer(launchedPid, log)
			return 1
		}
		fmt.Printf("Chess server started (PID: %d)\n", launchedPid)
		log.Info("server launched", "pid", launchedPid, "binary", cfg.Server.Binary)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	editor := NewLineEditor()
	sess := &session{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			cancel()
			editor.Close()
			stopServer(launchedPid, log)
			closeLog.Do(func() { logCloser.Close() })
		})
	}
	setupSignalHandler(cleanup)
	defer cleanup()

	fmt.Print(welcomeBanner())
	fmt.Printf("Connecting to %s...\n", cfg.Address())

	if args.async {
		if err := runAsync(ctx, cfg, editor, sess, log); err != nil {
			printError(fmt.Sprintf("Failed to connect to chess server: %v", err))
			return 1
		}
		return 0
	}

	client := newSyncClient(cfg, sess, log)
	if err := client.Connect(ctx); err != nil {
		printError(fmt.Sprintf("Failed to connect to chess server: %v", err))
		return 1
	}
	defer client.Disconnect()

	if g := client.Conn().Greeting(); g != "" {
		fmt.Println(g)
	}
	fmt.Println()
	runREPL(ctx, client, editor, sess)
	return 0
}

func modeName(async bool) string {
	if async {
		return "async"
	}
	return "sync"
}

// stopServer sends SIGTERM to a server this process launched.
func stopServer(pid int, log *slog.Logger) {
	if pid <= 0 {
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Warn("stopping server", "pid", pid, "error", err)
		}
	}
}
