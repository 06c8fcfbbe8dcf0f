package chessprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the chess protocol.
var (
	// ErrConnectionRefused indicates the server could not be reached.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrConnectionBroken indicates the socket failed in the middle of an
	// exchange (broken pipe, reset).
	ErrConnectionBroken = errors.New("connection broken")

	// ErrConnectionClosed indicates the server closed the connection.
	ErrConnectionClosed = errors.New("connection closed by server")

	// ErrTimeout indicates no matching reply arrived before the deadline.
	ErrTimeout = errors.New("timed out waiting for reply")

	// ErrProtocol is matched by every *ProtocolError.
	ErrProtocol = errors.New("protocol error")

	// ErrLineTooLong indicates a frame exceeded MaxLineLength.
	ErrLineTooLong = &ProtocolError{Reason: "line too long"}

	// ErrNotConnected indicates an operation was attempted without a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates connect was called while already connected.
	ErrAlreadyConnected = errors.New("already connected")
)

// ConnectionError represents a connection-related error. Kind is one of
// ErrConnectionRefused, ErrConnectionBroken, ErrConnectionClosed or
// ErrTimeout, so callers can use errors.Is with the sentinels.
type ConnectionError struct {
	Kind  error
	Op    string // "connect", "read", "write"
	Addr  string
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Addr, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Kind)
}

// Is reports whether target is the error's Kind.
func (e *ConnectionError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(kind error, op, addr string, cause error) error {
	return &ConnectionError{Kind: kind, Op: op, Addr: addr, Cause: cause}
}

// ProtocolError reports a frame that is empty, unparseable or too long.
// A ProtocolError never stops a read loop; the offending line is skipped.
type ProtocolError struct {
	Line   string
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("protocol error: %s: %q", e.Reason, e.Line)
	}
	return "protocol error: " + e.Reason
}

// Is makes errors.Is(err, ErrProtocol) match every ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// ApplicationError is the server answering a command with ERROR|<message>.
// It is an expected outcome, e.g. an illegal move, and leaves the
// connection healthy.
type ApplicationError struct {
	Command string // verb of the command that was refused
	Message string
	Frame   Frame
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.Command == "" {
		return "server error: " + e.Message
	}
	return fmt.Sprintf("%s: server error: %s", e.Command, e.Message)
}

// ParseError represents an error that occurred while parsing user command
// text or a reply's fields.
type ParseError struct {
	Kind    ParseErrorKind
	Value   string // The invalid value that caused the error
	Message string // Additional context
}

// ParseErrorKind categorizes parsing errors.
type ParseErrorKind int

const (
	// ErrKindInvalidCommand indicates an unknown or malformed command.
	ErrKindInvalidCommand ParseErrorKind = iota
	// ErrKindInvalidID indicates a user or match id that is not a positive integer.
	ErrKindInvalidID
	// ErrKindInvalidSquare indicates a board square outside a1..h8.
	ErrKindInvalidSquare
	// ErrKindInvalidValue indicates an invalid numeric value.
	ErrKindInvalidValue
	// ErrKindInvalidField indicates a field containing a separator or newline.
	ErrKindInvalidField
	// ErrKindMissingArgument indicates a required argument was not provided.
	ErrKindMissingArgument
	// ErrKindUnexpectedResponse indicates an unexpected response format.
	ErrKindUnexpectedResponse
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindInvalidCommand:
		return fmt.Sprintf("invalid command '%s'", e.Value)
	case ErrKindInvalidID:
		return fmt.Sprintf("invalid id '%s'", e.Value)
	case ErrKindInvalidSquare:
		return fmt.Sprintf("invalid square '%s'", e.Value)
	case ErrKindInvalidValue:
		return fmt.Sprintf("invalid value '%s'", e.Value)
	case ErrKindInvalidField:
		return fmt.Sprintf("invalid field %q", e.Value)
	case ErrKindMissingArgument:
		return e.Message
	case ErrKindUnexpectedResponse:
		return fmt.Sprintf("unexpected response: %s", e.Value)
	default:
		return fmt.Sprintf("parse error: %s", e.Value)
	}
}

func newInvalidCommandError(cmd string) error {
	return &ParseError{Kind: ErrKindInvalidCommand, Value: cmd}
}

func newInvalidIDError(id string) error {
	return &ParseError{Kind: ErrKindInvalidID, Value: id}
}

func newInvalidSquareError(sq string) error {
	return &ParseError{Kind: ErrKindInvalidSquare, Value: sq}
}

func newInvalidValueError(val string) error {
	return &ParseError{Kind: ErrKindInvalidValue, Value: val}
}

func newInvalidFieldError(field string) error {
	return &ParseError{Kind: ErrKindInvalidField, Value: field}
}

func newMissingArgumentError(msg string) error {
	return &ParseError{Kind: ErrKindMissingArgument, Message: msg}
}

func newUnexpectedResponseError(resp string) error {
	return &ParseError{Kind: ErrKindUnexpectedResponse, Value: resp}
}
