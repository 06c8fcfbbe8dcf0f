package chessprotocol

import (
	"bytes"
	"strconv"
	"strings"
)

// Frame is one decoded protocol line.
//
// Verb is the first '|' field. A handful of server replies use spaces
// instead of pipes ("MATCHED 12 3 4 white", "ERROR INVALID MOVE"); for
// those the verb is the first space token and the remaining tokens become
// the leading fields.
type Frame struct {
	Raw    string   // the line without its terminator
	Verb   string   // e.g. "LOGIN_SUCCESS"
	Fields []string // fields after the verb, possibly empty
}

// ParseFrame decodes a single line. One trailing '\r' and the '\n'
// terminator are stripped. An empty or whitespace-only line is a
// *ProtocolError.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if strings.TrimSpace(line) == "" {
		return Frame{}, &ProtocolError{Line: line, Reason: "empty frame"}
	}
	if strings.ContainsAny(line, "\n") {
		return Frame{}, &ProtocolError{Line: line, Reason: "embedded newline"}
	}

	parts := strings.Split(line, FieldSeparator)
	head := strings.TrimSpace(parts[0])
	rest := parts[1:]

	if strings.ContainsAny(head, " \t") {
		tokens := strings.Fields(head)
		head = tokens[0]
		rest = append(tokens[1:], rest...)
	}
	if head == "" {
		return Frame{}, &ProtocolError{Line: line, Reason: "missing verb"}
	}

	return Frame{Raw: line, Verb: head, Fields: rest}, nil
}

// FormatFrame joins a verb and its fields into a wire line without the
// terminator.
func FormatFrame(verb string, fields ...string) string {
	if len(fields) == 0 {
		return verb
	}
	return verb + FieldSeparator + strings.Join(fields, FieldSeparator)
}

// Field returns field i, or "" if the frame has fewer fields.
func (f Frame) Field(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i]
}

// Int parses field i as a decimal integer.
func (f Frame) Int(i int) (int, error) {
	s := strings.TrimSpace(f.Field(i))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, newInvalidValueError(s)
	}
	return n, nil
}

// Rest rejoins fields i.. with '|'. Chat text and JSON payloads may
// themselves contain the separator, so decoders read them with Rest.
func (f Frame) Rest(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return strings.Join(f.Fields[i:], FieldSeparator)
}

// NumFields returns the number of fields after the verb.
func (f Frame) NumFields() int {
	return len(f.Fields)
}

// IsError returns true if the frame is an ERROR reply.
func (f Frame) IsError() bool {
	return f.Verb == ErrorVerb
}

// IsZero reports whether f is the zero Frame, as returned for
// fire-and-forget commands.
func (f Frame) IsZero() bool {
	return f.Raw == "" && f.Verb == "" && f.Fields == nil
}

// ErrorMessage returns the human readable part of an ERROR frame in both
// the "ERROR|msg" and "ERROR msg" forms.
func (f Frame) ErrorMessage() string {
	if !f.IsError() {
		return ""
	}
	msg := strings.TrimPrefix(strings.TrimSpace(f.Raw), ErrorVerb)
	msg = strings.TrimLeft(msg, " "+FieldSeparator)
	return strings.TrimSpace(msg)
}

// String returns the raw line.
func (f Frame) String() string {
	return f.Raw
}

// encodeLine validates a single outbound line and returns it with its
// terminator. A line that already ends in '\n' is accepted once.
func encodeLine(line string) ([]byte, error) {
	body := strings.TrimSuffix(line, "\n")
	if strings.TrimSpace(body) == "" {
		return nil, &ProtocolError{Line: line, Reason: "empty frame"}
	}
	if strings.ContainsAny(body, "\r\n") {
		return nil, &ProtocolError{Line: line, Reason: "embedded newline"}
	}
	if len(body) > MaxLineLength {
		return nil, &ProtocolError{Line: body[:64], Reason: "line too long"}
	}
	buf := make([]byte, 0, len(body)+1)
	buf = append(buf, body...)
	return append(buf, FrameTerminator), nil
}

// lineBuffer accumulates raw bytes and splits them into complete lines,
// keeping the trailing partial line for the next append.
type lineBuffer struct {
	buf []byte
	max int
}

func newLineBuffer(max int) *lineBuffer {
	if max <= 0 {
		max = MaxLineLength
	}
	return &lineBuffer{max: max}
}

// Append stores p and returns every line completed by it, without
// terminators. If the partial tail grows beyond the limit the buffer is
// reset and ErrLineTooLong is returned together with the lines that were
// complete before the overflow.
func (b *lineBuffer) Append(p []byte) ([]string, error) {
	b.buf = append(b.buf, p...)

	var lines []string
	for {
		i := bytes.IndexByte(b.buf, FrameTerminator)
		if i < 0 {
			break
		}
		if i > b.max {
			b.Reset()
			return lines, ErrLineTooLong
		}
		lines = append(lines, string(b.buf[:i]))
		b.buf = b.buf[i+1:]
	}

	if len(b.buf) > b.max {
		b.Reset()
		return lines, ErrLineTooLong
	}

	// Compact so the backing array does not grow without bound.
	if len(b.buf) == 0 {
		b.buf = b.buf[:0:0]
	}
	return lines, nil
}

// Len returns the number of buffered bytes.
func (b *lineBuffer) Len() int {
	return len(b.buf)
}

// Reset drops all buffered bytes.
func (b *lineBuffer) Reset() int {
	n := len(b.buf)
	b.buf = nil
	return n
}
