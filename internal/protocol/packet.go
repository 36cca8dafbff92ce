// Package protocol implements the wire format shared by all frostvale
// clients: NUL-delimited frames carrying either XML markup commands or
// compact %-separated tagged commands.
package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// fieldSep joins the tokens of a tagged frame.
	fieldSep = "%"

	// taggedHeader opens every tagged frame.
	taggedHeader = "xt"

	maxFrameSize = 8 * 1024
)

var (
	ErrMalformedTagged = errors.New("malformed tagged frame")
	ErrFrameTooLarge   = errors.New("frame exceeds maximum size")
)

var intForm = regexp.MustCompile(`^-?\d+$`)

// Args is the decoded argument list of a tagged command. Each element is an
// int or a string; order is significant and handler-specific.
type Args []any

// Int returns the argument at i when it is an integer.
func (a Args) Int(i int) (int, bool) {
	if i < 0 || i >= len(a) {
		return 0, false
	}
	n, ok := a[i].(int)
	return n, ok
}

// String returns the argument at i when it is a string.
func (a Args) String(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	s, ok := a[i].(string)
	return s, ok
}

// XT is a decoded tagged command: an action identifier plus its arguments.
type XT struct {
	Action string
	Args   Args
}

// IsTagged reports whether frame carries a tagged command.
func IsTagged(frame string) bool {
	return strings.HasPrefix(frame, fieldSep)
}

// IsMarkup reports whether frame carries an XML markup command.
func IsMarkup(frame string) bool {
	return strings.HasPrefix(frame, "<")
}

// ParseXT decodes a tagged frame of the form
// %xt%<namespace>%<action>%<arg0>%<arg1>...%. The namespace token is
// transport routing noise and is skipped. Argument tokens matching the
// integer lexical form are coerced to int; everything else stays a string.
// Zero-argument commands are valid.
func ParseXT(frame string) (*XT, error) {
	if len(frame) > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	tokens := splitFields(frame)
	if len(tokens) < 3 || tokens[0] != taggedHeader {
		return nil, fmt.Errorf("%w: %q", ErrMalformedTagged, frame)
	}

	args := make(Args, 0, len(tokens)-3)
	for _, tok := range tokens[3:] {
		args = append(args, coerce(tok))
	}

	return &XT{Action: tokens[2], Args: args}, nil
}

// MakeXT encodes an outbound tagged frame from a heterogeneous value list.
// Ints and strings are rendered directly; fmt.Stringer values contribute
// their own field-joined form (rosters, furniture records). The frame
// delimiter is appended by the connection writer, not here.
func MakeXT(args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, taggedHeader)
	for _, a := range args {
		parts = append(parts, fieldString(a))
	}
	return fieldSep + strings.Join(parts, fieldSep) + fieldSep
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// splitFields drops empty tokens so consecutive separators and the
// leading/trailing % collapse away, matching the legacy client encoder.
func splitFields(frame string) []string {
	raw := strings.Split(frame, fieldSep)
	fields := raw[:0]
	for _, tok := range raw {
		if tok != "" {
			fields = append(fields, tok)
		}
	}
	return fields
}

func coerce(tok string) any {
	if intForm.MatchString(tok) {
		if n, err := strconv.Atoi(tok); err == nil {
			return n
		}
	}
	return tok
}
