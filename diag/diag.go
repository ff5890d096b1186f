// Package diag defines simplc's positioned diagnostic errors and their
// single-line wire format: "<source>:<line>:<col>: <message>".
package diag

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Position locates a diagnostic in a source file.
type Position struct {
	Filename string
	Line     int
	Col      int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Col)
}

// ErrorKind categorizes a diagnostic for callers that want to branch on it
// (tests, tooling) without string-matching the message.
type ErrorKind int

const (
	Lexical ErrorKind = iota
	Syntactic
	Semantic
)

// Error is a single fatal diagnostic. SIMPL-2021 compilation has no
// recovery, so only ever one Error is produced per run.
type Error struct {
	Pos     Position
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// MaxMessageLength caps the length of Message text built by New, beyond
// which it is truncated with a trailing "...". Zero (the default) means
// unlimited. cmd/simplc sets this once at startup from the loaded config's
// limits.max_message_length before any diagnostic is built.
var MaxMessageLength int

func truncate(s string) string {
	if MaxMessageLength <= 0 || len(s) <= MaxMessageLength {
		return s
	}
	if MaxMessageLength <= 3 {
		return s[:MaxMessageLength]
	}
	return s[:MaxMessageLength-3] + "..."
}

// New builds an Error with a formatted message, truncated to MaxMessageLength
// if one is set.
func New(pos Position, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Pos: pos, Kind: kind, Message: truncate(fmt.Sprintf(format, args...))}
}

// Notice is a non-fatal, informational diagnostic: used by --trace-parse and
// --dump-symbols, which want to report things without the no-recovery abort
// semantics of Error.
type Notice struct {
	Pos     Position
	Message string
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: note: %s", n.Pos, n.Message)
}

// List collects notices alongside the (at most one) fatal error actually
// surfaced to the user. The compiler's no-recovery policy means List is
// never used to accumulate multiple fatal errors -- the parser already
// returns on the first one -- but --trace-parse and --dump-symbols both want
// to collect informational notices the same way, so the aggregator earns
// its keep here rather than being duplicated per feature.
type List struct {
	notices []Notice
}

func (l *List) AddNotice(n Notice) {
	l.notices = append(l.notices, n)
}

func (l *List) Notices() []Notice {
	return l.notices
}

// ColorMode controls whether Format ANSI-highlights the position prefix.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses the "auto"|"always"|"never" config/flag value.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

func (m ColorMode) enabled(w *os.File) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return term.IsTerminal(int(w.Fd()))
	}
}

const (
	ansiBoldRed = "\x1b[1;31m"
	ansiReset   = "\x1b[0m"
)

// Format renders err as simplc's single-line diagnostic, colorizing the
// "<source>:<line>:<col>:" prefix when mode is ColorAlways, or when mode is
// ColorAuto and w is a terminal. The message text itself is never altered:
// colorization only wraps the prefix, so redirected output (as in test
// harnesses) under ColorAuto or ColorNever is byte-for-byte the plain form.
func Format(err *Error, w *os.File, mode ColorMode) string {
	prefix := err.Pos.String() + ":"
	if mode.enabled(w) {
		return fmt.Sprintf("%s%s%s %s", ansiBoldRed, prefix, ansiReset, err.Message)
	}
	return fmt.Sprintf("%s %s", prefix, err.Message)
}
