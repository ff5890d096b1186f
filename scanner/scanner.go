// Package scanner turns a SIMPL-2021 source byte stream into a stream of
// tokens. It owns the current source position, nested-comment skipping, and
// all lexical error messages -- none of which the parser duplicates.
package scanner

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/whkbester/simplc/diag"
	"github.com/whkbester/simplc/token"
)

const eof = -1

// Limits bounds the lexer's variable-length constructs. DefaultLimits
// matches the original fixed constants; cmd/simplc overrides them from the
// loaded config's [limits] section.
type Limits struct {
	MaxIDLength         int
	InitialStringBuffer int
}

// DefaultLimits returns the built-in limits used when New is called without
// an explicit Limits value.
func DefaultLimits() Limits {
	return Limits{MaxIDLength: 256, InitialStringBuffer: 1024}
}

// Scanner reads characters on demand from src and produces tokens.
type Scanner struct {
	r        *bufio.Reader
	filename string
	limits   Limits

	ch        int  // current (already-read) character, or eof
	line      int  // current line, 1-indexed
	col       int  // column of ch
	pendingNL bool // the previously read character was '\n'

	lastPos token.Pos // start of the token returned by the most recent NextToken call
}

// New creates a scanner over src with the default limits. filename is used
// only for diagnostic positions.
func New(src io.Reader, filename string) *Scanner {
	return NewWithLimits(src, filename, DefaultLimits())
}

// NewWithLimits creates a scanner over src with caller-supplied limits, for
// callers (cmd/simplc) that load overrides from config.
func NewWithLimits(src io.Reader, filename string, limits Limits) *Scanner {
	s := &Scanner{
		r:        bufio.NewReader(src),
		filename: filename,
		limits:   limits,
		line:     1,
		col:      0,
	}
	s.nextChar()
	return s
}

// nextChar reads the next byte, maintaining line/col the way the original
// scanner does: the newline that closes a line is only accounted for on the
// call that reads the byte *after* it, at which point line advances and col
// resets before being incremented for the new character.
func (s *Scanner) nextChar() {
	b, err := s.r.ReadByte()
	if err != nil {
		s.ch = eof
	} else {
		s.ch = int(b)
	}

	if s.pendingNL {
		s.line++
		s.col = 0
		s.pendingNL = false
	}
	s.col++
	if s.ch == '\n' {
		s.pendingNL = true
	}
}

func (s *Scanner) pos() token.Pos {
	return token.Pos{Line: s.line, Col: s.col}
}

// Pos exposes the start of the most recently scanned token, for callers
// (diagnostic wrappers, a future REPL) that need it outside the Token
// value itself.
func (s *Scanner) Pos() token.Pos {
	return s.lastPos
}

func (s *Scanner) errorf(pos token.Pos, format string, args ...any) error {
	return diag.New(diag.Position{Filename: s.filename, Line: pos.Line, Col: pos.Col}, diag.Lexical, format, args...)
}

func isAlpha(c int) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c int) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c int) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// NextToken scans and returns the next token, or a lexical error.
func (s *Scanner) NextToken() (token.Token, error) {
	for isSpace(s.ch) {
		s.nextChar()
	}

	startPos := s.pos()
	s.lastPos = startPos

	if s.ch == eof {
		return token.Token{Kind: token.EOF, Pos: startPos}, nil
	}

	switch {
	case isAlpha(s.ch) || s.ch == '_':
		return s.scanWord(startPos)
	case isDigit(s.ch):
		return s.scanNumber(startPos)
	}

	switch s.ch {
	case '"':
		s.nextChar()
		return s.scanString(startPos)
	case '=':
		s.nextChar()
		return token.Token{Kind: token.EQ, Pos: startPos}, nil
	case '#':
		s.nextChar()
		return token.Token{Kind: token.NE, Pos: startPos}, nil
	case '>':
		s.nextChar()
		if s.ch == '=' {
			s.nextChar()
			return token.Token{Kind: token.GE, Pos: startPos}, nil
		}
		return token.Token{Kind: token.GT, Pos: startPos}, nil
	case '<':
		s.nextChar()
		if s.ch == '=' {
			s.nextChar()
			return token.Token{Kind: token.LE, Pos: startPos}, nil
		}
		if s.ch == '-' {
			s.nextChar()
			return token.Token{Kind: token.GETS, Pos: startPos}, nil
		}
		return token.Token{Kind: token.LT, Pos: startPos}, nil
	case '-':
		s.nextChar()
		if s.ch == '>' {
			s.nextChar()
			return token.Token{Kind: token.TO, Pos: startPos}, nil
		}
		return token.Token{Kind: token.MINUS, Pos: startPos}, nil
	case '+':
		s.nextChar()
		return token.Token{Kind: token.PLUS, Pos: startPos}, nil
	case '/':
		s.nextChar()
		return token.Token{Kind: token.DIV, Pos: startPos}, nil
	case '*':
		s.nextChar()
		return token.Token{Kind: token.MUL, Pos: startPos}, nil
	case '%':
		s.nextChar()
		return token.Token{Kind: token.PERCENT, Pos: startPos}, nil
	case '&':
		s.nextChar()
		return token.Token{Kind: token.AMPERSAND, Pos: startPos}, nil
	case '[':
		s.nextChar()
		return token.Token{Kind: token.LBRACK, Pos: startPos}, nil
	case ']':
		s.nextChar()
		return token.Token{Kind: token.RBRACK, Pos: startPos}, nil
	case ',':
		s.nextChar()
		return token.Token{Kind: token.COMMA, Pos: startPos}, nil
	case ')':
		s.nextChar()
		return token.Token{Kind: token.RPAR, Pos: startPos}, nil
	case ';':
		s.nextChar()
		return token.Token{Kind: token.SEMICOLON, Pos: startPos}, nil
	case '(':
		s.nextChar()
		if s.ch == '*' {
			s.nextChar()
			if err := s.skipComment(startPos); err != nil {
				return token.Token{}, err
			}
			return s.NextToken()
		}
		return token.Token{Kind: token.LPAR, Pos: startPos}, nil
	default:
		bad := s.ch
		s.nextChar()
		return token.Token{}, s.errorf(startPos, "illegal character '%c' (ASCII #%d)", bad, bad)
	}
}

// skipComment consumes a (possibly nested) comment body; ch is the first
// character after the opening "(*" on entry. outerPos is the position of
// the outermost "(*" -- the recursion threads it down so an unterminated
// comment is always reported there, not at the innermost nesting level,
// without resorting to a counter (which cannot tell "*)(*" apart correctly).
func (s *Scanner) skipComment(outerPos token.Pos) error {
	for s.ch != eof {
		switch s.ch {
		case '(':
			s.nextChar()
			if s.ch == '*' {
				s.nextChar()
				if err := s.skipComment(outerPos); err != nil {
					return err
				}
			}
		case '*':
			s.nextChar()
			if s.ch == ')' {
				s.nextChar()
				return nil
			}
		default:
			s.nextChar()
		}
	}
	return s.errorf(outerPos, "comment not closed")
}

// scanNumber parses a decimal digit run, detecting 32-bit signed overflow
// via the classic sign-change test: v*10 + d is accumulated as a chain of
// 32-bit additions of non-negative values, and any one of those additions
// that overflows wraps to a negative sum.
func (s *Scanner) scanNumber(startPos token.Pos) (token.Token, error) {
	var v int32
	for isDigit(s.ch) {
		nv := int32(s.ch - '0')
		for i := 0; i < 10; i++ {
			nv += v
			if nv < 0 {
				return token.Token{}, s.errorf(startPos, "number too large")
			}
		}
		v = nv
		s.nextChar()
	}
	return token.Token{Kind: token.NUM, Pos: startPos, Value: v}, nil
}

// scanString parses a string literal; ch is the first character after the
// opening quote on entry.
func (s *Scanner) scanString(startPos token.Pos) (token.Token, error) {
	var b strings.Builder
	b.Grow(s.limits.InitialStringBuffer)

	for s.ch != '"' {
		if s.ch == eof {
			return token.Token{}, s.errorf(startPos, "string not closed")
		}
		if s.ch < 32 {
			bad := s.ch
			badPos := s.pos()
			return token.Token{}, s.errorf(badPos, "non-printable character (ASCII #%d) in string", bad)
		}
		if s.ch == '\\' {
			b.WriteByte('\\')
			escPos := s.pos()
			s.nextChar()
			switch s.ch {
			case 'n', 't', '"', '\\':
				// valid escape
			default:
				return token.Token{}, s.errorf(escPos, "illegal escape code '\\%c' in string", s.ch)
			}
			b.WriteByte(byte(s.ch))
			s.nextChar()
			continue
		}
		b.WriteByte(byte(s.ch))
		s.nextChar()
	}
	s.nextChar()
	return token.Token{Kind: token.STR, Pos: startPos, Lexeme: b.String()}, nil
}

// scanWord parses an identifier/keyword run bounded by limits.MaxIDLength,
// classifying it against the keyword table by binary search.
func (s *Scanner) scanWord(startPos token.Pos) (token.Token, error) {
	var b strings.Builder
	for isAlpha(s.ch) || isDigit(s.ch) || s.ch == '_' {
		if b.Len() >= s.limits.MaxIDLength {
			return token.Token{}, s.errorf(startPos, "identifier too long")
		}
		b.WriteByte(byte(s.ch))
		s.nextChar()
	}
	lexeme := b.String()

	if kind, ok := lookupKeyword(lexeme); ok {
		return token.Token{Kind: kind, Pos: startPos}, nil
	}
	return token.Token{Kind: token.ID, Pos: startPos, Lexeme: lexeme}, nil
}

var sortedKeywords = func() []string {
	ks := make([]string, 0, len(token.Keywords))
	for k := range token.Keywords {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}()

func lookupKeyword(lexeme string) (token.Kind, bool) {
	i := sort.SearchStrings(sortedKeywords, lexeme)
	if i < len(sortedKeywords) && sortedKeywords[i] == lexeme {
		return token.Keywords[lexeme], true
	}
	return 0, false
}
