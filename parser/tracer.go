package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/whkbester/simplc/diag"
	"github.com/whkbester/simplc/token"
)

// Tracer prints an indented grammar-rule call trace, the always-compiled
// successor to the original compiler's DEBUG_PARSER build flag. A nil
// *Tracer is a valid no-op receiver, so every grammar method can call
// p.tracer.enter/exit unconditionally with zero cost when tracing is off.
// Each call is recorded as a diag.Notice -- positioned at the lookahead
// token active when the rule was entered or exited -- so --trace-parse
// output is the same wire format as every other simplc diagnostic, rather
// than a one-off print format.
type Tracer struct {
	w        io.Writer
	filename string
	depth    int
	notices  diag.List
}

// NewTracer creates a Tracer writing to w; filename is used only to position
// the notices it records.
func NewTracer(w io.Writer, filename string) *Tracer {
	return &Tracer{w: w, filename: filename}
}

// Notices returns every notice recorded so far, in emission order.
func (t *Tracer) Notices() []diag.Notice {
	if t == nil {
		return nil
	}
	return t.notices.Notices()
}

func (t *Tracer) record(pos token.Pos, arrow, rule string) diag.Notice {
	n := diag.Notice{
		Pos:     diag.Position{Filename: t.filename, Line: pos.Line, Col: pos.Col},
		Message: fmt.Sprintf("%s%s %s", strings.Repeat("  ", t.depth), arrow, rule),
	}
	t.notices.AddNotice(n)
	fmt.Fprintln(t.w, n.String())
	return n
}

func (t *Tracer) enter(pos token.Pos, rule string) {
	if t == nil {
		return
	}
	t.record(pos, "->", rule)
	t.depth++
}

func (t *Tracer) exit(pos token.Pos, rule string) {
	if t == nil {
		return
	}
	t.depth--
	t.record(pos, "<-", rule)
}
