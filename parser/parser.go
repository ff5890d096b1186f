// Package parser implements SIMPL-2021's recursive-descent parser: a single
// pass over the token stream that checks types and emits Jasmin-targeting
// stack-VM instructions as it recognizes each grammar rule. There is no
// separate AST and no second pass -- the grammar method IS the type checker
// IS the emitter, in the style of the source this was distilled from.
package parser

import (
	"fmt"
	"io"

	"github.com/whkbester/simplc/codegen"
	"github.com/whkbester/simplc/diag"
	"github.com/whkbester/simplc/scanner"
	"github.com/whkbester/simplc/symtab"
	"github.com/whkbester/simplc/token"
)

// Parser holds the single piece of mutable state a SIMPL-2021 compile needs:
// the current lookahead token, the scanner it came from, the two-scope
// symbol table, and the code emitter. Every grammar rule is a method on
// *Parser, threading this state the way the original threaded module
// globals.
type Parser struct {
	sc       *scanner.Scanner
	filename string
	tok      token.Token
	sym      *symtab.SymbolTable
	emit     *codegen.Emitter
	tracer   *Tracer
}

// Limits bundles the scanner and symbol table limits a compile runs with.
// DefaultLimits matches New/Compile's built-in behavior; cmd/simplc builds
// one from the loaded config's [limits] section and calls the *WithLimits
// variants instead.
type Limits struct {
	Scanner          scanner.Limits
	HashTableMaxLoad float64
}

// DefaultLimits returns the limits New/Compile use.
func DefaultLimits() Limits {
	return Limits{Scanner: scanner.DefaultLimits(), HashTableMaxLoad: 0.75}
}

// Compile parses and compiles src in one call, returning the emitter ready
// for MakeCodeFile/Assemble and the closed symbol table for --dump-symbols.
func Compile(src io.Reader, filename string, tracer *Tracer) (*codegen.Emitter, *symtab.SymbolTable, error) {
	return CompileWithLimits(src, filename, tracer, DefaultLimits())
}

// CompileWithLimits is Compile with caller-supplied scanner/symbol table
// limits, for callers (cmd/simplc) that load overrides from config.
func CompileWithLimits(src io.Reader, filename string, tracer *Tracer, limits Limits) (*codegen.Emitter, *symtab.SymbolTable, error) {
	p, err := NewWithLimits(src, filename, tracer, limits)
	if err != nil {
		return nil, nil, err
	}
	if err := p.ParseProgram(); err != nil {
		return nil, nil, err
	}
	return p.Emitter(), p.SymbolTable(), nil
}

// New creates a parser over src and primes the first lookahead token.
func New(src io.Reader, filename string, tracer *Tracer) (*Parser, error) {
	return NewWithLimits(src, filename, tracer, DefaultLimits())
}

// NewWithLimits is New with caller-supplied scanner/symbol table limits.
func NewWithLimits(src io.Reader, filename string, tracer *Tracer, limits Limits) (*Parser, error) {
	p := &Parser{
		sc:       scanner.NewWithLimits(src, filename, limits.Scanner),
		filename: filename,
		sym:      symtab.NewWithMaxLoad(limits.HashTableMaxLoad),
		emit:     codegen.New(),
		tracer:   tracer,
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Emitter returns the code emitter accumulating this parse's instructions.
func (p *Parser) Emitter() *codegen.Emitter {
	return p.emit
}

// SymbolTable returns the (by-then-closed, global-scope-only) symbol table,
// for --dump-symbols.
func (p *Parser) SymbolTable() *symtab.SymbolTable {
	return p.sym
}

// trace records rule's entry at the current lookahead and returns a closure
// that records its exit; the closure reads the lookahead at call time, so
// `defer p.trace(rule)()` captures the token active at each edge rather than
// freezing the entry position for both.
func (p *Parser) trace(rule string) func() {
	p.tracer.enter(p.tok.Pos, rule)
	return func() { p.tracer.exit(p.tok.Pos, rule) }
}

func (p *Parser) advance() error {
	tok, err := p.sc.NextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) errorf(pos token.Pos, kind diag.ErrorKind, format string, args ...any) error {
	return diag.New(diag.Position{Filename: p.filename, Line: pos.Line, Col: pos.Col}, kind, format, args...)
}

func (p *Parser) semanticErr(pos token.Pos, format string, args ...any) error {
	return p.errorf(pos, diag.Semantic, format, args...)
}

// syntaxErr reports "expected <what>, but found <tok>" at the current
// lookahead, for grammar alternatives that don't reduce to a single expected
// token kind (e.g. "factor", "statement").
func (p *Parser) syntaxErr(what string) error {
	return p.errorf(p.tok.Pos, diag.Syntactic, "expected %s, but found %s", what, p.tok)
}

// expect consumes the lookahead if it matches k, or raises a syntax error
// naming k's literal spelling.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.tok.Kind != k {
		return token.Token{}, p.errorf(p.tok.Pos, diag.Syntactic, "expected %s, but found %s", k, p.tok)
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// expectID consumes an identifier. The lexeme is already a fresh Go string
// (scanWord builds it into its own strings.Builder), so no extra copy is
// needed before the next advance -- unlike the source, whose ownership
// discipline required one explicitly.
func (p *Parser) expectID() (token.Token, error) {
	return p.expect(token.ID)
}

// checkTypes aborts with the fixed "incompatible types" message when found
// and expected differ.
func (p *Parser) checkTypes(found, expected symtab.ValType, pos token.Pos, context string, args ...any) error {
	if found != expected {
		return p.semanticErr(pos, "incompatible types (expected %s, found %s) %s", expected, found, fmt.Sprintf(context, args...))
	}
	return nil
}

func startsExpr(k token.Kind) bool {
	switch k {
	case token.ID, token.NUM, token.TRUE, token.FALSE, token.LPAR, token.NOT, token.MINUS:
		return true
	default:
		return false
	}
}

func isRelop(k token.Kind) bool {
	switch k {
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return true
	default:
		return false
	}
}

func isAddop(k token.Kind) bool {
	switch k {
	case token.PLUS, token.MINUS, token.OR:
		return true
	default:
		return false
	}
}

func isMulop(k token.Kind) bool {
	switch k {
	case token.MUL, token.DIV, token.PERCENT, token.MOD, token.AND:
		return true
	default:
		return false
	}
}

func relOp(k token.Kind) codegen.Op {
	switch k {
	case token.EQ:
		return codegen.IFICMPEQ
	case token.NE:
		return codegen.IFICMPNE
	case token.LT:
		return codegen.IFICMPLT
	case token.LE:
		return codegen.IFICMPLE
	case token.GT:
		return codegen.IFICMPGT
	default:
		return codegen.IFICMPGE
	}
}

func addOp(k token.Kind) codegen.Op {
	switch k {
	case token.PLUS:
		return codegen.IADD
	case token.MINUS:
		return codegen.ISUB
	default:
		return codegen.IOR
	}
}

func mulOp(k token.Kind) codegen.Op {
	switch k {
	case token.MUL:
		return codegen.IMUL
	case token.DIV:
		return codegen.IDIV
	case token.PERCENT, token.MOD:
		return codegen.IREM
	default:
		return codegen.IAND
	}
}

func arrayElem(base symtab.ValType) codegen.ArrayElem {
	if base == symtab.TypeBoolean {
		return codegen.TBoolean
	}
	return codegen.TInt
}

// ParseProgram parses the whole source unit: program = "program" id
// { funcdef } body .
func (p *Parser) ParseProgram() error {
	defer p.trace("program")()

	if _, err := p.expect(token.PROGRAM); err != nil {
		return err
	}
	nameTok, err := p.expectID()
	if err != nil {
		return err
	}
	p.emit.SetClassName(nameTok.Lexeme)

	for p.tok.Kind == token.DEFINE {
		if err := p.parseFuncdef(); err != nil {
			return err
		}
	}
	p.emit.InitSubroutineCodegen("main", nil)
	if err := p.parseBody(); err != nil {
		return err
	}
	p.emit.Gen1(codegen.RETURN)
	p.emit.CloseSubroutineCodegen(p.sym.VariablesWidth())
	return nil
}

// parseFuncdef: funcdef = "define" id "(" [ type id { "," type id } ] ")"
// [ "->" type ] body .
func (p *Parser) parseFuncdef() error {
	defer p.trace("funcdef")()

	if _, err := p.expect(token.DEFINE); err != nil {
		return err
	}
	nameTok, err := p.expectID()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LPAR); err != nil {
		return err
	}

	var paramTypes []symtab.ValType
	var paramNames []token.Token
	if p.tok.Kind != token.RPAR {
		for {
			t, err := p.parseType()
			if err != nil {
				return err
			}
			idTok, err := p.expectID()
			if err != nil {
				return err
			}
			paramTypes = append(paramTypes, t)
			paramNames = append(paramNames, idTok)
			if p.tok.Kind != token.COMMA {
				break
			}
			if _, err := p.expect(token.COMMA); err != nil {
				return err
			}
		}
	}
	if _, err := p.expect(token.RPAR); err != nil {
		return err
	}

	callableType := symtab.TypeCallable
	if p.tok.Kind == token.TO {
		if _, err := p.expect(token.TO); err != nil {
			return err
		}
		retType, err := p.parseType()
		if err != nil {
			return err
		}
		callableType |= retType
	}

	prop := &symtab.IdProp{Type: callableType, NParams: uint32(len(paramTypes)), Params: paramTypes, Pos: nameTok.Pos}
	if !p.sym.OpenSubroutine(nameTok.Lexeme, prop) {
		return p.semanticErr(nameTok.Pos, "multiple definition of '%s'", nameTok.Lexeme)
	}
	p.emit.InitSubroutineCodegen(nameTok.Lexeme, prop)

	for i, idTok := range paramNames {
		off := p.sym.VariablesWidth()
		if !p.sym.Insert(idTok.Lexeme, &symtab.IdProp{Type: paramTypes[i], Offset: off, Pos: idTok.Pos}) {
			return p.semanticErr(idTok.Pos, "multiple definition of '%s'", idTok.Lexeme)
		}
	}

	if err := p.parseBody(); err != nil {
		return err
	}
	p.emit.Gen1(codegen.RETURN)
	p.emit.CloseSubroutineCodegen(p.sym.VariablesWidth())
	p.sym.CloseSubroutine()
	return nil
}

// parseBody: body = "begin" { vardef } statements "end" .
func (p *Parser) parseBody() error {
	defer p.trace("body")()

	if _, err := p.expect(token.BEGIN); err != nil {
		return err
	}
	for p.tok.Kind == token.BOOLEAN || p.tok.Kind == token.INTEGER {
		if err := p.parseVardef(); err != nil {
			return err
		}
	}
	if err := p.parseStatements(); err != nil {
		return err
	}
	_, err := p.expect(token.END)
	return err
}

// parseVardef: vardef = type id { "," id } ";" . vardefPos is remembered
// before the leading type keyword is consumed; a duplicate-name diagnostic
// is reported there, one column short of the type keyword's own start --
// the construct-start-remembered-early quirk described in the error
// handling design, preserved exactly for this, the one place a concrete
// test scenario pins its column.
func (p *Parser) parseVardef() error {
	defer p.trace("vardef")()

	vardefPos := p.tok.Pos
	t, err := p.parseType()
	if err != nil {
		return err
	}
	idTok, err := p.expectID()
	if err != nil {
		return err
	}
	if err := p.declareVar(idTok, t, vardefPos); err != nil {
		return err
	}
	for p.tok.Kind == token.COMMA {
		if _, err := p.expect(token.COMMA); err != nil {
			return err
		}
		idTok2, err := p.expectID()
		if err != nil {
			return err
		}
		if err := p.declareVar(idTok2, t, vardefPos); err != nil {
			return err
		}
	}
	_, err = p.expect(token.SEMICOLON)
	return err
}

func (p *Parser) declareVar(idTok token.Token, t symtab.ValType, vardefPos token.Pos) error {
	off := p.sym.VariablesWidth()
	if !p.sym.Insert(idTok.Lexeme, &symtab.IdProp{Type: t, Offset: off, Pos: idTok.Pos}) {
		pos := token.Pos{Line: vardefPos.Line, Col: vardefPos.Col - 1}
		return p.semanticErr(pos, "multiple definition of '%s'", idTok.Lexeme)
	}
	return nil
}

// parseType: type = ("boolean" | "integer") [ "array" ] .
func (p *Parser) parseType() (symtab.ValType, error) {
	var base symtab.ValType
	switch p.tok.Kind {
	case token.BOOLEAN:
		base = symtab.TypeBoolean
	case token.INTEGER:
		base = symtab.TypeInteger
	default:
		return 0, p.syntaxErr("type")
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if p.tok.Kind == token.ARRAY {
		base = base.SetArray()
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	return base, nil
}

// parseStatements: statements = "chill" | statement { ";" statement } .
func (p *Parser) parseStatements() error {
	defer p.trace("statements")()

	if p.tok.Kind == token.CHILL {
		return p.advance()
	}
	if err := p.parseStatement(); err != nil {
		return err
	}
	for p.tok.Kind == token.SEMICOLON {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

// parseStatement: statement = exit | if | name | read | while | write .
func (p *Parser) parseStatement() error {
	defer p.trace("statement")()

	switch p.tok.Kind {
	case token.EXIT:
		return p.parseExit()
	case token.IF:
		return p.parseIf()
	case token.ID:
		return p.parseName()
	case token.READ:
		return p.parseRead()
	case token.WHILE:
		return p.parseWhile()
	case token.WRITE:
		return p.parseWrite()
	default:
		return p.syntaxErr("statement")
	}
}

// parseExit: exit = "exit" [ expr ] . The resolved reading of the original's
// incomplete exit/return-type handling: the optional expression is parsed
// and type-checked against nothing in particular, and every subroutine
// (function or procedure) ends in a plain RETURN regardless of how many
// exits preceded it or what type they carried.
func (p *Parser) parseExit() error {
	defer p.trace("exit")()

	if _, err := p.expect(token.EXIT); err != nil {
		return err
	}
	if startsExpr(p.tok.Kind) {
		if _, err := p.parseExpr(); err != nil {
			return err
		}
	}
	p.emit.Gen1(codegen.RETURN)
	return nil
}

// parseIf: if = "if" expr "then" statements { "elsif" expr "then" statements }
// [ "else" statements ] "end" .
func (p *Parser) parseIf() error {
	defer p.trace("if")()

	ifPos := p.tok.Pos
	if _, err := p.expect(token.IF); err != nil {
		return err
	}
	guardType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.checkTypes(guardType, symtab.TypeBoolean, ifPos, "for 'if' guard"); err != nil {
		return err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return err
	}

	endLabel := p.emit.NewLabel()
	nextLabel := p.emit.NewLabel()
	p.emit.GenJumpIfFalse(nextLabel)
	if err := p.parseStatements(); err != nil {
		return err
	}
	p.emit.GenJump(endLabel)
	p.emit.GenLabel(nextLabel)

	for p.tok.Kind == token.ELSIF {
		elsifPos := p.tok.Pos
		if err := p.advance(); err != nil {
			return err
		}
		elsifType, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.checkTypes(elsifType, symtab.TypeBoolean, elsifPos, "for 'elsif' guard"); err != nil {
			return err
		}
		if _, err := p.expect(token.THEN); err != nil {
			return err
		}
		branchLabel := p.emit.NewLabel()
		p.emit.GenJumpIfFalse(branchLabel)
		if err := p.parseStatements(); err != nil {
			return err
		}
		p.emit.GenJump(endLabel)
		p.emit.GenLabel(branchLabel)
	}

	if p.tok.Kind == token.ELSE {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.parseStatements(); err != nil {
			return err
		}
	}

	if _, err := p.expect(token.END); err != nil {
		return err
	}
	p.emit.GenLabel(endLabel)
	return nil
}

// parseWhile: while = "while" expr "do" statements "end" .
func (p *Parser) parseWhile() error {
	defer p.trace("while")()

	whilePos := p.tok.Pos
	if _, err := p.expect(token.WHILE); err != nil {
		return err
	}
	startLabel := p.emit.NewLabel()
	endLabel := p.emit.NewLabel()
	p.emit.GenLabel(startLabel)

	guardType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.checkTypes(guardType, symtab.TypeBoolean, whilePos, "for 'while' guard"); err != nil {
		return err
	}
	if _, err := p.expect(token.DO); err != nil {
		return err
	}
	p.emit.GenJumpIfFalse(endLabel)
	if err := p.parseStatements(); err != nil {
		return err
	}
	p.emit.GenJump(startLabel)
	if _, err := p.expect(token.END); err != nil {
		return err
	}
	p.emit.GenLabel(endLabel)
	return nil
}

// parseRead: read = "read" id [ "[" simple "]" ] .
func (p *Parser) parseRead() error {
	defer p.trace("read")()

	if _, err := p.expect(token.READ); err != nil {
		return err
	}
	idTok, err := p.expectID()
	if err != nil {
		return err
	}
	prop, ok := p.sym.Find(idTok.Lexeme)
	if !ok {
		return p.semanticErr(idTok.Pos, "unknown identifier '%s'", idTok.Lexeme)
	}
	if !prop.Type.IsVariable() {
		return p.semanticErr(idTok.Pos, "unreachable: '%s' is not a variable", idTok.Lexeme)
	}

	indexed := false
	if p.tok.Kind == token.LBRACK {
		if !prop.Type.IsArray() {
			return p.semanticErr(idTok.Pos, "incompatible types (expected %s, found %s) for array index", symtab.TypeInteger.SetArray(), prop.Type)
		}
		if err := p.advance(); err != nil {
			return err
		}
		p.emit.Gen2(codegen.ALOAD, int32(prop.Offset))
		idxPos := p.tok.Pos
		idxType, err := p.parseSimple()
		if err != nil {
			return err
		}
		if err := p.checkTypes(idxType, symtab.TypeInteger, idxPos, "for array index"); err != nil {
			return err
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return err
		}
		indexed = true
	}

	p.emit.GenRead(prop.Type.BaseType())
	if indexed {
		p.emit.Gen1(codegen.IASTORE)
	} else {
		p.emit.Gen2(codegen.ISTORE, int32(prop.Offset))
	}
	return nil
}

// parseWrite: write = "write" (string | expr) { "&" (string | expr) } .
func (p *Parser) parseWrite() error {
	defer p.trace("write")()

	if _, err := p.expect(token.WRITE); err != nil {
		return err
	}
	if err := p.parseWriteItem(); err != nil {
		return err
	}
	for p.tok.Kind == token.AMPERSAND {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.parseWriteItem(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseWriteItem() error {
	if p.tok.Kind == token.STR {
		s := p.tok.Lexeme
		if err := p.advance(); err != nil {
			return err
		}
		p.emit.GenPrintString(s)
		return nil
	}
	if !startsExpr(p.tok.Kind) {
		return p.syntaxErr("expression or string")
	}
	t, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.emit.GenPrint(t.BaseType())
	return nil
}

// parseName: name = id ( arglist | [ "[" simple "]" ] "<-" ( expr | "array"
// simple ) ) . Also reachable as a statement: a bare call discards its
// result.
func (p *Parser) parseName() error {
	defer p.trace("name")()

	idTok := p.tok
	if err := p.advance(); err != nil {
		return err
	}
	prop, ok := p.sym.Find(idTok.Lexeme)
	if !ok {
		return p.semanticErr(idTok.Pos, "unknown identifier '%s'", idTok.Lexeme)
	}

	if p.tok.Kind == token.LPAR {
		if err := p.parseArglist(idTok, prop); err != nil {
			return err
		}
		if prop.Type.IsFunction() {
			p.emit.Gen1(codegen.POP)
		}
		return nil
	}

	if !prop.Type.IsVariable() {
		return p.semanticErr(idTok.Pos, "unreachable: '%s' is not a variable", idTok.Lexeme)
	}

	if p.tok.Kind != token.LBRACK && p.tok.Kind != token.GETS {
		return p.syntaxErr("argument list or variable assignment")
	}

	indexed := false
	if p.tok.Kind == token.LBRACK {
		if !prop.Type.IsArray() {
			return p.semanticErr(idTok.Pos, "incompatible types (expected %s, found %s) for array index", symtab.TypeInteger.SetArray(), prop.Type)
		}
		if err := p.advance(); err != nil {
			return err
		}
		p.emit.Gen2(codegen.ALOAD, int32(prop.Offset))
		idxPos := p.tok.Pos
		idxType, err := p.parseSimple()
		if err != nil {
			return err
		}
		if err := p.checkTypes(idxType, symtab.TypeInteger, idxPos, "for array index"); err != nil {
			return err
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return err
		}
		indexed = true
	}

	if p.tok.Kind != token.GETS {
		return p.syntaxErr("argument list or variable assignment")
	}
	if err := p.advance(); err != nil {
		return err
	}

	if p.tok.Kind == token.ARRAY {
		if err := p.advance(); err != nil {
			return err
		}
		sizePos := p.tok.Pos
		sizeType, err := p.parseSimple()
		if err != nil {
			return err
		}
		if err := p.checkTypes(sizeType, symtab.TypeInteger, sizePos, "for array allocation size"); err != nil {
			return err
		}
		p.emit.GenNewArray(arrayElem(prop.Type.BaseType()))
		p.emit.Gen2(codegen.ASTORE, int32(prop.Offset))
		return nil
	}

	if !startsExpr(p.tok.Kind) {
		return p.syntaxErr("array allocation or expression")
	}
	rhsPos := p.tok.Pos
	rhsType, err := p.parseExpr()
	if err != nil {
		return err
	}
	expected := prop.Type
	if indexed {
		expected = prop.Type.BaseType()
	}
	if err := p.checkTypes(rhsType, expected, rhsPos, "for assignment to '%s'", idTok.Lexeme); err != nil {
		return err
	}
	if indexed {
		p.emit.Gen1(codegen.IASTORE)
	} else {
		p.emit.Gen2(codegen.ISTORE, int32(prop.Offset))
	}
	return nil
}

// parseArglist: arglist = "(" [ expr { "," expr } ] ")" . idTok/prop identify
// the callable being invoked; argument types are checked positionally
// against prop.Params before GenCall is emitted.
func (p *Parser) parseArglist(idTok token.Token, prop *symtab.IdProp) error {
	defer p.trace("arglist")()

	if !prop.Type.IsCallable() {
		return p.semanticErr(idTok.Pos, "unreachable: '%s' is not callable", idTok.Lexeme)
	}
	if _, err := p.expect(token.LPAR); err != nil {
		return err
	}

	var argTypes []symtab.ValType
	var argPos []token.Pos
	if p.tok.Kind != token.RPAR {
		for {
			pos := p.tok.Pos
			t, err := p.parseExpr()
			if err != nil {
				return err
			}
			argTypes = append(argTypes, t)
			argPos = append(argPos, pos)
			if p.tok.Kind != token.COMMA {
				break
			}
			if _, err := p.expect(token.COMMA); err != nil {
				return err
			}
		}
	}
	if _, err := p.expect(token.RPAR); err != nil {
		return err
	}

	if uint32(len(argTypes)) != prop.NParams {
		return p.semanticErr(idTok.Pos, "unreachable: argument count mismatch for '%s'", idTok.Lexeme)
	}
	for i, at := range argTypes {
		if err := p.checkTypes(at, prop.Params[i], argPos[i], "for argument %d of '%s'", i+1, idTok.Lexeme); err != nil {
			return err
		}
	}
	p.emit.GenCall(idTok.Lexeme, prop)
	return nil
}

// parseExpr: expr = simple [ relop simple ] .
func (p *Parser) parseExpr() (symtab.ValType, error) {
	defer p.trace("expr")()

	lt, err := p.parseSimple()
	if err != nil {
		return 0, err
	}
	if isRelop(p.tok.Kind) {
		op := p.tok.Kind
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return 0, err
		}
		rt, err := p.parseSimple()
		if err != nil {
			return 0, err
		}
		if err := p.checkTypes(rt, lt, pos, "for relational operator"); err != nil {
			return 0, err
		}
		p.emit.Gen2(relOp(op), 0)
		return symtab.TypeBoolean, nil
	}
	return lt, nil
}

// parseSimple: simple = [ "-" ] term { addop term } .
func (p *Parser) parseSimple() (symtab.ValType, error) {
	defer p.trace("simple")()

	neg := false
	negPos := p.tok.Pos
	if p.tok.Kind == token.MINUS {
		neg = true
		if err := p.advance(); err != nil {
			return 0, err
		}
		p.emit.Gen2(codegen.LDC, 0)
	}

	t, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	if neg {
		if err := p.checkTypes(t, symtab.TypeInteger, negPos, "for unary '-'"); err != nil {
			return 0, err
		}
		p.emit.Gen1(codegen.ISUB)
	}

	for isAddop(p.tok.Kind) {
		op := p.tok.Kind
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return 0, err
		}
		rt, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if err := p.checkTypes(rt, t, pos, "for binary operator"); err != nil {
			return 0, err
		}
		p.emit.Gen1(addOp(op))
	}
	return t, nil
}

// parseTerm: term = factor { mulop factor } .
func (p *Parser) parseTerm() (symtab.ValType, error) {
	defer p.trace("term")()

	t, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for isMulop(p.tok.Kind) {
		op := p.tok.Kind
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return 0, err
		}
		rt, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if err := p.checkTypes(rt, t, pos, "for binary operator"); err != nil {
			return 0, err
		}
		p.emit.Gen1(mulOp(op))
	}
	return t, nil
}

// parseFactor: factor = id [ arglist | "[" simple "]" ] | num | "(" expr ")"
// | "not" factor | "true" | "false" .
func (p *Parser) parseFactor() (symtab.ValType, error) {
	defer p.trace("factor")()

	switch p.tok.Kind {
	case token.ID:
		idTok := p.tok
		if err := p.advance(); err != nil {
			return 0, err
		}
		prop, ok := p.sym.Find(idTok.Lexeme)
		if !ok {
			return 0, p.semanticErr(idTok.Pos, "unknown identifier '%s'", idTok.Lexeme)
		}
		if p.tok.Kind == token.LPAR {
			if !prop.Type.IsFunction() {
				return 0, p.semanticErr(idTok.Pos, "unreachable: '%s' is not a function", idTok.Lexeme)
			}
			if err := p.parseArglist(idTok, prop); err != nil {
				return 0, err
			}
			return prop.Type.BaseType(), nil
		}
		if p.tok.Kind == token.LBRACK {
			if !prop.Type.IsArray() {
				return 0, p.semanticErr(idTok.Pos, "incompatible types (expected %s, found %s) for array index", symtab.TypeInteger.SetArray(), prop.Type)
			}
			if err := p.advance(); err != nil {
				return 0, err
			}
			p.emit.Gen2(codegen.ALOAD, int32(prop.Offset))
			idxPos := p.tok.Pos
			idxType, err := p.parseSimple()
			if err != nil {
				return 0, err
			}
			if err := p.checkTypes(idxType, symtab.TypeInteger, idxPos, "for array index"); err != nil {
				return 0, err
			}
			if _, err := p.expect(token.RBRACK); err != nil {
				return 0, err
			}
			p.emit.Gen1(codegen.IALOAD)
			return prop.Type.BaseType(), nil
		}
		if !prop.Type.IsVariable() {
			return 0, p.semanticErr(idTok.Pos, "unreachable: '%s' is not a variable", idTok.Lexeme)
		}
		p.emit.Gen2(codegen.ILOAD, int32(prop.Offset))
		return prop.Type, nil

	case token.NUM:
		v := p.tok.Value
		if err := p.advance(); err != nil {
			return 0, err
		}
		p.emit.Gen2(codegen.LDC, v)
		return symtab.TypeInteger, nil

	case token.TRUE:
		if err := p.advance(); err != nil {
			return 0, err
		}
		p.emit.Gen2(codegen.LDC, 1)
		return symtab.TypeBoolean, nil

	case token.FALSE:
		if err := p.advance(); err != nil {
			return 0, err
		}
		p.emit.Gen2(codegen.LDC, 0)
		return symtab.TypeBoolean, nil

	case token.LPAR:
		if err := p.advance(); err != nil {
			return 0, err
		}
		t, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(token.RPAR); err != nil {
			return 0, err
		}
		return t, nil

	case token.NOT:
		notPos := p.tok.Pos
		if err := p.advance(); err != nil {
			return 0, err
		}
		t, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if err := p.checkTypes(t, symtab.TypeBoolean, notPos, "for 'not'"); err != nil {
			return 0, err
		}
		p.emit.Gen2(codegen.LDC, 1)
		p.emit.Gen1(codegen.IXOR)
		return symtab.TypeBoolean, nil

	default:
		return 0, p.syntaxErr("factor")
	}
}
