// Package codegen is simplc's code-emitter façade: the narrow interface the
// parser calls to append stack-VM instructions, start and close subroutine
// frames, and finally write and assemble a Jasmin source file. Everything
// about how those calls become Jasmin text -- including branch-target
// patching -- is this package's business, not the parser's.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/whkbester/simplc/symtab"
)

// Op names a stack-VM instruction the parser can request via Gen1/Gen2.
// Names mirror the Jasmin/JVM mnemonics named in the spec's emission table.
type Op string

const (
	LDC      Op = "ldc"
	ILOAD    Op = "iload"
	ISTORE   Op = "istore"
	ALOAD    Op = "aload"
	ASTORE   Op = "astore"
	IALOAD   Op = "iaload"
	IASTORE  Op = "iastore"
	IADD     Op = "iadd"
	ISUB     Op = "isub"
	IOR      Op = "ior"
	IMUL     Op = "imul"
	IDIV     Op = "idiv"
	IREM     Op = "irem"
	IAND     Op = "iand"
	IXOR     Op = "ixor"
	RETURN   Op = "return"
	IFICMPEQ Op = "if_icmpeq"
	IFICMPNE Op = "if_icmpne"
	IFICMPLT Op = "if_icmplt"
	IFICMPLE Op = "if_icmple"
	IFICMPGT Op = "if_icmpgt"
	IFICMPGE Op = "if_icmpge"
	POP      Op = "pop"
)

// ArrayElem identifies the JVM array element type for NEWARRAY.
type ArrayElem int

const (
	TInt ArrayElem = iota
	TBoolean
)

func (t ArrayElem) jasmin() string {
	if t == TBoolean {
		return "boolean"
	}
	return "int"
}

type subroutine struct {
	name        string
	descriptor  string
	isStatic    bool
	body        []string
	localsWidth uint32
	labelSeq    int
}

func (sr *subroutine) newLabel(prefix string) string {
	sr.labelSeq++
	return fmt.Sprintf("%s%d", prefix, sr.labelSeq)
}

func (sr *subroutine) emit(line string) {
	sr.body = append(sr.body, line)
}

func (sr *subroutine) emitf(format string, args ...any) {
	sr.emit(fmt.Sprintf(format, args...))
}

// Emitter accumulates Jasmin instructions across one or more subroutines and
// finally renders them into a single .j text file.
type Emitter struct {
	className   string
	subroutines []*subroutine
	current     *subroutine
}

// New creates an empty emitter.
func New() *Emitter {
	return &Emitter{}
}

// SetClassName installs the Jasmin class name (the SIMPL program identifier).
func (e *Emitter) SetClassName(name string) {
	e.className = name
}

// InitSubroutineCodegen opens a new subroutine frame. For the synthetic
// "main" entry (prop == nil) the descriptor matches the JVM's required
// `([Ljava/lang/String;)V`; otherwise the descriptor is derived from prop's
// parameter and return types.
func (e *Emitter) InitSubroutineCodegen(name string, prop *symtab.IdProp) {
	sr := &subroutine{name: name}
	if prop == nil {
		sr.descriptor = "([Ljava/lang/String;)V"
		sr.isStatic = true
	} else {
		sr.descriptor = descriptorFor(prop)
		sr.isStatic = true
	}
	e.subroutines = append(e.subroutines, sr)
	e.current = sr
}

func descriptorFor(prop *symtab.IdProp) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range prop.Params {
		b.WriteString(jvmType(p))
	}
	b.WriteByte(')')
	if prop.Type.IsFunction() {
		b.WriteString(jvmType(prop.Type))
	} else {
		b.WriteByte('V')
	}
	return b.String()
}

func jvmType(t symtab.ValType) string {
	if t.IsArray() {
		if t.BaseType() == symtab.TypeBoolean {
			return "[Z"
		}
		return "[I"
	}
	if t.BaseType() == symtab.TypeBoolean {
		return "Z"
	}
	return "I"
}

// CloseSubroutineCodegen finalizes the current subroutine frame, recording
// how many local-variable slots it needs.
func (e *Emitter) CloseSubroutineCodegen(localsWidth uint32) {
	if e.current != nil {
		e.current.localsWidth = localsWidth
	}
	e.current = nil
}

// Gen1 appends a zero-operand instruction.
func (e *Emitter) Gen1(op Op) {
	e.current.emitf("\t%s", op)
}

// Gen2 appends a one-operand instruction. Relational operators are expanded
// here into the compare-and-push-boolean idiom the JVM requires; everything
// else is emitted directly with its operand.
func (e *Emitter) Gen2(op Op, arg int32) {
	switch op {
	case IFICMPEQ, IFICMPNE, IFICMPLT, IFICMPLE, IFICMPGT, IFICMPGE:
		e.genRelop(op)
	default:
		e.current.emitf("\t%s %d", op, arg)
	}
}

// GenStore/GenLoad style calls that need a named local slot go through Gen2
// with the slot number; ALOAD/ASTORE/ILOAD/ISTORE all share this path.

// genRelop numbers its Ltrue/Lend label pair with a single draw from the
// subroutine's label counter, so the two labels of one comparison share a
// number.
func (e *Emitter) genRelop(op Op) {
	sr := e.current
	sr.labelSeq++
	trueLabel := fmt.Sprintf("Ltrue%d", sr.labelSeq)
	endLabel := fmt.Sprintf("Lend%d", sr.labelSeq)
	sr.emitf("\t%s %s", op, trueLabel)
	sr.emit("\tldc 0")
	sr.emitf("\tgoto %s", endLabel)
	sr.emitf("%s:", trueLabel)
	sr.emit("\tldc 1")
	sr.emitf("%s:", endLabel)
}

// NewLabel allocates a fresh label name in the current subroutine, for
// if/elsif/while branch targets the parser places with GenLabel.
func (e *Emitter) NewLabel() string {
	return e.current.newLabel("L")
}

// GenLabel places a label at the current point in the instruction stream.
func (e *Emitter) GenLabel(name string) {
	e.current.emitf("%s:", name)
}

// GenJump emits an unconditional branch to name.
func (e *Emitter) GenJump(name string) {
	e.current.emitf("\tgoto %s", name)
}

// GenJumpIfFalse emits a branch to name taken when the top-of-stack int
// (a boolean result: 0 or 1) is zero.
func (e *Emitter) GenJumpIfFalse(name string) {
	e.current.emitf("\tifeq %s", name)
}

// GenNewArray allocates a new one-dimensional array of the given element
// type; the caller follows with Gen2(ASTORE, offset) to store it, or with
// Gen2(ALOAD, offset), an index push, and Gen1(IASTORE)/Gen1(IALOAD) to
// store or load one of its elements.
func (e *Emitter) GenNewArray(t ArrayElem) {
	e.current.emitf("\tnewarray %s", t.jasmin())
}

// GenCall emits an invokestatic to another subroutine in the same class.
func (e *Emitter) GenCall(name string, prop *symtab.IdProp) {
	e.current.emitf("\tinvokestatic %s/%s%s", e.className, name, descriptorFor(prop))
}

// GenRead emits the runtime-helper call that reads one value of type t from
// stdin and leaves it on the stack.
func (e *Emitter) GenRead(t symtab.ValType) {
	if t.BaseType() == symtab.TypeBoolean {
		e.current.emit("\tinvokestatic SimplRuntime/readBoolean()Z")
	} else {
		e.current.emit("\tinvokestatic SimplRuntime/readInt()I")
	}
}

// GenPrint emits the runtime-helper call that prints the top-of-stack value
// of type t.
func (e *Emitter) GenPrint(t symtab.ValType) {
	switch t.BaseType() {
	case symtab.TypeBoolean:
		e.current.emit("\tinvokestatic SimplRuntime/printBoolean(Z)V")
	default:
		e.current.emit("\tinvokestatic SimplRuntime/printInt(I)V")
	}
}

// GenPrintString emits a string literal print. s is written between quotes
// as-is: its escape sequences are already in the backslash form Jasmin reads.
func (e *Emitter) GenPrintString(s string) {
	e.current.emitf("\tldc \"%s\"", s)
	e.current.emit("\tinvokestatic SimplRuntime/printString(Ljava/lang/String;)V")
}

// Source renders the accumulated subroutines as Jasmin assembly text.
func (e *Emitter) Source() string {
	var b strings.Builder
	fmt.Fprintf(&b, ".class public %s\n", e.className)
	b.WriteString(".super java/lang/Object\n\n")

	for _, sr := range e.subroutines {
		name := sr.name
		if name == "main" {
			fmt.Fprintf(&b, ".method public static main%s\n", sr.descriptor)
		} else {
			fmt.Fprintf(&b, ".method public static %s%s\n", name, sr.descriptor)
		}
		fmt.Fprintf(&b, "\t.limit stack 64\n")
		fmt.Fprintf(&b, "\t.limit locals %d\n", maxInt(1, int(sr.localsWidth)))
		for _, line := range sr.body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString(".end method\n\n")
	}

	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

// MakeCodeFile writes the accumulated Jasmin source to "<className>.j" in
// dir.
func (e *Emitter) MakeCodeFile(dir string) (string, error) {
	path := filepath.Join(dir, e.className+".j")
	if err := writeFile(path, e.Source()); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Assemble invokes the external Jasmin assembler ("java -jar <jasminJar>
// <jFile>") via os/exec, honoring ctx for a timeout/cancellation. The
// subprocess's stderr is folded into the returned error.
func (e *Emitter) Assemble(ctx context.Context, jasminJar, jFile string) error {
	cmd := exec.CommandContext(ctx, "java", "-jar", jasminJar, jFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("assembler failed: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}
