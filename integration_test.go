// End-to-end tests exercising the full lexer -> parser -> compiler ->
// linker pipeline, as an external test package so only the public API
// of each stage is used -- the way a real caller would drive it.
package signalc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/signalc/compiler"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/instructions"
	"github.com/skx/signalc/lexer"
	"github.com/skx/signalc/linker"
	"github.com/skx/signalc/parser"
)

func compileAndLink(t *testing.T, src string) ([]instructions.Instruction, diag.Diagnostics) {
	t.Helper()
	file := diag.NewSourceFile("test.c", src)

	tokens, lexErrs := lexer.Tokenize(file)
	if lexErrs != nil {
		return nil, lexErrs
	}

	module, parseErrs := parser.ParseModule(tokens)
	if parseErrs != nil {
		return nil, parseErrs
	}

	compiled, compileErrs := compiler.CompileModule(module, compiler.DefaultConfig())
	if compileErrs != nil {
		return nil, compileErrs
	}

	return linker.Link(compiled)
}

// Scenario 1: an empty entry point compiles to the two-instruction
// prologue followed by a lone Return.
func TestEmptyMain(t *testing.T) {
	program, errs := compileAndLink(t, "void main() { }")
	require.Nil(t, errs)
	require.Equal(t, []instructions.Instruction{
		{Op: instructions.JumpSubRoutine, Arg: 3},
		{Op: instructions.Jump, Arg: -1},
		{Op: instructions.Return},
	}, program)
}

// Scenario 2: the calling convention around a value-returning function
// called as a statement (its result discarded).
func TestAddFunctionCallingConvention(t *testing.T) {
	program, errs := compileAndLink(t, `
		int add(a, b) {
			return a+b;
		}
		void main() {
			add(2, 3);
		}
	`)
	require.Nil(t, errs)

	// Prologue.
	require.Equal(t, instructions.JumpSubRoutine, program[0].Op)
	require.Equal(t, instructions.Instruction{Op: instructions.Jump, Arg: -1}, program[1])

	// add is declared first, so it's linked and written right after
	// the prologue: Load b, Load a, Add, Save into the return slot at
	// -(2+2)=-4 relative to add's own stack (stack_size is 1 when Save
	// is emitted, so the encoded Save arg is 1-(-4)=5), Return.
	addStart := 2
	require.Equal(t, instructions.Load, program[addStart+0].Op)
	require.Equal(t, instructions.Load, program[addStart+1].Op)
	require.Equal(t, instructions.Add, program[addStart+2].Op)
	require.Equal(t, instructions.Save, program[addStart+3].Op)
	require.EqualValues(t, 5, program[addStart+3].Arg)
	require.Equal(t, instructions.Return, program[addStart+4].Op)

	// main: Constant 0 (return slot), Constant 2, Constant 3, JSR,
	// Pop, Pop (drop the two arguments), Pop (drop the unused return
	// value), Return.
	mainStart := addStart + 5
	require.Equal(t, instructions.Constant, program[mainStart+0].Op)
	require.EqualValues(t, 0, program[mainStart+0].Arg)
	require.Equal(t, instructions.Constant, program[mainStart+1].Op)
	require.EqualValues(t, 2, program[mainStart+1].Arg)
	require.Equal(t, instructions.Constant, program[mainStart+2].Op)
	require.EqualValues(t, 3, program[mainStart+2].Arg)
	require.Equal(t, instructions.JumpSubRoutine, program[mainStart+3].Op)
	require.Equal(t, instructions.Pop, program[mainStart+4].Op)
	require.Equal(t, instructions.Pop, program[mainStart+5].Op)
	require.Equal(t, instructions.Pop, program[mainStart+6].Op)
	require.Equal(t, instructions.Return, program[mainStart+7].Op)

	require.Len(t, program, mainStart+8)

	// The prologue's JSR targets main's start (+1); main's own call to
	// add targets add's start (+1).
	require.EqualValues(t, mainStart+1, program[0].Arg)
	require.EqualValues(t, addStart+1, program[mainStart+3].Arg)
}

// Scenario 3: while+break backpatching resolves to valid forward/
// backward jump targets with no leftover -1 placeholders.
func TestWhileWithBreak(t *testing.T) {
	program, errs := compileAndLink(t, `
		void main() {
			while (1) {
				break;
			}
		}
	`)
	require.Nil(t, errs)

	// program[1] is the prologue's deliberate Jump(-1) halt, not a
	// placeholder, so only the linked function bodies are checked.
	for _, inst := range program[2:] {
		switch inst.Op {
		case instructions.Jump, instructions.JumpIfZero, instructions.JumpIfNonZero:
			require.NotEqual(t, int32(-1), inst.Arg)
			require.GreaterOrEqual(t, inst.Arg, int32(1))
			require.LessOrEqual(t, int(inst.Arg), len(program)+1)
		}
	}
}

// Scenario 4: reading an undeclared variable is diagnosed by name.
func TestUndeclaredVariable(t *testing.T) {
	_, errs := compileAndLink(t, "void main() { y = x; }")
	require.NotNil(t, errs)
	require.Contains(t, errs.Error(), "No variable exists with this name")
}

// Scenario 5: a call with the wrong number of arguments is diagnosed
// at the argument-list span.
func TestArityError(t *testing.T) {
	_, errs := compileAndLink(t, `
		int f(a) { return a; }
		void main() { f(1, 2); }
	`)
	require.NotNil(t, errs)
	require.Contains(t, errs.Error(), "Wrong number of arguments")
}

// Scenario 6: one bad statement doesn't prevent the rest of the block
// from being parsed; only the broken statement is reported.
func TestMultiErrorResyncStillCompilesLaterStatements(t *testing.T) {
	_, errs := compileAndLink(t, "void main(){ x = ; y = 1; }")
	require.NotNil(t, errs)
	require.Len(t, errs, 1)
}

// Boundary: unary negation of a literal folds to a single Constant.
func TestUnaryNegateLiteralFolds(t *testing.T) {
	program, errs := compileAndLink(t, `
		void main() {
			a = -5;
		}
	`)
	require.Nil(t, errs)

	mainStart := 2
	require.Equal(t, instructions.Constant, program[mainStart].Op)
	require.EqualValues(t, -5, program[mainStart].Arg)
}

// Boundary: compound assignment desugars to the same code as the
// expanded form.
func TestCompoundAssignmentMatchesExpandedForm(t *testing.T) {
	compound, errs := compileAndLink(t, `
		void main() {
			a = 1;
			a += 2;
		}
	`)
	require.Nil(t, errs)

	expanded, errs := compileAndLink(t, `
		void main() {
			a = 1;
			a = a + 2;
		}
	`)
	require.Nil(t, errs)

	require.Equal(t, expanded, compound)
}

// continue/break outside a while loop is diagnosed at the keyword.
func TestContinueOutsideLoopIsDiagnosed(t *testing.T) {
	_, errs := compileAndLink(t, "void main() { continue; }")
	require.NotNil(t, errs)
	require.Contains(t, errs.Error(), "Not in a loop scope")
}
