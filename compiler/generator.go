package compiler

import (
	"github.com/skx/signalc/ast"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/instructions"
)

// emitBlock lowers every statement in a block, collecting diagnostics
// from all of them rather than stopping at the first.
func emitBlock(block []ast.Statement, ctx *context) diag.Diagnostics {
	var errs diag.Diagnostics
	for _, stmt := range block {
		if stmtErrs := emitStatement(stmt, ctx); stmtErrs != nil {
			errs = errs.Append(stmtErrs)
		}
	}
	return errs
}

func emitStatement(stmt ast.Statement, ctx *context) diag.Diagnostics {
	switch s := stmt.(type) {
	case *ast.Assignment:
		if errs := emitExpression(s.Value, ctx); errs != nil {
			return errs
		}
		// A failed save (the variable doesn't exist yet, or is an
		// out-of-range signal_N) declares a brand new local bound to
		// the value just pushed.
		if errs := ctx.saveToVariable(s.Name, s.NameLoc); errs != nil {
			ctx.addVariable(s.Name)
		}
		return nil

	case *ast.If:
		return emitIf(s, ctx)

	case *ast.While:
		return emitWhile(s, ctx)

	case *ast.CallStatement:
		return emitCall(s.Call, ctx, false)

	case *ast.Return:
		if ctx.returnSlot != nil {
			return diag.Diagnostics{diag.At(s.KeywordLoc, "Must return a value from this function")}
		}
		emitReturn(ctx)
		return nil

	case *ast.ReturnValue:
		if ctx.returnSlot == nil {
			return diag.Diagnostics{diag.At(s.ValueLoc, "Cannot return a value from this function")}
		}
		if errs := emitExpression(s.Value, ctx); errs != nil {
			return errs
		}
		ctx.emit(instructions.Instruction{Op: instructions.Save, Arg: ctx.stackSize - *ctx.returnSlot})
		emitReturn(ctx)
		return nil

	case *ast.Continue:
		return tryEmitLoopControlFlow(true, s.KeywordLoc, ctx)

	case *ast.Break:
		return tryEmitLoopControlFlow(false, s.KeywordLoc, ctx)

	default:
		panic("unhandled statement type")
	}
}

// emitIf lowers an if/else-if/else chain. Every condition's JumpIfZero
// is backpatched to skip straight to the following segment (or past
// the whole chain for the last one); every non-final segment also
// emits an unconditional Jump over the remaining segments, backpatched
// once the chain's total length is known.
func emitIf(stmt *ast.If, ctx *context) diag.Diagnostics {
	var errs diag.Diagnostics
	var skipElseIdx []int

	lastIdx := len(stmt.Segments) - 1
	for idx, seg := range stmt.Segments {
		isLast := idx == lastIdx

		if condErrs := emitExpression(seg.Condition, ctx); condErrs != nil {
			errs = errs.Append(condErrs)
		}

		jumpIdx := len(ctx.instructions)
		ctx.emit(instructions.Instruction{Op: instructions.JumpIfZero, Arg: -1})

		ctx.openScope(otherScope)
		if blockErrs := emitBlock(seg.Body, ctx); blockErrs != nil {
			errs = errs.Append(blockErrs)
		}
		ctx.endScope()

		if !isLast || stmt.Else != nil {
			skipElseIdx = append(skipElseIdx, len(ctx.instructions))
			ctx.emit(instructions.Instruction{Op: instructions.Jump, Arg: -1})
		}

		ctx.instructions[jumpIdx] = instructions.Instruction{Op: instructions.JumpIfZero, Arg: int32(len(ctx.instructions)) + 1}
	}

	if stmt.Else != nil {
		ctx.openScope(otherScope)
		if blockErrs := emitBlock(stmt.Else, ctx); blockErrs != nil {
			errs = errs.Append(blockErrs)
		}
		ctx.endScope()
	}

	for _, idx := range skipElseIdx {
		ctx.instructions[idx] = instructions.Instruction{Op: instructions.Jump, Arg: int32(len(ctx.instructions)) + 1}
	}

	if errs != nil {
		return errs
	}
	return nil
}

// emitWhile lowers a while loop. The loop body is preceded by an
// unconditional jump to the condition check (backpatched once the
// condition's position is known), and the condition check itself ends
// with a JumpIfNonZero back to the top of the body. Every continue
// inside the body jumps to the condition check; every break jumps past
// the whole loop -- both backpatched from the scope's recorded
// placeholder indices once those addresses are known.
func emitWhile(stmt *ast.While, ctx *context) diag.Diagnostics {
	var errs diag.Diagnostics

	uncondJumpIdx := len(ctx.instructions)
	ctx.emit(instructions.Instruction{Op: instructions.Jump, Arg: -1})

	ctx.openScope(whileScope)
	if blockErrs := emitBlock(stmt.Body, ctx); blockErrs != nil {
		errs = errs.Append(blockErrs)
	}
	closed := ctx.endScope()

	continueInst := instructions.Instruction{Op: instructions.Jump, Arg: int32(len(ctx.instructions)) + 1}
	ctx.instructions[uncondJumpIdx] = continueInst
	for _, addr := range closed.continueInstrIndex {
		ctx.instructions[addr] = continueInst
	}

	if condErrs := emitExpression(stmt.Condition, ctx); condErrs != nil {
		errs = errs.Append(condErrs)
	}
	ctx.emit(instructions.Instruction{Op: instructions.JumpIfNonZero, Arg: int32(uncondJumpIdx) + 2})

	breakInst := instructions.Instruction{Op: instructions.Jump, Arg: int32(len(ctx.instructions)) + 1}
	for _, addr := range closed.breakInstrIndex {
		ctx.instructions[addr] = breakInst
	}

	if errs != nil {
		return errs
	}
	return nil
}

// tryEmitLoopControlFlow lowers continue/break: it walks the open
// scopes innermost-out looking for the nearest enclosing while loop,
// records a Jump placeholder to be backpatched once the loop's
// boundaries are known, and unwinds every scope between here and that
// loop (without touching the tracked stack size; the fallthrough path
// is still at the original depth).
func tryEmitLoopControlFlow(isContinue bool, keywordLoc diag.Location, ctx *context) diag.Diagnostics {
	for i := ctx.scopes.Len() - 1; i >= 0; i-- {
		s := ctx.scopes.At(i)
		if s.kind != whileScope {
			continue
		}

		ctx.preparePrematureScopeEnd(i)

		placeholder := len(ctx.instructions)
		if isContinue {
			s.continueInstrIndex = append(s.continueInstrIndex, placeholder)
		} else {
			s.breakInstrIndex = append(s.breakInstrIndex, placeholder)
		}

		ctx.emit(instructions.Instruction{Op: instructions.Jump, Arg: -1})
		return nil
	}

	return diag.Diagnostics{diag.At(keywordLoc, "Not in a loop scope - cannot use break or continue keywords")}
}

// emitReturn unwinds every open scope (the whole function, since scope
// 0 is the function's root scope) and emits the Return instruction.
func emitReturn(ctx *context) {
	ctx.preparePrematureScopeEnd(0)
	ctx.emit(instructions.Instruction{Op: instructions.Return})
}

// emitCall lowers a function call, whether used as a statement (its
// result, if any, is discarded) or nested inside an expression (its
// result must exist and is left on the stack). The JumpSubRoutine's
// Arg is the callee's function id, not yet an address; the linker
// resolves it once every function's final position is known.
func emitCall(call ast.Call, ctx *context, usingReturnValue bool) diag.Diagnostics {
	sig, ok := ctx.functions[call.FunctionName]
	if !ok {
		return diag.Diagnostics{diag.At(call.FunctionNameLoc, "No function exists with name %s", call.FunctionName)}
	}

	if !sig.ReturnsValue && usingReturnValue {
		return diag.Diagnostics{diag.At(call.FunctionNameLoc, "Cannot use a function that does not return a value within an expression")}
	}

	if sig.ArgCount != len(call.Arguments) {
		return diag.Diagnostics{diag.At(call.ArgumentsLoc, "Wrong number of arguments, expected %d, got %d", sig.ArgCount, len(call.Arguments))}
	}

	if sig.ReturnsValue {
		ctx.emit(instructions.Instruction{Op: instructions.Constant, Arg: 0})
	}

	var errs diag.Diagnostics
	for _, arg := range call.Arguments {
		if argErrs := emitExpression(arg, ctx); argErrs != nil {
			errs = errs.Append(argErrs)
		}
	}
	if errs != nil {
		return errs
	}

	ctx.emit(instructions.Instruction{Op: instructions.JumpSubRoutine, Arg: int32(sig.ID)})

	for range call.Arguments {
		ctx.emit(instructions.Instruction{Op: instructions.Pop})
	}

	if !usingReturnValue && sig.ReturnsValue {
		ctx.emit(instructions.Instruction{Op: instructions.Pop})
	}

	return nil
}

// emitExpression lowers an expression, leaving exactly one value on
// top of the stack.
func emitExpression(expr ast.Expression, ctx *context) diag.Diagnostics {
	switch e := expr.(type) {
	case *ast.Binary:
		// Right first, then left, so left ends up on top -- the
		// binary opcodes consume their operands in that order.
		if errs := emitExpression(e.Right, ctx); errs != nil {
			return errs
		}
		if errs := emitExpression(e.Left, ctx); errs != nil {
			return errs
		}
		ctx.emit(instructions.Instruction{Op: binaryOp(e.Operator)})
		return nil

	case *ast.Unary:
		switch e.Operator {
		case ast.Not:
			if errs := emitExpression(e.Value, ctx); errs != nil {
				return errs
			}
			ctx.emit(instructions.Instruction{Op: instructions.Not})
			return nil

		case ast.Negate:
			if lit, ok := e.Value.(*ast.Literal); ok {
				ctx.emit(instructions.Instruction{Op: instructions.Constant, Arg: -lit.Value})
				return nil
			}
			ctx.emit(instructions.Instruction{Op: instructions.Constant, Arg: -1})
			if errs := emitExpression(e.Value, ctx); errs != nil {
				return errs
			}
			ctx.emit(instructions.Instruction{Op: instructions.Multiply})
			return nil

		default:
			panic("unhandled unary operator")
		}

	case *ast.CallExpression:
		return emitCall(e.Call, ctx, true)

	case *ast.Variable:
		return ctx.loadFromVariable(e.Name, e.Pos)

	case *ast.Literal:
		ctx.emit(instructions.Instruction{Op: instructions.Constant, Arg: e.Value})
		return nil

	default:
		panic("unhandled expression type")
	}
}

// binaryOp maps an ast.BinaryOperator to its instruction.
func binaryOp(op ast.BinaryOperator) instructions.Op {
	switch op {
	case ast.Add:
		return instructions.Add
	case ast.Subtract:
		return instructions.Subtract
	case ast.Multiply:
		return instructions.Multiply
	case ast.Divide:
		return instructions.Divide
	case ast.Remainder:
		return instructions.Remainder
	case ast.Power:
		return instructions.Power
	case ast.ShiftLeft:
		return instructions.ShiftLeft
	case ast.ShiftRight:
		return instructions.ShiftRight
	case ast.Equal:
		return instructions.Equal
	case ast.NotEqual:
		return instructions.NotEqual
	case ast.GreaterThan:
		return instructions.GreaterThan
	case ast.LessThan:
		return instructions.LessThan
	case ast.GreaterThanOrEqual:
		return instructions.GreaterThanOrEqual
	case ast.LessThanOrEqual:
		return instructions.LessThanOrEqual
	case ast.And:
		return instructions.And
	case ast.Or:
		return instructions.Or
	case ast.Xor:
		return instructions.Xor
	default:
		panic("unhandled binary operator")
	}
}
