// Package linker assembles the per-function instruction streams
// produced by the compiler into one flat, fully resolved program:
// the final stage of the pipeline.
package linker

import (
	"github.com/skx/signalc/compiler"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/instructions"
)

// entryPoint is the name of the required zero-arg, void entry function.
const entryPoint = "main"

// Link resolves the entry point, prepends the two-instruction
// prologue that starts the program, writes every function's
// instructions into the final program while offsetting their
// intra-function jump targets, and rewrites every JumpSubRoutine's
// function id into its resolved final address.
//
// compiled must come from compiler.CompileModule and contain every
// function referenced by name from main; Link does not re-validate
// call arity or existence, only the whole-module entry point contract.
func Link(compiled []compiler.Compiled) ([]instructions.Instruction, diag.Diagnostics) {
	var main *compiler.Compiled
	for i := range compiled {
		c := &compiled[i]
		if c.Name == entryPoint {
			main = c
		}
	}

	if main == nil {
		return nil, diag.Diagnostics{diag.Untagged(
			"No entry point found: A zero-arg function returning void called %s should be created", entryPoint)}
	}
	if main.ReturnsValue {
		return nil, diag.Diagnostics{diag.Untagged("Entry point cannot return a value")}
	}
	if main.ArgCount != 0 {
		return nil, diag.Diagnostics{diag.Untagged("Entry point must have no arguments")}
	}

	program := []instructions.Instruction{
		{Op: instructions.JumpSubRoutine, Arg: int32(main.ID)},
		{Op: instructions.Jump, Arg: -1},
	}

	startOffsets := make(map[int]int32, len(compiled))
	for _, fn := range compiled {
		offset := int32(len(program))
		startOffsets[fn.ID] = offset

		for _, inst := range fn.Instructions {
			program = append(program, offsetInstruction(inst, offset))
		}
	}

	for i, inst := range program {
		if inst.Op == instructions.JumpSubRoutine {
			program[i] = instructions.Instruction{
				Op:  instructions.JumpSubRoutine,
				Arg: startOffsets[int(inst.Arg)] + 1,
			}
		}
	}

	return program, nil
}

// offsetInstruction shifts an intra-function jump target by the
// function's start offset in the final program. JumpSubRoutine is
// deliberately excluded: its Arg is still a function id at this point
// and is resolved in a separate pass once every offset is known.
func offsetInstruction(inst instructions.Instruction, offset int32) instructions.Instruction {
	switch inst.Op {
	case instructions.Jump, instructions.JumpIfZero, instructions.JumpIfNonZero:
		return instructions.Instruction{Op: inst.Op, Arg: inst.Arg + offset}
	default:
		return inst
	}
}
