// Package disasm prints a linked program's textual disassembly, one
// instruction per line, numbered from 1 to match the addresses
// Jump/JumpIfZero/JumpIfNonZero/JumpSubRoutine arguments are expressed
// in.
package disasm

import (
	"fmt"
	"io"

	"github.com/skx/signalc/instructions"
)

// Print writes one numbered line per instruction to w.
func Print(w io.Writer, program []instructions.Instruction) error {
	for idx, inst := range program {
		if _, err := fmt.Fprintf(w, "%d: %s\n", idx+1, inst); err != nil {
			return err
		}
	}
	return nil
}
