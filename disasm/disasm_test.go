package disasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/signalc/instructions"
)

func TestPrintNumbersFromOne(t *testing.T) {
	program := []instructions.Instruction{
		{Op: instructions.JumpSubRoutine, Arg: 3},
		{Op: instructions.Jump, Arg: -1},
		{Op: instructions.Return},
	}

	var b strings.Builder
	require.NoError(t, Print(&b, program))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Equal(t, []string{
		"1: JSR 3",
		"2: JUMP -1",
		"3: RET",
	}, lines)
}
