package instructions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allInstructions() []Instruction {
	return []Instruction{
		{Op: Jump, Arg: 4},
		{Op: JumpIfNonZero, Arg: 7},
		{Op: JumpIfZero, Arg: -1},
		{Op: Save, Arg: 3},
		{Op: Load, Arg: 2},
		{Op: Constant, Arg: -9},
		{Op: Add}, {Op: Subtract}, {Op: Multiply}, {Op: Divide},
		{Op: Power}, {Op: Remainder}, {Op: ShiftLeft}, {Op: ShiftRight},
		{Op: And}, {Op: Or}, {Op: Xor}, {Op: Not},
		{Op: Equal}, {Op: NotEqual}, {Op: GreaterThan}, {Op: LessThan},
		{Op: GreaterThanOrEqual}, {Op: LessThanOrEqual}, {Op: Pop},
		{Op: JumpSubRoutine, Arg: 3}, {Op: Return},
	}
}

func TestDisassembleThenParseRoundTrips(t *testing.T) {
	for _, inst := range allInstructions() {
		text := inst.String()
		parsed, err := Parse(text)
		require.NoErrorf(t, err, "parsing %q", text)
		require.Equal(t, inst, parsed)
	}
}

func TestOpcodeIDsMatchSpec(t *testing.T) {
	require.EqualValues(t, 1, Instruction{Op: Jump}.Opcode())
	require.EqualValues(t, 2, Instruction{Op: JumpIfNonZero}.Opcode())
	require.EqualValues(t, 25, Instruction{Op: JumpIfZero}.Opcode())
	require.EqualValues(t, 26, Instruction{Op: JumpSubRoutine}.Opcode())
	require.EqualValues(t, 27, Instruction{Op: Return}.Opcode())
	require.EqualValues(t, 24, Instruction{Op: Pop}.Opcode())
}

func TestArgumentChannels(t *testing.T) {
	ch, ok := Instruction{Op: Jump}.ArgumentChannel()
	require.True(t, ok)
	require.Equal(t, AddressChannel, ch)

	ch, ok = Instruction{Op: Constant}.ArgumentChannel()
	require.True(t, ok)
	require.Equal(t, DataChannel, ch)

	_, ok = Instruction{Op: Add}.ArgumentChannel()
	require.False(t, ok)
}

func TestParseRejectsUnknownMnemonic(t *testing.T) {
	_, err := Parse("WAT")
	require.Error(t, err)

	_, err = Parse("JUMP notanumber")
	require.Error(t, err)
}
