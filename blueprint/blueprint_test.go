package blueprint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/signalc/instructions"
)

func TestGenerateROMBlueprintEntityCount(t *testing.T) {
	program := []instructions.Instruction{
		{Op: instructions.JumpSubRoutine, Arg: 3},
		{Op: instructions.Jump, Arg: -1},
		{Op: instructions.Return},
	}

	bp := GenerateROMBlueprint(program, DefaultConfig())
	require.Len(t, bp.Entities, len(program)*2)

	for i, e := range bp.Entities {
		require.EqualValues(t, i+1, e.EntityNumber)
	}
}

func TestGenerateROMBlueprintFirstDeciderHasNoConnections(t *testing.T) {
	program := []instructions.Instruction{{Op: instructions.Return}}
	bp := GenerateROMBlueprint(program, DefaultConfig())
	require.Nil(t, bp.Entities[0].Connections)
}

func TestGenerateROMBlueprintOpcodeAndArgumentFilters(t *testing.T) {
	program := []instructions.Instruction{
		{Op: instructions.Jump, Arg: 42},
	}
	bp := GenerateROMBlueprint(program, DefaultConfig())

	constant := bp.Entities[1]
	require.Equal(t, "constant-combinator", constant.Name)
	filters := constant.ControlBehaviour.Filters
	require.Len(t, filters, 2)
	require.Equal(t, "signal-O", filters[0].Signal.Name)
	require.EqualValues(t, instructions.Instruction{Op: instructions.Jump}.Opcode(), filters[0].Count)
	require.Equal(t, "signal-A", filters[1].Signal.Name)
	require.EqualValues(t, 42, filters[1].Count)
}

func TestGenerateROMBlueprintNullaryInstructionHasNoArgumentFilter(t *testing.T) {
	program := []instructions.Instruction{{Op: instructions.Add}}
	bp := GenerateROMBlueprint(program, DefaultConfig())

	filters := bp.Entities[1].ControlBehaviour.Filters
	require.Len(t, filters, 1)
}

func TestSaveProducesVersionedBase64(t *testing.T) {
	bp := GenerateROMBlueprint([]instructions.Instruction{{Op: instructions.Return}}, DefaultConfig())
	s := SerializedBlueprint{Blueprint: bp}

	out, err := s.Save()
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, byte('0'), out[0])
}

func TestBlueprintJSONOmitsNilConnections(t *testing.T) {
	bp := GenerateROMBlueprint([]instructions.Instruction{{Op: instructions.Return}}, DefaultConfig())
	encoded, err := json.Marshal(bp.Entities[0])
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &raw))
	_, hasConnections := raw["connections"]
	require.False(t, hasConnections)
}
