// Package blueprint encodes a linked program as a Factorio blueprint
// string: one decider-combinator + constant-combinator pair of
// entities per instruction, wired together to form a program ROM.
package blueprint

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/skx/signalc/instructions"
)

// Config names the virtual signal channels the ROM's combinators are
// wired on. The zero-value Config is invalid; use DefaultConfig or
// load one from TOML to retarget the channel names without touching
// the encoder itself.
type Config struct {
	ProgramAddressSignal  string // read by every decider combinator to select its row
	AllSignal             string // the decider's output signal, carrying every filter through when selected
	OpcodeSignal          string // carries the instruction's opcode
	ArgumentAddressSignal string // carries an address-channel argument
	ArgumentDataSignal    string // carries a data-channel argument
}

// DefaultConfig reproduces Factorio's default virtual-signal channel
// names verbatim.
func DefaultConfig() Config {
	return Config{
		ProgramAddressSignal:  "signal-P",
		AllSignal:             "signal-everything",
		OpcodeSignal:          "signal-O",
		ArgumentAddressSignal: "signal-A",
		ArgumentDataSignal:    "signal-D",
	}
}

// SignalId identifies one of Factorio's virtual signals.
type SignalId struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func virtualSignal(name string) SignalId {
	return SignalId{Type: "virtual", Name: name}
}

// Position is an entity's grid position.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// ConnectionData identifies one endpoint of a wire.
type ConnectionData struct {
	EntityID  uint32 `json:"entity_id"`
	CircuitID uint32 `json:"circuit_id"`
}

// ConnectionPoint is the red/green wires leaving one connector of an
// entity (its "1" or "2" terminal).
type ConnectionPoint struct {
	Red   []ConnectionData `json:"red"`
	Green []ConnectionData `json:"green"`
}

// Connection is the full set of wires leaving an entity, keyed by
// terminal ("1" and "2" in the blueprint JSON schema).
type Connection struct {
	A *ConnectionPoint `json:"1,omitempty"`
	B *ConnectionPoint `json:"2,omitempty"`
}

// DeciderCombinatorParameters configures a decider combinator: this
// ROM always uses "program address == idx+1 -> output everything".
type DeciderCombinatorParameters struct {
	Comparator         string    `json:"comparator"`
	FirstSignal        *SignalId `json:"first_signal,omitempty"`
	SecondSignal       *SignalId `json:"second_signal,omitempty"`
	Constant           *int32    `json:"constant,omitempty"`
	OutputSignal       *SignalId `json:"output_signal,omitempty"`
	CopyCountFromInput bool      `json:"copy_count_from_input"`
}

// ConstantCombinatorParameter is one filter slot of a constant
// combinator: this ROM uses slot 1 for the opcode and (optionally)
// slot 2 for the instruction's argument.
type ConstantCombinatorParameter struct {
	Signal SignalId `json:"signal"`
	Count  int32    `json:"count"`
	Index  uint32   `json:"index"`
}

// ControlBehaviour is the decider-or-constant-combinator configuration
// attached to an Entity; exactly one of DeciderConditions/Filters is
// set, depending on the entity's Name.
type ControlBehaviour struct {
	DeciderConditions *DeciderCombinatorParameters  `json:"decider_conditions,omitempty"`
	Filters           []ConstantCombinatorParameter `json:"filters,omitempty"`
}

// Entity is one placed combinator.
type Entity struct {
	EntityNumber     uint32            `json:"entity_number"`
	Name             string            `json:"name"`
	Position         Position          `json:"position"`
	Direction        uint32            `json:"direction"`
	Connections      *Connection       `json:"connections,omitempty"`
	ControlBehaviour *ControlBehaviour `json:"control_behavior,omitempty"`
}

// Blueprint is the decoded form of a Factorio blueprint string's JSON
// payload.
type Blueprint struct {
	Item     string   `json:"item"`
	Label    string   `json:"label"`
	Entities []Entity `json:"entities"`
	Version  uint32   `json:"version"`
}

// SerializedBlueprint is the top-level JSON envelope Factorio expects:
// a single "blueprint" key wrapping the Blueprint payload.
type SerializedBlueprint struct {
	Blueprint Blueprint `json:"blueprint"`
}

// Save renders a blueprint string: JSON, zlib-deflated at best
// compression, base64-encoded, with a leading version byte -- the
// exact encoding Factorio's clipboard import expects.
func (s SerializedBlueprint) Save() (string, error) {
	encoded, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshalling blueprint")
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", errors.Wrap(err, "creating zlib writer")
	}
	if _, err := w.Write(encoded); err != nil {
		return "", errors.Wrap(err, "compressing blueprint")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "flushing compressed blueprint")
	}

	return "0" + base64.StdEncoding.WithPadding(base64.NoPadding).EncodeToString(buf.Bytes()), nil
}

// GenerateROMBlueprint lays out one decider + constant combinator pair
// per instruction: consecutive deciders chained by red wire, each
// decider paired to its own constant combinator by green wire.
func GenerateROMBlueprint(program []instructions.Instruction, cfg Config) Blueprint {
	programAddr := virtualSignal(cfg.ProgramAddressSignal)
	all := virtualSignal(cfg.AllSignal)
	opcode := virtualSignal(cfg.OpcodeSignal)

	var entities []Entity

	for idx, inst := range program {
		deciderNumber := uint32(len(entities) + 1)

		var connections *Connection
		if len(entities) != 0 {
			prev := uint32(len(entities) - 1)
			connections = &Connection{
				B: &ConnectionPoint{Red: []ConnectionData{{EntityID: prev, CircuitID: 2}}},
				A: &ConnectionPoint{Red: []ConnectionData{{EntityID: prev, CircuitID: 1}}},
			}
		}

		constant := int32(idx + 1)
		entities = append(entities, Entity{
			EntityNumber: deciderNumber,
			Name:         "decider-combinator",
			Position:     Position{X: 0, Y: -float32(idx)},
			Direction:    2,
			Connections:  connections,
			ControlBehaviour: &ControlBehaviour{
				DeciderConditions: &DeciderCombinatorParameters{
					Comparator:         "=",
					FirstSignal:        &programAddr,
					Constant:           &constant,
					OutputSignal:       &all,
					CopyCountFromInput: true,
				},
			},
		})

		filters := []ConstantCombinatorParameter{
			{Signal: opcode, Count: inst.Opcode(), Index: 1},
		}
		if ch, ok := inst.ArgumentChannel(); ok {
			filters = append(filters, ConstantCombinatorParameter{
				Signal: virtualSignal(argumentChannelName(ch, cfg)),
				Count:  inst.Arg,
				Index:  2,
			})
		}

		constantNumber := uint32(len(entities) + 1)
		entities = append(entities, Entity{
			EntityNumber: constantNumber,
			Name:         "constant-combinator",
			Position:     Position{X: -2, Y: -float32(idx)},
			Direction:    1,
			Connections: &Connection{
				A: &ConnectionPoint{Green: []ConnectionData{{EntityID: uint32(len(entities)), CircuitID: 1}}},
			},
			ControlBehaviour: &ControlBehaviour{
				Filters: filters,
			},
		})
	}

	return Blueprint{
		Item:     "blueprint",
		Label:    "Program",
		Entities: entities,
		Version:  0,
	}
}

func argumentChannelName(ch instructions.Channel, cfg Config) string {
	if ch == instructions.DataChannel {
		return cfg.ArgumentDataSignal
	}
	return cfg.ArgumentAddressSignal
}
