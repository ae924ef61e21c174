// This is the main-driver for our compiler.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/skx/signalc/blueprint"
	"github.com/skx/signalc/compiler"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/disasm"
	"github.com/skx/signalc/instructions"
	"github.com/skx/signalc/lexer"
	"github.com/skx/signalc/linker"
	"github.com/skx/signalc/parser"
)

// vmConfig is the on-disk shape of an optional TOML file overriding
// the VM-contract constants and blueprint channel names. Any field
// left unset keeps the built-in default.
type vmConfig struct {
	SignalCount           int32  `toml:"signal_count"`
	ProgramAddressSignal  string `toml:"program_address_signal"`
	AllSignal             string `toml:"all_signal"`
	OpcodeSignal          string `toml:"opcode_signal"`
	ArgumentAddressSignal string `toml:"argument_address_signal"`
	ArgumentDataSignal    string `toml:"argument_data_signal"`
}

func loadConfig(path string) (compiler.Config, blueprint.Config, error) {
	compilerCfg := compiler.DefaultConfig()
	blueprintCfg := blueprint.DefaultConfig()

	if path == "" {
		return compilerCfg, blueprintCfg, nil
	}

	var raw vmConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return compilerCfg, blueprintCfg, err
	}

	if raw.SignalCount != 0 {
		compilerCfg.SignalCount = raw.SignalCount
	}
	if raw.ProgramAddressSignal != "" {
		blueprintCfg.ProgramAddressSignal = raw.ProgramAddressSignal
	}
	if raw.AllSignal != "" {
		blueprintCfg.AllSignal = raw.AllSignal
	}
	if raw.OpcodeSignal != "" {
		blueprintCfg.OpcodeSignal = raw.OpcodeSignal
	}
	if raw.ArgumentAddressSignal != "" {
		blueprintCfg.ArgumentAddressSignal = raw.ArgumentAddressSignal
	}
	if raw.ArgumentDataSignal != "" {
		blueprintCfg.ArgumentDataSignal = raw.ArgumentDataSignal
	}

	return compilerCfg, blueprintCfg, nil
}

// tryCompile runs the full lexer -> parser -> compiler -> linker
// pipeline over source, returning the final linked program.
func tryCompile(source *diag.SourceFile, cfg compiler.Config) ([]instructions.Instruction, diag.Diagnostics) {
	tokens, lexErrs := lexer.Tokenize(source)
	if lexErrs != nil {
		return nil, lexErrs
	}

	module, parseErrs := parser.ParseModule(tokens)
	if parseErrs != nil {
		return nil, parseErrs
	}

	compiled, compileErrs := compiler.CompileModule(module, cfg)
	if compileErrs != nil {
		return nil, compileErrs
	}

	program, linkErrs := linker.Link(compiled)
	if linkErrs != nil {
		return nil, linkErrs
	}

	return program, nil
}

func main() {
	//
	// Look for flags.
	//
	assembly := flag.Bool("assembly", false, "Print the textual disassembly instead of a ROM blueprint.")
	config := flag.String("config", "", "Optional TOML file overriding the VM-contract constants.")
	flag.Parse()

	//
	// Ensure we have a source file as our single argument.
	//
	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: signalc [--assembly] [--config file.toml] path/to/source\n")
		os.Exit(1)
	}
	path := flag.Args()[0]

	//
	// Load optional config overrides.
	//
	compilerCfg, blueprintCfg, err := loadConfig(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %s\n", err)
		os.Exit(1)
	}

	//
	// Read the source file.
	//
	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read source: %s\n", err)
		os.Exit(1)
	}
	source := diag.NewSourceFile(path, string(text))

	//
	// Run the pipeline.
	//
	program, errs := tryCompile(source, compilerCfg)
	if errs != nil {
		fmt.Fprint(os.Stderr, errs.Error())
		os.Exit(1)
	}

	//
	// Print either the disassembly or the ROM blueprint.
	//
	if *assembly {
		fmt.Println("Assembly:")
		if err := disasm.Print(os.Stdout, program); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to print assembly: %s\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("ROM Blueprint:")
	bp := blueprint.SerializedBlueprint{Blueprint: blueprint.GenerateROMBlueprint(program, blueprintCfg)}
	out, err := bp.Save()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to serialize blueprint: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
