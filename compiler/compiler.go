// Package compiler lowers one function's AST body to stack-VM
// instructions. Linking separate functions into one flat, resolved
// instruction stream is the linker package's job, not this one's.
package compiler

import (
	"strconv"
	"strings"

	"github.com/skx/signalc/ast"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/instructions"
)

// Config exposes the VM-contract constants callers may need to
// retarget. The zero-value Config is invalid; use DefaultConfig or
// load one from TOML (see cmd/signalc).
type Config struct {
	// SignalCount is the number of signal_N pseudo-variables
	// available (signal_1..signal_SignalCount).
	SignalCount int32
}

// DefaultConfig reproduces the hard-coded SIGNAL_COUNT = 5 contract.
func DefaultConfig() Config {
	return Config{SignalCount: 5}
}

// Signature is what a function's callers need to know about it: how
// many arguments it takes, whether it returns a value, and the stable
// id the linker will use to resolve JumpSubRoutine targets.
type Signature struct {
	ID           int
	ArgCount     int
	ReturnsValue bool
}

// Compiled is one function's compiled instruction stream, still
// addressed relative to its own start (i.e. not yet linked).
type Compiled struct {
	Name         string
	ID           int
	ArgCount     int
	ReturnsValue bool
	Instructions []instructions.Instruction
}

// entryPoint is the required name of the zero-arg, void entry function.
const entryPoint = "main"

// scopeKind distinguishes a plain lexical scope from one introduced by
// a while loop, which additionally has to remember every continue/
// break placeholder so they can be backpatched once the loop's
// boundaries are known.
type scopeKind int

const (
	otherScope scopeKind = iota
	whileScope
)

// scope is one lexically nested region: it knows the stack depth it
// was opened at (so it can pop exactly what it introduced on exit) and
// the frame offset of every variable declared directly within it.
type scope struct {
	kind               scopeKind
	vars               map[string]int32
	startingStackSize  int32
	continueInstrIndex []int
	breakInstrIndex    []int
}

func newScope(kind scopeKind, startingStackSize int32) *scope {
	return &scope{kind: kind, vars: make(map[string]int32), startingStackSize: startingStackSize}
}

// context carries all per-function compilation state: the
// instructions emitted so far, the tracked stack depth, the open
// scope stack, where (if anywhere) to save this function's return
// value, and the signatures of every function in the module (needed
// to resolve calls).
type context struct {
	cfg          Config
	instructions []instructions.Instruction
	stackSize    int32
	scopes       *scopeStack
	returnSlot   *int32 // frame offset of the return-value slot, if any
	functions    map[string]Signature
}

func (c *context) openScope(kind scopeKind) {
	c.scopes.Push(newScope(kind, c.stackSize))
}

// endScope pops the current scope's locals off the tracked stack and
// returns the scope that was closed, so callers can inspect its
// continue/break placeholders.
func (c *context) endScope() *scope {
	s, err := c.scopes.Pop()
	if err != nil {
		panic(err)
	}

	for i := int32(0); i < c.stackSize-s.startingStackSize; i++ {
		c.emit(instructions.Instruction{Op: instructions.Pop})
	}
	return s
}

// preparePrematureScopeEnd emits the pops needed to unwind every scope
// from (and including) scopeIdx up to the current depth, WITHOUT
// touching the tracked stack size: control is about to leave via
// return/continue/break, so instructions that follow still belong to
// the stack depth of the code path that falls through normally.
func (c *context) preparePrematureScopeEnd(scopeIdx int) {
	target := c.scopes.At(scopeIdx).startingStackSize
	for i := int32(0); i < c.stackSize-target; i++ {
		c.instructions = append(c.instructions, instructions.Instruction{Op: instructions.Pop})
	}
}

// emit appends an instruction and updates the tracked stack depth by
// its StackDelta.
func (c *context) emit(inst instructions.Instruction) {
	c.instructions = append(c.instructions, inst)
	c.stackSize += int32(inst.Op.StackDelta())
}

// lastIsReturn reports whether the most recently emitted instruction
// is a Return, so compileFunction can skip adding a redundant one.
func (c *context) lastIsReturn() bool {
	if len(c.instructions) == 0 {
		return false
	}
	return c.instructions[len(c.instructions)-1].Op == instructions.Return
}

const signalVarPrefix = "signal_"

// variablePos looks up the frame offset recorded for name, searching
// scopes innermost first so that inner declarations shadow outer ones.
func (c *context) variablePos(name string) (int32, bool) {
	for i := c.scopes.Len() - 1; i >= 0; i-- {
		if off, ok := c.scopes.At(i).vars[name]; ok {
			return off, true
		}
	}
	return 0, false
}

// variableAddress computes the 1-based, stack-relative address to use
// in a Save/Load instruction for name: either a signal_N pseudo
// variable's fixed negative slot, or stackSize minus the variable's
// recorded frame offset.
func (c *context) variableAddress(name string, nameLoc diag.Location, reading bool) (int32, diag.Diagnostics) {
	if strings.HasPrefix(name, signalVarPrefix) {
		return c.signalAddress(name, nameLoc, reading)
	}

	off, ok := c.variablePos(name)
	if !ok {
		return 0, diag.Diagnostics{diag.At(nameLoc, "No variable exists with this name")}
	}
	return c.stackSize - off, nil
}

func (c *context) signalAddress(name string, nameLoc diag.Location, reading bool) (int32, diag.Diagnostics) {
	numStr := name[len(signalVarPrefix):]
	n, err := strconv.ParseInt(numStr, 10, 32)
	if err != nil {
		return 0, diag.Diagnostics{diag.At(nameLoc, "Signal number must be a valid integer")}
	}
	if n <= 0 || int32(n) > c.cfg.SignalCount {
		return 0, diag.Diagnostics{diag.At(nameLoc, "Invalid signal number. Must be in range [1-%d]", c.cfg.SignalCount)}
	}
	if reading {
		return -(c.cfg.SignalCount + int32(n)), nil
	}
	return -int32(n), nil
}

func (c *context) saveToVariable(name string, nameLoc diag.Location) diag.Diagnostics {
	addr, errs := c.variableAddress(name, nameLoc, false)
	if errs != nil {
		return errs
	}
	c.emit(instructions.Instruction{Op: instructions.Save, Arg: addr})
	return nil
}

func (c *context) loadFromVariable(name string, nameLoc diag.Location) diag.Diagnostics {
	addr, errs := c.variableAddress(name, nameLoc, true)
	if errs != nil {
		return errs
	}
	c.emit(instructions.Instruction{Op: instructions.Load, Arg: addr})
	return nil
}

// addVariable declares name in the innermost open scope, pinning it
// to the stack slot that is currently on top (which is where the
// value that triggered its declaration was just pushed).
func (c *context) addVariable(name string) {
	c.scopes.Top().vars[name] = c.stackSize - 1
}

// CompileModule compiles every function in declaration order, sharing
// one signature table so forward references between functions resolve
// and mutual recursion works regardless of declaration order. It does
// not link them into one program; see the linker package.
func CompileModule(functions []ast.Function, cfg Config) ([]Compiled, diag.Diagnostics) {
	sigs := make(map[string]Signature, len(functions))
	var errs diag.Diagnostics

	for idx, fn := range functions {
		if _, exists := sigs[fn.Name]; exists {
			errs = errs.Append(diag.Diagnostics{diag.At(fn.NameLoc, "A function with this name already exists - overloading is not supported")})
			continue
		}
		sigs[fn.Name] = Signature{ID: idx, ArgCount: len(fn.ArgumentNames), ReturnsValue: fn.ReturnsValue}
	}
	if errs != nil {
		return nil, errs
	}

	compiled := make([]Compiled, 0, len(functions))
	for _, fn := range functions {
		sig := sigs[fn.Name]
		body, fnErrs := compileFunction(fn, sigs, cfg)
		if fnErrs != nil {
			errs = errs.Append(fnErrs)
			continue
		}
		compiled = append(compiled, Compiled{
			Name:         fn.Name,
			ID:           sig.ID,
			ArgCount:     sig.ArgCount,
			ReturnsValue: sig.ReturnsValue,
			Instructions: body,
		})
	}

	if errs != nil {
		return nil, errs
	}
	return compiled, nil
}

// EntryPointName is the required name of the module's entry function.
func EntryPointName() string { return entryPoint }

// compileFunction lowers a single function body under the calling
// convention: the caller reserves a return-value slot (if any), then
// pushes arguments left to right, then emits
// JumpSubRoutine. Within the callee, frame offset 0 is the first
// local variable, -1 is the return address, -2.. are the arguments,
// and (if value-returning) one slot further back is the return value.
func compileFunction(fn ast.Function, sigs map[string]Signature, cfg Config) ([]instructions.Instruction, diag.Diagnostics) {
	argsStart := int32(-1 - len(fn.ArgumentNames))

	rootVars := make(map[string]int32, len(fn.ArgumentNames))
	for i, name := range fn.ArgumentNames {
		rootVars[name] = argsStart + int32(i)
	}

	ctx := &context{
		cfg:       cfg,
		scopes:    newScopeStack(),
		functions: sigs,
	}
	ctx.scopes.Push(&scope{
		kind:              otherScope,
		vars:              rootVars,
		startingStackSize: 0,
	})
	if fn.ReturnsValue {
		slot := argsStart - 1
		ctx.returnSlot = &slot
	}

	if errs := emitBlock(fn.Body, ctx); errs != nil {
		return nil, errs
	}

	ctx.endScope()
	if !ctx.lastIsReturn() {
		ctx.emit(instructions.Instruction{Op: instructions.Return})
	}

	return ctx.instructions, nil
}
