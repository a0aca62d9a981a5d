// Package sym implements the process-wide symbol table: flat keyed
// registries for scripts, commands, constants, and variables. There is no
// scoping stack here; locals are the analyzer/codegen's concern.
package sym

import (
	"fmt"

	"github.com/Blunkie/RuneScript/types"
)

// ScriptInfo is a script declaration: trigger + name + signature.
type ScriptInfo struct {
	Trigger    string
	Name       string
	ParamTypes []types.Primitive
	ReturnType types.Type
}

// FullName returns the canonical "[trigger,name]" identifier.
func (s ScriptInfo) FullName() string {
	return "[" + s.Trigger + "," + s.Name + "]"
}

// EqualSignature reports whether two ScriptInfos agree on trigger, name,
// parameter types, and return type — the part dependents actually rely on.
func EqualSignature(a, b ScriptInfo) bool {
	if a.Trigger != b.Trigger || a.Name != b.Name {
		return false
	}
	if len(a.ParamTypes) != len(b.ParamTypes) {
		return false
	}
	for i := range a.ParamTypes {
		if a.ParamTypes[i] != b.ParamTypes[i] {
			return false
		}
	}
	return a.ReturnType.Equal(b.ReturnType)
}

// CommandInfo is an engine-provided built-in.
type CommandInfo struct {
	Name        string
	Opcode      int
	ParamTypes  []types.Primitive
	ReturnType  types.Type
	Alternative bool
}

// ConstantInfo is a named compile-time literal constant.
type ConstantInfo struct {
	Name  string
	Type  types.Primitive
	Value any
}

// RuntimeConstantInfo is a constant resolved by the runtime rather than
// inlined at compile time (e.g. an engine-provided enum value looked up by
// name but not known until load).
type RuntimeConstantInfo struct {
	Name string
	Type types.Primitive
}

// VariableInfo is a declared shared variable (player-, client- or
// otherwise engine-scoped), keyed by (domain, name).
type VariableInfo struct {
	Domain string // e.g. "PLAYER", "PLAYER_BIT", "CLIENT_INT", "CLIENT_STRING"
	Name   string
	Type   types.Primitive
}

type scriptKey struct{ trigger, name string }

type varKey struct{ domain, name string }

// Table is the symbol table: five flat keyed registries (scripts, commands,
// constants, runtime constants, variables), each enforcing
// at-most-one-live-declaration.
type Table struct {
	scripts   map[scriptKey]ScriptInfo
	commands  map[string]CommandInfo
	constants map[string]ConstantInfo
	runtimeConstants map[string]RuntimeConstantInfo
	variables map[varKey]VariableInfo
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{
		scripts:          make(map[scriptKey]ScriptInfo),
		commands:         make(map[string]CommandInfo),
		constants:        make(map[string]ConstantInfo),
		runtimeConstants: make(map[string]RuntimeConstantInfo),
		variables:        make(map[varKey]VariableInfo),
	}
}

// DefineScript registers a script declaration. It is an error if
// (trigger, name) is already defined.
func (t *Table) DefineScript(info ScriptInfo) error {
	k := scriptKey{info.Trigger, info.Name}
	if _, ok := t.scripts[k]; ok {
		return fmt.Errorf("sym: script %q already declared", info.FullName())
	}
	t.scripts[k] = info
	return nil
}

// UndefineScript removes a script declaration. Idempotent from the
// caller's view: undefining a name that isn't present is not an error, but
// should only be called symmetrically with a prior DefineScript.
func (t *Table) UndefineScript(trigger, name string) {
	delete(t.scripts, scriptKey{trigger, name})
}

// LookupScript returns the declaration for (trigger, name), or false.
func (t *Table) LookupScript(trigger, name string) (ScriptInfo, bool) {
	s, ok := t.scripts[scriptKey{trigger, name}]
	return s, ok
}

// AllScripts returns every currently declared script. Order is undefined.
func (t *Table) AllScripts() []ScriptInfo {
	out := make([]ScriptInfo, 0, len(t.scripts))
	for _, s := range t.scripts {
		out = append(out, s)
	}
	return out
}

// DefineCommand registers a command. Error if name already defined.
func (t *Table) DefineCommand(info CommandInfo) error {
	if _, ok := t.commands[info.Name]; ok {
		return fmt.Errorf("sym: command %q already declared", info.Name)
	}
	t.commands[info.Name] = info
	return nil
}

// LookupCommand returns the command named name, or false.
func (t *Table) LookupCommand(name string) (CommandInfo, bool) {
	c, ok := t.commands[name]
	return c, ok
}

// DefineConstant registers a constant. Error if name already defined.
func (t *Table) DefineConstant(info ConstantInfo) error {
	if _, ok := t.constants[info.Name]; ok {
		return fmt.Errorf("sym: constant %q already declared", info.Name)
	}
	t.constants[info.Name] = info
	return nil
}

// LookupConstant returns the constant named name, or false.
func (t *Table) LookupConstant(name string) (ConstantInfo, bool) {
	c, ok := t.constants[name]
	return c, ok
}

// DefineRuntimeConstant registers a runtime-resolved constant.
func (t *Table) DefineRuntimeConstant(info RuntimeConstantInfo) error {
	if _, ok := t.runtimeConstants[info.Name]; ok {
		return fmt.Errorf("sym: runtime constant %q already declared", info.Name)
	}
	t.runtimeConstants[info.Name] = info
	return nil
}

// LookupRuntimeConstant returns the runtime constant named name, or false.
func (t *Table) LookupRuntimeConstant(name string) (RuntimeConstantInfo, bool) {
	c, ok := t.runtimeConstants[name]
	return c, ok
}

// DefineVariable registers a shared variable keyed by (domain, name).
func (t *Table) DefineVariable(info VariableInfo) error {
	k := varKey{info.Domain, info.Name}
	if _, ok := t.variables[k]; ok {
		return fmt.Errorf("sym: variable %s.%q already declared", info.Domain, info.Name)
	}
	t.variables[k] = info
	return nil
}

// LookupVariable returns the variable (domain, name), or false.
func (t *Table) LookupVariable(domain, name string) (VariableInfo, bool) {
	v, ok := t.variables[varKey{domain, name}]
	return v, ok
}
