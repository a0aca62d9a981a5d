package bytecode

import (
	"fmt"

	"github.com/Blunkie/RuneScript/sym"
)

// OperandTag identifies which case of Operand is populated. The byte
// values are frozen once emitted to a persisted cache, so existing tags
// must never be renumbered — only appended to.
type OperandTag byte

const (
	OperandNone OperandTag = iota
	OperandInt
	OperandLong
	OperandString
	OperandScript
	OperandVariable
	OperandLabel
	OperandLocalSlot
)

// Operand is a tagged variant: exactly one field is meaningful, selected
// by Tag. Codegen picks the case; serialization dispatches on Tag.
type Operand struct {
	Tag OperandTag

	Int        int32
	Long       int64
	Str        string
	Script     sym.ScriptInfo
	Variable   sym.VariableInfo
	Label      Label
	LocalSlot  int
}

func IntOperand(v int32) Operand      { return Operand{Tag: OperandInt, Int: v} }
func LongOperand(v int64) Operand     { return Operand{Tag: OperandLong, Long: v} }
func StringOperand(v string) Operand  { return Operand{Tag: OperandString, Str: v} }
func ScriptOperand(s sym.ScriptInfo) Operand   { return Operand{Tag: OperandScript, Script: s} }
func VariableOperand(v sym.VariableInfo) Operand { return Operand{Tag: OperandVariable, Variable: v} }
func LabelOperand(l Label) Operand    { return Operand{Tag: OperandLabel, Label: l} }
func LocalSlotOperand(slot int) Operand { return Operand{Tag: OperandLocalSlot, LocalSlot: slot} }
func NoOperand() Operand              { return Operand{Tag: OperandNone} }

func (o Operand) String() string {
	switch o.Tag {
	case OperandNone:
		return ""
	case OperandInt:
		return fmt.Sprintf("%d", o.Int)
	case OperandLong:
		return fmt.Sprintf("%dL", o.Long)
	case OperandString:
		return fmt.Sprintf("%q", o.Str)
	case OperandScript:
		return o.Script.FullName()
	case OperandVariable:
		return fmt.Sprintf("%s.%s", o.Variable.Domain, o.Variable.Name)
	case OperandLabel:
		return string(o.Label)
	case OperandLocalSlot:
		return fmt.Sprintf("slot%d", o.LocalSlot)
	}
	return "?"
}

// Instruction is a single opcode plus its one operand.
type Instruction struct {
	Opcode  Opcode
	Operand Operand
}

// Label names a Block uniquely within a Script.
type Label string

// Block is a straight-line run of instructions. Every block except a
// script's last one ends with a branch or return; the last block ends with
// whatever the script's final statement emitted, and may be empty.
// Codegen never relies on block order implying control flow: a
// block's own terminating instruction is the only source of truth for
// where execution goes next.
type Block struct {
	Label        Label
	Instructions []Instruction
}

// Append adds an instruction to the end of the block.
func (b *Block) Append(op Opcode, operand Operand) {
	b.Instructions = append(b.Instructions, Instruction{Opcode: op, Operand: operand})
}

// Script is the bytecode form of one AST script: an ordered list of
// blocks, plus its LocalMap.
type Script struct {
	FullName string
	Blocks   []*Block
	Locals   *LocalMap
}

// EntryLabel is the label every script's first block carries.
const EntryLabel Label = "entry"

// FindBlock returns the block with the given label, or nil.
func (s *Script) FindBlock(l Label) *Block {
	for _, b := range s.Blocks {
		if b.Label == l {
			return b
		}
	}
	return nil
}
