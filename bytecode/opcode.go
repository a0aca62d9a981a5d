// Package bytecode lowers analyzed AST scripts into blocks of labeled,
// branch-terminated instructions over the three stack domains.
package bytecode

import "fmt"

// CoreOpcode is the abstract, portable opcode identifier codegen emits.
// It is remapped through an InstructionMap to a concrete runtime Opcode
// before an instruction is appended to a block, decoupling codegen from
// the runtime's actual opcode numbering.
type CoreOpcode int

const (
	// Stack literal pushes
	PushIntConstant CoreOpcode = iota
	PushStringConstant
	PushLongConstant

	// Local variable access
	PushIntLocal
	PopIntLocal
	PushStringLocal
	PopStringLocal
	PushLongLocal
	PopLongLocal

	// Shared variable access
	PushVarp
	PopVarp
	PushVarpBit
	PopVarpBit
	PushVarcInt
	PopVarcInt
	PushVarcString
	PopVarcString

	// Discards
	PopIntDiscard
	PopStringDiscard
	PopLongDiscard

	// Control flow
	Branch
	BranchIfTrue
	BranchEquals
	BranchLessThan
	BranchGreaterThan
	BranchLessThanOrEquals
	BranchGreaterThanOrEquals
	Return

	// Calls
	GosubWithParams
	Command // operand 0 = plain, operand 1 = alternative form

	// Strings
	JoinString

	// Arithmetic
	ArithAdd
	ArithSub
	ArithMul
	ArithDiv
	ArithMod
)

var coreOpcodeNames = map[CoreOpcode]string{
	PushIntConstant: "PUSH_INT_CONSTANT", PushStringConstant: "PUSH_STRING_CONSTANT", PushLongConstant: "PUSH_LONG_CONSTANT",
	PushIntLocal: "PUSH_INT_LOCAL", PopIntLocal: "POP_INT_LOCAL",
	PushStringLocal: "PUSH_STRING_LOCAL", PopStringLocal: "POP_STRING_LOCAL",
	PushLongLocal: "PUSH_LONG_LOCAL", PopLongLocal: "POP_LONG_LOCAL",
	PushVarp: "PUSH_VARP", PopVarp: "POP_VARP",
	PushVarpBit: "PUSH_VARP_BIT", PopVarpBit: "POP_VARP_BIT",
	PushVarcInt: "PUSH_VARC_INT", PopVarcInt: "POP_VARC_INT",
	PushVarcString: "PUSH_VARC_STRING", PopVarcString: "POP_VARC_STRING",
	PopIntDiscard: "POP_INT_DISCARD", PopStringDiscard: "POP_STRING_DISCARD", PopLongDiscard: "POP_LONG_DISCARD",
	Branch: "BRANCH", BranchIfTrue: "BRANCH_IF_TRUE", BranchEquals: "BRANCH_EQUALS",
	BranchLessThan: "BRANCH_LESS_THAN", BranchGreaterThan: "BRANCH_GREATER_THAN",
	BranchLessThanOrEquals: "BRANCH_LESS_THAN_OR_EQUALS", BranchGreaterThanOrEquals: "BRANCH_GREATER_THAN_OR_EQUALS",
	Return:          "RETURN",
	GosubWithParams: "GOSUB_WITH_PARAMS", Command: "COMMAND",
	JoinString: "JOIN_STRING",
	ArithAdd:   "ARITH_ADD", ArithSub: "ARITH_SUB", ArithMul: "ARITH_MUL", ArithDiv: "ARITH_DIV", ArithMod: "ARITH_MOD",
}

func (c CoreOpcode) String() string {
	if s, ok := coreOpcodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CoreOpcode(%d)", int(c))
}

// Opcode is the concrete runtime instruction number a CoreOpcode is
// remapped to. The numbering is the runtime's concern, not codegen's.
type Opcode int

// InstructionMap remaps CoreOpcode values to concrete runtime Opcode
// values. Codegen never emits a CoreOpcode directly into a block; it
// always goes through a map so the runtime's numbering can change
// independently of codegen.
type InstructionMap struct {
	table map[CoreOpcode]Opcode
}

// NewInstructionMap builds a map from an explicit core->concrete table.
func NewInstructionMap(table map[CoreOpcode]Opcode) *InstructionMap {
	return &InstructionMap{table: table}
}

// IdentityInstructionMap maps every CoreOpcode to an Opcode of the same
// numeric value, useful for tests and as a default when no runtime-specific
// remapping file is supplied.
func IdentityInstructionMap() *InstructionMap {
	m := make(map[CoreOpcode]Opcode, len(coreOpcodeNames))
	for c := range coreOpcodeNames {
		m[c] = Opcode(c)
	}
	return &InstructionMap{table: m}
}

// Remap resolves a CoreOpcode to its concrete Opcode. Panics if the map
// has no entry — an unmapped CoreOpcode is a configuration bug, not a
// recoverable codegen error.
func (m *InstructionMap) Remap(c CoreOpcode) Opcode {
	op, ok := m.table[c]
	if !ok {
		panic(fmt.Sprintf("bytecode: no instruction mapping for %s", c))
	}
	return op
}
