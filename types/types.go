// Package types defines RuneScript's primitive types, stack domains, and
// the tuple type used for multi-value script returns.
package types

import "strings"

// Domain is one of the three parallel operand stacks the runtime maintains.
type Domain int

const (
	INT Domain = iota
	STRING
	LONG
)

func (d Domain) String() string {
	switch d {
	case INT:
		return "int"
	case STRING:
		return "string"
	case LONG:
		return "long"
	default:
		return "unknown"
	}
}

// Primitive is a scalar RuneScript type.
type Primitive int

const (
	PrimInt Primitive = iota
	PrimString
	PrimLong
	PrimBool
)

var primitiveNames = map[Primitive]string{
	PrimInt: "int", PrimString: "string", PrimLong: "long", PrimBool: "bool",
}

var namesToPrimitive = map[string]Primitive{
	"int": PrimInt, "string": PrimString, "long": PrimLong, "bool": PrimBool,
}

func (p Primitive) String() string {
	if s, ok := primitiveNames[p]; ok {
		return s
	}
	return "invalid"
}

// Domain returns the stack domain a primitive belongs to. bool travels on
// the int stack, matching the runtime's int-as-boolean convention.
func (p Primitive) Domain() Domain {
	switch p {
	case PrimString:
		return STRING
	case PrimLong:
		return LONG
	default:
		return INT
	}
}

// LookupPrimitive resolves a type keyword to a Primitive.
func LookupPrimitive(name string) (Primitive, bool) {
	p, ok := namesToPrimitive[strings.ToLower(name)]
	return p, ok
}

// Type is either a single Primitive or a flattened Tuple of them. Multi
// value script returns are represented as a Tuple; everything else is a
// single-element Tuple by construction so callers have one shape to walk.
type Type struct {
	Elems []Primitive
}

// Scalar builds a single-primitive Type.
func Scalar(p Primitive) Type { return Type{Elems: []Primitive{p}} }

// Tuple builds a multi-primitive Type. An empty Tuple represents "no value".
func Tuple(elems ...Primitive) Type { return Type{Elems: elems} }

// Void is the empty tuple type, used for scripts with no return values.
func Void() Type { return Type{} }

// IsScalar reports whether the type carries exactly one element.
func (t Type) IsScalar() bool { return len(t.Elems) == 1 }

// IsVoid reports whether the type carries no elements.
func (t Type) IsVoid() bool { return len(t.Elems) == 0 }

// Scalar returns the sole element of a scalar type. Only call after
// checking IsScalar: it panics on a void type and returns the first
// element of a multi-element tuple.
func (t Type) Scalar() Primitive { return t.Elems[0] }

// Equal reports whether two types have identical element sequences.
func (t Type) Equal(o Type) bool {
	if len(t.Elems) != len(o.Elems) {
		return false
	}
	for i, e := range t.Elems {
		if e != o.Elems[i] {
			return false
		}
	}
	return true
}

// CountInDomain returns how many elements of the type live in domain d —
// used by codegen to compute per-domain discard counts for expression
// statements.
func (t Type) CountInDomain(d Domain) int {
	n := 0
	for _, e := range t.Elems {
		if e.Domain() == d {
			n++
		}
	}
	return n
}

func (t Type) String() string {
	if t.IsVoid() {
		return "()"
	}
	if t.IsScalar() {
		return t.Elems[0].String()
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range t.Elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
