// Package ast defines RuneScript's abstract syntax tree as a closed sum
// type and a type-switch based traversal helper.
package ast

import (
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/types"
)

// Node is implemented by every AST node. It is a closed sum type: the only
// implementations live in this package.
type Node interface {
	Range() lex.Range
	node()
}

// Expr is any expression node. After semantic analysis ResolvedType holds
// the expression's Type.
type Expr interface {
	Node
	expr()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmt()
}

type base struct {
	Rng lex.Range
}

func (b base) Range() lex.Range { return b.Rng }
func (base) node()              {}

type exprBase struct{ base }

func (exprBase) expr() {}

type stmtBase struct{ base }

func (stmtBase) stmt() {}

// Param is a single script parameter: a type and a local name.
type Param struct {
	base
	Type types.Primitive
	Name string
}

// Script is a top-level compilation unit: one `[trigger,name](...)(...)`.
type Script struct {
	base
	Trigger    string
	Name       string
	Params     []Param
	ReturnType types.Type
	Body       []Stmt
}

func (s *Script) node() {}

// FullName returns the canonical "[trigger,name]" identifier.
func (s *Script) FullName() string { return "[" + s.Trigger + "," + s.Name + "]" }

// ---- Statements ----

// BlockStmt is a `{ ... }` sequence.
type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

// IfStmt is `if (Cond) { Then } else { Else }`. Else may be nil.
type IfStmt struct {
	stmtBase
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt
}

// WhileStmt is `while (Cond) { Body }`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body *BlockStmt
}

// Case is one `case a, b:` arm of a switch, or the `default:` arm when
// Values is empty and IsDefault is true.
type Case struct {
	base
	Values    []Expr
	IsDefault bool
	Body      []Stmt
}

// SwitchStmt is `switch (Expr) { case ...: ... default: ... }`.
type SwitchStmt struct {
	stmtBase
	Subject Expr
	Cases   []*Case
}

// ReturnStmt is `return(expr, expr, ...);` or a bare `return;`.
type ReturnStmt struct {
	stmtBase
	Values []Expr
}

// ExprStmt is an expression evaluated for its side effects, with its
// produced stack values discarded.
type ExprStmt struct {
	stmtBase
	X Expr
}

// VarDeclStmt is `type $name;` or `type $name = expr;`.
type VarDeclStmt struct {
	stmtBase
	Type types.Primitive
	Name string
	Init Expr // nil if no initializer
}

func (*BlockStmt) stmt()  {}
func (*IfStmt) stmt()     {}
func (*WhileStmt) stmt()  {}
func (*SwitchStmt) stmt() {}
func (*ReturnStmt) stmt() {}
func (*ExprStmt) stmt()   {}
func (*VarDeclStmt) stmt() {}

func (*BlockStmt) node()   {}
func (*IfStmt) node()      {}
func (*WhileStmt) node()   {}
func (*SwitchStmt) node()  {}
func (*ReturnStmt) node()  {}
func (*ExprStmt) node()    {}
func (*VarDeclStmt) node() {}

// ---- Expressions ----

// VarDomain names the scope+storage a variable reference targets.
type VarDomain int

const (
	VarLocal VarDomain = iota
	VarPlayer
	VarPlayerBit
	VarClientInt
	VarClientString
)

// BoolLit, IntLit, LongLit, StringLit are literal expressions.
type BoolLit struct {
	exprBase
	Value        bool
	ResolvedType types.Type
}

type IntLit struct {
	exprBase
	Value        int32
	ResolvedType types.Type
}

type LongLit struct {
	exprBase
	Value        int64
	ResolvedType types.Type
}

type StringLit struct {
	exprBase
	Value        string
	ResolvedType types.Type
}

// ConcatExpr is `a .. b .. c`, flattened to a list of parts at parse time.
type ConcatExpr struct {
	exprBase
	Parts        []Expr
	ResolvedType types.Type
}

// VarRefExpr is a `$name` / `%name` / `%%name` / `@name` / `@$name`
// reference.
type VarRefExpr struct {
	exprBase
	Domain       VarDomain
	Name         string
	ResolvedType types.Type
}

// ConstRefExpr is `^name`.
type ConstRefExpr struct {
	exprBase
	Name         string
	ResolvedType types.Type
}

// GosubExpr is `~name(args)`.
type GosubExpr struct {
	exprBase
	Name         string
	Args         []Expr
	ResolvedType types.Type
}

// CommandExpr is a bare `name(args)` call to an engine command.
type CommandExpr struct {
	exprBase
	Name         string
	Args         []Expr
	ResolvedType types.Type
}

// BinOpKind enumerates the supported binary operators.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
)

// BinOpExpr is an arithmetic, relational, equality, or logical operation.
type BinOpExpr struct {
	exprBase
	Op           BinOpKind
	Left, Right  Expr
	ResolvedType types.Type
}

// DynamicExpr is a placeholder for an expression whose shape could not be
// determined during parsing (malformed input recovered at statement
// boundary); semantic analysis treats its type as unresolved.
type DynamicExpr struct {
	exprBase
	ResolvedType types.Type
}

func (*BoolLit) expr()      {}
func (*IntLit) expr()       {}
func (*LongLit) expr()      {}
func (*StringLit) expr()    {}
func (*ConcatExpr) expr()   {}
func (*VarRefExpr) expr()   {}
func (*ConstRefExpr) expr() {}
func (*GosubExpr) expr()    {}
func (*CommandExpr) expr()  {}
func (*BinOpExpr) expr()    {}
func (*DynamicExpr) expr()  {}

func (*BoolLit) node()      {}
func (*IntLit) node()       {}
func (*LongLit) node()      {}
func (*StringLit) node()    {}
func (*ConcatExpr) node()   {}
func (*VarRefExpr) node()   {}
func (*ConstRefExpr) node() {}
func (*GosubExpr) node()    {}
func (*CommandExpr) node()  {}
func (*BinOpExpr) node()    {}
func (*DynamicExpr) node()  {}

// ---- Constructors ----
//
// Exported constructors are needed because the embedded base/exprBase/
// stmtBase types are unexported: only this package can build a composite
// literal that sets them directly.

func NewParam(rng lex.Range, t types.Primitive, name string) Param {
	return Param{base: base{Rng: rng}, Type: t, Name: name}
}

func NewScript(rng lex.Range, trigger, name string, params []Param, ret types.Type, body []Stmt) *Script {
	return &Script{base: base{Rng: rng}, Trigger: trigger, Name: name, Params: params, ReturnType: ret, Body: body}
}

func NewBlockStmt(rng lex.Range, stmts []Stmt) *BlockStmt {
	return &BlockStmt{stmtBase: stmtBase{base{Rng: rng}}, Stmts: stmts}
}

func NewIfStmt(rng lex.Range, cond Expr, then, els *BlockStmt) *IfStmt {
	return &IfStmt{stmtBase: stmtBase{base{Rng: rng}}, Cond: cond, Then: then, Else: els}
}

func NewWhileStmt(rng lex.Range, cond Expr, body *BlockStmt) *WhileStmt {
	return &WhileStmt{stmtBase: stmtBase{base{Rng: rng}}, Cond: cond, Body: body}
}

func NewCase(rng lex.Range, values []Expr, isDefault bool, body []Stmt) *Case {
	return &Case{base: base{Rng: rng}, Values: values, IsDefault: isDefault, Body: body}
}

func NewSwitchStmt(rng lex.Range, subject Expr, cases []*Case) *SwitchStmt {
	return &SwitchStmt{stmtBase: stmtBase{base{Rng: rng}}, Subject: subject, Cases: cases}
}

func NewReturnStmt(rng lex.Range, values []Expr) *ReturnStmt {
	return &ReturnStmt{stmtBase: stmtBase{base{Rng: rng}}, Values: values}
}

func NewExprStmt(rng lex.Range, x Expr) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{base{Rng: rng}}, X: x}
}

func NewVarDeclStmt(rng lex.Range, t types.Primitive, name string, init Expr) *VarDeclStmt {
	return &VarDeclStmt{stmtBase: stmtBase{base{Rng: rng}}, Type: t, Name: name, Init: init}
}

func NewBoolLit(rng lex.Range, v bool) *BoolLit {
	return &BoolLit{exprBase: exprBase{base{Rng: rng}}, Value: v}
}

func NewIntLit(rng lex.Range, v int32) *IntLit {
	return &IntLit{exprBase: exprBase{base{Rng: rng}}, Value: v}
}

func NewLongLit(rng lex.Range, v int64) *LongLit {
	return &LongLit{exprBase: exprBase{base{Rng: rng}}, Value: v}
}

func NewStringLit(rng lex.Range, v string) *StringLit {
	return &StringLit{exprBase: exprBase{base{Rng: rng}}, Value: v}
}

func NewConcatExpr(rng lex.Range, parts []Expr) *ConcatExpr {
	return &ConcatExpr{exprBase: exprBase{base{Rng: rng}}, Parts: parts}
}

func NewVarRefExpr(rng lex.Range, domain VarDomain, name string) *VarRefExpr {
	return &VarRefExpr{exprBase: exprBase{base{Rng: rng}}, Domain: domain, Name: name}
}

func NewConstRefExpr(rng lex.Range, name string) *ConstRefExpr {
	return &ConstRefExpr{exprBase: exprBase{base{Rng: rng}}, Name: name}
}

func NewGosubExpr(rng lex.Range, name string, args []Expr) *GosubExpr {
	return &GosubExpr{exprBase: exprBase{base{Rng: rng}}, Name: name, Args: args}
}

func NewCommandExpr(rng lex.Range, name string, args []Expr) *CommandExpr {
	return &CommandExpr{exprBase: exprBase{base{Rng: rng}}, Name: name, Args: args}
}

func NewBinOpExpr(rng lex.Range, op BinOpKind, l, r Expr) *BinOpExpr {
	return &BinOpExpr{exprBase: exprBase{base{Rng: rng}}, Op: op, Left: l, Right: r}
}

func NewDynamicExpr(rng lex.Range) *DynamicExpr {
	return &DynamicExpr{exprBase: exprBase{base{Rng: rng}}}
}
