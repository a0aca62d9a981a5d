// Package sema implements semantic analysis: name/type resolution,
// signature checking, and AST annotation with resolved types.
package sema

import (
	"fmt"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

// Diagnostic is a semantic error: undeclared reference, type mismatch,
// arity mismatch, duplicate declaration, return-type mismatch.
type Diagnostic struct {
	Range   lex.Range
	Message string
}

// localVar is a resolved local variable declared by a parameter or a
// VarDeclStmt within the current script.
type localVar struct {
	typ types.Primitive
}

// Analyzer annotates a script's AST with resolved types and checks
// symbols against a shared table. One Analyzer instance processes one
// script at a time; create a fresh scope per script via Analyze.
type Analyzer struct {
	table *sym.Table
	diags []Diagnostic

	locals map[string]localVar
}

// New creates an analyzer bound to the given symbol table.
func New(table *sym.Table) *Analyzer {
	return &Analyzer{table: table}
}

// Diagnostics returns accumulated semantic errors from the most recent
// Analyze call.
func (a *Analyzer) Diagnostics() []Diagnostic { return a.diags }

// Analyze type-checks and annotates a single script. It returns the set
// of bare gosub/command names (e.g. "foo", not "[proc,foo]") the script's
// body references,
// for dependency-graph construction by the caller (mirroring the
// DependencyTreeBuilder visitor's job, run as a pass over the same tree
// rather than a distinct visitor object).
func (a *Analyzer) Analyze(s *ast.Script) (gosubs []string, commands []string) {
	a.diags = nil
	a.locals = make(map[string]localVar)

	seen := make(map[string]struct{})
	for _, p := range s.Params {
		if _, dup := seen[p.Name]; dup {
			a.errorf(p.Range(), "duplicate parameter %q", p.Name)
			continue
		}
		seen[p.Name] = struct{}{}
		a.locals[p.Name] = localVar{typ: p.Type}
	}

	gset := make(map[string]struct{})
	cset := make(map[string]struct{})
	a.analyzeBlock(s.Body, s, gset, cset)

	gosubs = keys(gset)
	commands = keys(cset)
	return
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (a *Analyzer) errorf(rng lex.Range, format string, args ...interface{}) {
	a.diags = append(a.diags, Diagnostic{Range: rng, Message: fmt.Sprintf(format, args...)})
}

// analyzeBlock walks a sequence of statements that share a block, flagging
// everything after an unconditional return as unreachable.
func (a *Analyzer) analyzeBlock(stmts []ast.Stmt, script *ast.Script, gset, cset map[string]struct{}) {
	terminated := false
	for _, s := range stmts {
		if terminated {
			a.errorf(s.Range(), "unreachable code")
		}
		a.analyzeStmt(s, script, gset, cset)
		if _, ok := s.(*ast.ReturnStmt); ok {
			terminated = true
		}
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt, script *ast.Script, gset, cset map[string]struct{}) {
	switch t := stmt.(type) {
	case *ast.BlockStmt:
		a.analyzeBlock(t.Stmts, script, gset, cset)

	case *ast.IfStmt:
		a.analyzeExpr(t.Cond, gset, cset)
		a.analyzeStmt(t.Then, script, gset, cset)
		if t.Else != nil {
			a.analyzeStmt(t.Else, script, gset, cset)
		}

	case *ast.WhileStmt:
		a.analyzeExpr(t.Cond, gset, cset)
		a.analyzeStmt(t.Body, script, gset, cset)

	case *ast.SwitchStmt:
		a.analyzeExpr(t.Subject, gset, cset)
		for _, c := range t.Cases {
			// The source's traversal recurses back into the enclosing
			// switch when walking the default case; that looks like a
			// copy-paste bug rather than intent, so here the default
			// case's own statements are walked directly like any other.
			for _, v := range c.Values {
				a.analyzeExpr(v, gset, cset)
			}
			a.analyzeBlock(c.Body, script, gset, cset)
		}

	case *ast.ReturnStmt:
		for _, v := range t.Values {
			a.analyzeExpr(v, gset, cset)
		}
		if len(t.Values) != len(script.ReturnType.Elems) {
			a.errorf(t.Range(), "return arity mismatch: got %d values, want %d", len(t.Values), len(script.ReturnType.Elems))
			return
		}
		for i, v := range t.Values {
			if rt := resolvedType(v); !rt.IsVoid() && rt.IsScalar() && rt.Scalar() != script.ReturnType.Elems[i] {
				a.errorf(v.Range(), "return value %d has type %s, want %s", i, rt, script.ReturnType.Elems[i])
			}
		}

	case *ast.ExprStmt:
		a.analyzeExpr(t.X, gset, cset)

	case *ast.VarDeclStmt:
		if _, dup := a.locals[t.Name]; dup {
			a.errorf(t.Range(), "duplicate declaration of %q", t.Name)
		}
		a.locals[t.Name] = localVar{typ: t.Type}
		if t.Init != nil {
			a.analyzeExpr(t.Init, gset, cset)
			if rt := resolvedType(t.Init); rt.IsScalar() && rt.Scalar() != t.Type {
				a.errorf(t.Init.Range(), "cannot assign %s to %s $%s", rt, t.Type, t.Name)
			}
		}
	}
}

func (a *Analyzer) analyzeExpr(e ast.Expr, gset, cset map[string]struct{}) types.Type {
	switch t := e.(type) {
	case *ast.BoolLit:
		t.ResolvedType = types.Scalar(types.PrimBool)
		return t.ResolvedType

	case *ast.IntLit:
		t.ResolvedType = types.Scalar(types.PrimInt)
		return t.ResolvedType

	case *ast.LongLit:
		t.ResolvedType = types.Scalar(types.PrimLong)
		return t.ResolvedType

	case *ast.StringLit:
		t.ResolvedType = types.Scalar(types.PrimString)
		return t.ResolvedType

	case *ast.ConcatExpr:
		// String concatenation accepts heterogeneous operands.
		for _, p := range t.Parts {
			a.analyzeExpr(p, gset, cset)
		}
		t.ResolvedType = types.Scalar(types.PrimString)
		return t.ResolvedType

	case *ast.VarRefExpr:
		prim, ok := a.resolveVarRef(t)
		if !ok {
			a.errorf(t.Range(), "undeclared variable %q", t.Name)
			t.ResolvedType = types.Void()
			return t.ResolvedType
		}
		t.ResolvedType = types.Scalar(prim)
		return t.ResolvedType

	case *ast.ConstRefExpr:
		c, ok := a.table.LookupConstant(t.Name)
		if !ok {
			a.errorf(t.Range(), "undeclared constant %q", t.Name)
			t.ResolvedType = types.Void()
			return t.ResolvedType
		}
		t.ResolvedType = types.Scalar(c.Type)
		return t.ResolvedType

	case *ast.GosubExpr:
		gset[t.Name] = struct{}{}
		for _, arg := range t.Args {
			a.analyzeExpr(arg, gset, cset)
		}
		info, ok := a.table.LookupScript("proc", t.Name)
		if !ok {
			a.errorf(t.Range(), "undeclared procedure %q", t.Name)
			t.ResolvedType = types.Void()
			return t.ResolvedType
		}
		a.checkArity(t.Range(), t.Args, info.ParamTypes, "gosub "+t.Name)
		t.ResolvedType = info.ReturnType
		return t.ResolvedType

	case *ast.CommandExpr:
		cset[t.Name] = struct{}{}
		for _, arg := range t.Args {
			a.analyzeExpr(arg, gset, cset)
		}
		info, ok := a.table.LookupCommand(t.Name)
		if !ok {
			a.errorf(t.Range(), "undeclared command %q", t.Name)
			t.ResolvedType = types.Void()
			return t.ResolvedType
		}
		a.checkArity(t.Range(), t.Args, info.ParamTypes, "command "+t.Name)
		t.ResolvedType = info.ReturnType
		return t.ResolvedType

	case *ast.BinOpExpr:
		lt := a.analyzeExpr(t.Left, gset, cset)
		rt := a.analyzeExpr(t.Right, gset, cset)
		t.ResolvedType = a.checkBinOp(t, lt, rt)
		return t.ResolvedType

	case *ast.DynamicExpr:
		t.ResolvedType = types.Void()
		return t.ResolvedType
	}
	return types.Void()
}

func (a *Analyzer) checkArity(rng lex.Range, args []ast.Expr, want []types.Primitive, who string) {
	if len(args) != len(want) {
		a.errorf(rng, "%s: arity mismatch: got %d args, want %d", who, len(args), len(want))
		return
	}
	for i, arg := range args {
		if rt := resolvedType(arg); rt.IsScalar() && rt.Scalar() != want[i] {
			a.errorf(arg.Range(), "%s: argument %d has type %s, want %s", who, i, rt, want[i])
		}
	}
}

func (a *Analyzer) checkBinOp(b *ast.BinOpExpr, lt, rt types.Type) types.Type {
	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !isIntScalar(lt) || !isIntScalar(rt) {
			a.errorf(b.Range(), "arithmetic operator requires int operands, got %s and %s", lt, rt)
		}
		return types.Scalar(types.PrimInt)

	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if lt.IsScalar() && rt.IsScalar() && lt.Scalar().Domain() != rt.Scalar().Domain() {
			a.errorf(b.Range(), "relational/equality operator requires matching stack domains, got %s and %s", lt, rt)
		}
		return types.Scalar(types.PrimBool)

	case ast.OpAnd, ast.OpOr:
		if !isIntScalar(lt) || !isIntScalar(rt) {
			a.errorf(b.Range(), "logical operator requires int-domain operands, got %s and %s", lt, rt)
		}
		return types.Scalar(types.PrimBool)
	}
	return types.Void()
}

func isIntScalar(t types.Type) bool {
	return t.IsScalar() && (t.Scalar() == types.PrimInt || t.Scalar() == types.PrimBool)
}

func (a *Analyzer) resolveVarRef(v *ast.VarRefExpr) (types.Primitive, bool) {
	switch v.Domain {
	case ast.VarLocal:
		lv, ok := a.locals[v.Name]
		return lv.typ, ok
	case ast.VarPlayer:
		info, ok := a.table.LookupVariable("PLAYER", v.Name)
		return info.Type, ok
	case ast.VarPlayerBit:
		info, ok := a.table.LookupVariable("PLAYER_BIT", v.Name)
		return info.Type, ok
	case ast.VarClientInt:
		info, ok := a.table.LookupVariable("CLIENT_INT", v.Name)
		return info.Type, ok
	case ast.VarClientString:
		info, ok := a.table.LookupVariable("CLIENT_STRING", v.Name)
		return info.Type, ok
	}
	return 0, false
}

// resolvedType extracts an expression's ResolvedType field via a type
// switch, mirroring the node-kind dispatch used throughout this package.
func resolvedType(e ast.Expr) types.Type {
	switch t := e.(type) {
	case *ast.BoolLit:
		return t.ResolvedType
	case *ast.IntLit:
		return t.ResolvedType
	case *ast.LongLit:
		return t.ResolvedType
	case *ast.StringLit:
		return t.ResolvedType
	case *ast.ConcatExpr:
		return t.ResolvedType
	case *ast.VarRefExpr:
		return t.ResolvedType
	case *ast.ConstRefExpr:
		return t.ResolvedType
	case *ast.GosubExpr:
		return t.ResolvedType
	case *ast.CommandExpr:
		return t.ResolvedType
	case *ast.BinOpExpr:
		return t.ResolvedType
	case *ast.DynamicExpr:
		return t.ResolvedType
	}
	return types.Void()
}
