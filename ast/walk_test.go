package ast

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/types"
)

func kind(n Node) string {
	return fmt.Sprintf("%T", n)
}

func TestWalkVisitsEveryNodeInSourceOrder(t *testing.T) {
	var rng lex.Range

	cond := NewBinOpExpr(rng, OpLt, NewVarRefExpr(rng, VarLocal, "x"), NewIntLit(rng, 10))
	call := NewGosubExpr(rng, "bar", []Expr{NewIntLit(rng, 1)})
	then := NewBlockStmt(rng, []Stmt{NewExprStmt(rng, call)})
	els := NewBlockStmt(rng, []Stmt{NewReturnStmt(rng, []Expr{NewBoolLit(rng, false)})})
	ifs := NewIfStmt(rng, cond, then, els)

	decl := NewVarDeclStmt(rng, types.PrimInt, "y", NewConstRefExpr(rng, "MAX_HP"))

	script := NewScript(rng, "proc", "foo", nil, types.Void(), []Stmt{decl, ifs})

	var visited []string
	Walk(&Visitor{Enter: func(n Node) bool {
		visited = append(visited, kind(n))
		return true
	}}, script)

	want := []string{
		"*ast.Script",
		"*ast.VarDeclStmt",
		"*ast.ConstRefExpr",
		"*ast.IfStmt",
		"*ast.BinOpExpr",
		"*ast.VarRefExpr",
		"*ast.IntLit",
		"*ast.BlockStmt",
		"*ast.ExprStmt",
		"*ast.GosubExpr",
		"*ast.IntLit",
		"*ast.BlockStmt",
		"*ast.ReturnStmt",
		"*ast.BoolLit",
	}
	if !reflect.DeepEqual(visited, want) {
		t.Fatalf("visit order =\n%v\nwant\n%v", visited, want)
	}
}

func TestWalkSkipsChildrenWhenEnterReturnsFalse(t *testing.T) {
	var rng lex.Range
	body := NewBlockStmt(rng, []Stmt{NewExprStmt(rng, NewIntLit(rng, 1))})
	loop := NewWhileStmt(rng, NewBoolLit(rng, true), body)

	var entered, exited []string
	Walk(&Visitor{
		Enter: func(n Node) bool {
			entered = append(entered, kind(n))
			_, isBlock := n.(*BlockStmt)
			return !isBlock
		},
		Exit: func(n Node) {
			exited = append(exited, kind(n))
		},
	}, loop)

	wantEntered := []string{"*ast.WhileStmt", "*ast.BoolLit", "*ast.BlockStmt"}
	if !reflect.DeepEqual(entered, wantEntered) {
		t.Fatalf("entered = %v, want %v (block's children must be skipped)", entered, wantEntered)
	}

	wantExited := []string{"*ast.BoolLit", "*ast.BlockStmt", "*ast.WhileStmt"}
	if !reflect.DeepEqual(exited, wantExited) {
		t.Fatalf("exited = %v, want %v (Exit still fires for a skipped node)", exited, wantExited)
	}
}

func TestWalkVisitsSwitchSubjectAndEveryCase(t *testing.T) {
	var rng lex.Range
	sw := NewSwitchStmt(rng, NewVarRefExpr(rng, VarLocal, "x"), []*Case{
		NewCase(rng, []Expr{NewIntLit(rng, 1)}, false, []Stmt{NewExprStmt(rng, NewIntLit(rng, 2))}),
		NewCase(rng, nil, true, []Stmt{NewExprStmt(rng, NewIntLit(rng, 3))}),
	})

	var visited []string
	Walk(&Visitor{Enter: func(n Node) bool {
		visited = append(visited, kind(n))
		return true
	}}, sw)

	want := []string{
		"*ast.SwitchStmt",
		"*ast.VarRefExpr",
		"*ast.IntLit",
		"*ast.ExprStmt",
		"*ast.IntLit",
		"*ast.ExprStmt",
		"*ast.IntLit",
	}
	if !reflect.DeepEqual(visited, want) {
		t.Fatalf("visit order =\n%v\nwant\n%v", visited, want)
	}
}

func TestWalkSkipsAbsentOptionalChildren(t *testing.T) {
	var rng lex.Range
	decl := NewVarDeclStmt(rng, types.PrimInt, "y", nil)
	ifs := NewIfStmt(rng, NewBoolLit(rng, true), NewBlockStmt(rng, nil), nil)

	var visited []string
	v := &Visitor{Enter: func(n Node) bool {
		visited = append(visited, kind(n))
		return true
	}}
	Walk(v, decl)
	Walk(v, ifs)

	want := []string{
		"*ast.VarDeclStmt",
		"*ast.IfStmt", "*ast.BoolLit", "*ast.BlockStmt",
	}
	if !reflect.DeepEqual(visited, want) {
		t.Fatalf("visited = %v, want %v (nil Init/Else must not be walked)", visited, want)
	}
}
