package parse

import (
	"testing"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/types"
)

func TestParseSingleProc(t *testing.T) {
	src := `[proc,foo](int $x)(int) return($x);`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	if len(scripts) != 1 {
		t.Fatalf("got %d scripts, want 1", len(scripts))
	}
	s := scripts[0]
	if s.Trigger != "proc" || s.Name != "foo" {
		t.Fatalf("got trigger=%q name=%q", s.Trigger, s.Name)
	}
	if len(s.Params) != 1 || s.Params[0].Type != types.PrimInt || s.Params[0].Name != "x" {
		t.Fatalf("bad params: %+v", s.Params)
	}
	if !s.ReturnType.Equal(types.Scalar(types.PrimInt)) {
		t.Fatalf("return type = %v, want int", s.ReturnType)
	}
	if len(s.Body) != 1 {
		t.Fatalf("body has %d stmts, want 1", len(s.Body))
	}
	ret, ok := s.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.ReturnStmt", s.Body[0])
	}
	if len(ret.Values) != 1 {
		t.Fatalf("return has %d values, want 1", len(ret.Values))
	}
	ref, ok := ret.Values[0].(*ast.VarRefExpr)
	if !ok || ref.Domain != ast.VarLocal || ref.Name != "x" {
		t.Fatalf("return value = %+v", ret.Values[0])
	}
}

func TestParseGosubCall(t *testing.T) {
	src := `[proc,bar]() ~foo(1);`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	s := scripts[0]
	if !s.ReturnType.IsVoid() {
		t.Fatalf("expected void return, got %v", s.ReturnType)
	}
	exprStmt, ok := s.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.ExprStmt", s.Body[0])
	}
	gosub, ok := exprStmt.X.(*ast.GosubExpr)
	if !ok || gosub.Name != "foo" || len(gosub.Args) != 1 {
		t.Fatalf("got %+v", exprStmt.X)
	}
}

func TestParseConcat(t *testing.T) {
	src := `[proc,p]() string $s = "a" .. $x .. "b";`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	decl, ok := scripts[0].Body[0].(*ast.VarDeclStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.VarDeclStmt", scripts[0].Body[0])
	}
	concat, ok := decl.Init.(*ast.ConcatExpr)
	if !ok || len(concat.Parts) != 3 {
		t.Fatalf("got %+v", decl.Init)
	}
}

func TestParseIfElse(t *testing.T) {
	src := `[proc,p]() if (1 < 2) { return; } else { return; }`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	ifStmt, ok := scripts[0].Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.IfStmt", scripts[0].Body[0])
	}
	cmp, ok := ifStmt.Cond.(*ast.BinOpExpr)
	if !ok || cmp.Op != ast.OpLt {
		t.Fatalf("cond = %+v", ifStmt.Cond)
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected else branch")
	}
}

func TestParseSwitch(t *testing.T) {
	src := `[proc,p](int $x)() switch ($x) { case 1, 2: return; default: return; }`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	sw, ok := scripts[0].Body[0].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.SwitchStmt", scripts[0].Body[0])
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(sw.Cases))
	}
	if len(sw.Cases[0].Values) != 2 {
		t.Fatalf("case 0 values = %d, want 2", len(sw.Cases[0].Values))
	}
	if !sw.Cases[1].IsDefault {
		t.Fatalf("case 1 should be default")
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	src := `[proc,a]() ~~~bad;; [proc,b]() return;`
	p := New(src, nil)
	scripts := p.ParseFile()
	if len(scripts) < 1 {
		t.Fatalf("expected at least one script to recover, got %d", len(scripts))
	}
	if len(p.Diagnostics()) == 0 {
		t.Fatalf("expected diagnostics for malformed input")
	}
}
