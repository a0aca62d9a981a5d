package sema

import (
	"testing"

	"github.com/Blunkie/RuneScript/parse"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

func analyzeSource(t *testing.T, table *sym.Table, src string) (*Analyzer, []string, []string) {
	t.Helper()
	p := parse.New(src, nil)
	scripts := p.ParseFile()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("parse diagnostics: %v", p.Diagnostics())
	}
	a := New(table)
	gosubs, commands := a.Analyze(scripts[0])
	return a, gosubs, commands
}

func TestAnalyzeSimpleReturn(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,foo](int $x)(int) return($x);`)
	if len(a.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", a.Diagnostics())
	}
}

func TestAnalyzeUndeclaredGosub(t *testing.T) {
	table := sym.New()
	a, gosubs, _ := analyzeSource(t, table, `[proc,bar]() ~foo(1);`)
	if len(gosubs) != 1 || gosubs[0] != "foo" {
		t.Fatalf("gosubs = %v, want [foo]", gosubs)
	}
	if len(a.Diagnostics()) == 0 {
		t.Fatalf("expected undeclared-procedure diagnostic")
	}
}

func TestAnalyzeGosubArityMismatch(t *testing.T) {
	table := sym.New()
	if err := table.DefineScript(sym.ScriptInfo{
		Trigger: "proc", Name: "foo",
		ParamTypes: []types.Primitive{types.PrimInt},
		ReturnType: types.Scalar(types.PrimInt),
	}); err != nil {
		t.Fatal(err)
	}
	a, _, _ := analyzeSource(t, table, `[proc,bar]() ~foo(1, 2);`)
	if len(a.Diagnostics()) == 0 {
		t.Fatalf("expected arity-mismatch diagnostic")
	}
}

func TestAnalyzeArithmeticRequiresInt(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p]() string $s = "a"; int $x = $s + 1;`)
	if len(a.Diagnostics()) == 0 {
		t.Fatalf("expected type-mismatch diagnostic for string + int")
	}
}

func TestAnalyzeConcatAcceptsHeterogeneous(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p]() int $x = 1; string $s = "a" .. $x;`)
	if len(a.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", a.Diagnostics())
	}
}

func TestAnalyzeDuplicateParameter(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p](int $x, int $x)() return;`)
	if len(a.Diagnostics()) == 0 {
		t.Fatalf("expected duplicate-parameter diagnostic")
	}
}

func TestAnalyzeUnreachableAfterReturn(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p]() return; int $x = 1;`)
	if len(a.Diagnostics()) != 1 {
		t.Fatalf("diagnostics = %v, want exactly 1 unreachable-code diagnostic", a.Diagnostics())
	}
}

func TestAnalyzeUnreachableInsideBlockAndCase(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p]() switch(1) { case 1: return; int $x = 1; }`)
	if len(a.Diagnostics()) != 1 {
		t.Fatalf("diagnostics = %v, want exactly 1 unreachable-code diagnostic inside the case body", a.Diagnostics())
	}
}

func TestAnalyzeReturnInsideIfDoesNotMarkFollowingStatementUnreachable(t *testing.T) {
	table := sym.New()
	a, _, _ := analyzeSource(t, table, `[proc,p]() if (1 == 1) { return; } int $x = 1; return;`)
	if len(a.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v (a return nested in an if must not terminate the enclosing block)", a.Diagnostics())
	}
}
