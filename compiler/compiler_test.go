package compiler

import (
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/bytecode"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

// filesFromArchive turns a txtar archive (one section per named file) into
// a batch of FileInput, letting a multi-file fixture live as a single
// readable literal instead of several separate byte-slice literals.
func filesFromArchive(data string) []FileInput {
	arc := txtar.Parse([]byte(data))
	out := make([]FileInput, 0, len(arc.Files))
	for _, f := range arc.Files {
		out = append(out, FileInput{Handle: FileHandle(f.Name), Bytes: f.Data})
	}
	return out
}

func TestCompileArchiveFixtureWithSharedConstant(t *testing.T) {
	table := sym.New()
	if err := table.DefineConstant(sym.ConstantInfo{Name: "MAX_HP", Type: types.PrimInt, Value: int64(99)}); err != nil {
		t.Fatal(err)
	}

	archive := `
-- base.rs2 --
[proc,base](int $x)(int) return($x);

-- derived.rs2 --
[proc,derived]() int $hp = ^MAX_HP; ~base($hp); return;
`
	in := CompileInput{
		Files: filesFromArchive(archive),
		Table: table,
		IMap:  bytecode.IdentityInstructionMap(),
	}

	res := Compile(in)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Scripts) != 2 {
		t.Fatalf("got %d scripts, want 2", len(res.Scripts))
	}
}

func TestCompileSingleScript(t *testing.T) {
	table := sym.New()
	in := CompileInput{
		Files: []FileInput{
			{Handle: "a.rs2", Bytes: []byte(`[proc,foo](int $x)(int) return($x);`)},
		},
		Table: table,
		IMap:  bytecode.IdentityInstructionMap(),
	}

	res := Compile(in)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Scripts) != 1 {
		t.Fatalf("got %d scripts, want 1", len(res.Scripts))
	}
	if res.Scripts[0].Info.FullName() != "[proc,foo]" {
		t.Errorf("full name = %q, want [proc,foo]", res.Scripts[0].Info.FullName())
	}
}

func TestCompileCrossFileForwardReference(t *testing.T) {
	table := sym.New()
	in := CompileInput{
		Files: []FileInput{
			{Handle: "b.rs2", Bytes: []byte(`[proc,bar]() ~foo(1);`)},
			{Handle: "a.rs2", Bytes: []byte(`[proc,foo](int $x)(int) return($x);`)},
		},
		Table: table,
		IMap:  bytecode.IdentityInstructionMap(),
	}

	res := Compile(in)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Scripts) != 2 {
		t.Fatalf("got %d scripts, want 2", len(res.Scripts))
	}
}

func TestCompileVisitorSeesGosubsAndCommands(t *testing.T) {
	table := sym.New()
	if err := table.DefineScript(sym.ScriptInfo{Trigger: "proc", Name: "foo"}); err != nil {
		t.Fatal(err)
	}
	if err := table.DefineCommand(sym.CommandInfo{Name: "dosomething", Opcode: 500}); err != nil {
		t.Fatal(err)
	}

	var seen, seenCommands []string
	in := CompileInput{
		Files: []FileInput{
			{Handle: "b.rs2", Bytes: []byte(`[proc,bar]() ~foo(); dosomething();`)},
		},
		Table: table,
		IMap:  bytecode.IdentityInstructionMap(),
		Visitors: []Visitor{
			func(handle FileHandle, s *ast.Script, gosubs, commands []string) {
				seen = append(seen, gosubs...)
				seenCommands = append(seenCommands, commands...)
			},
		},
	}

	Compile(in)
	if len(seen) != 1 || seen[0] != "foo" {
		t.Fatalf("visitor saw gosubs = %v, want [foo]", seen)
	}
	if len(seenCommands) != 1 || seenCommands[0] != "dosomething" {
		t.Fatalf("visitor saw commands = %v, want [dosomething]", seenCommands)
	}
}

func TestCompileDuplicateDeclarationErrors(t *testing.T) {
	table := sym.New()
	in := CompileInput{
		Files: []FileInput{
			{Handle: "a.rs2", Bytes: []byte(`[proc,foo]() return;`)},
			{Handle: "b.rs2", Bytes: []byte(`[proc,foo]() return;`)},
		},
		Table: table,
		IMap:  bytecode.IdentityInstructionMap(),
	}

	res := Compile(in)
	if len(res.Errors) != 1 {
		t.Fatalf("got %d errors, want 1 duplicate-declaration error: %v", len(res.Errors), res.Errors)
	}
	if res.Errors[0].Handle != "b.rs2" {
		t.Errorf("duplicate error attributed to %q, want b.rs2 (second file)", res.Errors[0].Handle)
	}
	if len(res.Scripts) != 1 {
		t.Fatalf("got %d scripts, want 1 (only the first declaration compiles)", len(res.Scripts))
	}
}
