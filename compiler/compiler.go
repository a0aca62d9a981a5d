// Package compiler drives one batch compilation: lexing, parsing,
// signature registration, semantic analysis, and bytecode generation
// across a set of files sharing one symbol table.
package compiler

import (
	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/bytecode"
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/parse"
	"github.com/Blunkie/RuneScript/sema"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

// FileHandle identifies one compiled file across a batch. Callers use a
// project-relative, forward-slash-normalized path.
type FileHandle string

// FileInput is one file's raw bytes keyed by its handle.
type FileInput struct {
	Handle FileHandle
	Bytes  []byte
}

// Visitor runs once per script whose signature was registered, after
// semantic analysis has resolved its gosub and command references; it also
// runs for a script whose analysis reported diagnostics. It mirrors the
// job of a post-parse dependency-tree-building pass without requiring a
// distinct visitor object per call site.
type Visitor func(handle FileHandle, script *ast.Script, gosubs, commands []string)

// CompileInput is a batch of files to compile against a shared symbol
// table, plus any visitors to run over each analyzed script.
type CompileInput struct {
	Files    []FileInput
	Table    *sym.Table
	IMap     *bytecode.InstructionMap
	Visitors []Visitor
}

// EmittedScript is one script whose signature was registered: its owning
// file, its registered signature, and its lowered bytecode. A script is
// emitted even when its analysis reported diagnostics.
type EmittedScript struct {
	Handle FileHandle
	Info   sym.ScriptInfo
	Code   *bytecode.Script
}

// CompileError is a diagnostic attached to the file it came from.
type CompileError struct {
	Handle  FileHandle
	Range   lex.Range
	Message string
}

// CompileResult holds every script emitted and every error raised across
// the batch.
type CompileResult struct {
	Scripts []EmittedScript
	Errors  []CompileError
}

// Compile runs the full pipeline over in.Files. Parsing happens first for
// every file so that every script's signature can be registered with the
// symbol table in a first pass, before semantic analysis resolves any
// cross-file gosub/command reference in a second pass: a script in one
// file may call a script declared later in the batch or in another file.
func Compile(in CompileInput) CompileResult {
	var result CompileResult

	type parsedFile struct {
		handle  FileHandle
		scripts []*ast.Script
	}
	parsed := make([]parsedFile, 0, len(in.Files))

	for _, f := range in.Files {
		p := parse.New(string(f.Bytes), nil)
		scripts := p.ParseFile()
		for _, d := range p.Diagnostics() {
			result.Errors = append(result.Errors, CompileError{Handle: f.Handle, Range: d.Range, Message: d.Message})
		}
		parsed = append(parsed, parsedFile{handle: f.Handle, scripts: scripts})
	}

	registered := make(map[*ast.Script]bool)
	for _, pf := range parsed {
		for _, s := range pf.scripts {
			info := sym.ScriptInfo{
				Trigger:    s.Trigger,
				Name:       s.Name,
				ParamTypes: paramTypes(s),
				ReturnType: s.ReturnType,
			}
			if err := in.Table.DefineScript(info); err != nil {
				result.Errors = append(result.Errors, CompileError{Handle: pf.handle, Range: s.Range(), Message: err.Error()})
				continue
			}
			registered[s] = true
		}
	}

	for _, pf := range parsed {
		for _, s := range pf.scripts {
			if !registered[s] {
				continue
			}

			a := sema.New(in.Table)
			gosubs, commands := a.Analyze(s)
			for _, d := range a.Diagnostics() {
				result.Errors = append(result.Errors, CompileError{Handle: pf.handle, Range: d.Range, Message: d.Message})
			}
			for _, v := range in.Visitors {
				v(pf.handle, s, gosubs, commands)
			}

			info, _ := in.Table.LookupScript(s.Trigger, s.Name)
			g := bytecode.New(in.IMap, in.Table)
			code := g.Generate(s, bytecode.NewLocalMap())
			result.Scripts = append(result.Scripts, EmittedScript{Handle: pf.handle, Info: info, Code: code})
		}
	}

	return result
}

func paramTypes(s *ast.Script) []types.Primitive {
	out := make([]types.Primitive, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Type
	}
	return out
}
