// Package cache implements the project cache: a persistent index of every
// source file's compiled declarations and diagnostics, plus a dependency
// graph over script names driving incremental recompilation. A full diff
// walks the source tree and recompiles whatever changed since the last
// snapshot; an incremental recompile handles a single file edit and fans
// out to dependents only when the edited file's signatures actually
// changed.
package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/singleflight"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/bytecode"
	"github.com/Blunkie/RuneScript/compiler"
	"github.com/Blunkie/RuneScript/depgraph"
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/sym"

	"github.com/tliron/commonlog"
)

// CachedError is a diagnostic attached to the file it came from, positioned
// by source range.
type CachedError struct {
	Range   lex.Range
	Message string
}

// CachedFile is everything the cache remembers about one source file: its
// last-seen content hash, the signatures it declared, and the errors raised
// compiling it.
type CachedFile struct {
	Path    string // project-relative, forward-slash-normalized
	CRC32   uint32
	Scripts []sym.ScriptInfo
	Errors  []CachedError
}

// ProjectCache is the top-level, mutable index of a project's compiled
// state. Its core operations (Diff, Recompile) assume single-threaded
// access from the compilation core; the mutex exists so a background
// flusher can safely read the same maps concurrently with a live edit, per
// the ambient concurrency model.
type ProjectCache struct {
	mu deadlock.RWMutex

	sourceRoot string
	table      *sym.Table
	imap       *bytecode.InstructionMap
	graph      *depgraph.Graph[string]

	filesByPath        map[string]*CachedFile
	filesByDeclaration map[string]*CachedFile

	dirty bool
	sf    singleflight.Group
	log   commonlog.Logger

	// SessionID tags one cache instance's lifetime. The cache's own log
	// lines do not include it.
	SessionID uuid.UUID

	// OnFileRecompiled, if set, is called once per file actually
	// recompiled during an incremental Recompile, including fan-out hops.
	// Tests use it to count recompiles without instrumenting the cache
	// itself.
	OnFileRecompiled func(path string)
}

// New creates an empty project cache rooted at sourceRoot. sourceRoot is
// used to resolve relative paths when Recompile needs to re-read a
// dependent file's disk contents during fan-out.
func New(sourceRoot string, table *sym.Table, imap *bytecode.InstructionMap) *ProjectCache {
	return &ProjectCache{
		sourceRoot:         sourceRoot,
		table:              table,
		imap:               imap,
		graph:              depgraph.New[string](),
		filesByPath:        make(map[string]*CachedFile),
		filesByDeclaration: make(map[string]*CachedFile),
		log:                commonlog.GetLogger("rsc.cache"),
		SessionID:          uuid.New(),
	}
}

// Dirty reports whether the cache has unpersisted changes.
func (c *ProjectCache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Files returns every file path currently tracked. Order is sorted for
// deterministic iteration by callers.
func (c *ProjectCache) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.filesByPath))
	for p := range c.filesByPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// File returns the cached entry for path, if present.
func (c *ProjectCache) File(path string) (*CachedFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.filesByPath[path]
	return f, ok
}

func normalizePath(p string) string {
	return filepath.ToSlash(p)
}

// Diff performs a full directory scan: every regular file under
// sourceRoot whose on-disk CRC32 no longer matches what the cache last
// recorded is recompiled in one batch, vanished files are dropped, and
// every touched file's declarations and dependency edges are rebuilt.
func (c *ProjectCache) Diff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	visited := make(map[string]struct{})
	var toCompile []compiler.FileInput

	walkErr := filepath.Walk(c.sourceRoot, func(fsPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.sourceRoot, fsPath)
		if err != nil {
			return err
		}
		path := normalizePath(rel)
		visited[path] = struct{}{}

		bytes, err := os.ReadFile(fsPath)
		if err != nil {
			c.log.Errorf("cache: reading %s: %v", path, err)
			return nil
		}
		sum := crc32.ChecksumIEEE(bytes)

		existing, ok := c.filesByPath[path]
		if ok && existing.CRC32 == sum {
			return nil
		}

		c.clearFile(path)
		toCompile = append(toCompile, compiler.FileInput{Handle: compiler.FileHandle(path), Bytes: bytes})
		c.filesByPath[path] = &CachedFile{Path: path, CRC32: sum}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("cache: walking %s: %w", c.sourceRoot, walkErr)
	}

	for path := range c.filesByPath {
		if _, ok := visited[path]; !ok {
			c.clearFile(path)
			delete(c.filesByPath, path)
		}
	}

	if len(toCompile) == 0 {
		return nil
	}

	res := compiler.Compile(compiler.CompileInput{
		Files:    toCompile,
		Table:    c.table,
		IMap:     c.imap,
		Visitors: []compiler.Visitor{c.recordDependencies},
	})
	c.applyResult(res)
	c.dirty = true
	c.log.Infof("cache: diff recompiled %d file(s)", len(toCompile))
	return nil
}

// recordDependencies is the Visitor passed to every batch compile: it
// records an edge from the enclosing script to every gosub target it
// calls. gosubs always target the "proc" trigger, matching the one
// lookup site in the analyzer that resolves them. Commands aren't
// recorded: a command has no owning source file, so an edge to one could
// never drive a recompile.
func (c *ProjectCache) recordDependencies(handle compiler.FileHandle, script *ast.Script, gosubs, commands []string) {
	from := script.FullName()
	for _, name := range gosubs {
		c.graph.AddDependency(from, "[proc,"+name+"]")
	}
}

// applyResult folds a CompileResult's scripts and errors into the owning
// CachedFile entries, re-indexing filesByDeclaration for every emitted
// script.
func (c *ProjectCache) applyResult(res compiler.CompileResult) {
	for _, es := range res.Scripts {
		f := c.filesByPath[string(es.Handle)]
		if f == nil {
			continue
		}
		f.Scripts = append(f.Scripts, es.Info)
		c.filesByDeclaration[es.Info.FullName()] = f
	}
	for _, ce := range res.Errors {
		f := c.filesByPath[string(ce.Handle)]
		if f == nil {
			continue
		}
		f.Errors = append(f.Errors, CachedError{Range: ce.Range, Message: ce.Message})
	}
}

// clearFile undefines every symbol a file previously declared and removes
// its nodes from the dependency graph, in preparation for recompiling (or
// dropping) that file. The caller must hold c.mu.
func (c *ProjectCache) clearFile(path string) {
	f, ok := c.filesByPath[path]
	if !ok {
		return
	}
	for _, s := range f.Scripts {
		key := s.FullName()
		c.table.UndefineScript(s.Trigger, s.Name)
		c.graph.Remove(key)
		delete(c.filesByDeclaration, key)
	}
	f.Scripts = nil
	f.Errors = nil
}

func (c *ProjectCache) absPath(path string) string {
	return filepath.Join(c.sourceRoot, filepath.FromSlash(path))
}
