package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"strconv"

	"github.com/Blunkie/RuneScript/compiler"
	"github.com/Blunkie/RuneScript/sym"
)

// Recompile handles one file's edit: it recompiles path against newBytes,
// then fans out to every script that depended on a declaration whose
// signature changed or disappeared, recursively recompiling the owning
// file from disk. A script whose body changed but whose signature didn't
// stops the fan-out at that file: nothing downstream needs to be revisited.
//
// The returned errors belong to path itself; fan-out hops update their own
// CachedFile entries but don't surface their diagnostics here, matching an
// editor's expectation of "tell me about the file I just saved".
func (c *ProjectCache) Recompile(path string, newBytes []byte) []CachedError {
	c.mu.Lock()
	defer c.mu.Unlock()

	visited := make(map[string]struct{})
	c.recompileFile(path, newBytes, visited)

	f := c.filesByPath[path]
	if f == nil {
		return nil
	}
	return f.Errors
}

// recompileFile performs one incremental recompile step. The caller must
// hold c.mu for the duration of the whole Recompile call, including every
// recursive hop, since fan-out reads and writes the same shared maps and
// symbol table.
func (c *ProjectCache) recompileFile(path string, newBytes []byte, visited map[string]struct{}) {
	if _, done := visited[path]; done {
		return
	}
	visited[path] = struct{}{}

	f, ok := c.filesByPath[path]
	if !ok {
		f = &CachedFile{Path: path}
		c.filesByPath[path] = f
	}

	previousDecls := make(map[string]sym.ScriptInfo, len(f.Scripts))
	previousUsedBy := make(map[string]map[string]struct{}, len(f.Scripts))
	for _, s := range f.Scripts {
		key := s.FullName()
		previousDecls[key] = s
		if n, ok := c.graph.Find(key); ok {
			snapshot := make(map[string]struct{}, len(n.UsedBy()))
			for u := range n.UsedBy() {
				snapshot[u] = struct{}{}
			}
			previousUsedBy[key] = snapshot
		}
		c.table.UndefineScript(s.Trigger, s.Name)
		c.graph.Remove(key)
		delete(c.filesByDeclaration, key)
	}
	f.Scripts = nil
	f.Errors = nil

	res := compiler.Compile(compiler.CompileInput{
		Files:    []compiler.FileInput{{Handle: compiler.FileHandle(path), Bytes: newBytes}},
		Table:    c.table,
		IMap:     c.imap,
		Visitors: []compiler.Visitor{c.recordDependencies},
	})
	c.applyResult(res)
	f.CRC32 = crc32.ChecksumIEEE(newBytes)
	c.dirty = true

	if c.OnFileRecompiled != nil {
		c.OnFileRecompiled(path)
	}
	c.log.Debugf("cache: recompiled %s (%d script(s), %d error(s))", path, len(f.Scripts), len(f.Errors))

	// A declaration is "affected" only if it changed signature or vanished
	// entirely; a declaration that reappeared with an identical signature
	// doesn't need its dependents revisited.
	affected := make(map[string]struct{})
	for key, prev := range previousDecls {
		var stillSame bool
		for _, s := range f.Scripts {
			if s.FullName() == key && sym.EqualSignature(prev, s) {
				stillSame = true
				break
			}
		}
		if stillSame {
			continue
		}
		for dependent := range previousUsedBy[key] {
			affected[dependent] = struct{}{}
		}
	}

	for dependent := range affected {
		owner, ok := c.filesByDeclaration[dependent]
		if !ok {
			continue
		}
		diskBytes, err := os.ReadFile(c.absPath(owner.Path))
		if err != nil {
			c.log.Errorf("cache: re-reading dependent %s: %v", owner.Path, err)
			continue
		}
		c.recompileFile(owner.Path, diskBytes, visited)
	}
}

// RecompileNonPersistent compiles a candidate buffer for path without
// committing its results to the cache: any previously declared symbols for
// path are temporarily undefined so the preview can see a consistent
// table, then restored (and the preview's own declarations undone)
// regardless of outcome. The dependency graph is never touched, since no
// Visitor is passed. Concurrent previews of the same path and content are
// coalesced by a singleflight key.
func (c *ProjectCache) RecompileNonPersistent(path string, bytes []byte) (compiler.CompileResult, error) {
	key := path + ":" + strconv.FormatUint(uint64(crc32.ChecksumIEEE(bytes)), 36)
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()

		var removed []sym.ScriptInfo
		if f, ok := c.filesByPath[path]; ok {
			removed = append(removed, f.Scripts...)
			for _, s := range f.Scripts {
				c.table.UndefineScript(s.Trigger, s.Name)
			}
		}

		res := compiler.Compile(compiler.CompileInput{
			Files: []compiler.FileInput{{Handle: compiler.FileHandle(path), Bytes: bytes}},
			Table: c.table,
			IMap:  c.imap,
		})

		for _, es := range res.Scripts {
			c.table.UndefineScript(es.Info.Trigger, es.Info.Name)
		}
		for _, s := range removed {
			if err := c.table.DefineScript(s); err != nil {
				return res, fmt.Errorf("cache: restoring %s after preview: %w", s.FullName(), err)
			}
		}

		return res, nil
	})
	if err != nil {
		return compiler.CompileResult{}, err
	}
	return v.(compiler.CompileResult), nil
}
