package cache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/Blunkie/RuneScript/depgraph"
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/sym"
	"github.com/Blunkie/RuneScript/types"
)

// Save serializes the cache to path, zstd-compressed. It holds a read lock
// for the full write so a concurrent edit can't observe a half-written
// snapshot being read back, at the cost of blocking edits during a flush.
func (c *ProjectCache) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: creating %s: %w", path, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("cache: opening zstd writer: %w", err)
	}
	if err := c.serialize(zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Load replaces the cache's files and dependency graph with the snapshot
// stored at path. Every restored script is re-declared into the cache's
// symbol table; the table is assumed empty of script declarations before
// Load runs.
func (c *ProjectCache) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cache: opening %s: %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("cache: opening zstd reader: %w", err)
	}
	defer zr.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deserialize(bufio.NewReader(zr))
}

func (c *ProjectCache) serialize(w io.Writer) error {
	paths := make([]string, 0, len(c.filesByPath))
	for p := range c.filesByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if err := writeI32(w, int32(len(paths))); err != nil {
		return err
	}
	for _, p := range paths {
		f := c.filesByPath[p]
		if err := writeUTF(w, f.Path); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, f.CRC32); err != nil {
			return err
		}
		if err := writeU16(w, len(f.Scripts)); err != nil {
			return err
		}
		for _, s := range f.Scripts {
			if err := writeScriptInfo(w, s); err != nil {
				return err
			}
		}
		if err := writeU16(w, len(f.Errors)); err != nil {
			return err
		}
		for _, ce := range f.Errors {
			if err := writeCachedError(w, ce); err != nil {
				return err
			}
		}
	}

	keys := c.graph.ValueSet()
	sort.Strings(keys)
	if err := writeI32(w, int32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeUTF(w, k); err != nil {
			return err
		}
		deps := c.graph.GetDependsOn(k)
		depKeys := make([]string, 0, len(deps))
		for d := range deps {
			depKeys = append(depKeys, d)
		}
		sort.Strings(depKeys)
		if err := writeU16(w, len(depKeys)); err != nil {
			return err
		}
		for _, d := range depKeys {
			if err := writeUTF(w, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *ProjectCache) deserialize(r io.Reader) error {
	c.filesByPath = make(map[string]*CachedFile)
	c.filesByDeclaration = make(map[string]*CachedFile)
	c.graph = depgraph.New[string]()

	fileCount, err := readI32(r)
	if err != nil {
		return err
	}
	for i := int32(0); i < fileCount; i++ {
		path, err := readUTF(r)
		if err != nil {
			return err
		}
		var crc uint32
		if err := binary.Read(r, binary.BigEndian, &crc); err != nil {
			return err
		}
		scriptCount, err := readU16(r)
		if err != nil {
			return err
		}
		f := &CachedFile{Path: path, CRC32: crc}
		for j := 0; j < scriptCount; j++ {
			s, err := readScriptInfo(r)
			if err != nil {
				return err
			}
			f.Scripts = append(f.Scripts, s)
			c.filesByDeclaration[s.FullName()] = f
			if err := c.table.DefineScript(s); err != nil {
				return fmt.Errorf("cache: restoring %s: %w", s.FullName(), err)
			}
		}
		errorCount, err := readU16(r)
		if err != nil {
			return err
		}
		for j := 0; j < errorCount; j++ {
			ce, err := readCachedError(r)
			if err != nil {
				return err
			}
			f.Errors = append(f.Errors, ce)
		}
		c.filesByPath[path] = f
	}

	nodeCount, err := readI32(r)
	if err != nil {
		return err
	}
	for i := int32(0); i < nodeCount; i++ {
		key, err := readUTF(r)
		if err != nil {
			return err
		}
		depCount, err := readU16(r)
		if err != nil {
			return err
		}
		for j := 0; j < depCount; j++ {
			dep, err := readUTF(r)
			if err != nil {
				return err
			}
			c.graph.AddDependency(key, dep)
		}
	}
	return nil
}

func writeScriptInfo(w io.Writer, s sym.ScriptInfo) error {
	if err := writeUTF(w, s.Trigger); err != nil {
		return err
	}
	if err := writeUTF(w, s.Name); err != nil {
		return err
	}
	if err := writeU8(w, len(s.ParamTypes)); err != nil {
		return err
	}
	for _, p := range s.ParamTypes {
		if err := writeU8(w, int(p)); err != nil {
			return err
		}
	}
	if err := writeU8(w, len(s.ReturnType.Elems)); err != nil {
		return err
	}
	for _, p := range s.ReturnType.Elems {
		if err := writeU8(w, int(p)); err != nil {
			return err
		}
	}
	return nil
}

func readScriptInfo(r io.Reader) (sym.ScriptInfo, error) {
	var s sym.ScriptInfo
	var err error
	if s.Trigger, err = readUTF(r); err != nil {
		return s, err
	}
	if s.Name, err = readUTF(r); err != nil {
		return s, err
	}
	paramCount, err := readU8(r)
	if err != nil {
		return s, err
	}
	s.ParamTypes = make([]types.Primitive, paramCount)
	for i := range s.ParamTypes {
		tag, err := readU8(r)
		if err != nil {
			return s, err
		}
		s.ParamTypes[i] = types.Primitive(tag)
	}
	retArity, err := readU8(r)
	if err != nil {
		return s, err
	}
	elems := make([]types.Primitive, retArity)
	for i := range elems {
		tag, err := readU8(r)
		if err != nil {
			return s, err
		}
		elems[i] = types.Primitive(tag)
	}
	s.ReturnType = types.Tuple(elems...)
	return s, nil
}

func writeCachedError(w io.Writer, ce CachedError) error {
	positions := []int32{
		int32(ce.Range.Start.Offset), int32(ce.Range.Start.Line),
		int32(ce.Range.End.Offset), int32(ce.Range.End.Line),
	}
	for _, p := range positions {
		if err := writeI32(w, p); err != nil {
			return err
		}
	}
	return writeUTF(w, ce.Message)
}

func readCachedError(r io.Reader) (CachedError, error) {
	var ce CachedError
	vals := make([]int32, 4)
	for i := range vals {
		v, err := readI32(r)
		if err != nil {
			return ce, err
		}
		vals[i] = v
	}
	ce.Range = lex.Range{
		Start: lex.Position{Offset: int(vals[0]), Line: int(vals[1])},
		End:   lex.Position{Offset: int(vals[2]), Line: int(vals[3])},
	}
	var err error
	ce.Message, err = readUTF(r)
	return ce, err
}

func writeI32(w io.Writer, v int32) error { return binary.Write(w, binary.BigEndian, v) }
func writeU16(w io.Writer, v int) error   { return binary.Write(w, binary.BigEndian, uint16(v)) }
func writeU8(w io.Writer, v int) error    { return binary.Write(w, binary.BigEndian, uint8(v)) }

func writeUTF(w io.Writer, s string) error {
	if err := writeU16(w, len(s)); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readI32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readU16(r io.Reader) (int, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return int(v), err
}

func readU8(r io.Reader) (int, error) {
	var v uint8
	err := binary.Read(r, binary.BigEndian, &v)
	return int(v), err
}

func readUTF(r io.Reader) (string, error) {
	n, err := readU16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
