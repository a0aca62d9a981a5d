package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "test-project"

[source]
dirs = ["src", "lib"]

[cache]
file = "build/cache.bin"
flush-interval-ms = 2000
`
	if err := os.WriteFile(filepath.Join(dir, "project.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Project.Name != "test-project" {
		t.Errorf("project name = %q, want test-project", c.Project.Name)
	}
	if len(c.Source.Dirs) != 2 {
		t.Errorf("source dirs count = %d, want 2", len(c.Source.Dirs))
	}
	if c.Cache.File != "build/cache.bin" {
		t.Errorf("cache file = %q, want build/cache.bin", c.Cache.File)
	}
	if c.Cache.FlushInterval() != 2*time.Second {
		t.Errorf("flush interval = %v, want 2s", c.Cache.FlushInterval())
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, "project.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c.Source.Dirs) != 1 || c.Source.Dirs[0] != "src" {
		t.Errorf("default source dirs = %v, want [src]", c.Source.Dirs)
	}
	if c.Cache.File != ".rsc/cache.bin" {
		t.Errorf("default cache file = %q, want .rsc/cache.bin", c.Cache.File)
	}
	if c.Cache.FlushInterval() != 5*time.Second {
		t.Errorf("default flush interval = %v, want 5s", c.Cache.FlushInterval())
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, "project.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if c.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", c.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if c != nil {
		t.Error("expected nil config when no project.toml exists")
	}
}

func TestSourceDirPaths(t *testing.T) {
	c := &Config{
		Dir:    "/app",
		Source: Source{Dirs: []string{"src", "lib"}},
	}

	paths := c.SourceDirPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != "/app/src" {
		t.Errorf("paths[0] = %q, want /app/src", paths[0])
	}
	if paths[1] != "/app/lib" {
		t.Errorf("paths[1] = %q, want /app/lib", paths[1])
	}
}

func TestCacheFilePath(t *testing.T) {
	c := &Config{Dir: "/app", Cache: Cache{File: ".rsc/cache.bin"}}
	if got, want := c.CacheFilePath(), "/app/.rsc/cache.bin"; got != want {
		t.Errorf("CacheFilePath() = %q, want %q", got, want)
	}
}
