// Package config handles project.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents a project.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Cache   Cache   `toml:"cache"`

	// Dir is the directory containing the project.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Source configures source file locations.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// Cache configures the project cache's persistence and flush cadence.
type Cache struct {
	File            string `toml:"file"`
	FlushIntervalMs int64  `toml:"flush-interval-ms"`
	OpcodeMapFile   string `toml:"opcode-map-file"`
}

// FlushInterval returns the configured flush interval, defaulting to 5
// seconds when unset.
func (c Cache) FlushInterval() time.Duration {
	if c.FlushIntervalMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// projectFile is the manifest name every project directory is searched for.
const projectFile = "project.toml"

// Load parses the project.toml file in the given directory. Unlike
// FindAndLoad, it does not search parent directories.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolving project directory %s: %w", dir, err)
	}
	path := filepath.Join(absDir, projectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return decode(data, absDir, path)
}

// FindAndLoad searches startDir and each of its ancestors in turn for a
// project.toml file and loads the first one found. It returns a nil
// Config (with a nil error) once the filesystem root is reached without a
// match.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolving %s: %w", startDir, err)
	}

	for candidate := dir; ; {
		path := filepath.Join(candidate, projectFile)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return decode(data, candidate, path)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}

		parent := filepath.Dir(candidate)
		if parent == candidate {
			return nil, nil
		}
		candidate = parent
	}
}

// decode unmarshals a project.toml payload already read from path within
// dir and fills in defaults for anything left unset.
func decode(data []byte, dir, path string) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	c.Dir = dir
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Source.Dirs) == 0 {
		c.Source.Dirs = []string{"src"}
	}
	if c.Cache.File == "" {
		c.Cache.File = ".rsc/cache.bin"
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (c *Config) SourceDirPaths() []string {
	paths := make([]string, 0, len(c.Source.Dirs))
	for _, d := range c.Source.Dirs {
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// CacheFilePath returns the absolute path to the cache's persisted file.
func (c *Config) CacheFilePath() string {
	return filepath.Join(c.Dir, c.Cache.File)
}
