// Command rsc compiles a RuneScript project and maintains its incremental
// compilation cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/tliron/commonlog/simple"

	"github.com/Blunkie/RuneScript/bytecode"
	"github.com/Blunkie/RuneScript/cache"
	"github.com/Blunkie/RuneScript/config"
	"github.com/Blunkie/RuneScript/sym"
)

func main() {
	dir := flag.String("dir", ".", "Project directory (searched upward for project.toml)")
	watch := flag.Bool("watch", false, "Keep running, flushing the cache on the configured interval")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rsc [options]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles every source file in the project rooted at -dir and writes its\ncache to the configured cache file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rsc: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "rsc: no project.toml found starting from %s\n", *dir)
		os.Exit(1)
	}

	table := sym.New()
	imap := bytecode.IdentityInstructionMap()

	sourceDirs := cfg.SourceDirPaths()
	if len(sourceDirs) == 0 {
		fmt.Fprintf(os.Stderr, "rsc: project has no source directories configured\n")
		os.Exit(1)
	}
	projectCache := cache.New(sourceDirs[0], table, imap)

	cachePath := cfg.CacheFilePath()
	if err := projectCache.Load(cachePath); err != nil {
		if *verbose {
			fmt.Printf("rsc: no existing cache at %s, starting fresh\n", cachePath)
		}
	}

	if err := projectCache.Diff(); err != nil {
		fmt.Fprintf(os.Stderr, "rsc: diff: %v\n", err)
		os.Exit(1)
	}

	errCount := 0
	for _, path := range projectCache.Files() {
		f, _ := projectCache.File(path)
		for _, ce := range f.Errors {
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", f.Path, ce.Range.Start.Line, ce.Message)
			errCount++
		}
	}
	if *verbose {
		fmt.Printf("rsc: compiled %d file(s), %d error(s)\n", len(projectCache.Files()), errCount)
	}

	if err := projectCache.Save(cachePath); err != nil {
		fmt.Fprintf(os.Stderr, "rsc: saving cache: %v\n", err)
		os.Exit(1)
	}

	if *watch {
		flusher := cache.NewFlusher(projectCache, cachePath, cfg.Cache.FlushInterval())
		if *verbose {
			fmt.Printf("rsc: watching, flushing every %s\n", cfg.Cache.FlushInterval())
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		flusher.Run(ctx)
		return
	}

	if errCount > 0 {
		os.Exit(1)
	}
}
