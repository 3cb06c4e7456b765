// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/graft/pkg/ux"
	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/engine"
	"github.com/AleutianAI/graft/services/rewrite/storage/badger"
)

// skipDirs are directory names never walked for rewrite targets.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// fileReport is one file's outcome in the run report output.
type fileReport struct {
	Path     string `json:"path"`
	Changed  bool   `json:"changed"`
	Applied  int    `json:"applied"`
	CacheHit bool   `json:"cache_hit"`
	Written  bool   `json:"written,omitempty"`
	Error    string `json:"error,omitempty"`
}

// buildEngine loads the rule set and wires the optional cache.
//
// The returned cleanup closes the cache store when one was opened and
// is safe to call unconditionally.
func buildEngine() (*engine.Engine, func(), error) {
	rules, err := engine.LoadRules(rulesPath)
	if err != nil {
		return nil, nil, err
	}

	var cache *badger.Cache
	cleanup := func() {}
	if cacheDir != "" {
		cfg := badger.DefaultConfig()
		cfg.Path = cacheDir
		db, err := badger.OpenDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		cache = badger.NewCache(db, badger.CacheConfig{})
		cleanup = func() {
			if err := db.Close(); err != nil {
				ux.Warning(fmt.Sprintf("Could not close the cache store: %v", err))
			}
		}
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	eng, err := engine.New(engine.Config{
		Rules:       rules,
		Cache:       cache,
		MaxParallel: jobs,
		Logger:      logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// collectFiles expands one path argument into rewritable files.
//
// Directories are walked recursively, keeping files whose extension has
// a registered parser. A plain file argument is kept as-is so the
// engine reports an unsupported extension instead of silently skipping
// it.
func collectFiles(path string, registry *ast.ParserRegistry) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := registry.GetByExtension(filepath.Ext(p)); ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func runRewrite(cmd *cobra.Command, args []string) {
	eng, cleanup, err := buildEngine()
	if err != nil {
		ux.Error(fmt.Sprintf("Could not build the rewrite engine: %v", err))
		os.Exit(1)
	}
	defer cleanup()

	var paths []string
	for _, arg := range args {
		expanded, err := collectFiles(arg, eng.Registry())
		if err != nil {
			ux.Error(fmt.Sprintf("Could not collect files under %s: %v", arg, err))
			os.Exit(1)
		}
		paths = append(paths, expanded...)
	}
	if len(paths) == 0 {
		ux.Warning("No rewritable files found")
		return
	}

	report, err := eng.Run(cmd.Context(), paths)
	if err != nil {
		ux.Error(fmt.Sprintf("Rewrite run failed: %v", err))
		os.Exit(1)
	}

	files, changed, unchanged, failed := renderResults(report)

	if jsonOutput {
		printReportJSON(report, files, changed, failed)
	} else {
		for _, fr := range files {
			switch {
			case fr.Error != "":
				ux.FileStatus(fr.Path, ux.IconError, fr.Error)
			case fr.Changed:
				ux.FileStatus(fr.Path, ux.IconSuccess, changeDetail(fr))
			default:
				ux.FileStatus(fr.Path, ux.IconPending, "")
			}
		}
		ux.Summary(changed, unchanged, failed)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// renderResults applies write-back and folds the report into per-file
// rows plus counts.
func renderResults(report *engine.RunReport) (files []fileReport, changed, unchanged, failed int) {
	for _, res := range report.Results {
		fr := fileReport{
			Path:     res.Path,
			Changed:  res.Changed,
			Applied:  res.Applied,
			CacheHit: res.CacheHit,
		}
		if !res.Changed {
			unchanged++
			files = append(files, fr)
			continue
		}
		if writeBack {
			if werr := os.WriteFile(res.Path, res.Output, 0o644); werr != nil {
				fr.Error = fmt.Sprintf("write back failed: %v", werr)
				failed++
				files = append(files, fr)
				continue
			}
			fr.Written = true
		}
		changed++
		files = append(files, fr)
	}
	for _, fe := range report.Failures {
		files = append(files, fileReport{Path: fe.Path, Error: fe.Cause.Error()})
		failed++
	}
	return files, changed, unchanged, failed
}

func changeDetail(fr fileReport) string {
	if fr.CacheHit {
		return "cache hit"
	}
	return fmt.Sprintf("%d applied", fr.Applied)
}

func printReportJSON(report *engine.RunReport, files []fileReport, changed, failed int) {
	out := struct {
		RunID      string       `json:"run_id"`
		Files      []fileReport `json:"files"`
		Changed    int          `json:"changed"`
		Failed     int          `json:"failed"`
		DurationMs float64      `json:"duration_ms"`
	}{
		RunID:      report.RunID,
		Files:      files,
		Changed:    changed,
		Failed:     failed,
		DurationMs: float64(report.Duration.Microseconds()) / 1000.0,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		ux.Error(fmt.Sprintf("Could not marshal the run report: %v", err))
		os.Exit(1)
	}
	fmt.Println(string(data))
}
