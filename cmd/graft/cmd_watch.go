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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/graft/pkg/ux"
	"github.com/AleutianAI/graft/services/rewrite/engine"
)

func runWatch(cmd *cobra.Command, args []string) {
	root := args[0]

	eng, cleanup, err := buildEngine()
	if err != nil {
		ux.Error(fmt.Sprintf("Could not build the rewrite engine: %v", err))
		os.Exit(1)
	}
	defer cleanup()

	opts := engine.DefaultWatchOptions()
	if watchDebounce > 0 {
		opts.DebounceWindow = watchDebounce
	}

	watcher, err := eng.Watch(root, &opts)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not watch %s: %v", root, err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		ux.Error(fmt.Sprintf("Could not start the watcher: %v", err))
		os.Exit(1)
	}
	defer watcher.Stop()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	ux.Title("Watching " + root)
	if writeBack {
		ux.Muted("Changed files are written back in place. Press Ctrl+C to stop.")
	} else {
		ux.Muted("Dry run, files are left untouched. Press Ctrl+C to stop.")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events():
			if !ok {
				return
			}
			printWatchEvent(ev)
		}
	}
}

// printWatchEvent renders one watch outcome, writing the output back
// when write mode is on.
func printWatchEvent(ev engine.WatchEvent) {
	switch {
	case ev.Err != nil:
		ux.FileStatus(ev.Path, ux.IconError, ev.Err.Error())
	case ev.Result.Changed:
		if writeBack {
			if werr := os.WriteFile(ev.Path, ev.Result.Output, 0o644); werr != nil {
				ux.FileStatus(ev.Path, ux.IconError, fmt.Sprintf("write back failed: %v", werr))
				return
			}
		}
		detail := fmt.Sprintf("%d applied", ev.Result.Applied)
		if ev.Result.CacheHit {
			detail = "cache hit"
		}
		ux.FileStatus(ev.Path, ux.IconSuccess, detail)
	default:
		ux.FileStatus(ev.Path, ux.IconPending, "")
	}
}
