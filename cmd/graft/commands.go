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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/graft/pkg/ux"
)

// version is the CLI release version.
const version = "0.1.0"

// --- Global Command Variables ---
var (
	rulesPath     string        // Path to the YAML rules file
	writeBack     bool          // Write rewritten output back to the files
	jsonOutput    bool          // Emit JSON instead of styled output
	cacheDir      string        // Directory for the rewrite cache, empty disables it
	jobs          int           // Max files rewritten in parallel
	verbose       bool          // Show engine logs on stderr
	plainOutput   bool          // Force plain output for scripting
	watchDebounce time.Duration // How long to wait for more changes before rewriting

	rootCmd = &cobra.Command{
		Use:   "graft",
		Short: "A cli for rule-driven JavaScript source rewrites",
		Long: `graft applies named rewrite rules to JavaScript sources.

Rules are loaded from a YAML file and applied in two passes: a recording
pass that collects matches on the syntax tree, and an apply pass that
replays them on a fresh tree before printing. Unchanged files are left
alone.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize output mode from flag or environment
			if plainOutput {
				ux.SetPlain(true)
			} else {
				ux.InitMode()
			}
		},
	}

	// --- Rewrite ---
	rewriteCmd = &cobra.Command{
		Use:   "rewrite [path...]",
		Short: "Rewrite JavaScript files with the loaded rules",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRewrite, // Defined in cmd_rewrite.go
	}

	// --- Watch ---
	watchCmd = &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and rewrite files as they change",
		Args:  cobra.ExactArgs(1),
		Run:   runWatch, // Defined in cmd_watch.go
	}

	// --- Inspection ---
	parseCmd = &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a JavaScript file and print its syntax tree",
		Args:  cobra.ExactArgs(1),
		Run:   runParse, // Defined in cmd_parse.go
	}
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Show the loaded rule set and its fingerprint",
		Run:   runRules, // Defined in cmd_utils.go
	}

	// --- Utilities ---
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the graft version",
		Run:   runVersion, // Defined in cmd_utils.go
	}
)

// init runs when the Go program starts
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "rules.yaml",
		"Path to the YAML rules file")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Plain output for scripting (no colors or boxes)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Show engine logs on stderr")

	rootCmd.AddCommand(rewriteCmd)
	rewriteCmd.Flags().BoolVarP(&writeBack, "write", "w", false,
		"Write rewritten output back to the files (default prints what would change)")
	rewriteCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output the run report as JSON")
	rewriteCmd.Flags().StringVar(&cacheDir, "cache-dir", "",
		"Enable the rewrite cache in this directory")
	rewriteCmd.Flags().IntVar(&jobs, "jobs", 0,
		"Max files rewritten in parallel (0 uses the engine default)")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&writeBack, "write", "w", false,
		"Write rewritten output back to the files")
	watchCmd.Flags().StringVar(&cacheDir, "cache-dir", "",
		"Enable the rewrite cache in this directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond,
		"How long to wait after a change before rewriting")

	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output the node listing as JSON")

	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}
