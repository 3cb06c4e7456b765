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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/graft/pkg/ux"
	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/engine"
)

// nodeListing is one node in the parse dump.
type nodeListing struct {
	Kind  string `json:"kind"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	Value string `json:"value,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) {
	path := args[0]

	content, err := os.ReadFile(path)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not read %s: %v", path, err))
		os.Exit(1)
	}

	registry := ast.DefaultRegistry()
	parser, ok := registry.GetByExtension(filepath.Ext(path))
	if !ok {
		ux.Error(fmt.Sprintf("No parser registered for %q files", filepath.Ext(path)))
		os.Exit(1)
	}

	result, err := parser.Parse(cmd.Context(), content, path)
	if err != nil {
		ux.Error(fmt.Sprintf("Parse failed: %v", err))
		os.Exit(1)
	}

	if jsonOutput {
		printNodesJSON(result)
		return
	}

	ux.Title(fmt.Sprintf("%s  %s  %d nodes", path, result.Language, result.NodeCount))

	// The walker starts below the root, so print the root by hand.
	rootSpan := result.Program.Span()
	fmt.Printf("%s [%d:%d]\n", engine.NodeKind(result.Program), rootSpan.Start, rootSpan.End)

	depth := 1
	ast.Inspect(result.Program, func(n ast.Node) {
		sp := n.Span()
		line := fmt.Sprintf("%s%s [%d:%d]", strings.Repeat("  ", depth), engine.NodeKind(n), sp.Start, sp.End)
		if v := engine.NodeValue(n); v != "" {
			line += " " + v
		}
		fmt.Println(line)
		depth++
	}, func(n ast.Node) {
		depth--
	})
}

func printNodesJSON(result *ast.ParseResult) {
	rootSpan := result.Program.Span()
	nodes := []nodeListing{{
		Kind:  engine.NodeKind(result.Program),
		Start: rootSpan.Start,
		End:   rootSpan.End,
	}}
	ast.Inspect(result.Program, func(n ast.Node) {
		sp := n.Span()
		nodes = append(nodes, nodeListing{
			Kind:  engine.NodeKind(n),
			Start: sp.Start,
			End:   sp.End,
			Value: engine.NodeValue(n),
		})
	}, nil)

	out := struct {
		Path      string        `json:"path"`
		Language  string        `json:"language"`
		NodeCount int           `json:"node_count"`
		Nodes     []nodeListing `json:"nodes"`
	}{
		Path:      result.FilePath,
		Language:  result.Language,
		NodeCount: result.NodeCount,
		Nodes:     nodes,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		ux.Error(fmt.Sprintf("Could not marshal the node listing: %v", err))
		os.Exit(1)
	}
	fmt.Println(string(data))
}
