// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/engine"
)

// testLogger returns a logger that discards everything.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService builds a service over a single replace-string rule.
func newTestService(t *testing.T, config ServiceConfig) *Service {
	t.Helper()
	eng, err := engine.New(engine.Config{
		Rules: &engine.RuleSet{Rules: []engine.Rule{
			{Name: "greeting", Kind: engine.RuleReplaceString, Match: "hello", Replace: "goodbye"},
		}},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	config.Logger = testLogger()
	svc, err := NewService(eng, config)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// writeTestFile creates a file under a fresh temp dir and returns its
// absolute path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestNewService_NilEngine(t *testing.T) {
	_, err := NewService(nil, DefaultServiceConfig())
	if err == nil {
		t.Fatal("NewService(nil) expected error, got nil")
	}
}

func TestNewService_AppliesDefaults(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})

	want := DefaultServiceConfig()
	if svc.config.MaxSourceBytes != want.MaxSourceBytes {
		t.Errorf("MaxSourceBytes = %d, want %d", svc.config.MaxSourceBytes, want.MaxSourceBytes)
	}
	if svc.config.MaxBatchFiles != want.MaxBatchFiles {
		t.Errorf("MaxBatchFiles = %d, want %d", svc.config.MaxBatchFiles, want.MaxBatchFiles)
	}
	if svc.log == nil {
		t.Error("expected logger to be defaulted")
	}
}

func TestService_RewriteSource(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	res, err := svc.RewriteSource(context.Background(), "app.js", "greet('hello');")
	if err != nil {
		t.Fatalf("RewriteSource() error = %v", err)
	}

	if got, want := string(res.Output), "greet('goodbye');\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
	if !res.Changed {
		t.Error("expected Changed=true")
	}
	if res.Applied != 1 {
		t.Errorf("Applied = %d, want 1", res.Applied)
	}
}

func TestService_RewriteSource_TooLarge(t *testing.T) {
	svc := newTestService(t, ServiceConfig{MaxSourceBytes: 8})

	_, err := svc.RewriteSource(context.Background(), "app.js", "greet('hello');")
	if !errors.Is(err, ErrSourceTooLarge) {
		t.Fatalf("expected ErrSourceTooLarge, got %v", err)
	}
}

func TestService_RewriteSource_UnsupportedExtension(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	_, err := svc.RewriteSource(context.Background(), "notes.txt", "greet('hello');")
	if !engine.IsUnsupportedFile(err) {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
}

func TestService_RewriteSource_ParseError(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	_, err := svc.RewriteSource(context.Background(), "app.js", "function (")
	if !ast.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestService_RewriteBatch_Validation(t *testing.T) {
	svc := newTestService(t, ServiceConfig{
		MaxBatchFiles: 2,
		AllowedRoots:  []string{"/srv/projects"},
	})

	tests := []struct {
		name    string
		paths   []string
		wantErr error
	}{
		{
			name:    "empty batch",
			paths:   nil,
			wantErr: ErrEmptyBatch,
		},
		{
			name:    "too many files",
			paths:   []string{"/srv/projects/a.js", "/srv/projects/b.js", "/srv/projects/c.js"},
			wantErr: ErrBatchTooLarge,
		},
		{
			name:    "relative path",
			paths:   []string{"projects/a.js"},
			wantErr: ErrRelativePath,
		},
		{
			name:    "path traversal",
			paths:   []string{"/srv/projects/../secrets.js"},
			wantErr: ErrPathTraversal,
		},
		{
			name:    "outside allowed roots",
			paths:   []string{"/etc/passwd.js"},
			wantErr: ErrPathNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RewriteBatch(context.Background(), tt.paths, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RewriteBatch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_RewriteBatch_DryRun(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())
	path := writeTestFile(t, "app.js", "greet('hello');")

	resp, err := svc.RewriteBatch(context.Background(), []string{path}, false)
	if err != nil {
		t.Fatalf("RewriteBatch() error = %v", err)
	}

	if resp.RunID == "" {
		t.Error("expected non-empty RunID")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("Results = %d, want 1", len(resp.Results))
	}
	if resp.FilesChanged != 1 {
		t.Errorf("FilesChanged = %d, want 1", resp.FilesChanged)
	}
	if resp.Results[0].Written {
		t.Error("dry run must not mark files written")
	}

	// The file on disk stays untouched.
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(src) != "greet('hello');" {
		t.Errorf("dry run modified the file: %q", src)
	}
}

func TestService_RewriteBatch_WriteBack(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())
	path := writeTestFile(t, "app.js", "greet('hello');")

	resp, err := svc.RewriteBatch(context.Background(), []string{path}, true)
	if err != nil {
		t.Fatalf("RewriteBatch() error = %v", err)
	}

	if len(resp.Results) != 1 {
		t.Fatalf("Results = %d, want 1", len(resp.Results))
	}
	if !resp.Results[0].Written {
		t.Error("expected Written=true")
	}

	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got, want := string(src), "greet('goodbye');\n"; got != want {
		t.Errorf("file after write back = %q, want %q", got, want)
	}
}

func TestService_RewriteBatch_UnchangedNotWritten(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())
	path := writeTestFile(t, "app.js", "greet('solong');")

	resp, err := svc.RewriteBatch(context.Background(), []string{path}, true)
	if err != nil {
		t.Fatalf("RewriteBatch() error = %v", err)
	}

	if resp.FilesChanged != 0 {
		t.Errorf("FilesChanged = %d, want 0", resp.FilesChanged)
	}
	if resp.Results[0].Written {
		t.Error("unchanged file must not be rewritten on disk")
	}
	src, _ := os.ReadFile(path)
	if string(src) != "greet('solong');" {
		t.Errorf("unchanged file was modified: %q", src)
	}
}

func TestService_RewriteBatch_FailuresIsolated(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())
	good := writeTestFile(t, "good.js", "greet('hello');")
	missing := filepath.Join(t.TempDir(), "missing.js")

	resp, err := svc.RewriteBatch(context.Background(), []string{good, missing}, false)
	if err != nil {
		t.Fatalf("RewriteBatch() error = %v", err)
	}

	if len(resp.Results) != 1 {
		t.Errorf("Results = %d, want 1", len(resp.Results))
	}
	if len(resp.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(resp.Failures))
	}
	if resp.Failures[0].Path != missing {
		t.Errorf("failure path = %q, want %q", resp.Failures[0].Path, missing)
	}
	if resp.Failures[0].Error == "" {
		t.Error("expected non-empty failure message")
	}
}

func TestService_ParseSource(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	resp, err := svc.ParseSource(context.Background(), "app.js", "const x = 'hi';")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}

	if resp.Language != "javascript" {
		t.Errorf("Language = %q, want %q", resp.Language, "javascript")
	}
	if resp.NodeCount == 0 {
		t.Error("expected non-zero NodeCount")
	}
	if len(resp.Nodes) < 2 || len(resp.Nodes) > resp.NodeCount {
		t.Errorf("len(Nodes) = %d, want between 2 and NodeCount %d", len(resp.Nodes), resp.NodeCount)
	}
	if resp.Nodes[0].Kind != "Program" {
		t.Errorf("Nodes[0].Kind = %q, want Program", resp.Nodes[0].Kind)
	}

	var foundLiteral bool
	for _, n := range resp.Nodes {
		if n.Kind == "StringLiteral" && n.Value == "hi" {
			foundLiteral = true
			if n.Text != "'hi'" {
				t.Errorf("literal Text = %q, want %q", n.Text, "'hi'")
			}
		}
	}
	if !foundLiteral {
		t.Error("expected a StringLiteral node with value \"hi\"")
	}
}

func TestService_ParseSource_DefaultPath(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	resp, err := svc.ParseSource(context.Background(), "", "const x = 1;")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}
	if resp.Language != "javascript" {
		t.Errorf("Language = %q, want javascript", resp.Language)
	}
}

func TestService_ParseSource_TruncatesLongText(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	long := strings.Repeat("x", 300)
	resp, err := svc.ParseSource(context.Background(), "app.js", "const s = '"+long+"';")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}

	for _, n := range resp.Nodes {
		if len(n.Text) > summaryTextLimit+len("...") {
			t.Errorf("node %s text not truncated: %d bytes", n.Kind, len(n.Text))
		}
	}
	if !strings.HasSuffix(resp.Nodes[0].Text, "...") {
		t.Errorf("Program text should end in ellipsis, got %q", resp.Nodes[0].Text[len(resp.Nodes[0].Text)-8:])
	}
}

func TestService_Rules(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	resp := svc.Rules()
	if resp.Count != 1 {
		t.Errorf("Count = %d, want 1", resp.Count)
	}
	if resp.Fingerprint == "" {
		t.Error("expected non-empty fingerprint")
	}
	if len(resp.Rules) != 1 || resp.Rules[0].Name != "greeting" {
		t.Errorf("Rules = %+v, want the greeting rule", resp.Rules)
	}
}

func TestService_Ready(t *testing.T) {
	svc := newTestService(t, DefaultServiceConfig())

	resp := svc.Ready()
	if !resp.Ready {
		t.Error("expected Ready=true")
	}
	if resp.Rules != 1 {
		t.Errorf("Rules = %d, want 1", resp.Rules)
	}
	if resp.CacheEnabled {
		t.Error("expected CacheEnabled=false without a cache")
	}
	if resp.Subscribers != 0 {
		t.Errorf("Subscribers = %d, want 0", resp.Subscribers)
	}
}

func TestService_ValidatePath(t *testing.T) {
	svc := newTestService(t, ServiceConfig{AllowedRoots: []string{"/srv/projects", "/opt/apps"}})

	tests := []struct {
		path    string
		wantErr error
	}{
		{"/srv/projects/web/app.js", nil},
		{"/opt/apps/site/main.js", nil},
		{"web/app.js", ErrRelativePath},
		{"/srv/projects/../etc/app.js", ErrPathTraversal},
		{"/home/user/app.js", ErrPathNotAllowed},
	}

	for _, tt := range tests {
		err := svc.validatePath(tt.path)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("validatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestSummaryText(t *testing.T) {
	content := "greet('hello');"

	tests := []struct {
		name string
		span ast.Span
		want string
	}{
		{"full span", ast.Span{Start: 0, End: 15}, "greet('hello');"},
		{"inner span", ast.Span{Start: 6, End: 13}, "'hello'"},
		{"empty span", ast.Span{Start: 3, End: 3}, ""},
		{"end past content", ast.Span{Start: 0, End: 99}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaryText(content, tt.span); got != tt.want {
				t.Errorf("summaryText() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("truncates", func(t *testing.T) {
		long := strings.Repeat("a", summaryTextLimit+50)
		got := summaryText(long, ast.Span{Start: 0, End: uint32(len(long))})
		if len(got) != summaryTextLimit+len("...") {
			t.Errorf("truncated length = %d, want %d", len(got), summaryTextLimit+3)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("expected ellipsis suffix")
		}
	})
}
