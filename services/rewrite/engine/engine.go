// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine composes the rewrite pipeline: parse source into a
// tree, record span chains for the nodes the rules care about, apply
// the transforms by replaying those chains, and print the mutated tree.
//
// The engine is rule-driven. Rules are declarative (see Rule) and are
// compiled once into matcher functions and transform factories; a
// single recording pass then serves every rule at once. Files where no
// rule fires pass through byte-identical, untouched by the printer.
//
// Outputs are cached content-addressed: the cache key hashes the source
// bytes together with the fingerprint of the rules in scope, so both
// source edits and rule edits invalidate naturally.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/astpath"
	"github.com/AleutianAI/graft/services/rewrite/storage/badger"
)

// defaultMaxParallel bounds Run's concurrency when the config does not.
const defaultMaxParallel = 8

// Config configures an Engine.
type Config struct {
	// Rules is the rule set to apply. Required, validated by New.
	Rules *RuleSet

	// Registry resolves parsers by file extension. Defaults to
	// ast.DefaultRegistry().
	Registry *ast.ParserRegistry

	// Cache stores rewritten outputs content-addressed. Optional; nil
	// disables caching.
	Cache *badger.Cache

	// MaxParallel bounds concurrent files in Run. Defaults to 8.
	MaxParallel int

	// Logger receives engine logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine applies a compiled rule set to JavaScript sources.
//
// Description:
//
//	Engine is the top of the rewrite pipeline. Construction compiles
//	and validates the rules; after that the engine is immutable and
//	safe for concurrent use. Each rewrite parses its own tree, so
//	concurrent rewrites never share mutable state.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type Engine struct {
	rules       []compiledRule
	ruleSet     *RuleSet
	fingerprint string
	registry    *ast.ParserRegistry
	cache       *badger.Cache
	maxParallel int
	log         *slog.Logger
}

// New builds an Engine from the given config.
//
// Returns:
//   - *Engine: The ready engine. Nil on error.
//   - error: Non-nil if the rule set is missing, invalid, or names an
//     unknown kind.
func New(cfg Config) (*Engine, error) {
	if cfg.Rules == nil {
		return nil, ErrNoRules
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	compiled := make([]compiledRule, 0, len(cfg.Rules.Rules))
	for i, rule := range cfg.Rules.Rules {
		cr, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
		compiled = append(compiled, cr)
	}

	registry := cfg.Registry
	if registry == nil {
		registry = ast.DefaultRegistry()
	}
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		rules:       compiled,
		ruleSet:     cfg.Rules,
		fingerprint: cfg.Rules.Fingerprint(),
		registry:    registry,
		cache:       cfg.Cache,
		maxParallel: maxParallel,
		log:         log,
	}, nil
}

// Rules returns a copy of the engine's rules, in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.ruleSet.Rules))
	copy(out, e.ruleSet.Rules)
	return out
}

// Fingerprint returns the rule set's content fingerprint.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

// Registry returns the parser registry the engine resolves files with.
func (e *Engine) Registry() *ast.ParserRegistry {
	return e.registry
}

// CacheEnabled reports whether a rewrite cache is attached.
func (e *Engine) CacheEnabled() bool {
	return e.cache != nil
}

// Result reports one file's rewrite.
type Result struct {
	// Path is the file path the source was rewritten as.
	Path string `json:"path"`

	// Output is the rewritten source. When nothing changed it aliases
	// the input bytes exactly.
	Output []byte `json:"-"`

	// Recorded is the number of chain registrations the recording pass
	// produced. Zero on a cache hit.
	Recorded int `json:"recorded"`

	// Applied is the number of transforms that fired. Zero on a cache
	// hit.
	Applied int `json:"applied"`

	// Changed reports whether Output differs from the input.
	Changed bool `json:"changed"`

	// CacheHit reports whether the output came from the cache.
	CacheHit bool `json:"cache_hit"`

	// Duration is the wall time of the rewrite.
	Duration time.Duration `json:"duration"`
}

// RewriteSource rewrites one source buffer.
//
// Description:
//
//	Runs the full pipeline on src: scope rules by path, consult the
//	cache, parse, record, apply, print. A file no scoped rule fires on
//	is returned byte-identical without printing, so untouched files
//	never suffer formatting churn.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - filePath: Path the source belongs to. Selects the parser by
//     extension and scopes globbed rules.
//   - src: The source bytes.
//
// Returns:
//   - *Result: The rewrite outcome. Nil on error.
//   - error: Non-nil on parse or apply failure, or for extensions with
//     no registered parser (ErrUnsupportedFile).
func (e *Engine) RewriteSource(ctx context.Context, filePath string, src []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	ctx, span := startRewriteSpan(ctx, filePath)
	defer span.End()

	start := time.Now()
	res, err := e.rewriteSource(ctx, filePath, src)
	duration := time.Since(start)

	if res != nil {
		res.Duration = duration
	}
	setRewriteSpanResult(span, res, err == nil)
	if err != nil {
		span.RecordError(err)
		recordRewriteMetrics(ctx, duration, false, false, false)
		return nil, err
	}
	recordRewriteMetrics(ctx, duration, res.Changed, res.CacheHit, true)

	e.log.Debug("rewrite complete",
		"path", filePath,
		"recorded", res.Recorded,
		"applied", res.Applied,
		"changed", res.Changed,
		"cache_hit", res.CacheHit,
		"duration", duration)
	return res, nil
}

func (e *Engine) rewriteSource(ctx context.Context, filePath string, src []byte) (*Result, error) {
	scoped, scopedRules := e.scopedFor(filePath)
	if len(scoped) == 0 {
		return &Result{Path: filePath, Output: src}, nil
	}

	fingerprint := e.fingerprint
	if len(scoped) != len(e.rules) {
		fingerprint = fingerprintRules(scopedRules)
	}

	var cacheKey string
	if e.cache != nil {
		cacheKey = badger.Key(src, fingerprint)
		cached, hit, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			e.log.Warn("cache get failed", "path", filePath, "error", err)
		} else if hit {
			return &Result{
				Path:     filePath,
				Output:   cached,
				Changed:  !bytes.Equal(cached, src),
				CacheHit: true,
			}, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	parser, ok := e.registry.GetByExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFile)
	}

	parsed, err := parser.Parse(ctx, src, filePath)
	if err != nil {
		return nil, err
	}
	prog := parsed.Program

	idx := NewSpanIndex(prog, src)
	regs := astpath.Record(prog, decisionFor(scoped, idx))
	if len(regs) == 0 {
		e.putCache(ctx, filePath, cacheKey, src)
		return &Result{Path: filePath, Output: src}, nil
	}

	lookup, err := astpath.NewLookup(regs)
	if err != nil {
		return nil, err
	}
	applier := astpath.NewApplier(lookup)
	ast.WalkProgram(applier, prog)
	if err := applier.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	output := src
	changed := false
	if applier.Applied() > 0 {
		printed := []byte(ast.Print(prog))
		changed = !bytes.Equal(printed, src)
		output = printed
	}

	e.putCache(ctx, filePath, cacheKey, output)
	return &Result{
		Path:     filePath,
		Output:   output,
		Recorded: len(regs),
		Applied:  applier.Applied(),
		Changed:  changed,
	}, nil
}

// putCache stores an output under the precomputed key. Cache failures
// are logged, never propagated.
func (e *Engine) putCache(ctx context.Context, filePath, key string, output []byte) {
	if e.cache == nil || key == "" {
		return
	}
	if err := e.cache.Put(ctx, key, output); err != nil {
		e.log.Warn("cache put failed", "path", filePath, "error", err)
	}
}

// scopedFor returns the compiled rules in scope for a path, plus the
// matching declarative rules for fingerprinting.
func (e *Engine) scopedFor(filePath string) ([]compiledRule, []Rule) {
	scoped := make([]compiledRule, 0, len(e.rules))
	rules := make([]Rule, 0, len(e.rules))
	for _, cr := range e.rules {
		if cr.rule.AppliesTo(filePath) {
			scoped = append(scoped, cr)
			rules = append(rules, cr.rule)
		}
	}
	return scoped, rules
}

// decisionFor builds the recording decision function for one parse.
//
// The chain's last span names the node being offered. Nodes sharing a
// span are disambiguated by how many times that span occurs in the
// chain (equal spans always nest, so the count is the node's position
// along the path). The first matching rule wins; later rules never see
// the node.
func decisionFor(rules []compiledRule, idx *SpanIndex) astpath.DecisionFunc {
	return func(chain astpath.Chain) astpath.TransformFactory {
		last, ok := chain.Last()
		if !ok {
			return nil
		}
		occurrence := 0
		for _, s := range chain {
			if s == last {
				occurrence++
			}
		}
		info, ok := idx.Lookup(last, occurrence)
		if !ok {
			return nil
		}
		for _, cr := range rules {
			if cr.matches(info) {
				return cr.factory
			}
		}
		return nil
	}
}

// RewriteFile reads and rewrites one file.
//
// The file is not written back; Output carries the rewritten bytes for
// the caller to persist.
func (e *Engine) RewriteFile(ctx context.Context, filePath string) (*Result, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return e.RewriteSource(ctx, filePath, src)
}

// RunReport aggregates a batch run.
type RunReport struct {
	// RunID uniquely identifies this run in logs and events.
	RunID string `json:"run_id"`

	// Results holds the outcome for every file that rewrote cleanly,
	// in input order.
	Results []*Result `json:"results"`

	// Failures holds per-file errors. A failure never aborts the rest
	// of the batch.
	Failures []*FileError `json:"-"`

	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration"`
}

// Changed returns how many results actually changed their file.
func (r *RunReport) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Changed {
			n++
		}
	}
	return n
}

// Run rewrites a batch of files concurrently.
//
// Description:
//
//	Files are processed with bounded parallelism. Each file's failure
//	is isolated: a file that fails to read, parse, or apply lands in
//	the report's Failures and the rest of the batch continues. Only
//	context cancellation aborts the run, and even then the report
//	covers everything finished so far.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - paths: Files to rewrite.
//
// Returns:
//   - *RunReport: Per-file results and failures. Never nil.
//   - error: Non-nil only when the context was cancelled.
func (e *Engine) Run(ctx context.Context, paths []string) (*RunReport, error) {
	runID := uuid.NewString()
	report := &RunReport{RunID: runID}
	if len(paths) == 0 {
		return report, nil
	}

	start := time.Now()
	e.log.Info("batch rewrite starting",
		"run_id", runID,
		"files", len(paths),
		"max_parallel", e.maxParallel)
	recordBatchMetrics(ctx, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(e.maxParallel))
	results := make([]*Result, len(paths))
	failures := make([]*FileError, len(paths))

	for i, p := range paths {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			// Acquire takes the fast path without consulting the
			// context when a slot is free.
			if err := gCtx.Err(); err != nil {
				return err
			}

			res, err := e.RewriteFile(gCtx, p)
			if err != nil {
				failures[i] = &FileError{Path: p, Cause: err}
				return nil // per-file failures never abort the batch
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	for _, res := range results {
		if res != nil {
			report.Results = append(report.Results, res)
		}
	}
	for _, fe := range failures {
		if fe != nil {
			report.Failures = append(report.Failures, fe)
		}
	}
	report.Duration = time.Since(start)

	if err != nil {
		return report, fmt.Errorf("batch run cancelled: %w", err)
	}
	e.log.Info("batch rewrite complete",
		"run_id", runID,
		"files", len(paths),
		"changed", report.Changed(),
		"failures", len(report.Failures),
		"duration", report.Duration)
	return report, nil
}
