// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"
)

// ParseResult holds a successfully built tree plus parse metadata.
type ParseResult struct {
	// Program is the root of the built tree. Never nil on success.
	Program *Program

	// Language is the canonical language name (e.g., "javascript").
	Language string

	// FilePath is the path the content was parsed as.
	FilePath string

	// NodeCount is the number of AST nodes built.
	NodeCount int

	// Duration is how long the parse took.
	Duration time.Duration
}

// Parser defines the contract for language-specific AST parsing.
//
// Description:
//
//	Parser implementations build a rewritable tree from source code.
//	Each implementation handles a specific language but produces output
//	in the common ParseResult format.
//
//	Unlike indexing parsers, rewrite parsers are strict: a syntax error
//	anywhere in the file fails the whole parse. A tree containing error
//	nodes has no stable span layout, and spans are the only node
//	identity the rewrite pipeline has.
//
// Assumptions:
//
//   - Content is valid UTF-8 encoded text
//   - FilePath uses forward slashes as path separator
//   - Caller handles concurrent access if sharing parser instances
type Parser interface {
	// Parse builds a tree from source code.
	//
	// Parameters:
	//   - ctx: Context for cancellation. Long-running parses should check ctx.Done().
	//   - content: Raw source code bytes (must be valid UTF-8).
	//   - filePath: Path to the file (for error reporting).
	//
	// Returns:
	//   - *ParseResult: The built tree and metadata. Never nil on success.
	//   - error: Non-nil on any failure, including syntax errors
	//     (ErrParseFailed) and constructs outside the supported subset
	//     (ErrUnsupportedSyntax).
	//
	// Thread Safety:
	//   Implementations are NOT required to be safe for concurrent use.
	//   Use one Parser per goroutine, or guard with a mutex.
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical name of the language this parser
	// handles, lowercase (e.g., "javascript").
	Language() string

	// Extensions returns the file extensions this parser can handle,
	// including the leading dot (e.g., [".js", ".mjs", ".cjs"]).
	// Extensions are case-sensitive and should be lowercase.
	Extensions() []string
}

// ParserRegistry manages parser factories by language and file extension.
//
// Description:
//
//	ParserRegistry provides a central lookup mechanism for finding the
//	appropriate parser for a given file or language. Because parsers are
//	not safe for concurrent use, the registry holds factories rather
//	than instances: each lookup constructs a fresh Parser the caller
//	owns exclusively.
//
// Thread Safety:
//
//	ParserRegistry is fully thread-safe. All methods can be called
//	concurrently from multiple goroutines. Registration uses write
//	locks, lookups use read locks.
type ParserRegistry struct {
	mu sync.RWMutex

	// byLanguage maps language names to parser factories.
	byLanguage map[string]func() Parser

	// byExtension maps file extensions to parser factories.
	byExtension map[string]func() Parser
}

// NewParserRegistry creates a new empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]func() Parser),
		byExtension: make(map[string]func() Parser),
	}
}

// Register adds a parser factory to the registry.
//
// The factory is probed once to learn the Language() and Extensions()
// it serves. If a language or extension is already registered, it will
// be overwritten.
//
// Thread Safety: This method is safe for concurrent use.
//
// Parameters:
//   - factory: Constructs a fresh Parser. Must not be nil.
//
// Example:
//
//	registry := NewParserRegistry()
//	registry.Register(func() Parser { return NewJavaScriptParser() })
func (r *ParserRegistry) Register(factory func() Parser) {
	if factory == nil {
		return
	}
	probe := factory()
	if probe == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[probe.Language()] = factory

	for _, ext := range probe.Extensions() {
		r.byExtension[ext] = factory
	}
}

// GetByLanguage returns a fresh parser for the given language name.
//
// Thread Safety: This method is safe for concurrent use.
//
// Parameters:
//   - language: The language name (e.g., "javascript"). Case-sensitive.
//
// Returns:
//   - Parser: A newly constructed parser, or nil if not found.
//   - bool: True if a factory was found.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	factory, ok := r.byLanguage[language]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return factory(), true
}

// GetByExtension returns a fresh parser for the given file extension.
//
// Thread Safety: This method is safe for concurrent use.
//
// Parameters:
//   - ext: The file extension including the dot (e.g., ".js"). Case-sensitive.
//
// Returns:
//   - Parser: A newly constructed parser, or nil if not found.
//   - bool: True if a factory was found.
func (r *ParserRegistry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	factory, ok := r.byExtension[ext]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return factory(), true
}

// Languages returns a list of all registered language names.
//
// Thread Safety: This method is safe for concurrent use.
func (r *ParserRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		languages = append(languages, lang)
	}
	return languages
}

// Extensions returns a list of all registered file extensions.
//
// Thread Safety: This method is safe for concurrent use.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		extensions = append(extensions, ext)
	}
	return extensions
}

// DefaultRegistry returns a registry with all built-in parsers registered.
func DefaultRegistry() *ParserRegistry {
	r := NewParserRegistry()
	r.Register(func() Parser { return NewJavaScriptParser() })
	return r
}
