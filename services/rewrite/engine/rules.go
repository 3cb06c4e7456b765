// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/graft/services/rewrite/astpath"
	"github.com/AleutianAI/graft/services/rewrite/transform"
)

// RuleKind selects which transform a rule drives.
type RuleKind string

const (
	// RuleReplaceString rewrites string literals whose decoded value
	// equals Match to Replace.
	RuleReplaceString RuleKind = "replace-string"

	// RuleRenameIdentifier renames identifiers named Match to Replace,
	// in both expression and binding positions.
	RuleRenameIdentifier RuleKind = "rename-identifier"

	// RuleRewriteImport retargets import/export source paths through Map.
	RuleRewriteImport RuleKind = "rewrite-import"
)

// ruleValidate is the validator instance for rule files.
var ruleValidate *validator.Validate

func init() {
	ruleValidate = validator.New()
}

// Rule is one declarative rewrite, as loaded from a rules file.
//
// Which fields a rule needs depends on its kind:
//
//	- name: strip-debug-flag          # always required
//	  kind: replace-string
//	  match: "debug=true"             # required
//	  replace: "debug=false"
//	- name: rename-legacy-logger
//	  kind: rename-identifier
//	  match: "logger"                 # required
//	  replace: "log"                  # required
//	  glob: "src/legacy/*.js"         # optional scope
//	- name: vendor-moves
//	  kind: rewrite-import
//	  map:                            # required, at least one entry
//	    "./old/util": "./lib/util"
type Rule struct {
	// Name identifies the rule in reports and logs. Required, unique
	// within a rule set.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Kind selects the transform. Required.
	Kind RuleKind `yaml:"kind" json:"kind" validate:"required"`

	// Match is the value the rule looks for. Meaning depends on Kind.
	Match string `yaml:"match,omitempty" json:"match,omitempty"`

	// Replace is the value written in place of Match.
	Replace string `yaml:"replace,omitempty" json:"replace,omitempty"`

	// Map holds old-source to new-source entries for rewrite-import.
	Map map[string]string `yaml:"map,omitempty" json:"map,omitempty"`

	// Glob optionally scopes the rule to matching file paths. A pattern
	// without a slash matches against the file's base name, one with a
	// slash against the whole slash-separated path.
	Glob string `yaml:"glob,omitempty" json:"glob,omitempty"`
}

// Validate checks the rule's structural tags and the per-kind field
// requirements.
//
// Returns:
//   - error: Non-nil if the rule is incomplete for its kind, wrapping
//     ErrInvalidRule or ErrUnknownRuleKind.
func (r Rule) Validate() error {
	if err := ruleValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	switch r.Kind {
	case RuleReplaceString:
		if r.Match == "" {
			return fmt.Errorf("%w: replace-string needs match", ErrInvalidRule)
		}
	case RuleRenameIdentifier:
		if r.Match == "" || r.Replace == "" {
			return fmt.Errorf("%w: rename-identifier needs match and replace", ErrInvalidRule)
		}
	case RuleRewriteImport:
		if len(r.Map) == 0 {
			return fmt.Errorf("%w: rewrite-import needs at least one map entry", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRuleKind, r.Kind)
	}

	if r.Glob != "" {
		if _, err := path.Match(r.Glob, "probe"); err != nil {
			return fmt.Errorf("%w: bad glob %q: %v", ErrInvalidRule, r.Glob, err)
		}
	}
	return nil
}

// AppliesTo reports whether the rule is in scope for the given file
// path. A rule with no glob applies everywhere.
func (r Rule) AppliesTo(filePath string) bool {
	if r.Glob == "" {
		return true
	}
	normalized := filepath.ToSlash(filePath)
	target := normalized
	if !strings.Contains(r.Glob, "/") {
		target = path.Base(normalized)
	}
	ok, err := path.Match(r.Glob, target)
	return err == nil && ok
}

// RuleSet is an ordered collection of rules.
//
// Order matters: when several rules match the same node, the first one
// wins. The set as a whole has a content fingerprint used for cache
// addressing, so editing any rule invalidates cached outputs.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules" validate:"required,min=1,dive"`
}

// Validate checks every rule and rejects duplicate names.
func (s *RuleSet) Validate() error {
	if s == nil || len(s.Rules) == 0 {
		return ErrNoRules
	}
	seen := make(map[string]struct{}, len(s.Rules))
	for i, rule := range s.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("rule %d: %w: duplicate name %q", i, ErrInvalidRule, rule.Name)
		}
		seen[rule.Name] = struct{}{}
	}
	return nil
}

// Fingerprint returns a hex SHA-256 over the set's canonical form.
//
// The fingerprint covers rule order, every field, and map entries in
// sorted key order, so it is stable across YAML map reordering but
// changes whenever any rule's behavior would.
func (s *RuleSet) Fingerprint() string {
	return fingerprintRules(s.Rules)
}

func fingerprintRules(rules []Rule) string {
	h := sha256.New()
	for _, rule := range rules {
		writeField(h, rule.Name)
		writeField(h, string(rule.Kind))
		writeField(h, rule.Match)
		writeField(h, rule.Replace)
		writeField(h, rule.Glob)

		keys := make([]string, 0, len(rule.Map))
		for k := range rule.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeField(h, k)
			writeField(h, rule.Map[k])
		}
		_, _ = h.Write([]byte{0xFF})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, field string) {
	_, _ = io.WriteString(w, field)
	_, _ = w.Write([]byte{0x00})
}

// ParseRules parses and validates a YAML rules document.
//
// Returns:
//   - *RuleSet: The validated set. Nil on error.
//   - error: Non-nil on YAML or validation failure.
func ParseRules(data []byte) (*RuleSet, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// LoadRules reads and validates a YAML rules file.
//
// Example:
//
//	set, err := engine.LoadRules("rewrite.yaml")
//	if err != nil {
//	    return err
//	}
//	eng, err := engine.New(engine.Config{Rules: set})
func LoadRules(rulesPath string) (*RuleSet, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	set, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rulesPath, err)
	}
	return set, nil
}

// compiledRule pairs a rule with its prebuilt matcher and transform
// factory. Compiling once in New keeps the per-node decision path free
// of allocation and string switches.
type compiledRule struct {
	rule    Rule
	matches func(info NodeInfo) bool
	factory astpath.TransformFactory
}

// compileRule builds the matcher and factory for one validated rule.
func compileRule(rule Rule) (compiledRule, error) {
	cr := compiledRule{rule: rule}

	switch rule.Kind {
	case RuleReplaceString:
		match := rule.Match
		cr.matches = func(info NodeInfo) bool {
			return info.Kind == "StringLiteral" && info.Value == match
		}
		cr.factory = (&transform.StringReplacer{Old: rule.Match, New: rule.Replace}).Factory()

	case RuleRenameIdentifier:
		match := rule.Match
		cr.matches = func(info NodeInfo) bool {
			return info.Kind == "Identifier" && info.Value == match
		}
		cr.factory = (&transform.IdentifierRenamer{From: rule.Match, To: rule.Replace}).Factory()

	case RuleRewriteImport:
		mapping := rule.Map
		cr.matches = func(info NodeInfo) bool {
			switch info.Kind {
			case "ImportDeclaration", "ExportNamedDeclaration", "ExportAllDeclaration":
				_, mapped := mapping[info.Value]
				return mapped
			default:
				return false
			}
		}
		cr.factory = transform.NewImportSourceMap(rule.Map).Factory()

	default:
		return cr, fmt.Errorf("%w: %q", ErrUnknownRuleKind, rule.Kind)
	}
	return cr, nil
}
