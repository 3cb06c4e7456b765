// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package astpath

import (
	"errors"
	"sync"
	"testing"

	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setString rewrites the value of the string literal it is handed.
// Clearing Raw makes the printer emit the new value.
type setString struct {
	ast.NopVisitor
	value string
}

func (s *setString) VisitExpr(slot *ast.Expr) {
	if lit, ok := (*slot).(*ast.StringLiteral); ok {
		lit.Value = s.value
		lit.Raw = ""
	}
}

func setStringFactory(value string) TransformFactory {
	return func() ast.Visitor { return &setString{value: value} }
}

// appendString appends to a string literal's value, which makes the
// order and multiplicity of applications visible in the output.
type appendString struct {
	ast.NopVisitor
	suffix string
}

func (s *appendString) VisitExpr(slot *ast.Expr) {
	if lit, ok := (*slot).(*ast.StringLiteral); ok {
		lit.Value += s.suffix
		lit.Raw = ""
	}
}

func appendStringFactory(suffix string) TransformFactory {
	return func() ast.Visitor { return &appendString{suffix: suffix} }
}

// markerLog records the marker of every expression slot a transform
// instance is handed.
type markerLog struct {
	ast.NopVisitor
	log *[]ast.Span
}

func (l *markerLog) VisitExpr(slot *ast.Expr) {
	*l.log = append(*l.log, (*slot).Span())
}

// countingFactory wraps inner and counts how many transforms it built.
func countingFactory(calls *int, inner TransformFactory) TransformFactory {
	return func() ast.Visitor {
		*calls++
		return inner()
	}
}

// emptyOutStmt replaces the statement it is handed with an empty
// statement covering the same extent.
type emptyOutStmt struct {
	ast.NopVisitor
}

func (emptyOutStmt) VisitStmt(slot *ast.Stmt) {
	*slot = &ast.EmptyStatement{Loc: (*slot).Span()}
}

// retargetImport rewrites an import declaration's source string.
type retargetImport struct {
	ast.NopVisitor
	source string
}

func (r *retargetImport) VisitModuleDecl(slot *ast.ModuleDecl) {
	if imp, ok := (*slot).(*ast.ImportDeclaration); ok && imp.Source != nil {
		imp.Source.Value = r.source
		imp.Source.Raw = ""
	}
}

// TestApply_RecordedStringRewrite runs the whole record-then-replay
// round trip: register one nested string literal, apply to a clone,
// and verify only that literal changed.
func TestApply_RecordedStringRewrite(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := parseJS(t, source)
	bar := spanOf(t, source, "'bar'")

	regs := Record(prog, acceptLast(bar, setStringFactory("bar-success")))
	require.Len(t, regs, 1)
	require.Len(t, regs[0].Chain, 4)

	clone := ast.CloneProgram(prog)
	require.NoError(t, Apply(clone, regs))

	assert.Equal(t, "('foo', 'bar-success', ['baz']);\n", ast.Print(clone))
	assert.Equal(t, "('foo', 'bar', ['baz']);\n", ast.Print(prog),
		"the recorded tree must stay untouched")
}

// TestApply_DisambiguatesIdenticalText verifies markers separate two
// occurrences of byte-identical source text.
func TestApply_DisambiguatesIdenticalText(t *testing.T) {
	source := "f('x'); g('x');"
	prog := parseJS(t, source)
	firstX := spanOf(t, source, "'x'")

	regs := Record(prog, acceptLast(firstX, setStringFactory("x-new")))
	require.Len(t, regs, 1)

	require.NoError(t, Apply(prog, regs))
	assert.Equal(t, "f('x-new');\ng('x');\n", ast.Print(prog),
		"the second occurrence has a different marker and must not change")
}

// TestApply_MultipleTransformsRunInRegistrationOrder verifies two
// registrations on the same node fire in the order they were listed.
func TestApply_MultipleTransformsRunInRegistrationOrder(t *testing.T) {
	source := "report('base');"
	prog := parseJS(t, source)
	chain := Chain{
		spanOf(t, source, "report('base');"),
		spanOf(t, source, "report('base')"),
		spanOf(t, source, "'base'"),
	}

	regs := []Registration{
		{Chain: chain, NewTransform: appendStringFactory("-one")},
		{Chain: chain.Clone(), NewTransform: appendStringFactory("-two")},
	}

	require.NoError(t, Apply(prog, regs))
	assert.Equal(t, "report('base-one-two');\n", ast.Print(prog))
}

// TestApply_DuplicateRegistrationsFireTwice verifies nothing is
// deduplicated: the same registration listed twice runs twice.
func TestApply_DuplicateRegistrationsFireTwice(t *testing.T) {
	source := "report('base');"
	prog := parseJS(t, source)
	chain := Chain{
		spanOf(t, source, "report('base');"),
		spanOf(t, source, "report('base')"),
		spanOf(t, source, "'base'"),
	}

	calls := 0
	reg := Registration{
		Chain:        chain,
		NewTransform: countingFactory(&calls, appendStringFactory("+")),
	}

	require.NoError(t, Apply(prog, []Registration{reg, reg}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "report('base++');\n", ast.Print(prog))
}

// TestApply_TerminalAndContinuingOnSameNode verifies one node can fire
// a registration ending there while carrying another one deeper.
func TestApply_TerminalAndContinuingOnSameNode(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := parseJS(t, source)
	seq := spanOf(t, source, "'foo', 'bar', ['baz']")
	bar := spanOf(t, source, "'bar'")

	var fired []ast.Span
	logFactory := func() ast.Visitor { return &markerLog{log: &fired} }

	regs := Record(prog, func(chain Chain) TransformFactory {
		switch last, _ := chain.Last(); last {
		case seq:
			return logFactory
		case bar:
			return setStringFactory("bar-success")
		default:
			return nil
		}
	})
	require.Len(t, regs, 2)

	require.NoError(t, Apply(prog, regs))
	assert.Equal(t, []ast.Span{seq}, fired,
		"the sequence-level registration fires at the sequence node")
	assert.Equal(t, "('foo', 'bar-success', ['baz']);\n", ast.Print(prog),
		"the deeper registration still descends through the same node")
}

// TestApply_ChainMustStepThroughEveryLevel verifies a chain that skips
// an intermediate node never reaches its target.
func TestApply_ChainMustStepThroughEveryLevel(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := parseJS(t, source)

	calls := 0
	regs := []Registration{{
		// Jumps from the statement straight to the string, omitting
		// the parenthesized expression and the sequence.
		Chain: Chain{
			spanOf(t, source, "('foo', 'bar', ['baz']);"),
			spanOf(t, source, "'bar'"),
		},
		NewTransform: countingFactory(&calls, setStringFactory("never")),
	}}

	require.NoError(t, Apply(prog, regs))
	assert.Zero(t, calls, "descent is keyed on direct children only")
	assert.Equal(t, "('foo', 'bar', ['baz']);\n", ast.Print(prog))
}

// TestApply_FreshTransformPerMatch verifies the factory runs once per
// matched node and each match gets its own instance.
func TestApply_FreshTransformPerMatch(t *testing.T) {
	source := "pick('a', 'b', 'c');"
	prog := parseJS(t, source)

	a := spanOf(t, source, "'a'")
	b := spanOf(t, source, "'b'")
	c := spanOf(t, source, "'c'")

	var instances []ast.Visitor
	factory := func() ast.Visitor {
		v := &setString{value: "z"}
		instances = append(instances, v)
		return v
	}

	regs := Record(prog, func(chain Chain) TransformFactory {
		switch last, _ := chain.Last(); last {
		case a, b, c:
			return factory
		default:
			return nil
		}
	})
	require.Len(t, regs, 3)

	require.NoError(t, Apply(prog, regs))
	require.Len(t, instances, 3)
	assert.NotSame(t, instances[0], instances[1])
	assert.NotSame(t, instances[1], instances[2])
	assert.Equal(t, "pick('z', 'z', 'z');\n", ast.Print(prog))
}

// TestApply_StatementReplacement verifies a chain of length one
// replaces a whole top-level statement through the statement hook.
func TestApply_StatementReplacement(t *testing.T) {
	source := "old(); keep();"
	prog := parseJS(t, source)

	regs := []Registration{{
		Chain:        Chain{spanOf(t, source, "old();")},
		NewTransform: func() ast.Visitor { return emptyOutStmt{} },
	}}

	require.NoError(t, Apply(prog, regs))
	assert.Equal(t, ";\nkeep();\n", ast.Print(prog))
}

// TestApply_ModuleDeclTransform verifies module declarations are
// addressable like any other top-level item.
func TestApply_ModuleDeclTransform(t *testing.T) {
	source := "import { a } from './old';"
	prog := parseJS(t, source)

	regs := []Registration{{
		Chain:        Chain{spanOf(t, source, "import { a } from './old';")},
		NewTransform: func() ast.Visitor { return &retargetImport{source: "./new"} },
	}}

	require.NoError(t, Apply(prog, regs))
	assert.Equal(t, "import { a } from './new';\n", ast.Print(prog))
}

// TestNewApplier_MisKeyedLookupDoesNotFire verifies the final-marker
// check: an entry filed under one marker with a chain addressing a
// different node must not mutate anything.
func TestNewApplier_MisKeyedLookupDoesNotFire(t *testing.T) {
	source := "'a'; 'b';"
	prog := parseJS(t, source)
	stmtA := spanOf(t, source, "'a';")
	stmtB := spanOf(t, source, "'b';")

	calls := 0
	lookup := Lookup{
		stmtA: {{
			Chain:        Chain{stmtB},
			NewTransform: countingFactory(&calls, setStringFactory("boom")),
		}},
	}

	a := NewApplier(lookup)
	ast.WalkProgram(a, prog)

	require.NoError(t, a.Err())
	assert.Zero(t, calls)
	assert.Zero(t, a.Applied())
	assert.Equal(t, "'a';\n'b';\n", ast.Print(prog))
}

// TestNewApplier_DepthExceededStopsReplay verifies a chain shorter than
// its position in the lookup fails fast and halts the traversal.
func TestNewApplier_DepthExceededStopsReplay(t *testing.T) {
	source := "first(); second('s');"
	prog := parseJS(t, source)
	stmt1 := spanOf(t, source, "first();")
	stmt2 := spanOf(t, source, "second('s');")

	calls := 0
	lookup := Lookup{
		stmt1: {{Chain: Chain{}, NewTransform: nopFactory}},
		stmt2: {{
			Chain:        Chain{stmt2},
			NewTransform: countingFactory(&calls, nopFactory),
		}},
	}

	a := NewApplier(lookup)
	ast.WalkProgram(a, prog)

	err := a.Err()
	require.Error(t, err)
	assert.True(t, IsDepthExceeded(err))

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, 0, applyErr.Depth)
	assert.Equal(t, stmt1, applyErr.Marker)

	assert.Zero(t, calls, "nodes after the violation must not be processed")
	assert.Zero(t, a.Applied())
}

// TestApply_EmptyChainRejected verifies registrations without markers
// are refused before any traversal happens.
func TestApply_EmptyChainRejected(t *testing.T) {
	source := "a;"
	prog := parseJS(t, source)

	err := Apply(prog, []Registration{{Chain: nil, NewTransform: nopFactory}})
	require.Error(t, err)
	assert.True(t, IsEmptyChain(err))
	assert.Contains(t, err.Error(), "registration 0")
	assert.Equal(t, "a;\n", ast.Print(prog))
}

// TestApply_NilAndEmptyInputs verifies nil programs and empty
// registration sets are no-ops.
func TestApply_NilAndEmptyInputs(t *testing.T) {
	require.NoError(t, Apply(nil, []Registration{{Chain: Chain{{Start: 0, End: 1}}, NewTransform: nopFactory}}))

	source := "a;"
	prog := parseJS(t, source)
	require.NoError(t, Apply(prog, nil))
	assert.Equal(t, "a;\n", ast.Print(prog))
}

// TestApply_SharedRegistrationsAcrossClones verifies one registration
// set replays concurrently against independent clones while the
// recorded tree stays untouched.
func TestApply_SharedRegistrationsAcrossClones(t *testing.T) {
	source := "('foo', 'bar', ['baz']);"
	prog := parseJS(t, source)
	bar := spanOf(t, source, "'bar'")

	regs := Record(prog, acceptLast(bar, setStringFactory("bar-success")))
	require.Len(t, regs, 1)

	const workers = 8
	outputs := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		clone := ast.CloneProgram(prog)
		wg.Add(1)
		go func(i int, clone *ast.Program) {
			defer wg.Done()
			errs[i] = Apply(clone, regs)
			outputs[i] = ast.Print(clone)
		}(i, clone)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "('foo', 'bar-success', ['baz']);\n", outputs[i])
	}
	assert.Equal(t, "('foo', 'bar', ['baz']);\n", ast.Print(prog))
}
