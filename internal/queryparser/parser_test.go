// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queryparser

import (
	"testing"
	"time"

	"github.com/sysdb/sysdbd/internal/matcher"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseQuery(t *testing.T, src string) *Query {
	t.Helper()
	p, err := NewParser(src)
	require.NoError(t, err)
	q, err := p.ParseQuery()
	require.NoError(t, err)
	return q
}

func TestParseListStmt(t *testing.T) {
	q := mustParseQuery(t, "LIST hosts")
	require.Len(t, q.Stmts, 1)
	assert.Equal(t, StmtList, q.Stmts[0].Kind)
	assert.Equal(t, ObjHost, q.Stmts[0].ListOf)
}

func TestParseFetchStmtWithTwoComponents(t *testing.T) {
	q := mustParseQuery(t, "FETCH service 'a'.'sshd'")
	require.Len(t, q.Stmts, 1)
	s := q.Stmts[0]
	assert.Equal(t, StmtFetch, s.Kind)
	assert.Equal(t, ObjService, s.FetchOf)
	assert.Equal(t, "a", s.FetchName1)
	assert.Equal(t, "sshd", s.FetchName2)
}

func TestParseLookupWithMatchingAndFilter(t *testing.T) {
	q := mustParseQuery(t, "LOOKUP hosts MATCHING host.name =~ '^a$' AND ANY service name = 's1' FILTER IS arch NULL")
	require.Len(t, q.Stmts, 1)
	s := q.Stmts[0]
	assert.Equal(t, StmtLookup, s.Kind)
	require.NotNil(t, s.Matching)
	require.NotNil(t, s.Filter)
}

func TestParseTimeseriesWithStartEnd(t *testing.T) {
	q := mustParseQuery(t, "TIMESERIES 'a'.'cpu' START 2024-01-01 END 2024-01-02")
	require.Len(t, q.Stmts, 1)
	s := q.Stmts[0]
	assert.Equal(t, StmtTimeseries, s.Kind)
	assert.Equal(t, "a", s.TSHost)
	assert.Equal(t, "cpu", s.TSMetric)
	require.NotNil(t, s.TSStart)
	require.NotNil(t, s.TSEnd)
}

func TestParseMultipleStatements(t *testing.T) {
	q := mustParseQuery(t, "LIST hosts; LIST services;")
	require.Len(t, q.Stmts, 2)
}

func TestMatcherEvaluatesAgainstStore(t *testing.T) {
	s := store.New()
	_, _ = s.StoreHost("a", 1, 0, "")
	_, _ = s.StoreHost("b", 1, 0, "")
	_, _ = s.StoreService("a", "s1", 1, 0, "")
	_, _ = s.StoreAttribute("a", "k1", sysdbval.NewString("v1"), 1, 0, "")

	p, err := NewParser("host.name =~ '^a$' AND ANY service name = 's1'")
	require.NoError(t, err)
	m, err := p.ParseCondition()
	require.NoError(t, err)
	matcher.Bind(m, s)

	hostA, _ := s.GetHost("a")
	hostB, _ := s.GetHost("b")
	assert.True(t, m.Matches(hostA))
	assert.False(t, m.Matches(hostB))
}

func TestParseExpressionEntryMode(t *testing.T) {
	p, err := NewParser("1 + 2 * 3")
	require.NoError(t, err)
	expr, err := p.ParseExpression()
	require.NoError(t, err)

	got := matcher.Eval(nil, expr, nil, time.Time{})
	assert.Equal(t, sysdbval.NewInteger(7), got)
}

func TestCommentsAndQuoteEscaping(t *testing.T) {
	p, err := NewParser("-- a comment\nLIST hosts /* trailing */")
	require.NoError(t, err)
	q, err := p.ParseQuery()
	require.NoError(t, err)
	assert.Len(t, q.Stmts, 1)

	p2, err := NewParser("'it''s a test'")
	require.NoError(t, err)
	expr, err := p2.ParseExpression()
	require.NoError(t, err)
	assert.Equal(t, sysdbval.NewString("it's a test"), expr.Const)
}

func TestIllegalCharacterIsReported(t *testing.T) {
	_, err := NewParser("@@@")
	assert.Error(t, err)
}
