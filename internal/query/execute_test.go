// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"encoding/json"
	"testing"

	"github.com/sysdb/sysdbd/internal/queryparser"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	_, msg := s.StoreHost("a", 1, 0, "collectd")
	require.Empty(t, msg)
	_, msg = s.StoreHost("b", 1, 0, "collectd")
	require.Empty(t, msg)
	_, msg = s.StoreAttribute("a", "arch", sysdbval.NewString("x86_64"), 1, 0, "")
	require.Empty(t, msg)
	_, msg = s.StoreService("a", "sshd", 1, 0, "")
	require.Empty(t, msg)
	return s
}

func parseOne(t *testing.T, src string) queryparser.Stmt {
	t.Helper()
	p, err := queryparser.NewParser(src)
	require.NoError(t, err)
	q, err := p.ParseQuery()
	require.NoError(t, err)
	require.Len(t, q.Stmts, 1)
	return q.Stmts[0]
}

func TestRunListHosts(t *testing.T) {
	s := buildStore(t)
	out, err := Run(s, parseOne(t, "LIST hosts;"))
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc, 2)
}

func TestRunFetchHost(t *testing.T) {
	s := buildStore(t)
	out, err := Run(s, parseOne(t, "FETCH host 'a';"))
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "a", doc[0]["name"])
}

func TestRunFetchMissingHostIsEmptyArray(t *testing.T) {
	s := buildStore(t)
	out, err := Run(s, parseOne(t, "FETCH host 'nope';"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestRunLookupServicesWithMatching(t *testing.T) {
	s := buildStore(t)
	out, err := Run(s, parseOne(t, "LOOKUP services MATCHING service.name = 'sshd';"))
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "sshd", doc[0]["name"])
}

func TestRunLookupMatchingOnHostKeepsChildren(t *testing.T) {
	s := buildStore(t)
	out, err := Run(s, parseOne(t, "LOOKUP hosts MATCHING host.name =~ '^a';"))
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "a", doc[0]["name"])
	assert.NotEmpty(t, doc[0]["services"])
	assert.NotEmpty(t, doc[0]["attributes"])
}

func TestRunTimeseriesWithoutSourceIsEmpty(t *testing.T) {
	SetTimeseriesSource(nil)
	s := store.New()
	_, msg := s.StoreHost("a", 1, 0, "")
	require.Empty(t, msg)
	_, msg = s.StoreMetric("a", "cpu.user", nil, 1, 0, "")
	require.Empty(t, msg)

	out, err := Run(s, parseOne(t, "TIMESERIES 'a'.'cpu.user';"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
