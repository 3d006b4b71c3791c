// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package query ties the query language front-end (internal/queryparser,
// internal/matcher) to the object store (internal/store) and the JSON
// serializer (internal/jsonformat), producing the document a LIST, FETCH,
// LOOKUP, or TIMESERIES statement yields.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sysdb/sysdbd/internal/jsonformat"
	"github.com/sysdb/sysdbd/internal/matcher"
	"github.com/sysdb/sysdbd/internal/queryparser"
	"github.com/sysdb/sysdbd/internal/store"
)

func kindOf(t queryparser.ObjType) store.Kind {
	switch t {
	case queryparser.ObjHost:
		return store.KindHost
	case queryparser.ObjService:
		return store.KindService
	case queryparser.ObjMetric:
		return store.KindMetric
	case queryparser.ObjAttribute:
		return store.KindAttribute
	default:
		return 0
	}
}

// Run executes one already-parsed statement against s and returns its
// JSON document. Every statement shape is rendered as a JSON array: LIST
// and LOOKUP as an array of objects (possibly nested per the usual host/
// service/metric/attribute containment), FETCH as a single-element array,
// TIMESERIES as an array of {timestamp, value} samples.
func Run(s *store.Store, stmt queryparser.Stmt) (string, error) {
	switch stmt.Kind {
	case queryparser.StmtList:
		return runList(s, stmt)
	case queryparser.StmtFetch:
		return runFetch(s, stmt)
	case queryparser.StmtLookup:
		return runLookup(s, stmt)
	case queryparser.StmtTimeseries:
		return runTimeseries(s, stmt)
	default:
		return "", fmt.Errorf("query: unknown statement kind %v", stmt.Kind)
	}
}

func runList(s *store.Store, stmt queryparser.Stmt) (string, error) {
	return dumpKind(s, kindOf(stmt.ListOf), store.MatchAll, nil)
}

// runLookup keeps MATCHING and FILTER separate rather than folding them
// into one predicate: MATCHING selects which top-level objects show up at
// all, while FILTER only prunes which of an already-selected object's
// children are rendered alongside it. A host-name MATCHING clause, say,
// never matches a service or attribute child, so using it to gate
// children as well would strip every child from a selected host.
func runLookup(s *store.Store, stmt queryparser.Stmt) (string, error) {
	var sel store.Matcher = store.MatchAll
	if stmt.Matching != nil {
		sel = matcher.Bind(stmt.Matching, s)
	}
	var filter store.Matcher
	if stmt.Filter != nil {
		filter = matcher.Bind(stmt.Filter, s)
	}
	return dumpKind(s, kindOf(stmt.LookupOf), sel, filter)
}

// dumpKind renders every object of kind selected by sel, with filter
// gating which of its children are rendered alongside it. Hosts are
// rendered through the full nested DumpHosts traversal; non-host kinds are
// rendered as a flat array of their own fields (they have no meaningful
// standalone nesting of their own once detached from a parent host).
func dumpKind(s *store.Store, kind store.Kind, sel, filter store.Matcher) (string, error) {
	if kind == store.KindHost || kind == 0 {
		return jsonformat.DumpHosts(s, sel, filter)
	}
	return jsonformat.DumpObjectsOfKind(s, kind, sel, filter)
}

func runFetch(s *store.Store, stmt queryparser.Stmt) (string, error) {
	switch stmt.FetchOf {
	case queryparser.ObjHost:
		host, ok := s.GetHost(stmt.FetchName1)
		if !ok {
			return "[]", nil
		}
		return jsonformat.DumpHosts(s, singleHost{name: host.Name()}, nil)
	case queryparser.ObjService, queryparser.ObjMetric:
		host, ok := s.GetHost(stmt.FetchName1)
		if !ok {
			return "[]", nil
		}
		kind := store.KindService
		if stmt.FetchOf == queryparser.ObjMetric {
			kind = store.KindMetric
		}
		child, ok := s.GetChild(host, kind, stmt.FetchName2)
		if !ok {
			return "[]", nil
		}
		return jsonformat.DumpOne(s, child)
	default:
		return "", fmt.Errorf("query: unsupported FETCH object type")
	}
}

// runTimeseries resolves the named host/metric to confirm it exists, then
// defers to the registered TimeseriesSource for the actual samples: the
// object store itself only ever holds a metric's current value, not its
// history. With no source registered it returns an empty array.
func runTimeseries(s *store.Store, stmt queryparser.Stmt) (string, error) {
	host, ok := s.GetHost(stmt.TSHost)
	if !ok {
		return "[]", nil
	}
	if _, ok := s.GetChild(host, store.KindMetric, stmt.TSMetric); !ok {
		return "[]", nil
	}
	if tsSource == nil {
		return "[]", nil
	}

	start, end := time.Time{}, time.Now()
	if stmt.TSStart != nil {
		start = *stmt.TSStart
	}
	if stmt.TSEnd != nil {
		end = *stmt.TSEnd
	}
	samples, err := tsSource.Read(stmt.TSHost, stmt.TSMetric, start, end)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[")
	for i, sm := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"timestamp": %q, "value": %s}`,
			sm.Timestamp.Format(time.RFC3339), strconv.FormatFloat(sm.Value, 'g', -1, 64))
	}
	b.WriteString("]")
	return b.String(), nil
}

// Sample is one {timestamp, value} point of a TIMESERIES result.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// TimeseriesSource answers TIMESERIES queries with historical samples.
// An implementation is registered with SetTimeseriesSource; cmd/sysdbd
// registers none, so the daemon answers TIMESERIES with an empty array.
type TimeseriesSource interface {
	Read(host, metric string, start, end time.Time) ([]Sample, error)
}

var tsSource TimeseriesSource

// SetTimeseriesSource registers the backend TIMESERIES statements read
// from. Passing nil makes TIMESERIES always return an empty array.
func SetTimeseriesSource(src TimeseriesSource) { tsSource = src }

type singleHost struct{ name string }

func (m singleHost) Matches(obj *store.Object) bool {
	if obj.Kind() == store.KindHost {
		return obj.Name() == m.name
	}
	return true
}

