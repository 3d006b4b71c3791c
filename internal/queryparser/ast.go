// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queryparser

import (
	"time"

	"github.com/sysdb/sysdbd/internal/matcher"
	"github.com/sysdb/sysdbd/internal/store"
)

// ObjType names one of the grammar's object-type keywords.
type ObjType int

const (
	ObjNone ObjType = iota
	ObjHost
	ObjService
	ObjMetric
	ObjAttribute
)

// StmtKind discriminates the four statement shapes the grammar supports.
type StmtKind int

const (
	StmtList StmtKind = iota
	StmtFetch
	StmtLookup
	StmtTimeseries
)

// Stmt is a single parsed statement. As elsewhere in this module, one
// struct with a Kind discriminator stands in for a statement-kind
// hierarchy; unused fields are zero for kinds that don't need them.
type Stmt struct {
	Kind StmtKind

	// StmtList: which collection to enumerate.
	ListOf ObjType

	// StmtFetch: the object type and one or two dotted name components
	// (host, or host.service / host.metric).
	FetchOf   ObjType
	FetchName1 string
	FetchName2 string

	// StmtLookup: which collection to scan, plus optional MATCHING/FILTER
	// matcher trees.
	LookupOf ObjType
	Matching *matcher.Matcher
	Filter   *matcher.Matcher

	// StmtTimeseries.
	TSHost   string
	TSMetric string
	TSStart  *time.Time
	TSEnd    *time.Time
}

// Query is a full parsed `query` production: a non-empty, semicolon
// separated (optionally semicolon terminated) list of statements.
type Query struct {
	Stmts []Stmt
}

// fieldByIdent maps the grammar's bare field identifiers to the store's
// Field enum. Anything not in this table is treated as an attribute key
// reference instead (AttrCond), per §4.E.
var fieldByIdent = map[string]store.Field{
	"name":        store.FieldName,
	"last_update": store.FieldLastUpdate,
	"interval":    store.FieldInterval,
	"age":         store.FieldAge,
	"backend":     store.FieldBackend,
	"value":       store.FieldValue,
}
