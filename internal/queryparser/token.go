// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queryparser implements the lexer and recursive-descent parser for
// the query language: LIST/FETCH/LOOKUP/TIMESERIES statements, the matcher
// grammar (AND/OR/NOT/ANY/ALL/comparisons/IS NULL), and the arithmetic
// expression grammar, producing trees consumed by package matcher.
package queryparser

// TokenKind identifies a lexical token class.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIllegal

	TokIdent
	TokString
	TokInteger
	TokDecimal
	TokDateTime

	// Punctuation.
	TokDot
	TokLParen
	TokRParen
	TokSemi
	TokComma

	// Arithmetic operators.
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent

	// Comparison operators.
	TokEq
	TokNe
	TokLt
	TokLe
	TokGt
	TokGe
	TokRegexMatch
	TokRegexNotMatch

	// Keywords.
	TokList
	TokFetch
	TokLookup
	TokTimeseries
	TokMatching
	TokFilter
	TokStart
	TokEnd
	TokOr
	TokAnd
	TokNot
	TokAny
	TokAll
	TokIs
	TokNull
	TokHost
	TokHosts
	TokService
	TokServices
	TokMetric
	TokMetrics
	TokAttribute
)

var keywords = map[string]TokenKind{
	"LIST":       TokList,
	"FETCH":      TokFetch,
	"LOOKUP":     TokLookup,
	"TIMESERIES": TokTimeseries,
	"MATCHING":   TokMatching,
	"FILTER":     TokFilter,
	"START":      TokStart,
	"END":        TokEnd,
	"OR":         TokOr,
	"AND":        TokAnd,
	"NOT":        TokNot,
	"ANY":        TokAny,
	"ALL":        TokAll,
	"IS":         TokIs,
	"NULL":       TokNull,
	"HOST":       TokHost,
	"HOSTS":      TokHosts,
	"SERVICE":    TokService,
	"SERVICES":   TokServices,
	"METRIC":     TokMetric,
	"METRICS":    TokMetrics,
	"ATTRIBUTE":  TokAttribute,
}

// Token is a single lexed token: its kind, source text (for IDENT/literals),
// and byte offset (for error reporting).
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}
