// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queryparser

import (
	"strconv"
	"time"

	"github.com/sysdb/sysdbd/internal/matcher"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// Parser is a recursive-descent parser with one token of lookahead. The
// three entry points (ParseQuery, ParseCondition, ParseExpression) share
// every production below them; only the top-level rule differs, matching
// the grammar's three parser entry modes.
type Parser struct {
	lex *Lexer
	tok Token
}

// NewParser returns a parser over src, primed with its first token.
func NewParser(src string) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) next() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) expect(k TokenKind, what string) (Token, error) {
	if p.tok.Kind != k {
		return Token{}, errf(p.tok.Pos, "expected %s, got %q", what, p.tok.Text)
	}
	t := p.tok
	err := p.next()
	return t, err
}

// ParseQuery parses the full `query` production: one or more statements
// separated, and optionally terminated, by ';'.
func (p *Parser) ParseQuery() (*Query, error) {
	q := &Query{}
	for {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		q.Stmts = append(q.Stmts, stmt)
		if p.tok.Kind == TokSemi {
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.tok.Kind == TokEOF {
				break
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokEOF, "end of query"); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseCondition parses a standalone matcher expression, as if it had been
// wrapped in `LOOKUP hosts MATCHING <cond>`.
func (p *Parser) ParseCondition() (*matcher.Matcher, error) {
	m, err := p.parseMatcherExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokEOF, "end of condition"); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseExpression parses a standalone arithmetic expression.
func (p *Parser) ParseExpression() (*matcher.Expression, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokEOF, "end of expression"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.tok.Kind {
	case TokList:
		return p.parseList()
	case TokFetch:
		return p.parseFetch()
	case TokLookup:
		return p.parseLookup()
	case TokTimeseries:
		return p.parseTimeseries()
	default:
		return Stmt{}, errf(p.tok.Pos, "expected LIST, FETCH, LOOKUP, or TIMESERIES, got %q", p.tok.Text)
	}
}

func (p *Parser) parseList() (Stmt, error) {
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	var of ObjType
	switch p.tok.Kind {
	case TokHosts:
		of = ObjHost
	case TokServices:
		of = ObjService
	case TokMetrics:
		of = ObjMetric
	default:
		return Stmt{}, errf(p.tok.Pos, "expected hosts, services, or metrics after LIST")
	}
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtList, ListOf: of}, nil
}

func (p *Parser) parseFetch() (Stmt, error) {
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	var of ObjType
	switch p.tok.Kind {
	case TokHost:
		of = ObjHost
	case TokService:
		of = ObjService
	case TokMetric:
		of = ObjMetric
	default:
		return Stmt{}, errf(p.tok.Pos, "expected host, service, or metric after FETCH")
	}
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	name1, err := p.expect(TokString, "a quoted name")
	if err != nil {
		return Stmt{}, err
	}
	stmt := Stmt{Kind: StmtFetch, FetchOf: of, FetchName1: name1.Text}
	if p.tok.Kind == TokDot {
		if err := p.next(); err != nil {
			return Stmt{}, err
		}
		name2, err := p.expect(TokString, "a quoted name")
		if err != nil {
			return Stmt{}, err
		}
		stmt.FetchName2 = name2.Text
	}
	return stmt, nil
}

func (p *Parser) parseLookup() (Stmt, error) {
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	var of ObjType
	switch p.tok.Kind {
	case TokHosts:
		of = ObjHost
	case TokServices:
		of = ObjService
	case TokMetrics:
		of = ObjMetric
	default:
		return Stmt{}, errf(p.tok.Pos, "expected hosts, services, or metrics after LOOKUP")
	}
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	stmt := Stmt{Kind: StmtLookup, LookupOf: of}
	if p.tok.Kind == TokMatching {
		if err := p.next(); err != nil {
			return Stmt{}, err
		}
		m, err := p.parseMatcherExpr()
		if err != nil {
			return Stmt{}, err
		}
		stmt.Matching = m
	}
	if p.tok.Kind == TokFilter {
		if err := p.next(); err != nil {
			return Stmt{}, err
		}
		f, err := p.parseMatcherExpr()
		if err != nil {
			return Stmt{}, err
		}
		stmt.Filter = f
	}
	return stmt, nil
}

func (p *Parser) parseTimeseries() (Stmt, error) {
	if err := p.next(); err != nil {
		return Stmt{}, err
	}
	host, err := p.expect(TokString, "a quoted host name")
	if err != nil {
		return Stmt{}, err
	}
	if _, err := p.expect(TokDot, "'.'"); err != nil {
		return Stmt{}, err
	}
	metric, err := p.expect(TokString, "a quoted metric name")
	if err != nil {
		return Stmt{}, err
	}
	stmt := Stmt{Kind: StmtTimeseries, TSHost: host.Text, TSMetric: metric.Text}
	if p.tok.Kind == TokStart {
		if err := p.next(); err != nil {
			return Stmt{}, err
		}
		dt, err := p.expect(TokDateTime, "a datetime literal")
		if err != nil {
			return Stmt{}, err
		}
		v, err := sysdbval.ParseDateTime(dt.Text)
		if err != nil {
			return Stmt{}, errf(dt.Pos, "%v", err)
		}
		t := time.Unix(0, v.DateTime)
		stmt.TSStart = &t
	}
	if p.tok.Kind == TokEnd {
		if err := p.next(); err != nil {
			return Stmt{}, err
		}
		dt, err := p.expect(TokDateTime, "a datetime literal")
		if err != nil {
			return Stmt{}, err
		}
		v, err := sysdbval.ParseDateTime(dt.Text)
		if err != nil {
			return Stmt{}, errf(dt.Pos, "%v", err)
		}
		t := time.Unix(0, v.DateTime)
		stmt.TSEnd = &t
	}
	return stmt, nil
}

// parseMatcherExpr handles 'OR', the lowest-precedence matcher combinator.
func (p *Parser) parseMatcherExpr() (*matcher.Matcher, error) {
	left, err := p.parseMatcherTerm()
	if err != nil {
		return nil, err
	}
	operands := []*matcher.Matcher{left}
	for p.tok.Kind == TokOr {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMatcherTerm()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return matcher.Or(operands...), nil
}

// parseMatcherTerm handles 'AND'.
func (p *Parser) parseMatcherTerm() (*matcher.Matcher, error) {
	left, err := p.parseMatcherFactor()
	if err != nil {
		return nil, err
	}
	operands := []*matcher.Matcher{left}
	for p.tok.Kind == TokAnd {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMatcherFactor()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return matcher.And(operands...), nil
}

func (p *Parser) parseMatcherFactor() (*matcher.Matcher, error) {
	switch p.tok.Kind {
	case TokNot:
		if err := p.next(); err != nil {
			return nil, err
		}
		m, err := p.parseMatcherFactor()
		if err != nil {
			return nil, err
		}
		return matcher.Not(m), nil
	case TokLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		m, err := p.parseMatcherExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return m, nil
	case TokAny, TokAll:
		isAny := p.tok.Kind == TokAny
		if err := p.next(); err != nil {
			return nil, err
		}
		var kind ObjType
		switch p.tok.Kind {
		case TokService:
			kind = ObjService
		case TokMetric:
			kind = ObjMetric
		case TokAttribute:
			kind = ObjAttribute
		default:
			return nil, errf(p.tok.Pos, "expected service, metric, or attribute after ANY/ALL")
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		sub, err := p.parseMatcherFactor()
		if err != nil {
			return nil, err
		}
		return wrapQuantifier(isAny, kind, sub), nil
	case TokIs:
		if err := p.next(); err != nil {
			return nil, err
		}
		ident, err := p.expect(TokIdent, "an attribute name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokNull, "NULL"); err != nil {
			return nil, err
		}
		return matcher.IsNull(ident.Text), nil
	default:
		return p.parseComparison()
	}
}

func wrapQuantifier(isAny bool, kind ObjType, sub *matcher.Matcher) *matcher.Matcher {
	switch kind {
	case ObjService:
		if isAny {
			return matcher.AnyService(sub)
		}
		return matcher.AllService(sub)
	case ObjMetric:
		if isAny {
			return matcher.AnyMetric(sub)
		}
		return matcher.AllMetric(sub)
	default:
		if isAny {
			return matcher.AnyAttribute(sub)
		}
		return matcher.AllAttribute(sub)
	}
}

// parseComparison handles the leaf rules: `obj_type '.' IDENT cmp expr` and
// `field cmp expr`. Since the lexer never merges IDENT and obj_type
// keywords, both forms start with an identifier-or-obj_type-keyword token.
func (p *Parser) parseComparison() (*matcher.Matcher, error) {
	var lhsName string
	switch p.tok.Kind {
	case TokHost, TokService, TokMetric:
		if err := p.next(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokDot, "'.'"); err != nil {
			return nil, err
		}
		ident, err := p.expect(TokIdent, "a field or attribute name")
		if err != nil {
			return nil, err
		}
		lhsName = ident.Text
	case TokIdent:
		lhsName = p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
	default:
		return nil, errf(p.tok.Pos, "expected a comparison, ANY/ALL, NOT, IS NULL, or '(', got %q", p.tok.Text)
	}

	op, err := p.parseCmpOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if f, ok := fieldByIdent[lhsName]; ok {
		return matcher.Compare(matcher.FieldCond(f, op, rhs)), nil
	}
	return matcher.Compare(matcher.AttrCond(lhsName, op, rhs)), nil
}

func (p *Parser) parseCmpOp() (matcher.CmpOp, error) {
	var op matcher.CmpOp
	switch p.tok.Kind {
	case TokEq:
		op = matcher.CmpEq
	case TokNe:
		op = matcher.CmpNe
	case TokLt:
		op = matcher.CmpLt
	case TokLe:
		op = matcher.CmpLe
	case TokGt:
		op = matcher.CmpGt
	case TokGe:
		op = matcher.CmpGe
	case TokRegexMatch:
		op = matcher.CmpRegex
	case TokRegexNotMatch:
		op = matcher.CmpNotRegex
	default:
		return 0, errf(p.tok.Pos, "expected a comparison operator, got %q", p.tok.Text)
	}
	return op, p.next()
}

// parseExpr handles '+'/'-', the lowest-precedence arithmetic level.
func (p *Parser) parseExpr() (*matcher.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPlus || p.tok.Kind == TokMinus {
		op := matcher.ExprAdd
		if p.tok.Kind == TokMinus {
			op = matcher.ExprSub
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = matcher.BinExpr(op, left, right)
	}
	return left, nil
}

// parseTerm handles '*'/'/'/'%', matching the grammar's `term` production.
func (p *Parser) parseTerm() (*matcher.Expression, error) {
	left, err := p.parseFactorExpr()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokStar || p.tok.Kind == TokSlash || p.tok.Kind == TokPercent {
		var op matcher.ExprOp
		switch p.tok.Kind {
		case TokStar:
			op = matcher.ExprMul
		case TokSlash:
			op = matcher.ExprDiv
		default:
			op = matcher.ExprMod
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseFactorExpr()
		if err != nil {
			return nil, err
		}
		left = matcher.BinExpr(op, left, right)
	}
	return left, nil
}

func (p *Parser) parseFactorExpr() (*matcher.Expression, error) {
	switch p.tok.Kind {
	case TokString:
		v := sysdbval.NewString(p.tok.Text)
		if err := p.next(); err != nil {
			return nil, err
		}
		return matcher.ConstExpr(v), nil
	case TokInteger:
		n, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return nil, errf(p.tok.Pos, "invalid integer literal %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return matcher.ConstExpr(sysdbval.NewInteger(n)), nil
	case TokDecimal:
		f, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil {
			return nil, errf(p.tok.Pos, "invalid decimal literal %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return matcher.ConstExpr(sysdbval.NewDecimal(f)), nil
	case TokDateTime:
		v, err := sysdbval.ParseDateTime(p.tok.Text)
		if err != nil {
			return nil, errf(p.tok.Pos, "%v", err)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return matcher.ConstExpr(v), nil
	case TokLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case TokHost, TokService, TokMetric:
		if err := p.next(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokDot, "'.'"); err != nil {
			return nil, err
		}
		ident, err := p.expect(TokIdent, "a field or attribute name")
		if err != nil {
			return nil, err
		}
		return fieldOrAttrExpr(ident.Text), nil
	case TokIdent:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return fieldOrAttrExpr(name), nil
	default:
		return nil, errf(p.tok.Pos, "expected a literal, identifier, or '(', got %q", p.tok.Text)
	}
}

func fieldOrAttrExpr(name string) *matcher.Expression {
	if f, ok := fieldByIdent[name]; ok {
		return matcher.FieldExpr(f)
	}
	return matcher.AttrExpr(name)
}
