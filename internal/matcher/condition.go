// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matcher

import (
	"fmt"
	"time"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// CmpOp is a comparison operator relating the left side of a Condition to
// its right-hand expression.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
	CmpRegex
	CmpNotRegex
)

// ParseCmpOp maps the query grammar's comparison tokens to a CmpOp,
// mirroring the repository's toSnakeCase-style small literal-token mappers
// (see internal/repository/query.go's sort-order handling).
func ParseCmpOp(tok string) (CmpOp, error) {
	switch tok {
	case "=":
		return CmpEq, nil
	case "!=", "<>":
		return CmpNe, nil
	case "<":
		return CmpLt, nil
	case "<=":
		return CmpLe, nil
	case ">":
		return CmpGt, nil
	case ">=":
		return CmpGe, nil
	case "=~":
		return CmpRegex, nil
	case "!~":
		return CmpNotRegex, nil
	default:
		return 0, fmt.Errorf("matcher: unknown comparison operator %q", tok)
	}
}

func compare(op CmpOp, l, r sysdbval.Value) bool {
	switch op {
	case CmpRegex, CmpNotRegex:
		re := r.Regex
		if re == nil {
			// Allow a plain string on the right to be used as a regex
			// source too; the query grammar has no regex literal, so a
			// parsed "=~" comparison always carries a string here.
			compiled, err := sysdbval.NewRegex(r.Str)
			if err != nil {
				return false
			}
			re = compiled.Regex
		}
		matched := re.MatchString(l.Str)
		if op == CmpNotRegex {
			return !matched
		}
		return matched
	default:
		c := sysdbval.Compare(l, r)
		switch op {
		case CmpEq:
			return c == 0
		case CmpNe:
			return c != 0
		case CmpLt:
			return c < 0
		case CmpLe:
			return c <= 0
		case CmpGt:
			return c > 0
		case CmpGe:
			return c >= 0
		default:
			return false
		}
	}
}

// ConditionKind discriminates the two condition shapes the grammar
// supports: a named attribute compared to an expression, or a builtin
// field compared to an expression.
type ConditionKind int

const (
	ConditionAttr ConditionKind = iota
	ConditionField
)

// Condition is a single leaf comparison: either `<attr>[key] OP expr` or
// `<field> OP expr`.
type Condition struct {
	Kind  ConditionKind
	Attr  string
	Field store.Field
	Op    CmpOp
	RHS   *Expression
}

// AttrCond builds a condition comparing an attribute's value.
func AttrCond(attr string, op CmpOp, rhs *Expression) *Condition {
	return &Condition{Kind: ConditionAttr, Attr: attr, Op: op, RHS: rhs}
}

// FieldCond builds a condition comparing a builtin field.
func FieldCond(f store.Field, op CmpOp, rhs *Expression) *Condition {
	return &Condition{Kind: ConditionField, Field: f, Op: op, RHS: rhs}
}

// Eval reports whether cond holds for obj. An attribute condition whose
// named attribute does not exist on obj evaluates to false, not an error:
// "not-found compares false everywhere" (see Matcher.IsNull for the
// explicit existence check).
func (c *Condition) Eval(s *store.Store, obj *store.Object, now time.Time) bool {
	rhs := Eval(s, c.RHS, obj, now)
	switch c.Kind {
	case ConditionAttr:
		child, ok := s.GetChild(obj, store.KindAttribute, c.Attr)
		if !ok {
			return false
		}
		lhs, ok := s.GetField(child, store.FieldValue, now)
		if !ok {
			return false
		}
		return compare(c.Op, lhs, rhs)
	case ConditionField:
		lhs, ok := s.GetField(obj, c.Field, now)
		if !ok {
			return false
		}
		return compare(c.Op, lhs, rhs)
	default:
		return false
	}
}
