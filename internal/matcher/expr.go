// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package matcher implements the store.Matcher interface as a small tagged
// expression/condition tree: the evaluator behind every scan filter and
// behind the query language's MATCHING and FILTER clauses.
//
// Rather than one Go type per operator (a class-per-node design the
// repository's own JobFilter→SQL builder avoids by testing one field at a
// time, see internal/repository/query.go BuildWhereClause), every node is
// one of a handful of tagged structs carrying a small, explicit operator
// enum, evaluated by a single switch. The store's single Object carrier
// (see internal/store/object.go) gets the same treatment for the same
// reason: fewer types, one evaluation site per concern.
package matcher

import (
	"time"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// ExprOp is the set of binary arithmetic operators an Expression can apply.
type ExprOp int

const (
	ExprConst ExprOp = iota
	ExprFieldRef
	ExprAttrRef
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
	ExprMod
	ExprConcat
)

// Expression evaluates to a sysdbval.Value given an object (and, for
// attribute references, an attribute lookup against that object's
// children). It mirrors the grammar's expr production: a constant, a field
// reference (<name>), an attribute reference (<name>[<key>]), or a binary
// operator applied to two sub-expressions.
type Expression struct {
	Op    ExprOp
	Const sysdbval.Value
	Field store.Field   // valid when Op == ExprFieldRef
	Attr  string         // valid when Op == ExprAttrRef
	Left  *Expression
	Right *Expression
}

// ConstExpr wraps a literal value.
func ConstExpr(v sysdbval.Value) *Expression { return &Expression{Op: ExprConst, Const: v} }

// FieldExpr references one of an object's builtin fields.
func FieldExpr(f store.Field) *Expression { return &Expression{Op: ExprFieldRef, Field: f} }

// AttrExpr references one of an object's attributes by key.
func AttrExpr(key string) *Expression { return &Expression{Op: ExprAttrRef, Attr: key} }

// BinExpr builds a binary-operator expression node.
func BinExpr(op ExprOp, l, r *Expression) *Expression {
	return &Expression{Op: op, Left: l, Right: r}
}

var arithByOp = map[ExprOp]sysdbval.BinOp{
	ExprAdd:    sysdbval.OpAdd,
	ExprSub:    sysdbval.OpSub,
	ExprMul:    sysdbval.OpMul,
	ExprDiv:    sysdbval.OpDiv,
	ExprMod:    sysdbval.OpMod,
	ExprConcat: sysdbval.OpConcat,
}

// Eval resolves e against obj using s for field/attribute lookups. A field
// or attribute reference that does not resolve evaluates to sysdbval.Null,
// matching the rest of the value system's type-mismatch-to-Null behavior
// rather than propagating an error through the whole tree.
func Eval(s *store.Store, e *Expression, obj *store.Object, now time.Time) sysdbval.Value {
	switch e.Op {
	case ExprConst:
		return e.Const
	case ExprFieldRef:
		v, ok := s.GetField(obj, e.Field, now)
		if !ok {
			return sysdbval.Null
		}
		return v
	case ExprAttrRef:
		child, ok := s.GetChild(obj, store.KindAttribute, e.Attr)
		if !ok {
			return sysdbval.Null
		}
		v, ok := s.GetField(child, store.FieldValue, now)
		if !ok {
			return sysdbval.Null
		}
		return v
	default:
		l := Eval(s, e.Left, obj, now)
		r := Eval(s, e.Right, obj, now)
		op, ok := arithByOp[e.Op]
		if !ok {
			return sysdbval.Null
		}
		return sysdbval.Arith(op, l, r)
	}
}
