// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matcher

import (
	"time"

	"github.com/sysdb/sysdbd/internal/store"
)

// Kind discriminates the Matcher variants.
type Kind int

const (
	KindNameMatch Kind = iota
	KindAttrValueMatch
	KindIsNull
	KindCompare
	KindAnd
	KindOr
	KindNot
	KindAnyService
	KindAnyMetric
	KindAnyAttribute
	KindAllService
	KindAllMetric
	KindAllAttribute
)

// Matcher is a tagged variant tree implementing store.Matcher: it decides
// whether a single store.Object satisfies a boolean predicate built from
// the query language's MATCHING clause.
//
// Every node carries only the fields its Kind uses; unused fields are left
// at their zero value, following the same single-struct-plus-discriminator
// shape as store.Object and matcher.Expression.
type Matcher struct {
	kind Kind

	// KindNameMatch / KindAttrValueMatch
	name *Condition

	// KindIsNull
	attr string

	// KindCompare
	cond *Condition

	// KindAnd / KindOr: evaluated in order, short-circuiting.
	operands []*Matcher

	// KindNot
	operand *Matcher

	// KindAnyService / KindAnyMetric / KindAnyAttribute: at least one child
	// of the given kind must itself satisfy sub.
	sub *Matcher

	s *store.Store
}

// bind is called once by the query layer after parsing, to attach the store
// a Matcher tree will evaluate against (field/attribute lookups need it).
func (m *Matcher) bind(s *store.Store) {
	m.s = s
	for _, o := range m.operands {
		o.bind(s)
	}
	if m.operand != nil {
		m.operand.bind(s)
	}
	if m.sub != nil {
		m.sub.bind(s)
	}
}

// Bind attaches s to every node of the tree rooted at m. Call once before
// the Matcher is used as a store.Matcher.
func Bind(m *Matcher, s *store.Store) *Matcher {
	m.bind(s)
	return m
}

// NameMatch builds a matcher that compares an object's canonical name.
func NameMatch(op CmpOp, rhs *Expression) *Matcher {
	return &Matcher{kind: KindNameMatch, name: FieldCond(store.FieldName, op, rhs)}
}

// AttrValueMatch builds a matcher comparing the value of a named attribute.
func AttrValueMatch(attr string, op CmpOp, rhs *Expression) *Matcher {
	return &Matcher{kind: KindAttrValueMatch, name: AttrCond(attr, op, rhs)}
}

// IsNull builds a matcher checking that a named attribute does not exist
// on the object (distinct from a Condition's not-found-compares-false: this
// is the explicit existence test the grammar's "IS NULL" exposes).
func IsNull(attr string) *Matcher {
	return &Matcher{kind: KindIsNull, attr: attr}
}

// Compare builds a matcher around an arbitrary field/attribute condition.
func Compare(cond *Condition) *Matcher {
	return &Matcher{kind: KindCompare, cond: cond}
}

// And builds a matcher satisfied when every operand is.
func And(operands ...*Matcher) *Matcher {
	return &Matcher{kind: KindAnd, operands: operands}
}

// Or builds a matcher satisfied when any operand is.
func Or(operands ...*Matcher) *Matcher {
	return &Matcher{kind: KindOr, operands: operands}
}

// Not negates operand.
func Not(operand *Matcher) *Matcher {
	return &Matcher{kind: KindNot, operand: operand}
}

// AnyService builds a matcher satisfied when at least one of the host's
// services satisfies sub.
func AnyService(sub *Matcher) *Matcher { return &Matcher{kind: KindAnyService, sub: sub} }

// AnyMetric builds a matcher satisfied when at least one of the host's
// metrics satisfies sub.
func AnyMetric(sub *Matcher) *Matcher { return &Matcher{kind: KindAnyMetric, sub: sub} }

// AnyAttribute builds a matcher satisfied when at least one of the object's
// attributes satisfies sub.
func AnyAttribute(sub *Matcher) *Matcher { return &Matcher{kind: KindAnyAttribute, sub: sub} }

// AllService builds a matcher satisfied when every one of the host's
// services satisfies sub (vacuously true if the host has none).
func AllService(sub *Matcher) *Matcher { return &Matcher{kind: KindAllService, sub: sub} }

// AllMetric builds a matcher satisfied when every one of the host's metrics
// satisfies sub (vacuously true if the host has none).
func AllMetric(sub *Matcher) *Matcher { return &Matcher{kind: KindAllMetric, sub: sub} }

// AllAttribute builds a matcher satisfied when every one of the object's
// attributes satisfies sub (vacuously true if the object has none).
func AllAttribute(sub *Matcher) *Matcher { return &Matcher{kind: KindAllAttribute, sub: sub} }

// Matches implements store.Matcher. A Matcher built without Bind panics;
// every tree handed to store.Scan must be Bind-ed first.
func (m *Matcher) Matches(obj *store.Object) bool {
	if m.s == nil {
		panic("matcher: Matches called before Bind")
	}
	return m.eval(obj, time.Now())
}

func (m *Matcher) eval(obj *store.Object, now time.Time) bool {
	switch m.kind {
	case KindNameMatch, KindAttrValueMatch:
		return m.name.Eval(m.s, obj, now)
	case KindIsNull:
		_, ok := m.s.GetChild(obj, store.KindAttribute, m.attr)
		return !ok
	case KindCompare:
		return m.cond.Eval(m.s, obj, now)
	case KindAnd:
		for _, o := range m.operands {
			if !o.eval(obj, now) {
				return false
			}
		}
		return true
	case KindOr:
		for _, o := range m.operands {
			if o.eval(obj, now) {
				return true
			}
		}
		return false
	case KindNot:
		return !m.operand.eval(obj, now)
	case KindAnyService:
		return anyChild(m.s, obj, store.KindService, m.sub, now)
	case KindAnyMetric:
		return anyChild(m.s, obj, store.KindMetric, m.sub, now)
	case KindAnyAttribute:
		return anyChild(m.s, obj, store.KindAttribute, m.sub, now)
	case KindAllService:
		return allChild(m.s, obj, store.KindService, m.sub, now)
	case KindAllMetric:
		return allChild(m.s, obj, store.KindMetric, m.sub, now)
	case KindAllAttribute:
		return allChild(m.s, obj, store.KindAttribute, m.sub, now)
	default:
		return false
	}
}

func anyChild(s *store.Store, obj *store.Object, kind store.Kind, sub *Matcher, now time.Time) bool {
	for _, child := range s.Children(obj, kind) {
		if sub.eval(child, now) {
			return true
		}
	}
	return false
}

func allChild(s *store.Store, obj *store.Object, kind store.Kind, sub *Matcher, now time.Time) bool {
	for _, child := range s.Children(obj, kind) {
		if !sub.eval(child, now) {
			return false
		}
	}
	return true
}
