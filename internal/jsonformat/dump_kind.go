// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jsonformat

import (
	"strings"
	"time"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// DumpObjectsOfKind renders every object of kind selected by sel as a flat
// JSON array, independent of which host it belongs to, with filter gating
// the attributes nested under each service or metric. Attributes and hosts
// have no further nesting here (a host-kind request is expected to go
// through DumpHosts instead, which nests its whole subtree).
//
// The traversal itself always uses store.MatchAll, not sel: Scan applies
// its filter at every level it descends through (a child is only visited
// if its parent also matched), which is right for a MATCHING clause on the
// object kind actually being walked, but wrong for kind here, since sel was
// built against kind's own fields and almost never matches the host or
// service ancestors Scan would otherwise insist on first. sel is applied
// by hand, only to objects of kind, once Scan hands them over unfiltered.
func DumpObjectsOfKind(s *store.Store, kind store.Kind, sel, filter store.Matcher) (string, error) {
	var b strings.Builder
	b.WriteString("[")
	first := true
	s.Scan(store.MatchAll, func(obj *store.Object) bool {
		if obj.Kind() != kind {
			return true
		}
		if sel != nil && !sel.Matches(obj) {
			return true
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString(renderObject(s, obj, filter))
		return true
	})
	b.WriteString("]")
	return b.String(), nil
}

// DumpOne renders a single, already-resolved object (as FETCH does) as a
// one-element JSON array.
func DumpOne(s *store.Store, obj *store.Object) (string, error) {
	return "[" + renderObject(s, obj, nil) + "]", nil
}

// renderObject writes obj's own fields plus, for services and metrics, its
// attributes array (each attribute gated by filter). It does not recurse
// into grandchildren.
func renderObject(s *store.Store, obj *store.Object, filter store.Matcher) string {
	fields := fieldsOf(s, obj)
	var b strings.Builder

	lu := time.Unix(0, fields.LastUpdate).Format("2006-01-02 15:04:05 -0700")
	interval := time.Duration(fields.Interval).String()
	b.WriteString(`{"name": `)
	b.WriteString(quoteJSON(fields.Name))
	b.WriteString(`, "last_update": `)
	b.WriteString(quoteJSON(lu))
	b.WriteString(`, "update_interval": `)
	b.WriteString(quoteJSON(interval))
	b.WriteString(`, "backends": [`)
	for i, be := range fields.Backends {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quoteJSON(be))
	}
	b.WriteString("]")

	switch obj.Kind() {
	case store.KindAttribute:
		if fields.Value != nil {
			b.WriteString(`, "value": `)
			b.WriteString(quoteJSON(sysdbval.Format(*fields.Value, sysdbval.DoubleQuoted)))
		}
	case store.KindService, store.KindMetric:
		b.WriteString(`, "attributes": [`)
		first := true
		for _, attr := range s.Children(obj, store.KindAttribute) {
			if filter != nil && !filter.Matches(attr) {
				continue
			}
			if !first {
				b.WriteString(",")
			}
			first = false
			b.WriteString(renderObject(s, attr, filter))
		}
		b.WriteString("]")
	}
	b.WriteString("}")
	return b.String()
}
