// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "github.com/sysdb/sysdbd/internal/avltree"

// Matcher decides whether obj should be included in a scan. It is defined
// here, not in the matcher package, so that store never imports matcher:
// the matcher package imports store (it needs Object/Kind/Field) and
// implements this interface, not the other way around.
type Matcher interface {
	Matches(obj *Object) bool
}

// MatchAll is the zero-cost Matcher that accepts everything; used when a
// scan has no filter clause.
var MatchAll Matcher = matchAll{}

type matchAll struct{}

func (matchAll) Matches(*Object) bool { return true }

// ScanFunc is called once per matching object during a Scan. Returning
// false stops the scan early.
type ScanFunc func(obj *Object) bool

// Scan walks every host and, for hosts that satisfy filter, descends into
// their services, metrics, and attributes, calling visit for every object
// (of any kind) that itself satisfies filter. The filter is evaluated at
// every level — a service is visited only if it matches AND its host
// matched, matching the "filters are conjoined at every sub-evaluation"
// semantics.
//
// Scan takes the store's read lock only long enough to copy the host/child
// hierarchy it is about to walk; filter.Matches and visit are then called
// with no lock held. Both routinely call back into the Store themselves
// (matcher.Matcher.eval reads fields and children via s.GetField/s.Children,
// and jsonformat's dump callbacks do the same) — holding the lock across
// them would deadlock the moment a writer's Lock() queued behind the held
// RLock, since sync.RWMutex does not allow a reader to re-enter under a
// pending writer. The snapshot is a shallow copy of object pointers, not a
// deep copy of their fields, so it's cheap; the objects themselves remain
// safe to read after the snapshot per Object's own "safe after lock
// release" contract.
func (s *Store) Scan(filter Matcher, visit ScanFunc) {
	if filter == nil {
		filter = MatchAll
	}
	for _, h := range s.snapshotHosts() {
		if !filter.Matches(h.self) {
			continue
		}
		if !visit(h.self) {
			return
		}
		if !scanSnapshot(h.services, filter, visit) {
			return
		}
		if !scanSnapshot(h.metrics, filter, visit) {
			return
		}
		if !scanFlat(h.attributes, filter, visit) {
			return
		}
	}
}

// hostSnapshot is the per-host slice of object pointers Scan walks without
// holding the store's lock.
type hostSnapshot struct {
	self       *Object
	services   []childSnapshot
	metrics    []childSnapshot
	attributes []*Object
}

// childSnapshot pairs a service or metric with its own attribute children.
type childSnapshot struct {
	self       *Object
	attributes []*Object
}

func (s *Store) snapshotHosts() []hostSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hostSnapshot, 0, s.hosts.Size())
	it := avltree.GetIter(&s.hosts)
	defer it.Destroy()
	for it.HasNext() {
		h, _ := it.GetNext()
		out = append(out, hostSnapshot{
			self:       h,
			services:   snapshotChildren(h.services),
			metrics:    snapshotChildren(h.metrics),
			attributes: snapshotFlat(h.attributes),
		})
	}
	return out
}

func snapshotChildren(index *avltree.Tree[*Object]) []childSnapshot {
	if index == nil {
		return nil
	}
	out := make([]childSnapshot, 0, index.Size())
	it := avltree.GetIter(index)
	defer it.Destroy()
	for it.HasNext() {
		c, _ := it.GetNext()
		out = append(out, childSnapshot{self: c, attributes: snapshotFlat(c.attributes)})
	}
	return out
}

func snapshotFlat(index *avltree.Tree[*Object]) []*Object {
	if index == nil {
		return nil
	}
	out := make([]*Object, 0, index.Size())
	it := avltree.GetIter(index)
	defer it.Destroy()
	for it.HasNext() {
		c, _ := it.GetNext()
		out = append(out, c)
	}
	return out
}

// scanSnapshot visits every child that satisfies filter (and, in turn, its
// own attribute children). Returns false if visit asked to stop early.
func scanSnapshot(children []childSnapshot, filter Matcher, visit ScanFunc) bool {
	for _, c := range children {
		if !filter.Matches(c.self) {
			continue
		}
		if !visit(c.self) {
			return false
		}
		if !scanFlat(c.attributes, filter, visit) {
			return false
		}
	}
	return true
}

func scanFlat(objs []*Object, filter Matcher, visit ScanFunc) bool {
	for _, o := range objs {
		if !filter.Matches(o) {
			continue
		}
		if !visit(o) {
			return false
		}
	}
	return true
}
