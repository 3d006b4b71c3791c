// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/sysdb/sysdbd/internal/avltree"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// Field names the per-object properties retrievable via GetField, shared
// across all four object kinds (some fields are meaningless for a given
// kind and return an error).
type Field int

const (
	FieldName Field = iota
	FieldLastUpdate
	FieldInterval
	FieldAge
	FieldBackend
	FieldValue
)

// GetHost looks up a host by name. The returned Object's lock-free
// accessors remain safe to call after the store's lock is released; callers
// that need a stable snapshot across multiple fields should hold the
// returned pointer and call Acquire/Release around their use (see
// Object.Acquire).
func (s *Store) GetHost(name string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hosts.Lookup(canonicalize(name))
}

// GetChild looks up a direct child of obj by kind and name (service, metric,
// or attribute of a host; attribute of a service or metric).
func (s *Store) GetChild(obj *Object, kind Kind, name string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := obj.childIndex(kind)
	if idx == nil {
		return nil, false
	}
	return idx.Lookup(canonicalize(name))
}

// Children returns every direct child of obj of the given kind, in
// ascending name order. Used by the matcher package to evaluate
// AnyService/AnyMetric/AnyAttribute without exposing the object's internal
// AVL trees directly.
func (s *Store) Children(obj *Object, kind Kind) []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := obj.childIndex(kind)
	if idx == nil {
		return nil
	}
	children := make([]*Object, 0, idx.Size())
	it := avltree.GetIter(idx)
	defer it.Destroy()
	for it.HasNext() {
		c, _ := it.GetNext()
		children = append(children, c)
	}
	return children
}

// GetField reads a single field of obj as a sysdbval.Value, computing Age
// relative to now. Fields not meaningful for obj's kind return
// (sysdbval.Value{}, false) — the caller should treat a false ok as Null,
// not read the zero Value directly.
func (s *Store) GetField(obj *Object, f Field, now time.Time) (sysdbval.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getFieldLocked(obj, f, now)
}

func getFieldLocked(obj *Object, f Field, now time.Time) (sysdbval.Value, bool) {
	switch f {
	case FieldName:
		return sysdbval.NewString(obj.name), true
	case FieldLastUpdate:
		return sysdbval.NewDateTime(obj.lastUpdate), true
	case FieldInterval:
		return sysdbval.NewDateTime(obj.interval), true
	case FieldAge:
		return sysdbval.NewDateTime(now.UnixNano() - obj.lastUpdate), true
	case FieldBackend:
		return sysdbval.NewStringArray(obj.backends), true
	case FieldValue:
		if obj.kind != KindAttribute {
			return sysdbval.Null, false
		}
		return obj.value, true
	default:
		return sysdbval.Null, false
	}
}
