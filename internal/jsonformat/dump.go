// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jsonformat

import (
	"time"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/strbuf"
)

// DumpHosts writes a JSON document for every host in s selected by sel (a
// nil sel matches every host), each with its attributes, metrics (with
// their own attributes), and services (with their own attributes), every
// one of those children gated by filter (a nil filter keeps them all). sel
// and filter are kept apart deliberately: a MATCHING clause picks which
// hosts show up at all, while a FILTER clause only prunes the children of
// an already-selected host — a host-name predicate used as sel must never
// also be asked to judge a service or attribute child, or every child
// would be stripped out from under a matching host. It always produces a
// top-level array, since the number of matching hosts is not known up
// front.
func DumpHosts(s *store.Store, sel, filter store.Matcher) (string, error) {
	buf := strbuf.New(256)
	f := New(buf, true)

	var outerErr error
	s.Scan(sel, func(host *store.Object) bool {
		if host.Kind() != store.KindHost {
			return true
		}
		if err := dumpHost(f, s, host, filter); err != nil {
			outerErr = err
			return false
		}
		return true
	})
	if outerErr != nil {
		return "", outerErr
	}
	if err := f.Finish(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func dumpHost(f *Formatter, s *store.Store, host *store.Object, filter store.Matcher) error {
	if err := f.Push(store.KindHost, fieldsOf(s, host)); err != nil {
		return err
	}
	for _, attr := range s.Children(host, store.KindAttribute) {
		if filter != nil && !filter.Matches(attr) {
			continue
		}
		if err := f.Push(store.KindAttribute, fieldsOf(s, attr)); err != nil {
			return err
		}
	}
	for _, metric := range s.Children(host, store.KindMetric) {
		if filter != nil && !filter.Matches(metric) {
			continue
		}
		if err := f.Push(store.KindMetric, fieldsOf(s, metric)); err != nil {
			return err
		}
		for _, attr := range s.Children(metric, store.KindAttribute) {
			if filter != nil && !filter.Matches(attr) {
				continue
			}
			if err := f.Push(store.KindAttribute, fieldsOf(s, attr)); err != nil {
				return err
			}
		}
	}
	for _, svc := range s.Children(host, store.KindService) {
		if filter != nil && !filter.Matches(svc) {
			continue
		}
		if err := f.Push(store.KindService, fieldsOf(s, svc)); err != nil {
			return err
		}
		for _, attr := range s.Children(svc, store.KindAttribute) {
			if filter != nil && !filter.Matches(attr) {
				continue
			}
			if err := f.Push(store.KindAttribute, fieldsOf(s, attr)); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldsOf(s *store.Store, obj *store.Object) Fields {
	now := time.Now()
	name, _ := s.GetField(obj, store.FieldName, now)
	backends, _ := s.GetField(obj, store.FieldBackend, now)

	f := Fields{
		Name:       name.Str,
		LastUpdate: obj.LastUpdate(),
		Interval:   obj.Interval(),
	}
	f.Backends = make([]string, len(backends.Array))
	for i, v := range backends.Array {
		f.Backends[i] = v.Str
	}
	if obj.Kind() == store.KindAttribute {
		v := obj.Value()
		f.Value = &v
	}
	return f
}
