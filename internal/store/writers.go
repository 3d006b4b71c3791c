// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "github.com/sysdb/sysdbd/internal/sysdbval"

// StoreHost creates or refreshes a host. Hosts are the only object kind with
// no parent, so this is the only writer that never fails with a missing-
// parent error.
func (s *Store) StoreHost(name string, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := canonicalize(name)
	if h, ok := s.hosts.Lookup(key); ok {
		return applyUpdate(h, ts, intervalHint, backend), ""
	}
	h := newHost(name)
	createObject(h, ts, intervalHint, backend)
	if err := s.hosts.Insert(h); err != nil {
		// Lost a race between Lookup and Insert is impossible under the
		// store's single write lock; a duplicate here would mean a bug.
		return ResultError, errf("store_host(%s): %v", name, err)
	}
	return ResultOK, ""
}

// StoreService creates or refreshes a service under an existing host.
func (s *Store) StoreService(host, name string, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts.Lookup(canonicalize(host))
	if !ok {
		return ResultError, errf("store_service(%s, %s): host does not exist", host, name)
	}
	key := canonicalize(name)
	if svc, ok := h.services.Lookup(key); ok {
		return applyUpdate(svc, ts, intervalHint, backend), ""
	}
	svc := newService(h, name)
	createObject(svc, ts, intervalHint, backend)
	if err := h.services.Insert(svc); err != nil {
		return ResultError, errf("store_service(%s, %s): %v", host, name, err)
	}
	return ResultOK, ""
}

// StoreMetric creates or refreshes a metric under an existing host.
func (s *Store) StoreMetric(host, name string, desc *MetricDescriptor, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts.Lookup(canonicalize(host))
	if !ok {
		return ResultError, errf("store_metric(%s, %s): host does not exist", host, name)
	}
	key := canonicalize(name)
	if m, ok := h.metrics.Lookup(key); ok {
		res := applyUpdate(m, ts, intervalHint, backend)
		if res != ResultStale && desc != nil {
			m.metricDesc = desc
		}
		return res, ""
	}
	m := newMetric(h, name)
	m.metricDesc = desc
	createObject(m, ts, intervalHint, backend)
	if err := h.metrics.Insert(m); err != nil {
		return ResultError, errf("store_metric(%s, %s): %v", host, name, err)
	}
	return ResultOK, ""
}

// StoreAttribute creates or refreshes a host attribute.
func (s *Store) StoreAttribute(host, key string, value sysdbval.Value, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts.Lookup(canonicalize(host))
	if !ok {
		return ResultError, errf("store_attribute(%s, %s): host does not exist", host, key)
	}
	return storeAttr(h, key, value, ts, intervalHint, backend)
}

// StoreServiceAttr creates or refreshes an attribute of a service.
func (s *Store) StoreServiceAttr(host, service, key string, value sysdbval.Value, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts.Lookup(canonicalize(host))
	if !ok {
		return ResultError, errf("store_service_attr(%s, %s, %s): host does not exist", host, service, key)
	}
	svc, ok := h.services.Lookup(canonicalize(service))
	if !ok {
		return ResultError, errf("store_service_attr(%s, %s, %s): service does not exist", host, service, key)
	}
	return storeAttr(svc, key, value, ts, intervalHint, backend)
}

// StoreMetricAttr creates or refreshes an attribute of a metric.
func (s *Store) StoreMetricAttr(host, metric, key string, value sysdbval.Value, ts int64, intervalHint int64, backend string) (Result, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts.Lookup(canonicalize(host))
	if !ok {
		return ResultError, errf("store_metric_attr(%s, %s, %s): host does not exist", host, metric, key)
	}
	m, ok := h.metrics.Lookup(canonicalize(metric))
	if !ok {
		return ResultError, errf("store_metric_attr(%s, %s, %s): metric does not exist", host, metric, key)
	}
	return storeAttr(m, key, value, ts, intervalHint, backend)
}

// storeAttr creates-or-refreshes a scalar attribute on any parent object
// (host, service, or metric), overwriting the value on refresh only if the
// update is not stale: §3 requires a stale write (new_ts <= current_ts) to
// leave the existing payload untouched.
func storeAttr(parent *Object, key string, value sysdbval.Value, ts int64, intervalHint int64, backend string) (Result, string) {
	k := canonicalize(key)
	if a, ok := parent.attributes.Lookup(k); ok {
		res := applyUpdate(a, ts, intervalHint, backend)
		if res != ResultStale {
			a.value = value
		}
		return res, ""
	}
	a := newAttribute(parent, key, value)
	createObject(a, ts, intervalHint, backend)
	if err := parent.attributes.Insert(a); err != nil {
		return ResultError, errf("store_attribute(%s): %v", key, err)
	}
	return ResultOK, ""
}
