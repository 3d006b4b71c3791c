// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store implements the versioned, hierarchical in-memory object
// store: hosts, each with child services/metrics/attributes, keyed by
// canonical name in an AVL secondary index, guarded by a single
// reader/writer lock.
//
// Rather than a class hierarchy per object kind (design note: "dynamic
// dispatch across object subtypes"), every node in the tree is a single
// Object carrying a Kind discriminator; kind-specific fields are simply
// unused for the kinds that don't need them. Accessors that only make
// sense for one kind return an error for the others.
package store

import (
	"strings"
	"sync/atomic"

	"github.com/sysdb/sysdbd/internal/avltree"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// Kind discriminates the four store object types.
type Kind int

const (
	KindHost Kind = iota + 1
	KindService
	KindMetric
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindService:
		return "service"
	case KindMetric:
		return "metric"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// MetricDescriptor names the backing metric store for a Metric object (the
// type+id pair used by an external metric-sample driver; out of scope per
// §1, carried here only as an opaque reference).
type MetricDescriptor struct {
	StoreType string
	StoreID   string
}

// Object is the single carrier type for every node in the store: a host, a
// service, a metric, or an attribute.
type Object struct {
	kind Kind
	name string // already canonicalized (lowercase)

	lastUpdate int64 // ns since Unix epoch
	interval   int64 // ns, exponentially smoothed
	backends   []string

	refCount int32 // atomic; bookkeeping only, see Acquire/Release

	parent *Object

	// Host only.
	services, metrics, attributes *avltree.Tree[*Object]

	// Metric only.
	metricDesc *MetricDescriptor

	// Attribute only.
	value sysdbval.Value
}

// Name implements avltree.Named.
func (o *Object) Name() string { return o.name }

// Kind returns the object's discriminator.
func (o *Object) Kind() Kind { return o.kind }

// LastUpdate returns the last-update timestamp in nanoseconds since epoch.
func (o *Object) LastUpdate() int64 { return o.lastUpdate }

// Interval returns the smoothed update-interval estimate in nanoseconds.
func (o *Object) Interval() int64 { return o.interval }

// Backends returns the origin tags that have touched this object, in order
// of first appearance. The caller must not mutate the returned slice.
func (o *Object) Backends() []string { return o.backends }

// MetricDescriptor returns the backing metric store reference, or nil if
// this is not a Metric or none was set.
func (o *Object) MetricDescriptor() *MetricDescriptor { return o.metricDesc }

// Value returns the attribute's value. Only meaningful for KindAttribute.
func (o *Object) Value() sysdbval.Value { return o.value }

// Acquire increments the object's reference count. The store's own readers
// (GetHost, GetChild, Children, Scan) do not call it; the count changes
// only when a caller calls Acquire or Release.
func (o *Object) Acquire() { atomic.AddInt32(&o.refCount, 1) }

// Release decrements the reference count. A node detached from the tree by
// a concurrent Store.Clear remains readable (the Go garbage collector keeps
// it alive) until the holder's own pointer goes out of scope; Release exists
// so RefCount bookkeeping ("Refcount safety" in §8) can be verified in
// tests, not to trigger any actual deallocation.
func (o *Object) Release() { atomic.AddInt32(&o.refCount, -1) }

// RefCount returns the current reference count.
func (o *Object) RefCount() int32 { return atomic.LoadInt32(&o.refCount) }

func canonicalize(name string) string { return strings.ToLower(name) }

func newHost(name string) *Object {
	return &Object{
		kind:       KindHost,
		name:       canonicalize(name),
		services:   &avltree.Tree[*Object]{},
		metrics:    &avltree.Tree[*Object]{},
		attributes: &avltree.Tree[*Object]{},
	}
}

func newService(parent *Object, name string) *Object {
	return &Object{
		kind:       KindService,
		name:       canonicalize(name),
		parent:     parent,
		attributes: &avltree.Tree[*Object]{},
	}
}

func newMetric(parent *Object, name string) *Object {
	return &Object{
		kind:       KindMetric,
		name:       canonicalize(name),
		parent:     parent,
		attributes: &avltree.Tree[*Object]{},
	}
}

func newAttribute(parent *Object, name string, value sysdbval.Value) *Object {
	return &Object{
		kind:   KindAttribute,
		name:   canonicalize(name),
		parent: parent,
		value:  value,
	}
}

// childIndex returns the AVL tree a host uses to index children of kind k,
// or nil if k is not a valid host child kind.
func (o *Object) childIndex(k Kind) *avltree.Tree[*Object] {
	switch k {
	case KindService:
		return o.services
	case KindMetric:
		return o.metrics
	case KindAttribute:
		return o.attributes
	default:
		return nil
	}
}
