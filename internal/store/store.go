// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"sync"

	"github.com/sysdb/sysdbd/internal/avltree"
)

// Result is the uniform three-way discriminator used across every store
// writer: 0 is ok, positive is a benign non-update (a stale write), negative
// is an error (missing parent). It is paired with a human-readable message
// in the sibling return value, following the "result discriminator plus
// error buffer" pattern.
type Result int

const (
	ResultOK    Result = 0
	ResultStale Result = 1
	ResultError Result = -1
)

// Store is the top-level, concurrency-safe object store: an AVL tree of
// hosts behind a single reader/writer lock. There is no per-object locking;
// every mutation happens while the writer holds Store's lock exclusively,
// and every read happens while holding it (or a derived handle) shared.
type Store struct {
	mu    sync.RWMutex
	hosts avltree.Tree[*Object]
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Clear removes every host (and, transitively, every child) from the
// store. It is the only operation that destroys a host; per-host deletion
// does not exist.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts.Clear()
}

// createObject sets the initial last_update/interval/backend of a
// freshly-allocated object. Unlike applyUpdate, there is no prior timestamp
// to compute a delta against: the interval is whatever hint the caller
// supplied, or zero (unseeded) if none.
func createObject(obj *Object, ts int64, intervalHint int64, backend string) {
	obj.lastUpdate = ts
	if intervalHint != 0 {
		obj.interval = intervalHint
	}
	mergeBackend(obj, backend)
}

// applyUpdate folds a new observation into an already-existing object:
// monotonic last_update, exponentially smoothed interval, backend-list
// merge. It must be called with the store's write lock held. Returns
// ResultStale without modifying obj if ts is not strictly newer than
// obj.lastUpdate.
func applyUpdate(obj *Object, ts int64, intervalHint int64, backend string) Result {
	if ts <= obj.lastUpdate {
		return ResultStale
	}
	delta := ts - obj.lastUpdate
	switch {
	case intervalHint != 0:
		obj.interval = intervalHint
	case obj.interval == 0:
		// First observed delta: nothing to smooth against yet.
		obj.interval = delta
	default:
		obj.interval = (obj.interval*9 + delta) / 10
	}
	obj.lastUpdate = ts
	mergeBackend(obj, backend)
	return ResultOK
}

func mergeBackend(obj *Object, backend string) {
	if backend == "" {
		return
	}
	for _, b := range obj.backends {
		if b == backend {
			return
		}
	}
	obj.backends = append(obj.backends, backend)
}

// errf formats an error-result message, mirroring the teacher's
// fmt.Errorf-at-the-call-site style.
func errf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
