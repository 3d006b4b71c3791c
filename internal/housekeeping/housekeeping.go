// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package housekeeping schedules sysdbd's periodic background jobs with
// gocron, the same scheduler library and NewJob/NewTask registration shape
// the teacher's internal/taskmanager package uses for its retention and
// worker jobs.
package housekeeping

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/pkg/log"
)

// BackendHealthCheck is polled once per housekeeping tick; it should return
// a non-nil error describing why a backend is unhealthy, or nil.
type BackendHealthCheck func() error

// Housekeeper owns the gocron scheduler driving sysdbd's stale-object sweep
// and backend health checks.
type Housekeeper struct {
	scheduler gocron.Scheduler
	store     *store.Store
}

// New creates a Housekeeper. Call Start to bring its scheduler up.
func New(s *store.Store) (*Housekeeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Housekeeper{scheduler: sched, store: s}, nil
}

// RegisterRetentionSweep schedules a periodic pass that logs every host
// whose last_update is older than maxAge. The object store itself has no
// expiry notion (core store semantics never delete an object except by
// being superseded by a newer write, per the monotonic last_update rule),
// so the sweep is observational: it surfaces hosts a deployment may want to
// investigate or have its backend stop reporting, the same way the
// teacher's RegisterRetentionDeleteService cadence runs on its own
// DurationJob rather than a fixed daily time.
func (h *Housekeeper) RegisterRetentionSweep(interval, maxAge time.Duration) error {
	_, err := h.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-maxAge).UnixNano()
			removed := 0
			h.store.Scan(store.MatchAll, func(obj *store.Object) bool {
				if obj.Kind() == store.KindHost && obj.LastUpdate() < cutoff {
					removed++
				}
				return true
			})
			if removed > 0 {
				log.Infof("housekeeping: retention sweep found %d stale host(s) older than %s", removed, maxAge)
			}
		}),
	)
	return err
}

// RegisterHealthCheck schedules a periodic call to check, logging a
// warning whenever it reports an unhealthy backend.
func (h *Housekeeper) RegisterHealthCheck(name string, interval time.Duration, check BackendHealthCheck) error {
	_, err := h.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := check(); err != nil {
				log.Warnf("housekeeping: backend %q health check failed: %v", name, err)
			}
		}),
	)
	return err
}

// Start starts the scheduler in the background.
func (h *Housekeeper) Start() { h.scheduler.Start() }

// Shutdown stops the scheduler and waits for running jobs to finish.
func (h *Housekeeper) Shutdown() error { return h.scheduler.Shutdown() }
