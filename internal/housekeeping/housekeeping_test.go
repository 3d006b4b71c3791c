// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package housekeeping

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdb/sysdbd/internal/store"
)

func TestRegisterRetentionSweepRunsWithoutError(t *testing.T) {
	s := store.New()
	s.StoreHost("node01", 1, 0, "test")

	h, err := New(s)
	require.NoError(t, err)
	require.NoError(t, h.RegisterRetentionSweep(50*time.Millisecond, time.Nanosecond))

	h.Start()
	time.Sleep(120 * time.Millisecond)
	assert.NoError(t, h.Shutdown())
}

func TestRegisterHealthCheckReportsFailure(t *testing.T) {
	s := store.New()
	h, err := New(s)
	require.NoError(t, err)

	calls := make(chan struct{}, 4)
	require.NoError(t, h.RegisterHealthCheck("test-backend", 30*time.Millisecond, func() error {
		calls <- struct{}{}
		return errors.New("unreachable")
	}))

	h.Start()
	select {
	case <-calls:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("health check never ran")
	}
	assert.NoError(t, h.Shutdown())
}
