// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdb/sysdbd/internal/store"
)

func TestHealthzReportsOK(t *testing.T) {
	s := store.New()
	api := New(NewStoreProvider(s))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestStatusReportsObjectCounts(t *testing.T) {
	s := store.New()
	s.StoreHost("node01", 1, 0, "test")
	s.StoreService("node01", "sshd", 1, 0, "test")
	api := New(NewStoreProvider(s))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Uptime  string         `json:"uptime"`
		Objects map[string]int `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Objects["host"])
	assert.Equal(t, 1, body.Objects["service"])
}

func TestMetricsRouteIsMounted(t *testing.T) {
	s := store.New()
	api := New(NewStoreProvider(s))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
