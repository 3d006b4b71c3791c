// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	ConnectionsTotal.Add(1)
	QueriesTotal.WithLabelValues("LIST", "ok").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "sysdbd_connections_total")
	assert.Contains(t, body, "sysdbd_queries_total")
}

func TestTimerObservesDuration(t *testing.T) {
	timer := NewTimer()
	timer.ObserveDuration(QueryDuration, "LIST")
}
