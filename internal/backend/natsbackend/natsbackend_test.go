// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package natsbackend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdb/sysdbd/internal/store"
)

func TestHandleMessageCreatesMetricAndAttributes(t *testing.T) {
	s := store.New()
	b := New(Config{URL: "nats://unused", Subject: "metrics"}, s, nil)

	line := "cpu_load,host=node01 value=1.5,cores=4i 1700000000000000000\n"
	require.NoError(t, b.handleMessage(context.Background(), []byte(line)))

	host, ok := s.GetHost("node01")
	require.True(t, ok)
	metric, ok := s.GetChild(host, store.KindMetric, "cpu_load")
	require.True(t, ok)

	attr, ok := s.GetChild(metric, store.KindAttribute, "value")
	require.True(t, ok)
	assert.Equal(t, 1.5, attr.Value().Decimal)

	cores, ok := s.GetChild(metric, store.KindAttribute, "cores")
	require.True(t, ok)
	assert.Equal(t, float64(4), cores.Value().Decimal)
}

func TestHandleMessageRoutesServiceTag(t *testing.T) {
	s := store.New()
	b := New(Config{URL: "nats://unused", Subject: "metrics"}, s, nil)

	line := "uptime,host=node01,service=sshd value=99.0 1700000000000000000\n"
	require.NoError(t, b.handleMessage(context.Background(), []byte(line)))

	host, ok := s.GetHost("node01")
	require.True(t, ok)
	svc, ok := s.GetChild(host, store.KindService, "sshd")
	require.True(t, ok)
	_, ok = s.GetChild(svc, store.KindAttribute, "value")
	require.True(t, ok)
}

func TestHandleMessageRejectsLineWithoutHostTag(t *testing.T) {
	s := store.New()
	b := New(Config{URL: "nats://unused", Subject: "metrics"}, s, nil)

	err := b.handleMessage(context.Background(), []byte("cpu_load value=1.5 1700000000000000000\n"))
	assert.Error(t, err)
}
