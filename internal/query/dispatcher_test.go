// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"net"
	"testing"

	"github.com/sysdb/sysdbd/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherHandlesHelloPingAndQuery(t *testing.T) {
	s := buildStore(t)
	d := NewDispatcher(s, "test-daemon")

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	conn := protocol.NewConn(server, "peer", 0, 0)

	// net.Pipe is unbuffered: Handle's reply writes block until the client
	// reads them, so each Handle call runs in its own goroutine.
	results := make(chan protocol.HandleResult, 1)

	go func() {
		_ = protocol.WriteFrame(client, protocol.MsgHello, append([]byte{1}, []byte("sysdb-cli")...))
	}()
	go func() { results <- conn.Handle(d) }()
	resp, err := protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOpen, <-results)
	assert.Equal(t, protocol.MsgOK, resp.Type)

	go func() {
		_ = protocol.WriteFrame(client, protocol.MsgPing, nil)
	}()
	go func() { results <- conn.Handle(d) }()
	resp, err = protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOpen, <-results)
	assert.Equal(t, protocol.MsgOK, resp.Type)

	go func() {
		_ = protocol.WriteFrame(client, protocol.MsgQuery, []byte("LIST hosts;"))
	}()
	go func() { results <- conn.Handle(d) }()
	data, err := protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgData, data.Type)
	ok, err := protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOpen, <-results)
	assert.Equal(t, protocol.MsgOK, ok.Type)
}

func TestDispatcherRejectsBadHelloVersion(t *testing.T) {
	d := NewDispatcher(buildStore(t), "test-daemon")
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	conn := protocol.NewConn(server, "peer", 0, 0)

	go func() {
		_ = protocol.WriteFrame(client, protocol.MsgHello, []byte{99})
	}()
	results := make(chan protocol.HandleResult, 1)
	go func() { results <- conn.Handle(d) }()
	resp, err := protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultError, <-results)
	assert.Equal(t, protocol.MsgError, resp.Type)
}

func TestDispatcherSurfacesParseErrorAsError(t *testing.T) {
	d := NewDispatcher(buildStore(t), "test-daemon")
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	conn := protocol.NewConn(server, "peer", 0, 0)

	go func() {
		_ = protocol.WriteFrame(client, protocol.MsgQuery, []byte("NOT A VALID STATEMENT"))
	}()
	results := make(chan protocol.HandleResult, 1)
	go func() { results <- conn.Handle(d) }()
	resp, err := protocol.ReadFrame(client, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultError, <-results)
	assert.Equal(t, protocol.MsgError, resp.Type)
}
