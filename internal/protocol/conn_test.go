// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = WriteFrame(client, MsgQuery, []byte("LIST hosts;"))
	}()

	frame, err := ReadFrame(server, 0)
	require.NoError(t, err)
	assert.Equal(t, MsgQuery, frame.Type)
	assert.Equal(t, "LIST hosts;", string(frame.Body))
}

func TestReadFrameRejectsOversizedBody(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = WriteFrame(client, MsgQuery, make([]byte, 128))
	}()

	_, err := ReadFrame(server, 64)
	require.Error(t, err)
	var oversized ErrOversizedBody
	require.ErrorAs(t, err, &oversized)
	assert.Equal(t, uint32(128), oversized.Declared)
	assert.Equal(t, uint32(64), oversized.Max)
}

type echoDispatcher struct{ calls int }

func (d *echoDispatcher) Dispatch(conn *Conn, frame Frame) error {
	d.calls++
	return conn.WriteOK()
}

type erroringDispatcher struct{}

func (erroringDispatcher) Dispatch(conn *Conn, frame Frame) error {
	return assert.AnError
}

func TestConnHandleDispatchesAndWritesOK(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := NewConn(server, "test-client", 0, 0)
	d := &echoDispatcher{}

	go func() {
		_ = WriteFrame(client, MsgPing, nil)
	}()

	// net.Pipe is unbuffered: Handle's reply write blocks until the client
	// reads it, so Handle runs in its own goroutine.
	results := make(chan HandleResult, 1)
	go func() { results <- conn.Handle(d) }()

	resp, err := ReadFrame(client, 0)
	require.NoError(t, err)

	result := <-results
	assert.Equal(t, ResultOpen, result)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, MsgOK, resp.Type)
}

func TestConnHandleReturnsEOFOnClosedConn(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	client.Close()

	conn := NewConn(server, "test-client", 0, 0)
	result := conn.Handle(&echoDispatcher{})
	assert.Equal(t, ResultEOF, result)
}

func TestConnHandleWritesErrorFrameOnDispatchFailure(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := NewConn(server, "test-client", 0, 0)

	go func() {
		_ = WriteFrame(client, MsgQuery, []byte("garbage"))
	}()

	results := make(chan HandleResult, 1)
	go func() { results <- conn.Handle(erroringDispatcher{}) }()

	resp, err := ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Equal(t, MsgError, resp.Type)

	result := <-results
	assert.Equal(t, ResultError, result)
}

func TestConnHandleRejectsOversizedFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := NewConn(server, "test-client", 32, 0)

	go func() {
		_ = WriteFrame(client, MsgQuery, make([]byte, 64))
	}()

	results := make(chan HandleResult, 1)
	go func() { results <- conn.Handle(&echoDispatcher{}) }()

	resp, err := ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Equal(t, MsgError, resp.Type)

	result := <-results
	assert.Equal(t, ResultError, result)
}
