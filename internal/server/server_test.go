// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/sysdb/sysdbd/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDispatcher struct{ hits chan string }

func (d *countingDispatcher) Dispatch(conn *protocol.Conn, frame protocol.Frame) error {
	d.hits <- string(frame.Body)
	return conn.WriteOK()
}

func TestServeAcceptsOnUnixSocketAndDispatches(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "sysdb.sock")
	d := &countingDispatcher{hits: make(chan string, 1)}
	srv := New(Config{
		Listeners: []ListenAddr{{Network: "unix", Address: sock}},
		Workers:   2,
	}, d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := net.Dial("unix", sock)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.WriteFrame(conn, protocol.MsgPing, []byte("ping")))

	select {
	case body := <-d.hits:
		assert.Equal(t, "ping", body)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never received a frame")
	}

	resp, err := protocol.ReadFrame(conn, 0)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgOK, resp.Type)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	srv := New(Config{
		Listeners: []ListenAddr{{Network: "bogus-network", Address: "x"}},
	}, &countingDispatcher{hits: make(chan string, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := srv.Serve(ctx)
	assert.Error(t, err)
}
