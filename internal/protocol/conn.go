// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"errors"
	"io"
	"net"
	"time"
)

// HandleResult mirrors handle()'s three-way return: positive means the
// connection is still open (internal/server puts it back on its work
// queue), zero means an orderly EOF, negative means a protocol error
// (the connection must be closed either way).
type HandleResult int

const (
	ResultOpen  HandleResult = 1
	ResultEOF   HandleResult = 0
	ResultError HandleResult = -1
)

// Dispatcher handles one fully-read client frame and writes its response
// frame(s) back via conn. It is implemented by the query-execution layer
// (query.Dispatcher in internal/query), kept out of this package so
// protocol has no dependency on the store/matcher/queryparser stack.
type Dispatcher interface {
	Dispatch(conn *Conn, frame Frame) error
}

// Conn is one client connection's protocol-level state: identity, the
// underlying transport, and the read deadline policy. It does not know
// whether its transport is a Unix socket or a TLS-wrapped TCP socket —
// that distinction is resolved once, at accept time, by internal/server.
type Conn struct {
	Identity    string
	rw          net.Conn
	maxBodyLen  uint32
	readTimeout time.Duration
}

// NewConn wraps rw (already accepted) as a protocol connection identified
// by identity, a label chosen by the caller (see identityOf in
// internal/server for what the daemon passes).
func NewConn(rw net.Conn, identity string, maxBodyLen uint32, readTimeout time.Duration) *Conn {
	return &Conn{Identity: identity, rw: rw, maxBodyLen: maxBodyLen, readTimeout: readTimeout}
}

// WriteOK writes an empty OK frame.
func (c *Conn) WriteOK() error { return WriteFrame(c.rw, MsgOK, nil) }

// WriteError writes an ERROR frame carrying msg as UTF-8 text.
func (c *Conn) WriteError(msg string) error { return WriteFrame(c.rw, MsgError, []byte(msg)) }

// WriteLog writes a LOG frame: one severity byte followed by text.
func (c *Conn) WriteLog(sev Severity, msg string) error {
	body := append([]byte{byte(sev)}, []byte(msg)...)
	return WriteFrame(c.rw, MsgLog, body)
}

// WriteData writes a DATA frame carrying an arbitrary pre-encoded payload
// (either JSON text or a binary value per MarshalValue). DATA may be
// written multiple times before the terminating OK.
func (c *Conn) WriteData(body []byte) error { return WriteFrame(c.rw, MsgData, body) }

// Close closes the underlying transport.
func (c *Conn) Close() error { return c.rw.Close() }

// Handle reads exactly one frame and dispatches it via d. It is the unit
// of work a worker goroutine performs per channel receive (see
// internal/server): it must not loop reading further frames itself, so
// that a connection is never held by a worker longer than one command.
func (c *Conn) Handle(d Dispatcher) HandleResult {
	if c.readTimeout > 0 {
		_ = c.rw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	frame, err := ReadFrame(c.rw, c.maxBodyLen)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ResultEOF
		}
		var oversized ErrOversizedBody
		if errors.As(err, &oversized) {
			_ = c.WriteError(oversized.Error())
			return ResultError
		}
		return ResultError
	}

	if err := d.Dispatch(c, frame); err != nil {
		_ = c.WriteError(err.Error())
		return ResultError
	}
	return ResultOpen
}
