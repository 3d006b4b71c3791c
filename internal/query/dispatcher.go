// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"

	"github.com/sysdb/sysdbd/internal/protocol"
	"github.com/sysdb/sysdbd/internal/queryparser"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/pkg/log"
)

// ProtocolVersion is the HELLO negotiation version this daemon speaks.
const ProtocolVersion byte = 1

// Dispatcher adapts the object store and query language front-end to
// protocol.Dispatcher: one Dispatch call handles exactly one client frame,
// writing whatever DATA/LOG frames the command produces followed by a
// single terminating OK (or an ERROR, surfaced by returning an error so
// protocol.Conn.Handle writes it).
type Dispatcher struct {
	Store       *store.Store
	DisplayName string
}

// NewDispatcher returns a Dispatcher backed by s.
func NewDispatcher(s *store.Store, displayName string) *Dispatcher {
	return &Dispatcher{Store: s, DisplayName: displayName}
}

func (d *Dispatcher) Dispatch(conn *protocol.Conn, frame protocol.Frame) error {
	switch frame.Type {
	case protocol.MsgHello:
		return d.handleHello(conn, frame)
	case protocol.MsgPing:
		return conn.WriteOK()
	case protocol.MsgQuery, protocol.MsgFetch, protocol.MsgList, protocol.MsgLookup:
		return d.handleQuery(conn, frame)
	default:
		return fmt.Errorf("protocol: unexpected message type %d", frame.Type)
	}
}

// handleHello expects a one-byte protocol version followed by the client's
// display name, and replies OK if the version is supported.
func (d *Dispatcher) handleHello(conn *protocol.Conn, frame protocol.Frame) error {
	if len(frame.Body) < 1 {
		return fmt.Errorf("protocol: HELLO body too short")
	}
	if frame.Body[0] != ProtocolVersion {
		return fmt.Errorf("protocol: unsupported protocol version %d", frame.Body[0])
	}
	log.Debugf("sysdbd: HELLO from %q (%s)", frame.Body[1:], conn.Identity)
	return conn.WriteOK()
}

// handleQuery parses frame's body as one or more ';'-separated statements
// and executes each in turn, writing one DATA frame per statement. A
// parse or execution error aborts the whole batch; statements already
// written are not rolled back, matching the "errors reported through an
// error channel, not retried" design used throughout this daemon.
func (d *Dispatcher) handleQuery(conn *protocol.Conn, frame protocol.Frame) error {
	src := string(frame.Body)
	p, err := queryparser.NewParser(src)
	if err != nil {
		return err
	}
	q, err := p.ParseQuery()
	if err != nil {
		return err
	}

	for _, stmt := range q.Stmts {
		doc, err := Run(d.Store, stmt)
		if err != nil {
			return err
		}
		if err := conn.WriteData([]byte(doc)); err != nil {
			return err
		}
	}
	return conn.WriteOK()
}
