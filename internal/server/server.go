// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package server implements the multi-listener connection front-end: it
// accepts on any number of Unix or TCP(+TLS) addresses, queues accepted
// connections onto a bounded channel, and hands them to a fixed pool of
// worker goroutines that each process one command per turn and then put
// the connection back on the same channel. There is no separate idle list:
// the worker that next receives an open connection blocks reading its next
// frame (bounded only by ReadTimeout, when set), so an idle connection
// occupies a worker while it waits.
//
// This mirrors the accept/serve/shutdown shape of the teacher's HTTP
// server (see the original server.go's net.Listen/tls.NewListener/
// http.Server.Serve/Shutdown sequence) translated from a single
// http.Server onto the daemon's own length-prefixed protocol: instead of
// net/http's internal connection goroutine-per-request model, each
// connection is represented explicitly and multiplexed over a worker pool
// sized independently of the number of open connections.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sysdb/sysdbd/internal/protocol"
	"github.com/sysdb/sysdbd/pkg/log"
)

// ListenAddr is one configured listen address, already split into its
// network kind ("unix" or "tcp") and address string.
type ListenAddr struct {
	Network string
	Address string
	TLS     *tls.Config // nil for plaintext listeners (typically unix sockets)
}

// Config controls the accept loop and worker pool.
type Config struct {
	Listeners []ListenAddr

	// QueueCapacity bounds the channel of accepted-but-not-yet-serviced
	// connections. A full queue makes Accept block, applying backpressure
	// to new connections rather than growing memory unboundedly.
	QueueCapacity int

	// Workers is the number of goroutines draining the connection queue.
	Workers int

	// MaxBodyLen caps a single frame's body (see protocol.DefaultMaxBodyLen).
	MaxBodyLen uint32

	// ReadTimeout bounds how long a worker waits for a connection's next
	// frame; when it expires the read fails and the worker closes the
	// connection. Zero means no limit.
	ReadTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 1024
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.MaxBodyLen == 0 {
		c.MaxBodyLen = protocol.DefaultMaxBodyLen
	}
	return c
}

// Server owns the listeners, the connection queue, and the worker pool.
type Server struct {
	cfg        Config
	dispatcher protocol.Dispatcher

	listeners []net.Listener
	queue     chan *protocol.Conn

	wg sync.WaitGroup
}

// New constructs a Server. Call Serve to start accepting.
func New(cfg Config, d protocol.Dispatcher) *Server {
	cfg = cfg.withDefaults()
	return &Server{
		cfg:        cfg,
		dispatcher: d,
		queue:      make(chan *protocol.Conn, cfg.QueueCapacity),
	}
}

// Serve opens every configured listener, starts the worker pool, and
// blocks until ctx is cancelled. On return, every listener is closed and
// every worker has drained in-flight work; it is the moral equivalent of
// the teacher's wg.Wait() after signal-triggered http.Server.Shutdown.
func (s *Server) Serve(ctx context.Context) error {
	for _, la := range s.cfg.Listeners {
		ln, err := net.Listen(la.Network, la.Address)
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("server: listen %s:%s: %w", la.Network, la.Address, err)
		}
		if la.TLS != nil {
			ln = tls.NewListener(ln, la.TLS)
		}
		s.listeners = append(s.listeners, ln)
		log.Printf("sysdbd listening on %s:%s", la.Network, la.Address)
	}

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	for _, ln := range s.listeners {
		s.wg.Add(1)
		go s.acceptLoop(ctx, ln)
	}

	<-ctx.Done()
	s.closeListeners()
	close(s.queue)
	s.wg.Wait()
	return nil
}

func (s *Server) closeListeners() {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
}

// acceptLoop accepts connections on one listener until ctx is cancelled or
// the listener is closed, pushing each accepted connection onto the
// shared queue. On listeners that support SetDeadline, a 1-second accept
// deadline lets it notice ctx cancellation without a dedicated stop
// channel, mirroring the daemon's readiness-wait with timeout; a TLS
// listener has no SetDeadline, and its Accept returns once Serve closes it.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if tcpLn, ok := ln.(interface{ SetDeadline(time.Time) error }); ok {
			_ = tcpLn.SetDeadline(time.Now().Add(time.Second))
		}

		rw, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("sysdbd accept error on %s: %v", ln.Addr(), err)
				return
			}
		}

		conn := protocol.NewConn(rw, identityOf(rw), s.cfg.MaxBodyLen, s.cfg.ReadTimeout)
		select {
		case s.queue <- conn:
		case <-ctx.Done():
			_ = rw.Close()
			return
		}
	}
}

// worker drains the connection queue, handling exactly one frame per
// connection per turn, then requeues the connection if it is still open.
// A 500ms receive timeout lets idle workers notice ctx cancellation
// promptly even when the queue is empty; a connection a worker is blocked
// reading from is closed when ctx is cancelled, so the worker can exit.
func (s *Server) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case conn, ok := <-s.queue:
			if !ok {
				return
			}
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			res := conn.Handle(s.dispatcher)
			stop()
			switch res {
			case protocol.ResultOpen:
				select {
				case s.queue <- conn:
				default:
					_ = conn.Close()
					log.Print("sysdbd: connection queue full, dropping connection")
				}
			default:
				_ = conn.Close()
			}
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// identityOf returns the peer certificate's CN for a TLS connection whose
// handshake has completed, and the remote address otherwise. Accept does
// not run the TLS handshake (it runs on the connection's first read), so
// accepted TLS connections are identified by remote address; Unix peer
// credentials are not looked up.
func identityOf(c net.Conn) string {
	if tc, ok := c.(*tls.Conn); ok {
		state := tc.ConnectionState()
		if len(state.PeerCertificates) > 0 {
			return state.PeerCertificates[0].Subject.CommonName
		}
	}
	return c.RemoteAddr().String()
}
