// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package statusapi serves a small read-only HTTP surface alongside the
// binary query protocol: health, a JSON status summary, and Prometheus
// metrics. It is built the same way the teacher's cmd/cc-backend/server.go
// builds its own HTTP surface (gorilla/mux router, gorilla/handlers
// middleware, logged via pkg/log), just with a handful of routes instead of
// the full REST/GraphQL API.
package statusapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sysdb/sysdbd/internal/metrics"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/pkg/log"
)

// StatusProvider supplies the values reported at /status. Satisfied by the
// *store.Store adapter NewStoreProvider returns; kept as an interface so
// tests can supply a fake.
type StatusProvider interface {
	StoreCounts() map[store.Kind]int
}

// storeCounter adapts a *store.Store to StatusProvider.
type storeCounter struct{ s *store.Store }

func (c storeCounter) StoreCounts() map[store.Kind]int {
	counts := map[store.Kind]int{}
	c.s.Scan(store.MatchAll, func(obj *store.Object) bool {
		counts[obj.Kind()]++
		return true
	})
	return counts
}

// NewStoreProvider wraps s as a StatusProvider.
func NewStoreProvider(s *store.Store) StatusProvider { return storeCounter{s} }

// API mounts the status routes.
type API struct {
	Provider  StatusProvider
	StartedAt time.Time
}

// New builds an API backed by provider, with StartedAt set to now.
func New(provider StatusProvider) *API {
	return &API{Provider: provider, StartedAt: time.Now()}
}

// Router builds a *mux.Router serving /healthz, /status, and /metrics, with
// gorilla/handlers' compression, panic-recovery, and CORS middleware
// applied the same way the teacher's main HTTP server applies them.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	r.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
		handlers.AllowedOrigins([]string{"*"})))
	return r
}

// LoggingHandler wraps h with access logging in the same
// method/path/status/size/duration shape the teacher logs its own HTTP
// traffic in.
func LoggingHandler(h http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, float32(params.Size)/1024,
			time.Since(params.TimeStamp).Milliseconds())
	})
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts := a.Provider.StoreCounts()
	resp := struct {
		Uptime string         `json:"uptime"`
		Objects map[string]int `json:"objects"`
	}{
		Uptime:  time.Since(a.StartedAt).Round(time.Second).String(),
		Objects: make(map[string]int, len(counts)),
	}
	for kind, n := range counts {
		resp.Objects[strings.ToLower(kind.String())] = n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warnf("statusapi: encode /status response: %v", err)
	}
}
