// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/sysdb/sysdbd/internal/auditlog"
	"github.com/sysdb/sysdbd/internal/backend/natsbackend"
	"github.com/sysdb/sysdbd/internal/config"
	"github.com/sysdb/sysdbd/internal/housekeeping"
	"github.com/sysdb/sysdbd/internal/query"
	"github.com/sysdb/sysdbd/internal/runtimeEnv"
	"github.com/sysdb/sysdbd/internal/server"
	"github.com/sysdb/sysdbd/internal/statusapi"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/pkg/log"
)

func main() {
	var flagConfigFile string
	var flagLogLevel string
	var flagDebug, flagGops, flagVersion bool
	flag.StringVar(&flagConfigFile, "C", "", "Read configuration from `path` instead of the built-in defaults")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Minimum log severity to emit (debug, info, warn, err, crit)")
	flag.BoolVar(&flagDebug, "D", false, "Enable debug logging and the gops agent")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.BoolVar(&flagVersion, "V", false, "Print version information and exit")
	flag.Parse()

	if flagVersion {
		fmt.Println("sysdbd (development build)")
		return
	}

	if flagDebug {
		flagLogLevel = "debug"
	}
	log.SetLogLevel(flagLogLevel)

	if flagGops || flagDebug {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		log.Fatalf("loading configuration: %s", err.Error())
	}

	s := store.New()

	var audit *auditlog.Log
	if cfg.AuditLogDriver != "" {
		audit, err = auditlog.Open(cfg.AuditLogDriver, cfg.AuditLogDSN)
		if err != nil {
			log.Fatalf("opening audit log: %s", err.Error())
		}
		defer audit.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	for _, nb := range cfg.NATS {
		b := natsbackend.New(natsbackend.Config{URL: nb.URL, Subject: nb.Subject}, s, audit)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Start(ctx); err != nil {
				log.Errorf("natsbackend %q: %v", nb.Subject, err)
			}
		}()
	}

	hk, err := housekeeping.New(s)
	if err != nil {
		log.Fatalf("starting housekeeping scheduler: %s", err.Error())
	}
	if cfg.RetentionCheckInterval != "" {
		interval, err := time.ParseDuration(cfg.RetentionCheckInterval)
		if err != nil {
			log.Fatalf("parsing retention-check-interval: %s", err.Error())
		}
		if err := hk.RegisterRetentionSweep(interval, 24*time.Hour); err != nil {
			log.Fatalf("registering retention sweep: %s", err.Error())
		}
	}
	hk.Start()
	defer hk.Shutdown()

	listeners, err := buildListeners(cfg)
	if err != nil {
		log.Fatalf("configuring listeners: %s", err.Error())
	}

	dispatcher := query.NewDispatcher(s, "sysdbd")
	srv := server.New(server.Config{
		Listeners:     listeners,
		QueueCapacity: cfg.QueueCapacity,
		Workers:       cfg.Workers,
		MaxBodyLen:    uint32(cfg.MaxBodyLen),
	}, dispatcher)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx); err != nil {
			log.Errorf("query server: %v", err)
		}
	}()

	var statusSrv *http.Server
	if cfg.StatusAddr != "" {
		api := statusapi.New(statusapi.NewStoreProvider(s))
		statusSrv = &http.Server{
			Addr:         cfg.StatusAddr,
			Handler:      statusapi.LoggingHandler(api.Router()),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("status API listening at %s", cfg.StatusAddr)
			if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("status API: %v", err)
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		runtimeEnv.SystemdNotifiy(false, "shutting down")
		if statusSrv != nil {
			statusSrv.Shutdown(context.Background())
		}
		cancel()
	}()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(25)
	}
	runtimeEnv.SystemdNotifiy(true, "running")
	wg.Wait()
	log.Print("Gracefull shutdown completed!")
}

// buildListeners translates each configured "unix:/path" / "tcp:host:port"
// address into a server.ListenAddr, wiring up client-certificate TLS when
// the listener's cert/key/CA paths are set.
func buildListeners(cfg config.Config) ([]server.ListenAddr, error) {
	out := make([]server.ListenAddr, 0, len(cfg.Listen))
	for _, l := range cfg.Listen {
		network, address, err := splitListenSpec(l.Address)
		if err != nil {
			return nil, err
		}

		la := server.ListenAddr{Network: network, Address: address}
		if l.TLSCertFile != "" && l.TLSKeyFile != "" {
			cert, err := tls.LoadX509KeyPair(l.TLSCertFile, l.TLSKeyFile)
			if err != nil {
				return nil, fmt.Errorf("listen %q: loading keypair: %w", l.Address, err)
			}
			tlsCfg := &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
			if l.TLSCAFile != "" {
				pool, err := loadCertPool(l.TLSCAFile)
				if err != nil {
					return nil, fmt.Errorf("listen %q: loading CA file: %w", l.Address, err)
				}
				tlsCfg.ClientCAs = pool
				tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
			}
			la.TLS = tlsCfg
		}
		out = append(out, la)
	}
	return out, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

func splitListenSpec(s string) (network, address string, err error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", "", fmt.Errorf("invalid listen address %q: expected \"network:address\"", s)
	}
	return s[:i], s[i+1:], nil
}
