// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates sysdbd's JSON configuration file,
// following the same embedded-schema load-then-validate-then-strict-decode
// shape the teacher's own pkg/schema package uses for its config/cluster
// documents.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ListenSpec is one configured listen address, in the daemon's own
// "unix:/abs/path" / "tcp:host:port" external syntax.
type ListenSpec struct {
	Address string `json:"address"`

	// TLS, if set, upgrades this listener to require client certificates;
	// left unset for Unix-domain sockets, which authenticate via peer
	// credentials instead.
	TLSCertFile string `json:"tls-cert-file,omitempty"`
	TLSKeyFile  string `json:"tls-key-file,omitempty"`
	TLSCAFile   string `json:"tls-ca-file,omitempty"`
}

// NATSBackend configures one NATS subscription feeding the store via
// Influx line-protocol decoded points (internal/backend/natsbackend).
type NATSBackend struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// Config is sysdbd's top-level JSON configuration document.
type Config struct {
	Listen []ListenSpec `json:"listen"`

	QueueCapacity int `json:"queue-capacity"`
	Workers       int `json:"workers"`
	MaxBodyLen    int `json:"max-body-len"`

	NATS []NATSBackend `json:"nats"`

	// AuditLogDriver/AuditLogDSN configure internal/auditlog; "sqlite3" or
	// "mysql", same DSN conventions as the teacher's own DB config.
	AuditLogDriver string `json:"audit-log-driver"`
	AuditLogDSN    string `json:"audit-log-dsn"`

	// StatusAddr, if non-empty, serves the read-only HTTP status/health/
	// metrics surface (internal/statusapi) at this address.
	StatusAddr string `json:"status-addr"`

	// RetentionCheckInterval configures internal/housekeeping's retention
	// sweep cadence; a human-readable duration like "5m".
	RetentionCheckInterval string `json:"retention-check-interval"`
}

// Default returns the built-in configuration used when no config file (or
// an empty path) is given.
func Default() Config {
	return Config{
		Listen:                 []ListenSpec{{Address: "unix:/var/run/sysdbd.sock"}},
		QueueCapacity:          1024,
		Workers:                8,
		MaxBodyLen:             16 * 1024 * 1024,
		AuditLogDriver:         "sqlite3",
		AuditLogDSN:            "./var/sysdbd-audit.db",
		RetentionCheckInterval: "5m",
	}
}

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchemaFile(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchemaFile
}

// Load reads and validates the config file at path, falling back to
// Default() if path is empty. A present-but-invalid file is always an
// error, matching the teacher's "config.json must either be absent or
// valid" policy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	schema, err := jsonschema.Compile("embedFS://schemas/sysdbd-config.schema.json")
	if err != nil {
		return Config{}, fmt.Errorf("config: compiling built-in schema: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
