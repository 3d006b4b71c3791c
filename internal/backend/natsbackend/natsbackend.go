// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package natsbackend feeds the object store from a live NATS subject. Each
// message is expected to carry one or more InfluxDB line-protocol samples,
// the same wire shape the teacher's pkg/metricstore ingestion path decodes.
//
// A line's measurement names a metric; its "host" (or "hostname") tag
// selects the host the metric belongs to, and an optional "service" tag
// routes the sample under a service instead of directly under the host.
// Every other field on the line becomes an attribute of that metric or
// service, so a single line can populate several attributes in one update.
//
//	cpu_load,host=node01 value=1.5,value_avg=1.2 1700000000000000000
//
// creates (or refreshes) metric "cpu_load" on host "node01" and sets its
// "value" and "value_avg" attributes.
package natsbackend

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	influx "github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/sysdb/sysdbd/internal/auditlog"
	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/sysdbval"
	"github.com/sysdb/sysdbd/pkg/log"
)

// Name identifies this backend in store writer calls and audit log rows.
const Name = "natsbackend"

const (
	hostTagPrimary   = "host"
	hostTagSecondary = "hostname"
	serviceTag       = "service"
)

// Config configures one NATS subscription feeding the store.
type Config struct {
	URL           string `json:"url"`
	Subject       string `json:"subject"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CredsFilePath string `json:"creds-file-path"`
}

// Backend subscribes to a NATS subject and decodes every message it
// receives as line-protocol, writing the result into Store.
type Backend struct {
	cfg   Config
	Store *store.Store
	Audit *auditlog.Log // optional; nil disables audit logging

	conn *nats.Conn
	sub  *nats.Subscription
}

// New builds a Backend. It does not connect until Start is called.
func New(cfg Config, s *store.Store, audit *auditlog.Log) *Backend {
	return &Backend{cfg: cfg, Store: s, Audit: audit}
}

// Start connects to NATS and subscribes to cfg.Subject. The subscription
// runs until ctx is cancelled, at which point Start unsubscribes and closes
// the connection.
func (b *Backend) Start(ctx context.Context) error {
	if b.cfg.URL == "" {
		return fmt.Errorf("natsbackend: no URL configured")
	}

	var opts []nats.Option
	if b.cfg.Username != "" && b.cfg.Password != "" {
		opts = append(opts, nats.UserInfo(b.cfg.Username, b.cfg.Password))
	}
	if b.cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(b.cfg.CredsFilePath))
	}
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		if err != nil {
			log.Errorf("natsbackend: %s: %v", b.cfg.Subject, err)
		}
	}))

	conn, err := nats.Connect(b.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("natsbackend: connect: %w", err)
	}
	b.conn = conn

	sub, err := conn.Subscribe(b.cfg.Subject, func(msg *nats.Msg) {
		if err := b.handleMessage(ctx, msg.Data); err != nil {
			log.Errorf("natsbackend: %s: %v", b.cfg.Subject, err)
		}
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("natsbackend: subscribe %q: %w", b.cfg.Subject, err)
	}
	b.sub = sub
	log.Infof("natsbackend: subscribed to %q on %s", b.cfg.Subject, b.cfg.URL)

	<-ctx.Done()
	b.Stop()
	return nil
}

// Stop unsubscribes and closes the NATS connection. Safe to call more than
// once.
func (b *Backend) Stop() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
		b.sub = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// handleMessage decodes data as one or more line-protocol lines and applies
// each to the store. A decode error on one line aborts the whole message;
// lines already applied before the error stay applied, matching the
// dispatcher's own no-rollback treatment of partial failures.
func (b *Backend) handleMessage(ctx context.Context, data []byte) error {
	dec := influx.NewDecoderWithBytes(data)
	for dec.Next() {
		if err := b.applyLine(ctx, dec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) applyLine(ctx context.Context, dec *influx.Decoder) error {
	measurement, err := dec.Measurement()
	if err != nil {
		return err
	}
	metricName := string(measurement)

	var host, service string
	for {
		key, val, err := dec.NextTag()
		if err != nil {
			return err
		}
		if key == nil {
			break
		}
		switch string(key) {
		case hostTagPrimary, hostTagSecondary:
			host = string(val)
		case serviceTag:
			service = string(val)
		}
	}
	if host == "" {
		return fmt.Errorf("line protocol message for %q carries no host tag", metricName)
	}

	fields := make(map[string]sysdbval.Value)
	for {
		key, val, err := dec.NextField()
		if err != nil {
			return err
		}
		if key == nil {
			break
		}
		fields[string(key)] = valueOf(val)
	}

	ts, err := dec.Time(influx.Nanosecond, time.Time{})
	if err != nil {
		return err
	}
	tsNanos := ts.UnixNano()

	res, msg := b.Store.StoreHost(host, tsNanos, 0, Name)
	b.record(ctx, "store_host", "host", host, res, msg)

	if service != "" {
		res, msg := b.Store.StoreService(host, service, tsNanos, 0, Name)
		b.record(ctx, "store_service", "service", host+"."+service, res, msg)
		for k, v := range fields {
			res, msg := b.Store.StoreServiceAttr(host, service, k, v, tsNanos, 0, Name)
			b.record(ctx, "store_service_attr", "attribute", host+"."+service+"."+k, res, msg)
		}
		return nil
	}

	res, msg = b.Store.StoreMetric(host, metricName, nil, tsNanos, 0, Name)
	b.record(ctx, "store_metric", "metric", host+"."+metricName, res, msg)
	for k, v := range fields {
		res, msg := b.Store.StoreMetricAttr(host, metricName, k, v, tsNanos, 0, Name)
		b.record(ctx, "store_metric_attr", "attribute", host+"."+metricName+"."+k, res, msg)
	}
	return nil
}

func (b *Backend) record(ctx context.Context, operation, objectKind, objectName string, res store.Result, msg string) {
	if b.Audit == nil {
		return
	}
	result := "ok"
	if res < 0 {
		result = msg
	}
	if err := b.Audit.Record(ctx, operation, objectKind, objectName, Name, result, time.Now().UnixNano()); err != nil {
		log.Warnf("natsbackend: audit log write failed: %v", err)
	}
}

// valueOf converts a decoded line-protocol field into a store value. Line
// protocol has no concept of sysdb's DateTime, Binary, or Regex tags; string
// fields decode as sysdbval strings and everything numeric as a Decimal,
// matching the teacher's own schema.Float(val) treatment of int/uint/float
// fields in pkg/metricstore/lineprotocol.go.
func valueOf(val influx.Value) sysdbval.Value {
	switch val.Kind() {
	case influx.Float:
		return sysdbval.NewDecimal(val.FloatV())
	case influx.Int:
		return sysdbval.NewDecimal(float64(val.IntV()))
	case influx.Uint:
		return sysdbval.NewDecimal(float64(val.UintV()))
	case influx.Bool:
		if val.BoolV() {
			return sysdbval.NewInteger(1)
		}
		return sysdbval.NewInteger(0)
	case influx.String:
		return sysdbval.NewString(val.StringV())
	default:
		return sysdbval.Null
	}
}
