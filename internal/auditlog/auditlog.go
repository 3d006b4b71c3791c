// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package auditlog records every store-writer call (store_host,
// store_service, ...) to a SQL table, so that a deployment can answer "who
// pushed this value, when, and what happened" after the fact. It is
// connected the same way the teacher's internal/repository package
// connects its job database: sqlx over a sqlhooks-wrapped driver (for
// query-timing logs), with golang-migrate bringing the schema up to date
// at startup.
package auditlog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	sqlite3drv "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/sysdb/sysdbd/pkg/log"
)

//go:embed migrations/*
var migrationFiles embed.FS

// Log writes one audit row per store mutation. It is safe for concurrent
// use by multiple worker goroutines (sqlx.DB pools its own connections).
type Log struct {
	db     *sqlx.DB
	driver string
}

// Open connects to driver ("sqlite3" or "mysql") at dsn, wraps the driver
// with query-timing hooks, and brings the schema up to the latest
// migration. It is the auditlog equivalent of repository.Connect.
func Open(driver, dsn string) (*Log, error) {
	var db *sqlx.DB
	var err error

	switch driver {
	case "sqlite3":
		sql.Register("sqlite3WithAuditHooks", sqlhooks.Wrap(&sqlite3drv.SQLiteDriver{}, &queryHooks{}))
		db, err = sqlx.Open("sqlite3WithAuditHooks", fmt.Sprintf("%s?_foreign_keys=on", dsn))
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case "mysql":
		db, err = sqlx.Open("mysql", fmt.Sprintf("%s?multiStatements=true", dsn))
		if err == nil {
			db.SetConnMaxLifetime(3 * time.Minute)
			db.SetMaxOpenConns(10)
		}
	default:
		return nil, fmt.Errorf("auditlog: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %s: %w", driver, err)
	}

	if err := migrateUp(driver, db.DB); err != nil {
		return nil, err
	}
	return &Log{db: db, driver: driver}, nil
}

func migrateUp(driver string, db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("auditlog: migration source: %w", err)
	}

	var m *migrate.Migrate
	if driver == "sqlite3" {
		dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("auditlog: migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", dbDriver)
		if err != nil {
			return fmt.Errorf("auditlog: migrate: %w", err)
		}
	} else {
		dbDriver, err := mysql.WithInstance(db, &mysql.Config{})
		if err != nil {
			return fmt.Errorf("auditlog: migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "mysql", dbDriver)
		if err != nil {
			return fmt.Errorf("auditlog: migrate: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("auditlog: migrate up: %w", err)
	}
	return nil
}

// Record appends one audit row. ts is a Unix-nanosecond timestamp, matching
// the store's own last_update representation.
func (l *Log) Record(ctx context.Context, operation, objectKind, objectName, backend, result string, ts int64) error {
	query, args, err := sq.Insert("audit_log").
		Columns("ts", "operation", "object_kind", "object_name", "backend", "result").
		Values(ts, operation, objectKind, objectName, backend, result).
		ToSql()
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, l.db.Rebind(query), args...)
	return err
}

// Close releases the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

// queryHooks logs query timing the same way repository.Hooks does.
type queryHooks struct{}

func (queryHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("audit SQL query %s %q", query, args)
	return context.WithValue(ctx, beginKey{}, time.Now()), nil
}

func (queryHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(beginKey{}).(time.Time); ok {
		log.Debugf("audit SQL took: %s", time.Since(begin))
	}
	return ctx, nil
}

type beginKey struct{}
