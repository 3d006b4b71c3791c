// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadValidatesAgainstSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysdbd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen": [{"address": "tcp:localhost:12345"}], "workers": 4}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp:localhost:12345", cfg.Listen[0].Address)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadRejectsMissingListenAddresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysdbd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 4}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysdbd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen": [{"address": "unix:/tmp/x"}], "bogus": true}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
