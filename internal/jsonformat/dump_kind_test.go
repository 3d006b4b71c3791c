// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jsonformat

import (
	"encoding/json"
	"testing"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpObjectsOfKindRendersFlatServiceArray(t *testing.T) {
	s := populatedStore(t)
	out, err := DumpObjectsOfKind(s, store.KindService, nil, nil)
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc, 4) // a.s1, a.s2, b.s1, b.s3 (names collide only within a host)
	for _, svc := range doc {
		assert.Contains(t, svc, "attributes")
	}
}

func TestDumpOneRendersSingleObject(t *testing.T) {
	s := populatedStore(t)
	host, ok := s.GetHost("a")
	require.True(t, ok)
	attr, ok := s.GetChild(host, store.KindAttribute, "k1")
	require.True(t, ok)

	out, err := DumpOne(s, attr)
	require.NoError(t, err)

	var doc []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "k1", doc[0]["name"])
	assert.Equal(t, `"v1"`, doc[0]["value"])
}
