// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strbuf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendGrows(t *testing.T) {
	b := New(2)
	b.Append("hello %s", "world")
	assert.Equal(t, "hello world", b.String())
	assert.GreaterOrEqual(t, b.Cap(), b.Len())
}

func TestOverwriteResetsContent(t *testing.T) {
	b := New(16)
	b.Append("first")
	b.Overwrite("second")
	assert.Equal(t, "second", b.String())
}

func TestClearRetainsCapacity(t *testing.T) {
	b := New(4)
	b.Append("some longer text than the hint")
	cap0 := b.Cap()
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, cap0, b.Cap())
}

func TestMemAppendBinarySafe(t *testing.T) {
	b := New(0)
	b.MemAppend([]byte{0, 1, 0, 2})
	assert.Equal(t, []byte{0, 1, 0, 2}, b.Bytes())
}

func TestChomp(t *testing.T) {
	b := New(0)
	b.Append("line\n\n\n")
	n := b.Chomp()
	assert.Equal(t, 3, n)
	assert.Equal(t, "line", b.String())
}

func TestSkip(t *testing.T) {
	b := New(0)
	b.Append("abcdef")
	b.Skip(1, 2)
	assert.Equal(t, "adef", b.String())
}

func TestReadFromTreatsEOFAsZero(t *testing.T) {
	b := New(0)
	r := bytes.NewReader([]byte("hi"))
	n, err := b.ReadFrom(r, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "hi", b.String())

	n, err = b.ReadFrom(r, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
