// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sysdbval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTagOrdering(t *testing.T) {
	values := []Value{
		Null,
		NewInteger(1),
		NewDecimal(1),
		NewString("a"),
		NewDateTime(1),
		NewBinary([]byte("a")),
	}
	re, err := NewRegex("a.*")
	require.NoError(t, err)
	values = append(values, re)

	for i := 0; i < len(values)-1; i++ {
		assert.Negative(t, Compare(values[i], values[i+1]), "tag %d should sort before tag %d", i, i+1)
	}
}

func TestCompareStringCaseInsensitive(t *testing.T) {
	assert.True(t, Equal(NewString("Host"), NewString("host")))
	assert.Equal(t, -1, Compare(NewString("a"), NewString("B")))
}

func TestCompareBinaryMemcmp(t *testing.T) {
	assert.True(t, Equal(NewBinary([]byte("Abc")), NewBinary([]byte("Abc"))))
	assert.False(t, Equal(NewBinary([]byte("Abc")), NewBinary([]byte("abc"))))
}

func TestCompareArrayLexicographic(t *testing.T) {
	a := NewArray(TypeInteger, []Value{NewInteger(1), NewInteger(2)})
	b := NewArray(TypeInteger, []Value{NewInteger(1), NewInteger(3)})
	assert.Negative(t, Compare(a, b))

	c := NewArray(TypeInteger, []Value{NewInteger(1)})
	assert.Negative(t, Compare(c, a), "shorter prefix sorts first")
}

func TestRegexEqualityIgnoresCompiledForm(t *testing.T) {
	a, err := NewRegex("^a$")
	require.NoError(t, err)
	b, err := NewRegex("^a$")
	require.NoError(t, err)
	b.Regex = nil // simulate a differently-compiled matcher
	assert.True(t, Equal(a, b))
}

func TestArithIntegerOps(t *testing.T) {
	assert.Equal(t, NewInteger(5), Arith(OpAdd, NewInteger(2), NewInteger(3)))
	assert.Equal(t, NewInteger(6), Arith(OpMul, NewInteger(2), NewInteger(3)))
	assert.Equal(t, Null, Arith(OpDiv, NewInteger(2), NewInteger(0)))
}

func TestArithTypeMismatchYieldsNull(t *testing.T) {
	assert.Equal(t, Null, Arith(OpAdd, NewString("x"), NewInteger(1)))
}

func TestArithConcat(t *testing.T) {
	assert.Equal(t, NewString("ab"), Arith(OpConcat, NewString("a"), NewString("b")))
	assert.Equal(t, NewBinary([]byte("ab")), Arith(OpConcat, NewBinary([]byte("a")), NewString("b")))
}

func TestFormatQuoting(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, Format(NewString(`a"b\c`), DoubleQuoted))
	assert.Equal(t, "'it''s'", Format(NewString("it's"), SingleQuoted))
	assert.Equal(t, "a", Format(NewString("a"), Bare))
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	cases := []Value{
		Null,
		NewInteger(4711),
		NewString("hi"),
		NewBinary([]byte{0, 1, 2}),
		NewDateTime(123456789),
		NewArray(TypeInteger, []Value{NewInteger(47), NewInteger(11), NewInteger(23)}),
	}
	for _, v := range cases {
		b, err := Marshal(v)
		require.NoError(t, err)
		got, n, err := Unmarshal(b)
		require.NoError(t, err)
		assert.Equal(t, len(b), n)
		assert.True(t, Equal(v, got), "round-trip mismatch for %v", v)
	}
}

func TestMarshalIntegerWireFormat(t *testing.T) {
	b, err := Marshal(NewInteger(4711))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0x12, 0x67}, b)
}

func TestMarshalIntegerArrayWireFormat(t *testing.T) {
	b, err := Marshal(NewArray(TypeInteger, []Value{NewInteger(47), NewInteger(11), NewInteger(23)}))
	require.NoError(t, err)
	assert.Len(t, b, 32)
	assert.Equal(t, []byte{0, 0, 1, 1}, b[:4], "array-of-integer type code is 0x100|1")
}

func TestMarshalRegexAndDecimalUnsupported(t *testing.T) {
	_, err := Marshal(NewDecimal(1.5))
	assert.Error(t, err)

	re, err := NewRegex("a")
	require.NoError(t, err)
	_, err = Marshal(re)
	assert.Error(t, err)
}
