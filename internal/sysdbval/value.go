// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sysdbval implements the tagged-sum data value used throughout the
// object store, the matcher/expression engine and the wire protocol.
//
// A Value is one of Null, Integer, Decimal, String, DateTime, Binary, Regex
// or an Array of one of the scalar kinds. Values compare, format, parse and
// (de)serialize themselves.
package sysdbval

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is the tag discriminating the kind of data carried by a Value.
type Type int

const (
	TypeNull Type = iota
	TypeInteger
	TypeDecimal
	TypeString
	TypeDateTime
	TypeBinary
	TypeRegex
)

// arrayBit marks an array-of-T type; T is the tag in the low bits.
// Mirrors the wire type-code convention of §6 ("Array of T = 0x100 | T").
const arrayBit Type = 0x100

// ArrayOf returns the array type tag for element type t.
func ArrayOf(t Type) Type { return arrayBit | t }

// IsArray reports whether t denotes an array type.
func (t Type) IsArray() bool { return t&arrayBit != 0 }

// Elem returns the element type of an array type (undefined for non-arrays).
func (t Type) Elem() Type { return t &^ arrayBit }

func (t Type) String() string {
	if t.IsArray() {
		return t.Elem().String() + "[]"
	}
	switch t {
	case TypeNull:
		return "null"
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeString:
		return "string"
	case TypeDateTime:
		return "datetime"
	case TypeBinary:
		return "binary"
	case TypeRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// Value is the tagged-sum value carried by attributes, expressions and
// wire-protocol payloads.
//
// Only the fields relevant to Tag are meaningful; the rest are zero. Arrays
// store their elements in Array, each element itself a scalar Value of type
// Tag.Elem().
type Value struct {
	Tag      Type
	Integer  int64
	Decimal  float64
	Str      string // also backs Binary
	DateTime int64  // nanoseconds since Unix epoch
	Regex    *regexp.Regexp
	Array    []Value
}

// Null is the zero value.
var Null = Value{Tag: TypeNull}

func NewInteger(v int64) Value      { return Value{Tag: TypeInteger, Integer: v} }
func NewDecimal(v float64) Value    { return Value{Tag: TypeDecimal, Decimal: v} }
func NewString(v string) Value      { return Value{Tag: TypeString, Str: v} }
func NewDateTime(ns int64) Value    { return Value{Tag: TypeDateTime, DateTime: ns} }
func NewBinary(v []byte) Value      { return Value{Tag: TypeBinary, Str: string(v)} }
func (v Value) Bytes() []byte       { return []byte(v.Str) }

// NewRegex compiles src as an extended POSIX regular expression.
func NewRegex(src string) (Value, error) {
	re, err := regexp.CompilePOSIX(src)
	if err != nil {
		return Value{}, fmt.Errorf("invalid regex %q: %w", src, err)
	}
	return Value{Tag: TypeRegex, Str: src, Regex: re}, nil
}

// NewArray builds an array value of element type elem.
func NewArray(elem Type, vs []Value) Value {
	return Value{Tag: ArrayOf(elem), Array: vs}
}

// NewStringArray is a convenience constructor used by Backend→value projection.
func NewStringArray(ss []string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = NewString(s)
	}
	return NewArray(TypeString, vs)
}

// DeepCopy returns an independent copy of v. Regex values share their
// compiled matcher (immutable once compiled) but not their source string
// header; arrays are copied element-wise.
func (v Value) DeepCopy() Value {
	cp := v
	if v.Tag.IsArray() {
		cp.Array = make([]Value, len(v.Array))
		for i, e := range v.Array {
			cp.Array[i] = e.DeepCopy()
		}
	}
	return cp
}

// Compare defines the total order across tags required by §4.A:
// Null < Integer < Decimal < String < DateTime < Binary < Regex, arrays
// compared lexicographically by element, numeric within Integer/Decimal/
// DateTime, memcmp within Binary, case-insensitive within String.
//
// Comparing values of different tags compares the tag ordinal; array types
// compare by element type ordinal first if the arrays themselves differ in
// element type.
func Compare(a, b Value) int {
	if a.Tag != b.Tag {
		return cmpInt(int(a.Tag), int(b.Tag))
	}
	switch a.Tag {
	case TypeNull:
		return 0
	case TypeInteger:
		return cmpInt64(a.Integer, b.Integer)
	case TypeDecimal:
		return cmpFloat(a.Decimal, b.Decimal)
	case TypeDateTime:
		return cmpInt64(a.DateTime, b.DateTime)
	case TypeString:
		return strings.Compare(strings.ToLower(a.Str), strings.ToLower(b.Str))
	case TypeBinary:
		return bytes.Compare(a.Bytes(), b.Bytes())
	case TypeRegex:
		return strings.Compare(a.Str, b.Str)
	default:
		if a.Tag.IsArray() {
			n := len(a.Array)
			if len(b.Array) < n {
				n = len(b.Array)
			}
			for i := 0; i < n; i++ {
				if c := Compare(a.Array[i], b.Array[i]); c != 0 {
					return c
				}
			}
			return cmpInt(len(a.Array), len(b.Array))
		}
		return 0
	}
}

// Equal reports whether a and b compare equal; for Regex this compares the
// source text only, per §4.A.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// QuoteStyle controls Format's treatment of string/binary values.
type QuoteStyle int

const (
	Bare QuoteStyle = iota
	SingleQuoted
	DoubleQuoted
)

// Format renders v as a printable literal. String and Binary values may be
// bare, single- or double-quoted, with '"' and '\' escaped when quoted.
func Format(v Value, q QuoteStyle) string {
	switch v.Tag {
	case TypeNull:
		return "NULL"
	case TypeInteger:
		return strconv.FormatInt(v.Integer, 10)
	case TypeDecimal:
		return strconv.FormatFloat(v.Decimal, 'g', -1, 64)
	case TypeDateTime:
		return time.Unix(0, v.DateTime).UTC().Format("2006-01-02 15:04:05 -0700")
	case TypeRegex:
		return "/" + v.Str + "/"
	case TypeString, TypeBinary:
		return quote(v.Str, q)
	default:
		if v.Tag.IsArray() {
			parts := make([]string, len(v.Array))
			for i, e := range v.Array {
				parts[i] = Format(e, q)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		return "<invalid>"
	}
}

func quote(s string, q QuoteStyle) string {
	switch q {
	case SingleQuoted:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case DoubleQuoted:
		var b strings.Builder
		b.WriteByte('"')
		for _, r := range s {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
		return b.String()
	default:
		return s
	}
}

// ParseDateTime parses an ISO-8601 datetime literal: YYYY-MM-DD, optionally
// followed by a space or 'T' and HH:MM:SS[.fraction]. A zone offset is
// accepted as " ±HHMM" after a space-separated time and as "Z" or "±HH:MM"
// after a 'T'-separated one; without an offset the time is taken as UTC.
func ParseDateTime(s string) (Value, error) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999 -0700",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDateTime(t.UnixNano()), nil
		}
		lastErr = err
	}
	return Value{}, fmt.Errorf("invalid datetime %q: %w", s, lastErr)
}
