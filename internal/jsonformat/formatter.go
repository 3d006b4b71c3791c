// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package jsonformat implements the incremental JSON serializer: a pushdown
// state machine that emits a nested JSON document as store objects are
// visited in traversal order (host, then its attributes, metrics, and
// services, each possibly carrying their own attributes), appending to a
// strbuf.Buf as it goes. The dump helpers return the finished document as
// one string.
package jsonformat

import (
	"fmt"
	"time"

	"github.com/sysdb/sysdbd/internal/store"
	"github.com/sysdb/sysdbd/internal/strbuf"
	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// maxDepth bounds the context stack: root + host + (service|metric) +
// attribute is the deepest the data model ever nests.
const maxDepth = 8

type frame struct {
	kind     store.Kind
	nthChild int
}

// Formatter is a pushdown automaton over an explicit context stack. Each
// call to Push supplies one store object's rendered fields; the formatter
// decides, by comparing the object's kind to the stack top, whether it is a
// sibling, a deeper nesting level, or a return to a shallower one, and
// emits exactly the punctuation needed to keep the document well-formed.
type Formatter struct {
	buf       *strbuf.Buf
	stack     []frame
	wantArray bool
	opened    bool
	err       error
}

// New returns a Formatter writing into buf. If wantArray is set, Finish
// wraps the (possibly multi-host) document in a top-level JSON array;
// otherwise the document is a single top-level object (valid only when
// exactly one top-level object is ever pushed).
func New(buf *strbuf.Buf, wantArray bool) *Formatter {
	return &Formatter{buf: buf, wantArray: wantArray}
}

func childArrayName(k store.Kind) string {
	switch k {
	case store.KindService:
		return "services"
	case store.KindMetric:
		return "metrics"
	case store.KindAttribute:
		return "attributes"
	default:
		return "objects"
	}
}

// canNestUnder reports whether a child of kind may appear as a direct
// array-member under a currently-open object of kind parent.
func canNestUnder(parent, child store.Kind) bool {
	switch parent {
	case store.KindHost:
		return child == store.KindService || child == store.KindMetric || child == store.KindAttribute
	case store.KindService, store.KindMetric:
		return child == store.KindAttribute
	default:
		return false
	}
}

// Fields is the rendered payload of one store object, gathered by the
// caller via store.Store.GetField before calling Push.
type Fields struct {
	Name       string
	LastUpdate int64
	Interval   int64
	Backends   []string
	// Value is set only for KindAttribute.
	Value *sysdbval.Value
}

// Push emits one object of the given kind; where it nests is decided from
// the kinds already on the context stack. The very first, top-level push
// must be a Host.
func (f *Formatter) Push(kind store.Kind, fields Fields) error {
	if f.err != nil {
		return f.err
	}
	if err := f.push(kind, fields); err != nil {
		f.err = err
		return err
	}
	return nil
}

func (f *Formatter) push(kind store.Kind, fields Fields) error {
	if len(f.stack) == 0 {
		if kind != store.KindHost {
			return fmt.Errorf("jsonformat: first pushed object must be a host, got %v", kind)
		}
		if !f.opened {
			if f.wantArray {
				f.buf.Append("[")
			}
			f.opened = true
		} else {
			f.buf.Append("},")
		}
		f.writeObjectOpen(kind, fields)
		f.stack = append(f.stack, frame{kind: kind})
		return nil
	}

	top := &f.stack[len(f.stack)-1]
	switch {
	case top.kind == kind:
		f.buf.Append("},")
		f.writeObjectOpen(kind, fields)
		top.nthChild++
		return nil
	case canNestUnder(top.kind, kind):
		if len(f.stack) >= maxDepth {
			return fmt.Errorf("jsonformat: nesting too deep (max %d)", maxDepth)
		}
		f.buf.Append(`, "%s": [`, childArrayName(kind))
		f.writeObjectOpen(kind, fields)
		f.stack = append(f.stack, frame{kind: kind})
		return nil
	default:
		f.buf.Append("}]")
		f.stack = f.stack[:len(f.stack)-1]
		return f.push(kind, fields)
	}
}

func (f *Formatter) writeObjectOpen(kind store.Kind, fields Fields) {
	lu := time.Unix(0, fields.LastUpdate).Format("2006-01-02 15:04:05 -0700")
	interval := time.Duration(fields.Interval).String()

	f.buf.Append(`{"name": %s, "last_update": %s, "update_interval": %s, "backends": [`,
		quoteJSON(fields.Name), quoteJSON(lu), quoteJSON(interval))
	for i, b := range fields.Backends {
		if i > 0 {
			f.buf.Append(",")
		}
		f.buf.Append("%s", quoteJSON(b))
	}
	f.buf.Append("]")
	if kind == store.KindAttribute && fields.Value != nil {
		f.buf.Append(`, "value": %s`, quoteJSON(sysdbval.Format(*fields.Value, sysdbval.DoubleQuoted)))
	}
}

// Finish closes every still-open array/object and, if wantArray was set,
// the outer array. It is an error to call Push after Finish.
func (f *Formatter) Finish() error {
	if f.err != nil {
		return f.err
	}
	if !f.opened {
		if f.wantArray {
			f.buf.Append("[]")
		}
		return nil
	}
	for len(f.stack) > 0 {
		f.buf.Append("}")
		f.stack = f.stack[:len(f.stack)-1]
		if len(f.stack) > 0 {
			f.buf.Append("]")
		}
	}
	if f.wantArray {
		f.buf.Append("]")
	}
	return nil
}

// quoteJSON renders s as a double-quoted JSON string, escaping the
// characters JSON requires.
func quoteJSON(s string) string {
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			if r < 0x20 {
				buf = append(buf, []byte(fmt.Sprintf(`\u%04x`, r))...)
			} else {
				buf = append(buf, []byte(string(r))...)
			}
		}
	}
	buf = append(buf, '"')
	return string(buf)
}
