// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queryparser

import "fmt"

// ParseError carries the byte offset of a lexical or syntactic error,
// matching the grammar's "errors are reported through an error buffer,
// never signaled through the return value alone" — callers surface this as
// an ERROR frame's body text.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query parse error at byte %d: %s", e.Pos, e.Msg)
}

func errf(pos int, format string, args ...interface{}) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
