// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/sysdb/sysdbd/internal/sysdbval"
)

// MarshalValue renders v in the DATA binary encoding (§6): a 4-byte type
// code, then per-type bytes. Strings and arrays carry their own length
// prefix; arrays of T have no further type header per element.
func MarshalValue(v sysdbval.Value) ([]byte, error) {
	var out []byte
	switch v.Tag {
	case sysdbval.TypeInteger:
		out = put32(uint32(sysdbval.TypeInteger))
		out = append(out, put64(uint64(v.Integer))...)
	case sysdbval.TypeDateTime:
		out = put32(uint32(sysdbval.TypeDateTime))
		out = append(out, put64(uint64(v.DateTime))...)
	case sysdbval.TypeString:
		out = put32(uint32(sysdbval.TypeString))
		s := v.Str + "\x00"
		out = append(out, put32(uint32(len(s)))...)
		out = append(out, []byte(s)...)
	case sysdbval.TypeBinary:
		out = put32(uint32(sysdbval.TypeBinary))
		out = append(out, put32(uint32(len(v.Str)))...)
		out = append(out, []byte(v.Str)...)
	default:
		if v.Tag.IsArray() {
			out = put32(uint32(v.Tag))
			out = append(out, put32(uint32(len(v.Array)))...)
			for _, e := range v.Array {
				elemBytes, err := marshalArrayElem(e)
				if err != nil {
					return nil, err
				}
				out = append(out, elemBytes...)
			}
			return out, nil
		}
		return nil, fmt.Errorf("protocol: %v is not DATA-encodable", v.Tag)
	}
	return out, nil
}

// marshalArrayElem encodes one array element without its own type header
// (the array's element type code covers every element).
func marshalArrayElem(v sysdbval.Value) ([]byte, error) {
	full, err := MarshalValue(v)
	if err != nil {
		return nil, err
	}
	return full[4:], nil
}

func put32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func put64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
