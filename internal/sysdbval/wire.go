// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sysdbval

import (
	"encoding/binary"
	"fmt"
)

// Wire type codes, per §6: Null=0, Integer=1, Decimal=2, String=3,
// DateTime=4, Binary=5; Array of T = 0x100 | T.
const (
	wireNull     = 0
	wireInteger  = 1
	wireDecimal  = 2
	wireString   = 3
	wireDateTime = 4
	wireBinary   = 5
)

func wireCode(t Type) uint32 {
	if t.IsArray() {
		return 0x100 | wireCode(t.Elem())
	}
	switch t {
	case TypeNull:
		return wireNull
	case TypeInteger:
		return wireInteger
	case TypeDecimal:
		return wireDecimal
	case TypeString:
		return wireString
	case TypeDateTime:
		return wireDateTime
	case TypeBinary:
		return wireBinary
	default:
		return wireNull
	}
}

func codeToType(code uint32) (Type, error) {
	if code&0x100 != 0 {
		elem, err := codeToType(code &^ 0x100)
		if err != nil {
			return 0, err
		}
		return ArrayOf(elem), nil
	}
	switch code {
	case wireNull:
		return TypeNull, nil
	case wireInteger:
		return TypeInteger, nil
	case wireDecimal:
		return TypeDecimal, nil
	case wireString:
		return TypeString, nil
	case wireDateTime:
		return TypeDateTime, nil
	case wireBinary:
		return TypeBinary, nil
	default:
		return 0, fmt.Errorf("unknown wire type code %d", code)
	}
}

// Marshal encodes v using the binary DATA format of §6. Regex and Decimal
// values have no wire encoding here: marshaling either returns an error.
func Marshal(v Value) ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, wireCode(v.Tag))
	body, err := marshalBody(v)
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

func marshalBody(v Value) ([]byte, error) {
	switch v.Tag {
	case TypeNull:
		return nil, nil
	case TypeInteger:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.Integer))
		return b, nil
	case TypeDateTime:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.DateTime))
		return b, nil
	case TypeString:
		// strings include the trailing NUL in their length, per §6.
		raw := append([]byte(v.Str), 0)
		return marshalLenPrefixed(raw), nil
	case TypeBinary:
		return marshalLenPrefixed(v.Bytes()), nil
	case TypeDecimal:
		return nil, fmt.Errorf("sysdbval: Decimal is not wire-encodable")
	case TypeRegex:
		return nil, fmt.Errorf("sysdbval: Regex is not wire-encodable")
	default:
		if v.Tag.IsArray() {
			out := make([]byte, 4)
			binary.BigEndian.PutUint32(out, uint32(len(v.Array)))
			for _, e := range v.Array {
				body, err := marshalBody(e)
				if err != nil {
					return nil, err
				}
				out = append(out, body...)
			}
			return out, nil
		}
		return nil, fmt.Errorf("sysdbval: cannot marshal type %s", v.Tag)
	}
}

func marshalLenPrefixed(b []byte) []byte {
	out := make([]byte, 4, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	return append(out, b...)
}

// Unmarshal decodes a Marshal-encoded value, returning the value and the
// number of bytes consumed.
func Unmarshal(data []byte) (Value, int, error) {
	if len(data) < 4 {
		return Value{}, 0, fmt.Errorf("sysdbval: short buffer for type code")
	}
	typ, err := codeToType(binary.BigEndian.Uint32(data))
	if err != nil {
		return Value{}, 0, err
	}
	v, n, err := unmarshalBody(typ, data[4:])
	if err != nil {
		return Value{}, 0, err
	}
	return v, n + 4, nil
}

func unmarshalBody(typ Type, data []byte) (Value, int, error) {
	switch typ {
	case TypeNull:
		return Null, 0, nil
	case TypeInteger:
		if len(data) < 8 {
			return Value{}, 0, fmt.Errorf("sysdbval: short buffer for integer")
		}
		return NewInteger(int64(binary.BigEndian.Uint64(data[:8]))), 8, nil
	case TypeDateTime:
		if len(data) < 8 {
			return Value{}, 0, fmt.Errorf("sysdbval: short buffer for datetime")
		}
		return NewDateTime(int64(binary.BigEndian.Uint64(data[:8]))), 8, nil
	case TypeString:
		raw, n, err := unmarshalLenPrefixed(data)
		if err != nil {
			return Value{}, 0, err
		}
		if len(raw) > 0 && raw[len(raw)-1] == 0 {
			raw = raw[:len(raw)-1]
		}
		return NewString(string(raw)), n, nil
	case TypeBinary:
		raw, n, err := unmarshalLenPrefixed(data)
		if err != nil {
			return Value{}, 0, err
		}
		return NewBinary(raw), n, nil
	default:
		if typ.IsArray() {
			if len(data) < 4 {
				return Value{}, 0, fmt.Errorf("sysdbval: short buffer for array length")
			}
			count := int(binary.BigEndian.Uint32(data[:4]))
			off := 4
			elems := make([]Value, 0, count)
			for i := 0; i < count; i++ {
				e, n, err := unmarshalBody(typ.Elem(), data[off:])
				if err != nil {
					return Value{}, 0, err
				}
				elems = append(elems, e)
				off += n
			}
			return NewArray(typ.Elem(), elems), off, nil
		}
		return Value{}, 0, fmt.Errorf("sysdbval: cannot unmarshal type %s", typ)
	}
}

func unmarshalLenPrefixed(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("sysdbval: short buffer for length prefix")
	}
	n := int(binary.BigEndian.Uint32(data[:4]))
	if len(data) < 4+n {
		return nil, 0, fmt.Errorf("sysdbval: short buffer for payload")
	}
	return data[4 : 4+n], 4 + n, nil
}
