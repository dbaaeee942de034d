// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitebackend

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/codec"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindString
	kindBool
	kindInt
	kindFloat
	kindTime
	kindStrings
)

// wireValue is the stored form of one field value. Decoding CBOR into
// an interface loses the distinction between int64 and float64 and
// between a timestamp and its string form, so each value carries its
// kind explicitly. Timestamps are unix nanoseconds in UTC.
type wireValue struct {
	Kind    valueKind `cbor:"1,keyasint"`
	String  string    `cbor:"2,keyasint,omitempty"`
	Bool    bool      `cbor:"3,keyasint,omitempty"`
	Int     int64     `cbor:"4,keyasint,omitempty"`
	Float   float64   `cbor:"5,keyasint,omitempty"`
	Strings []string  `cbor:"6,keyasint,omitempty"`
}

func encodeFields(fields docstore.Fields) ([]byte, error) {
	wire := make(map[string]wireValue, len(fields))
	for name, value := range fields {
		switch typed := value.(type) {
		case nil:
			wire[name] = wireValue{Kind: kindNull}
		case string:
			wire[name] = wireValue{Kind: kindString, String: typed}
		case bool:
			wire[name] = wireValue{Kind: kindBool, Bool: typed}
		case int64:
			wire[name] = wireValue{Kind: kindInt, Int: typed}
		case float64:
			wire[name] = wireValue{Kind: kindFloat, Float: typed}
		case time.Time:
			wire[name] = wireValue{Kind: kindTime, Int: typed.UnixNano()}
		case []string:
			wire[name] = wireValue{Kind: kindStrings, Strings: typed}
		default:
			return nil, fmt.Errorf("field %q: unsupported stored type %T", name, value)
		}
	}
	return codec.Marshal(wire)
}

func decodeFields(body []byte) (docstore.Fields, error) {
	var wire map[string]wireValue
	if err := codec.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	fields := make(docstore.Fields, len(wire))
	for name, value := range wire {
		switch value.Kind {
		case kindNull:
			fields[name] = nil
		case kindString:
			fields[name] = value.String
		case kindBool:
			fields[name] = value.Bool
		case kindInt:
			fields[name] = value.Int
		case kindFloat:
			fields[name] = value.Float
		case kindTime:
			fields[name] = time.Unix(0, value.Int).UTC()
		case kindStrings:
			if value.Strings == nil {
				value.Strings = []string{}
			}
			fields[name] = value.Strings
		default:
			return nil, fmt.Errorf("field %q: unknown value kind %d", name, value.Kind)
		}
	}
	return fields, nil
}
