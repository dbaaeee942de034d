// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"maps"
	"slices"
	"time"
)

// Fields holds a document's field values by name.
type Fields map[string]any

// Clone returns a copy of f that shares no mutable state with it.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	clone := maps.Clone(f)
	for name, value := range clone {
		if list, ok := value.([]string); ok {
			clone[name] = slices.Clone(list)
		}
	}
	return clone
}

// Document is one stored document.
type Document struct {
	ID     string `cbor:"id"`
	Fields Fields `cbor:"fields"`
}

// Value returns the raw value of a field and whether it is present.
func (d Document) Value(field string) (any, bool) {
	value, ok := d.Fields[field]
	return value, ok
}

// String returns a string field, or "" when absent or not a string.
func (d Document) String(field string) string {
	value, _ := d.Fields[field].(string)
	return value
}

// Bool returns a bool field, or false when absent or not a bool.
func (d Document) Bool(field string) bool {
	value, _ := d.Fields[field].(bool)
	return value
}

// Time returns a timestamp field, or the zero time when absent or not
// a timestamp.
func (d Document) Time(field string) time.Time {
	value, _ := d.Fields[field].(time.Time)
	return value
}

// Strings returns a string-list field, or nil.
func (d Document) Strings(field string) []string {
	value, _ := d.Fields[field].([]string)
	return value
}

func cloneDocuments(documents []Document) []Document {
	clones := make([]Document, len(documents))
	for i, document := range documents {
		clones[i] = Document{ID: document.ID, Fields: document.Fields.Clone()}
	}
	return clones
}
