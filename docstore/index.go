// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"fmt"
	"slices"
	"strings"
)

// Index declares a composite index: a set of equality fields plus an
// ordered list of sort fields on one collection. A query is served by
// an index when its equality fields are exactly the index's equality
// fields and its orderings equal the index's orderings.
type Index struct {
	Collection string
	Equality   []string
	Orders     []Order
}

// needsIndex reports whether a query is compound under the store's
// index policy. Equality filters alone are always served by merging
// single-field indexes. An ordering needs a composite index when there
// is more than one, or when any filter is on a different field.
func needsIndex(q Query) bool {
	switch len(q.Orders) {
	case 0:
		return false
	case 1:
		for _, filter := range q.Filters {
			if filter.Field != q.Orders[0].Field {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func (index Index) serves(q Query) bool {
	if index.Collection != q.Collection {
		return false
	}
	if len(index.Equality) != len(q.Filters) || len(index.Orders) != len(q.Orders) {
		return false
	}
	for _, filter := range q.Filters {
		if !slices.Contains(index.Equality, filter.Field) {
			return false
		}
	}
	return slices.Equal(index.Orders, q.Orders)
}

func (index Index) String() string {
	parts := make([]string, 0, len(index.Equality)+len(index.Orders))
	for _, field := range index.Equality {
		parts = append(parts, field+" ==")
	}
	for _, order := range index.Orders {
		parts = append(parts, order.Field+" "+order.Direction.String())
	}
	return index.Collection + ": " + strings.Join(parts, ", ")
}

// ParseIndex parses the textual index form used in configuration:
//
//	messages: conversationId ==, timestamp asc
//
// Each comma-separated term is either "<field> ==" for an equality
// field or "<field> asc|desc" for an ordering.
func ParseIndex(text string) (Index, error) {
	collection, terms, found := strings.Cut(text, ":")
	collection = strings.TrimSpace(collection)
	if !found || collection == "" {
		return Index{}, fmt.Errorf("index %q: expected \"<collection>: <terms>\"", text)
	}
	index := Index{Collection: collection}
	for _, term := range strings.Split(terms, ",") {
		fields := strings.Fields(term)
		if len(fields) != 2 {
			return Index{}, fmt.Errorf("index %q: malformed term %q", text, strings.TrimSpace(term))
		}
		switch fields[1] {
		case "==":
			index.Equality = append(index.Equality, fields[0])
		case "asc":
			index.Orders = append(index.Orders, Order{Field: fields[0], Direction: Ascending})
		case "desc":
			index.Orders = append(index.Orders, Order{Field: fields[0], Direction: Descending})
		default:
			return Index{}, fmt.Errorf("index %q: unknown operator %q (expected ==, asc, or desc)", text, fields[1])
		}
	}
	return index, nil
}
