// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is an ordering direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Filter is an equality predicate: Field == Value.
type Filter struct {
	Field string
	Value any
}

// Order sorts results by one field.
type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents from one collection. Build queries with
// Collection and the chaining methods:
//
//	docstore.Collection("messages").
//		Where("conversationId", id).
//		OrderBy("timestamp", docstore.Ascending)
//
// The chaining methods return modified copies; a Query value is never
// shared mutable state.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Collection starts a query over every document in a collection.
func Collection(name string) Query {
	return Query{Collection: name}
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Field: field, Value: value})
	return q
}

// OrderBy adds an ordering. Later orderings break ties in earlier ones.
func (q Query) OrderBy(field string, direction Direction) Query {
	q.Orders = append(slices.Clip(q.Orders), Order{Field: field, Direction: direction})
	return q
}

// WithLimit caps the result count.
func (q Query) WithLimit(limit int) Query {
	q.Limit = limit
	return q
}

// WithoutOrders drops every ordering and the limit. This is the shape
// callers fall back to when an ordered query lacks its index.
func (q Query) WithoutOrders() Query {
	q.Orders = nil
	q.Limit = 0
	return q
}

func (q Query) String() string {
	var builder strings.Builder
	builder.WriteString(q.Collection)
	for _, filter := range q.Filters {
		fmt.Fprintf(&builder, " where %s == %v", filter.Field, filter.Value)
	}
	for _, order := range q.Orders {
		fmt.Fprintf(&builder, " order by %s %s", order.Field, order.Direction)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&builder, " limit %d", q.Limit)
	}
	return builder.String()
}

func (q Query) validate() error {
	if q.Collection == "" {
		return Errorf(CodeInvalidArgument, "query has no collection")
	}
	if q.Limit < 0 {
		return Errorf(CodeInvalidArgument, "negative limit %d", q.Limit)
	}
	for _, filter := range q.Filters {
		if filter.Field == "" {
			return Errorf(CodeInvalidArgument, "filter with empty field name")
		}
		if _, err := normalizeValue(filter.Value, zeroTime); err != nil {
			return err
		}
	}
	for _, order := range q.Orders {
		if order.Field == "" {
			return Errorf(CodeInvalidArgument, "ordering with empty field name")
		}
	}
	return nil
}

// Matches reports whether a document satisfies every filter.
func (q Query) Matches(document Document) bool {
	for _, filter := range q.Filters {
		value, ok := document.Fields[filter.Field]
		if !ok {
			return false
		}
		want, err := normalizeValue(filter.Value, zeroTime)
		if err != nil || !valuesEqual(value, want) {
			return false
		}
	}
	for _, order := range q.Orders {
		if _, ok := document.Fields[order.Field]; !ok {
			return false
		}
	}
	return true
}

// Apply filters, sorts, and limits documents the way the store would
// answer this query. Ties after every ordering are broken by document
// id ascending. The input slice is not modified.
func (q Query) Apply(documents []Document) []Document {
	var result []Document
	for _, document := range documents {
		if q.Matches(document) {
			result = append(result, document)
		}
	}
	slices.SortStableFunc(result, func(a, b Document) int {
		for _, order := range q.Orders {
			comparison := compareValues(a.Fields[order.Field], b.Fields[order.Field])
			if order.Direction == Descending {
				comparison = -comparison
			}
			if comparison != 0 {
				return comparison
			}
		}
		return strings.Compare(a.ID, b.ID)
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}
