// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// zeroTime stands in for the clock when normalizing filter values.
var zeroTime time.Time

type serverTimestamp struct{}

// ServerTimestamp is a write-time placeholder replaced with the store
// clock's current time when the write is applied.
var ServerTimestamp any = serverTimestamp{}

// normalizeValue converts v to one of the stored value types.
func normalizeValue(v any, now time.Time) (any, error) {
	switch value := v.(type) {
	case nil, string, bool, int64, float64:
		return value, nil
	case serverTimestamp:
		return now.UTC(), nil
	case time.Time:
		return value.UTC(), nil
	case int:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case float32:
		return float64(value), nil
	case []string:
		return slices.Clone(value), nil
	default:
		return nil, Errorf(CodeInvalidArgument, "unsupported field value type %T", v)
	}
}

// normalizeFields returns a normalized copy of fields.
func normalizeFields(fields Fields, now time.Time) (Fields, error) {
	normalized := make(Fields, len(fields))
	for name, value := range fields {
		if name == "" || strings.ContainsAny(name, ". ") {
			return nil, Errorf(CodeInvalidArgument, "invalid field name %q", name)
		}
		converted, err := normalizeValue(value, now)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		normalized[name] = converted
	}
	return normalized, nil
}

// typeRank orders values of different types: null < bool < number <
// timestamp < string < array.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	case []string:
		return 5
	default:
		return 6
	}
}

// compareValues returns -1, 0, or 1.
func compareValues(a, b any) int {
	rankA, rankB := typeRank(a), typeRank(b)
	if rankA != rankB {
		return compareInts(rankA, rankB)
	}
	switch left := a.(type) {
	case nil:
		return 0
	case bool:
		right := b.(bool)
		switch {
		case left == right:
			return 0
		case !left:
			return -1
		default:
			return 1
		}
	case int64, float64:
		return compareNumbers(toFloat(a), toFloat(b))
	case time.Time:
		return left.Compare(b.(time.Time))
	case string:
		return strings.Compare(left, b.(string))
	case []string:
		return slices.Compare(left, b.([]string))
	default:
		return 0
	}
}

func valuesEqual(a, b any) bool {
	return typeRank(a) == typeRank(b) && compareValues(a, b) == 0
}

func toFloat(v any) float64 {
	switch number := v.(type) {
	case int64:
		return float64(number)
	case float64:
		return number
	default:
		return 0
	}
}

func compareNumbers(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
