// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// placeholderPrefix marks conversation ids minted locally while the
// store was unreachable.
const placeholderPrefix = "temp_"

// ConversationID identifies a conversation: either a store-assigned
// id or a local placeholder.
type ConversationID struct {
	id string
}

// ParseConversationID wraps a raw conversation identifier.
func ParseConversationID(raw string) (ConversationID, error) {
	if raw == "" {
		return ConversationID{}, fmt.Errorf("empty conversation ID")
	}
	if strings.ContainsAny(raw, "/ \t\r\n") {
		return ConversationID{}, fmt.Errorf("conversation ID contains '/' or whitespace: %q", raw)
	}
	return ConversationID{id: raw}, nil
}

// MustParseConversationID is ParseConversationID for constants and
// tests.
func MustParseConversationID(raw string) ConversationID {
	id, err := ParseConversationID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// NewPlaceholderConversationID returns a non-durable stand-in id.
func NewPlaceholderConversationID(now time.Time) ConversationID {
	return ConversationID{id: placeholderPrefix + strconv.FormatInt(now.UnixMilli(), 10)}
}

// IsPlaceholder reports whether c was minted locally and has no
// corresponding store document.
func (c ConversationID) IsPlaceholder() bool {
	return strings.HasPrefix(c.id, placeholderPrefix)
}

func (c ConversationID) String() string { return c.id }

// IsZero reports whether c is the zero value.
func (c ConversationID) IsZero() bool { return c.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (c ConversationID) MarshalText() ([]byte, error) { return []byte(c.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ConversationID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ConversationID{}
		return nil
	}
	parsed, err := ParseConversationID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
