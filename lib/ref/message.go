// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefixes of locally synthesized notice ids. Notices live only in a
// widget transcript and are never written to the store.
const (
	errorNoticePrefix   = "error_"
	welcomeNoticePrefix = "welcome_"
)

// MessageID identifies a message document.
type MessageID struct {
	id string
}

// ParseMessageID wraps a raw message identifier.
func ParseMessageID(raw string) (MessageID, error) {
	if raw == "" {
		return MessageID{}, fmt.Errorf("empty message ID")
	}
	if strings.ContainsAny(raw, "/ \t\r\n") {
		return MessageID{}, fmt.Errorf("message ID contains '/' or whitespace: %q", raw)
	}
	return MessageID{id: raw}, nil
}

// MustParseMessageID is ParseMessageID for constants and tests.
func MustParseMessageID(raw string) MessageID {
	id, err := ParseMessageID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// NewErrorNoticeID returns the id of a locally inserted send-failure
// notice.
func NewErrorNoticeID(now time.Time) MessageID {
	return MessageID{id: errorNoticePrefix + strconv.FormatInt(now.UnixMilli(), 10)}
}

// NewWelcomeNoticeID returns the id of the locally inserted greeting
// shown when a visitor starts a chat.
func NewWelcomeNoticeID(now time.Time) MessageID {
	return MessageID{id: welcomeNoticePrefix + strconv.FormatInt(now.UnixMilli(), 10)}
}

// IsLocalNotice reports whether m names a synthesized notice rather
// than a store document.
func (m MessageID) IsLocalNotice() bool {
	return strings.HasPrefix(m.id, errorNoticePrefix) || strings.HasPrefix(m.id, welcomeNoticePrefix)
}

// IsWelcomeNotice reports whether m names a welcome notice.
func (m MessageID) IsWelcomeNotice() bool {
	return strings.HasPrefix(m.id, welcomeNoticePrefix)
}

func (m MessageID) String() string { return m.id }

// IsZero reports whether m is the zero value.
func (m MessageID) IsZero() bool { return m.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (m MessageID) MarshalText() ([]byte, error) { return []byte(m.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MessageID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = MessageID{}
		return nil
	}
	parsed, err := ParseMessageID(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
