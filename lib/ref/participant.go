// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// ParticipantKind distinguishes the two sides of a conversation.
type ParticipantKind string

const (
	// KindVisitor is a widget user.
	KindVisitor ParticipantKind = "visitor"
	// KindAgent is a console user.
	KindAgent ParticipantKind = "agent"
	// KindUnknown is reported for identifiers without a recognized
	// prefix (for example "anonymous").
	KindUnknown ParticipantKind = ""
)

// legacyVisitorPrefix is the prefix older widget builds used for
// visitor identifiers.
const legacyVisitorPrefix = "user_"

// Prefix returns the identifier prefix for the kind, including the
// trailing underscore.
func (k ParticipantKind) Prefix() string {
	return string(k) + "_"
}

// Valid reports whether k is one of the minted kinds.
func (k ParticipantKind) Valid() bool {
	return k == KindVisitor || k == KindAgent
}

// ParticipantID identifies a visitor or an agent.
type ParticipantID struct {
	id string
}

// ParseParticipantID wraps a raw participant identifier. Any non-empty
// string without whitespace is accepted; Kind reports whether it
// carries a recognized prefix.
func ParseParticipantID(raw string) (ParticipantID, error) {
	if raw == "" {
		return ParticipantID{}, fmt.Errorf("empty participant ID")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return ParticipantID{}, fmt.Errorf("participant ID contains whitespace: %q", raw)
	}
	return ParticipantID{id: raw}, nil
}

// MustParseParticipantID is ParseParticipantID for constants and tests.
func MustParseParticipantID(raw string) ParticipantID {
	id, err := ParseParticipantID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Kind reports the participant kind encoded in the prefix.
func (p ParticipantID) Kind() ParticipantKind {
	switch {
	case strings.HasPrefix(p.id, KindVisitor.Prefix()), strings.HasPrefix(p.id, legacyVisitorPrefix):
		return KindVisitor
	case strings.HasPrefix(p.id, KindAgent.Prefix()):
		return KindAgent
	default:
		return KindUnknown
	}
}

func (p ParticipantID) String() string { return p.id }

// IsZero reports whether p is the zero value.
func (p ParticipantID) IsZero() bool { return p.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (p ParticipantID) MarshalText() ([]byte, error) { return []byte(p.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// yields the zero value.
func (p *ParticipantID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = ParticipantID{}
		return nil
	}
	parsed, err := ParseParticipantID(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
