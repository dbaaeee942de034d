// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bureau-foundation/supportdesk/lib/clock"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// KeyValueStore is the device-local storage the identity resolver
// reads and writes. devicestate.Store implements it.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Device-local keys. The names match what the browser widget stored,
// so a migrated state file keeps its identities.
const (
	VisitorIDKey = "supportWidget_userId"
	AgentIDKey   = "supportWidget_agentId"
	AgentNameKey = "supportWidget_agentName"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// IdentityResolver returns a stable participant id per device.
type IdentityResolver struct {
	store  KeyValueStore
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	resolved map[ref.ParticipantKind]ref.ParticipantID
}

// NewIdentityResolver returns a resolver over store. A nil store
// behaves like one that is always unavailable.
func NewIdentityResolver(store KeyValueStore, clk clock.Clock, logger *slog.Logger) *IdentityResolver {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IdentityResolver{
		store:    store,
		clock:    clk,
		logger:   logger,
		resolved: make(map[ref.ParticipantKind]ref.ParticipantID),
	}
}

func keyFor(kind ref.ParticipantKind) string {
	if kind == ref.KindAgent {
		return AgentIDKey
	}
	return VisitorIDKey
}

// Resolve returns the persisted id for kind, generating and persisting
// one on first use. When the store cannot be read or written the id
// lives only as long as this resolver; repeated calls still agree.
// Kinds other than visitor and agent resolve as visitor.
func (r *IdentityResolver) Resolve(kind ref.ParticipantKind) ref.ParticipantID {
	if !kind.Valid() {
		kind = ref.KindVisitor
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.resolved[kind]; ok {
		return id
	}

	key := keyFor(kind)
	persist := r.store != nil
	if persist {
		raw, found, err := r.store.Get(key)
		switch {
		case err != nil:
			r.logger.Warn("identity store unavailable, using a process-lifetime id",
				"key", key,
				"error", err,
			)
			persist = false
		case found:
			if id, err := ref.ParseParticipantID(raw); err == nil {
				r.resolved[kind] = id
				return id
			}
			r.logger.Warn("stored identity is malformed, replacing it", "key", key, "value", raw)
		}
	}

	id := r.generate(kind)
	if persist {
		if err := r.store.Set(key, id.String()); err != nil {
			r.logger.Warn("identity store unavailable, using a process-lifetime id",
				"key", key,
				"error", err,
			)
		}
	}
	r.resolved[kind] = id
	return id
}

// generate mints "<kind>_<unix millis>_<9 base36 chars>".
func (r *IdentityResolver) generate(kind ref.ParticipantKind) ref.ParticipantID {
	// crypto/rand.Reader does not return errors.
	suffix, _ := base36Suffix(rand.Reader, 9)
	raw := kind.Prefix() + strconv.FormatInt(r.clock.Now().UnixMilli(), 10) + "_" + suffix
	return ref.MustParseParticipantID(raw)
}

// base36Suffix draws n uniformly distributed base36 characters from
// source. Bytes at or above the largest multiple of 36 are discarded
// so every character is equally likely.
func base36Suffix(source io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(base36Alphabet)
	suffix := make([]byte, 0, n)
	buffer := make([]byte, n+n/4+1)
	for len(suffix) < n {
		if _, err := io.ReadFull(source, buffer); err != nil {
			return "", fmt.Errorf("chatsync: reading random bytes: %w", err)
		}
		for _, b := range buffer {
			if int(b) >= limit {
				continue
			}
			suffix = append(suffix, base36Alphabet[int(b)%len(base36Alphabet)])
			if len(suffix) == n {
				break
			}
		}
	}
	return string(suffix), nil
}

// DisplayName returns the persisted agent display name, storing
// fallback when none is recorded yet.
func (r *IdentityResolver) DisplayName(fallback string) string {
	if r.store == nil {
		return fallback
	}
	name, found, err := r.store.Get(AgentNameKey)
	if err == nil && found && name != "" {
		return name
	}
	if err == nil && fallback != "" {
		if err := r.store.Set(AgentNameKey, fallback); err != nil {
			r.logger.Warn("could not persist agent name", "error", err)
		}
	}
	return fallback
}

// SetDisplayName persists the agent display name.
func (r *IdentityResolver) SetDisplayName(name string) error {
	if r.store == nil {
		return fmt.Errorf("chatsync: no identity store")
	}
	return r.store.Set(AgentNameKey, name)
}
