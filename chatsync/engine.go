// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/clock"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrEmptyMessage is returned when message text is blank after
	// trimming.
	ErrEmptyMessage = errors.New("chatsync: message text is empty")

	// ErrConversationNotDurable is returned for operations on a
	// placeholder conversation id that could not be re-resolved against
	// the store.
	ErrConversationNotDurable = errors.New("chatsync: conversation is not yet stored")

	// ErrNoSelection is returned by console operations that need an
	// open conversation.
	ErrNoSelection = errors.New("chatsync: no conversation selected")
)

// RetryPolicy bounds the retries of one-shot store operations. Only
// CodeUnavailable failures are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	// Default: 3
	Attempts int
	// BaseDelay is the wait before the second try; each further wait
	// doubles it. Default: 200ms
	BaseDelay time.Duration
}

// Config configures an Engine.
type Config struct {
	// Store is the document store. Required.
	Store docstore.Store

	// Clock stamps message times and placeholder ids, and paces
	// retries. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Retry is the one-shot retry policy.
	Retry RetryPolicy

	// MarkReadTimeout bounds each per-message read update.
	// Default: 10s
	MarkReadTimeout time.Duration
}

// Engine runs the synchronization operations over one store.
type Engine struct {
	store           docstore.Store
	clock           clock.Clock
	logger          *slog.Logger
	retry           RetryPolicy
	markReadTimeout time.Duration
}

// NewEngine validates the config and applies defaults.
func NewEngine(config Config) (*Engine, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("chatsync: Config.Store is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Retry.Attempts <= 0 {
		config.Retry.Attempts = 3
	}
	if config.Retry.BaseDelay <= 0 {
		config.Retry.BaseDelay = 200 * time.Millisecond
	}
	if config.MarkReadTimeout <= 0 {
		config.MarkReadTimeout = 10 * time.Second
	}
	return &Engine{
		store:           config.Store,
		clock:           config.Clock,
		logger:          config.Logger,
		retry:           config.Retry,
		markReadTimeout: config.MarkReadTimeout,
	}, nil
}

// Clock returns the engine's clock.
func (e *Engine) Clock() clock.Clock { return e.clock }

// retryOneShot runs operation until it succeeds, fails with anything
// other than CodeUnavailable, or exhausts the retry policy.
func (e *Engine) retryOneShot(ctx context.Context, name string, operation func(ctx context.Context) error) error {
	delay := e.retry.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = operation(ctx)
		if err == nil || !docstore.IsCode(err, docstore.CodeUnavailable) || attempt >= e.retry.Attempts {
			return err
		}
		e.logger.Debug("retrying store operation",
			"operation", name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w (last error: %v)", name, ctx.Err(), err)
		case <-e.clock.After(delay):
		}
		delay *= 2
	}
}
