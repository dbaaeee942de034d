// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"sync"

	"github.com/bureau-foundation/supportdesk/docstore"
)

// subscriptionPlan is a declared two-tier live query. The primary
// query is tried first. If the store rejects it for a missing index,
// the subscription moves permanently to the degraded query, whose
// results the caller must finish client side (sort, filter).
type subscriptionPlan struct {
	name     string
	primary  docstore.Query
	degraded docstore.Query
}

// planSubscription is the Subscription handed to callers. It owns
// whichever tier is currently attached.
type planSubscription struct {
	mu        sync.Mutex
	current   docstore.Subscription
	cancelled bool
}

func (s *planSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
}

// attach installs a tier's subscription unless the plan was cancelled
// while the tier was being opened.
func (s *planSubscription) attach(open func() docstore.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.current = open()
}

// run opens the plan. onSnapshot receives every snapshot of whichever
// tier is live. onFailure is called at most once, when the degraded
// tier fails or the primary fails for a reason a broader query cannot
// fix; no snapshot follows it.
func (e *Engine) run(plan subscriptionPlan, onSnapshot func([]docstore.Document), onFailure func(error)) docstore.Subscription {
	subscription := &planSubscription{}

	degradedError := func(err error) {
		e.logger.Warn("live query failed",
			"subscription", plan.name,
			"tier", "degraded",
			"error", err,
		)
		onFailure(err)
	}

	primaryError := func(err error) {
		if !docstore.IsCode(err, docstore.CodeFailedPrecondition) {
			e.logger.Warn("live query failed",
				"subscription", plan.name,
				"tier", "primary",
				"error", err,
			)
			onFailure(err)
			return
		}
		e.logger.Info("index unavailable, using degraded query",
			"subscription", plan.name,
			"primary", plan.primary.String(),
			"degraded", plan.degraded.String(),
		)
		subscription.attach(func() docstore.Subscription {
			return e.store.Watch(plan.degraded, onSnapshot, degradedError)
		})
	}

	subscription.attach(func() docstore.Subscription {
		return e.store.Watch(plan.primary, onSnapshot, primaryError)
	})
	return subscription
}
