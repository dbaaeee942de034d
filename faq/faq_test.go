// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package faq

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/docstoretest"
	"github.com/bureau-foundation/supportdesk/lib/clock"
)

func questions(entries []FAQ) []string {
	result := make([]string, len(entries))
	for i, entry := range entries {
		result[i] = entry.Question
	}
	return result
}

func ids(entries []FAQ) []string {
	result := make([]string, len(entries))
	for i, entry := range entries {
		result[i] = entry.ID
	}
	return result
}

func seededStore(t *testing.T, entries []FAQ) *docstoretest.FaultStore {
	t.Helper()
	db := docstoretest.NewDB(t, clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	if _, err := Seed(context.Background(), db, entries); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return docstoretest.Wrap(db)
}

var catalog = []FAQ{
	{ID: "a", Question: "Can I pay by card?", Answer: "Cards are accepted.", Keywords: []string{"billing"}},
	{ID: "b", Question: "How do I reset my password?", Answer: "Use the reset link.", Keywords: []string{"login", "password"}},
	{ID: "c", Question: "Is there an API?", Answer: "Yes, with a token.", Keywords: []string{"developer"}},
	{ID: "d", Question: "What are your hours?", Answer: "Weekdays.", Keywords: []string{"schedule"}},
	{ID: "e", Question: "Where are invoices?", Answer: "Under billing.", Keywords: []string{"invoice"}},
	{ID: "f", Question: "Zebra question outside the window", Answer: "password everywhere", Keywords: []string{"password"}},
}

func TestAllOrdersByQuestion(t *testing.T) {
	store := seededStore(t, catalog)
	all := NewCatalog(store, nil).All(context.Background())
	got := questions(all)
	if !slices.IsSorted(got) || len(got) != len(catalog) {
		t.Errorf("All() = %v", got)
	}
	if !slices.Equal(all[1].Keywords, []string{"login", "password"}) {
		t.Errorf("keywords = %v", all[1].Keywords)
	}
}

func TestSearch(t *testing.T) {
	store := seededStore(t, catalog)
	faqs := NewCatalog(store, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		want     []string
	}{
		// "password" scores b 2+3; f is outside the first five by
		// question order and is never scored.
		{"keyword and question", "forgot password", []string{"b"}},
		{"keyword outranks question", "BILLING", []string{"a", "e"}},
		{"no match falls back to first three", "xyzzy", []string{"a", "b", "c"}},
		{"blank question falls back", "   ", []string{"a", "b", "c"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ids(faqs.Search(ctx, test.question)); !slices.Equal(got, test.want) {
				t.Errorf("Search(%q) = %v, want %v", test.question, got, test.want)
			}
		})
	}
}

func TestRankCapsResults(t *testing.T) {
	entries := []FAQ{
		{ID: "1", Question: "help one", Answer: "x"},
		{ID: "2", Question: "help two", Answer: "help"},
		{ID: "3", Question: "help three", Answer: "x", Keywords: []string{"help"}},
		{ID: "4", Question: "help four", Answer: "x"},
	}
	if got := ids(rank(entries, "help")); !slices.Equal(got, []string{"3", "2", "1"}) {
		t.Errorf("rank = %v", got)
	}
}

func TestStoreFailureYieldsEmpty(t *testing.T) {
	store := seededStore(t, catalog)
	store.FailQuery(func(docstore.Query) error { return docstoretest.ErrUnavailable })
	faqs := NewCatalog(store, nil)
	if all := faqs.All(context.Background()); all == nil || len(all) != 0 {
		t.Errorf("All() = %v, want empty", all)
	}
	if found := faqs.Search(context.Background(), "password"); len(found) != 0 {
		t.Errorf("Search() = %v, want empty", found)
	}
}

func TestSeedSkipsExisting(t *testing.T) {
	db := docstoretest.NewDB(t, clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	first, err := Seed(ctx, db, catalog[:2])
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if first != (SeedResult{Added: 2, Total: 2}) {
		t.Errorf("first seed = %+v", first)
	}

	second, err := Seed(ctx, db, catalog[:3])
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if second != (SeedResult{Added: 1, Skipped: 2, Total: 3}) {
		t.Errorf("second seed = %+v", second)
	}
}

func TestSeedRejectsInvalidEntries(t *testing.T) {
	db := docstoretest.NewDB(t, clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	_, err := Seed(context.Background(), db, []FAQ{{ID: "bad id", Question: "q"}})
	if err == nil {
		t.Fatal("Seed accepted an invalid entry")
	}
	for _, want := range []string{"contains '/' or a space", "answer is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.jsonc")
	content := `// support answers
[
  {
    "id": "hours",
    "question": "When are you open?", /* shown first */
    "answer": "Weekdays.",
    "keywords": ["hours",],
  },
]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "hours" || !slices.Equal(entries[0].Keywords, []string{"hours"}) {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("LoadSeedFile of a missing file succeeded")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	defaults := Defaults()
	if len(defaults) == 0 {
		t.Fatal("no built-in entries")
	}
	for _, entry := range defaults {
		if err := entry.Validate(); err != nil {
			t.Error(err)
		}
	}
}
