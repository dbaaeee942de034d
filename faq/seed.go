// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package faq

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/supportdesk/docstore"
)

//go:embed defaults.jsonc
var defaultsFile []byte

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Seed writes each entry under its own id, leaving entries that
// already exist untouched so hand edits in the store survive a reseed.
// It stops at the first store error.
func Seed(ctx context.Context, store docstore.Store, entries []FAQ) (SeedResult, error) {
	result := SeedResult{Total: len(entries)}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return result, err
		}
		_, err := store.Get(ctx, Collection, entry.ID)
		if err == nil {
			result.Skipped++
			continue
		}
		if !docstore.IsCode(err, docstore.CodeNotFound) {
			return result, fmt.Errorf("faq: checking %s: %w", entry.ID, err)
		}
		if err := store.Set(ctx, Collection, entry.ID, entry.fields()); err != nil {
			return result, fmt.Errorf("faq: writing %s: %w", entry.ID, err)
		}
		result.Added++
	}
	return result, nil
}

// Validate checks that an entry can be stored.
func (f FAQ) Validate() error {
	var errs []error
	if f.ID == "" {
		errs = append(errs, errors.New("id is required"))
	} else if strings.ContainsAny(f.ID, "/ ") {
		errs = append(errs, fmt.Errorf("id %q contains '/' or a space", f.ID))
	}
	if strings.TrimSpace(f.Question) == "" {
		errs = append(errs, errors.New("question is required"))
	}
	if strings.TrimSpace(f.Answer) == "" {
		errs = append(errs, errors.New("answer is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("faq %q: %w", f.ID, err)
	}
	return nil
}

// Parse strips comments and trailing commas from a JSONC document
// holding an array of entries and decodes it.
func Parse(data []byte) ([]FAQ, error) {
	var entries []FAQ
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing FAQ entries: %w", err)
	}
	return entries, nil
}

// LoadSeedFile reads and parses a JSONC seed file.
func LoadSeedFile(path string) ([]FAQ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Defaults returns the built-in starter catalog.
func Defaults() []FAQ {
	entries, err := Parse(defaultsFile)
	if err != nil {
		panic("faq: built-in defaults are malformed: " + err.Error())
	}
	return entries
}
