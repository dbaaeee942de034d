// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package faq

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/bureau-foundation/supportdesk/docstore"
)

// Collection is the document store collection holding FAQ entries.
const Collection = "faqs"

const (
	fieldQuestion = "question"
	fieldAnswer   = "answer"
	fieldKeywords = "keywords"
	fieldCategory = "category"
)

// Search tuning. Only the first searchWindow entries in question order
// are scored.
const (
	searchWindow  = 5
	searchResults = 3

	questionWeight = 2
	answerWeight   = 1
	keywordWeight  = 3
)

// FAQ is one question and its answer. Answer is markdown.
type FAQ struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
	Category string   `json:"category,omitempty"`
}

func (f FAQ) fields() docstore.Fields {
	keywords := []string{}
	if len(f.Keywords) > 0 {
		keywords = slices.Clone(f.Keywords)
	}
	fields := docstore.Fields{
		fieldQuestion: f.Question,
		fieldAnswer:   f.Answer,
		fieldKeywords: keywords,
	}
	if f.Category != "" {
		fields[fieldCategory] = f.Category
	}
	return fields
}

func fromDocument(document docstore.Document) FAQ {
	return FAQ{
		ID:       document.ID,
		Question: document.String(fieldQuestion),
		Answer:   document.String(fieldAnswer),
		Keywords: document.Strings(fieldKeywords),
		Category: document.String(fieldCategory),
	}
}

// Catalog reads FAQ entries from a document store.
type Catalog struct {
	store  docstore.Store
	logger *slog.Logger
}

// NewCatalog returns a catalog over store. A nil logger discards.
func NewCatalog(store docstore.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{store: store, logger: logger}
}

// All returns every entry ordered by question. A store failure is
// logged and yields an empty list: the FAQ panel is optional content
// and must not block the chat.
func (c *Catalog) All(ctx context.Context) []FAQ {
	return c.list(ctx, docstore.Collection(Collection).OrderBy(fieldQuestion, docstore.Ascending))
}

// Search returns up to three entries relevant to question.
//
// Each whitespace-separated term of the lowercased question scores an
// entry 2 if it occurs in the question, 1 if in the answer, and 3 if
// any keyword contains it. Entries scoring zero are dropped and the
// rest ordered by score. When nothing matches, the first three entries
// are returned so the visitor always has something to read.
func (c *Catalog) Search(ctx context.Context, question string) []FAQ {
	candidates := c.list(ctx, docstore.Collection(Collection).
		OrderBy(fieldQuestion, docstore.Ascending).
		WithLimit(searchWindow))
	return rank(candidates, question)
}

func (c *Catalog) list(ctx context.Context, query docstore.Query) []FAQ {
	documents, err := c.store.Query(ctx, query)
	if err != nil {
		c.logger.Error("listing FAQs failed", "query", query.String(), "error", err)
		return []FAQ{}
	}
	entries := make([]FAQ, len(documents))
	for i, document := range documents {
		entries[i] = fromDocument(document)
	}
	return entries
}

type scored struct {
	entry FAQ
	score int
}

func rank(candidates []FAQ, question string) []FAQ {
	terms := strings.Fields(strings.ToLower(question))

	var matches []scored
	for _, entry := range candidates {
		if score := relevance(entry, terms); score > 0 {
			matches = append(matches, scored{entry: entry, score: score})
		}
	}
	if len(matches) == 0 {
		return candidates[:min(searchResults, len(candidates))]
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	results := make([]FAQ, 0, searchResults)
	for _, match := range matches[:min(searchResults, len(matches))] {
		results = append(results, match.entry)
	}
	return results
}

func relevance(entry FAQ, terms []string) int {
	question := strings.ToLower(entry.Question)
	answer := strings.ToLower(entry.Answer)
	score := 0
	for _, term := range terms {
		if strings.Contains(question, term) {
			score += questionWeight
		}
		if strings.Contains(answer, term) {
			score += answerWeight
		}
		if slices.ContainsFunc(entry.Keywords, func(keyword string) bool {
			return strings.Contains(strings.ToLower(keyword), term)
		}) {
			score += keywordWeight
		}
	}
	return score
}
