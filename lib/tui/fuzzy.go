// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is one fuzzy match. Score is zero when the pattern does
// not match. Positions are rune offsets of the matched characters.
type FuzzyResult struct {
	Score     int
	Positions []int
}

var fuzzyInit sync.Once

// FuzzyMatch scores text against pattern with fzf's V2 algorithm,
// ignoring case. slab may be nil; passing one reused across calls
// avoids per-call allocation when filtering a long list.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	fuzzyInit.Do(func() { algo.Init("default") })

	chars := util.ToChars([]byte(strings.ToLower(text)))
	lowered := []rune(strings.ToLower(string(pattern)))
	result, positions := algo.FuzzyMatchV2(false, false, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = *positions
	}
	return match
}

// NewSlab returns scratch space for repeated FuzzyMatch calls from one
// goroutine.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}
