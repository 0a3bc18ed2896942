package coref

import (
	"context"
	"strings"

	"github.com/colloquy-ai/colloquy/session"
)

// bare pronouns that trigger last-user-turn expansion when they are the
// entire (normalized) input.
var pronounSet = map[string]struct{}{
	"he": {}, "she": {}, "it": {}, "they": {}, "him": {}, "her": {}, "them": {},
}

// pronoun substrings substituted when an entity referent is found. Order is
// significant: "he" runs first, so "she" never survives to its own pass.
var substitutable = []string{"he", "she", "it"}

// referent categories, in no particular priority: the first entity in the
// most recent turn wins regardless of category.
var referentCategories = map[string]struct{}{
	CategoryPerson:       {},
	CategoryOrganization: {},
	CategoryProduct:      {},
	CategoryLocation:     {},
}

// Resolver substitutes ambiguous pronouns in user input before dispatch to
// the reasoning engine. The heuristic is deliberately naive: step 3 does
// literal substring replacement, so "the" contains "he" and gets corrupted.
// That behavior is part of the observable contract and is kept as-is.
type Resolver struct {
	recognizer Recognizer
}

// NewResolver creates a Resolver backed by the given entity recognizer.
// A nil recognizer disables entity-based substitution; the bare-pronoun
// rule still applies.
func NewResolver(recognizer Recognizer) *Resolver {
	return &Resolver{recognizer: recognizer}
}

// Resolve rewrites input against history, most recent turn first:
//
//  1. If the whole input, trimmed and lowercased, is a bare pronoun, the
//     last user turn's content is prepended to the original input.
//  2. Otherwise the most recently mentioned entity (PERSON, ORGANIZATION,
//     PRODUCT or LOCATION) replaces every literal "he", "she", "it"
//     substring in the input.
//  3. With no prior user turn and no entity, input passes through unchanged.
//
// Recognizer failures are treated as "no entities found".
func (r *Resolver) Resolve(ctx context.Context, history []session.Turn, input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if _, bare := pronounSet[normalized]; bare {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == session.RoleUser {
				return history[i].Content + " " + input
			}
		}
		// No prior user turn: fall through to entity substitution.
	}

	referent, found := r.lastMentionedEntity(ctx, history)
	if !found {
		return input
	}

	resolved := input
	for _, pronoun := range substitutable {
		resolved = strings.ReplaceAll(resolved, pronoun, referent)
	}
	return resolved
}

// lastMentionedEntity scans history most-recent-first and returns the first
// referent-category entity found in any turn's content.
func (r *Resolver) lastMentionedEntity(ctx context.Context, history []session.Turn) (string, bool) {
	if r.recognizer == nil {
		return "", false
	}

	for i := len(history) - 1; i >= 0; i-- {
		entities, err := r.recognizer.Recognize(ctx, history[i].Content)
		if err != nil {
			continue
		}
		for _, e := range entities {
			if _, ok := referentCategories[e.Category]; ok {
				return e.Text, true
			}
		}
	}
	return "", false
}
