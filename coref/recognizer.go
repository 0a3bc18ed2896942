// Package coref rewrites ambiguous pronouns in an incoming user message
// using recent session history and named-entity hints. It is a best-effort
// heuristic: resolution never fails, absence of a match is a no-op.
package coref

import "context"

// Entity categories the resolver considers as referents.
const (
	CategoryPerson       = "PERSON"
	CategoryOrganization = "ORGANIZATION"
	CategoryProduct      = "PRODUCT"
	CategoryLocation     = "LOCATION"
)

// Entity is a named entity recognized in a piece of text.
type Entity struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Recognizer is the named-entity recognition collaborator. It returns
// entities in document order.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}
