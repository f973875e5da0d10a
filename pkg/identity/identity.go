// Package identity fixes the identity of a write before any strategy runs, so
// that retrying the same logical write against another strategy (or replaying it
// from the pending-write log) can never produce a second document.
package identity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// NewID returns a time-ordered UUIDv7 string. It falls back to a random v4 if
// the clock source fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Slugify lowercases s, strips diacritics and joins words with hyphens:
// "Fauteuil Crème Brûlée" becomes "fauteuil-creme-brulee".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = nonSlugChars.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// Assigner decides the identity of new documents.
type Assigner struct {
	newID     func() string
	slugField map[string]string // collection -> source field for the slug
}

// NewAssigner creates an Assigner. slugSources maps collection names to the
// field a slug is derived from, e.g. {"products": "name"}.
func NewAssigner(slugSources map[string]string) *Assigner {
	a := &Assigner{newID: NewID, slugField: make(map[string]string, len(slugSources))}
	for coll, field := range slugSources {
		a.slugField[coll] = field
	}
	return a
}

// Assign returns the identity for a new document in collection along with a
// copy of payload carrying the identity and, where configured, a slug. A
// client-supplied "_id" or "id" is kept.
func (a *Assigner) Assign(collection string, payload domain.Document) (string, domain.Document) {
	doc := payload.Clone()
	if doc == nil {
		doc = domain.Document{}
	}

	id := doc.ID()
	if id == "" {
		id = a.newID()
	}
	doc[domain.IDField] = id

	if field, ok := a.slugField[collection]; ok {
		if existing, _ := doc["slug"].(string); strings.TrimSpace(existing) == "" {
			if source, ok := doc[field].(string); ok {
				if slug := Slugify(source); slug != "" {
					doc["slug"] = slug
				}
			}
		} else {
			doc["slug"] = Slugify(existing)
		}
	}
	return id, doc
}
