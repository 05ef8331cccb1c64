// Package vocab defines the external knowledge-base boundary: read-only
// concept lookup by label, assumed cacheable. Implementations cover a
// remote vocabulary service, a static in-process vocabulary, and a
// Badger-backed cache wrapper.
package vocab

import (
	"context"
	"sort"
	"strings"

	"github.com/soundprediction/metalink/pkg/types"
)

// Vocabulary is the external knowledge-base collaborator.
type Vocabulary interface {
	// Lookup returns candidate concepts for a label, best-effort
	// ordered by the vocabulary's own relevance. An empty result is
	// not an error.
	Lookup(ctx context.Context, label string) ([]types.Concept, error)

	// Concepts returns the full concept listing, used for
	// embedding-space matching over concept labels.
	Concepts(ctx context.Context) ([]types.Concept, error)
}

// Normalize canonicalizes a label for matching: lowercase, collapsed
// whitespace, stripped punctuation.
func Normalize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	lastSpace := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Static is an in-process vocabulary over a fixed concept set.
type Static struct {
	concepts []types.Concept
	byToken  map[string][]int
}

// NewStatic creates a vocabulary from the given concepts.
func NewStatic(concepts []types.Concept) *Static {
	s := &Static{
		concepts: append([]types.Concept(nil), concepts...),
		byToken:  make(map[string][]int),
	}
	sort.Slice(s.concepts, func(i, j int) bool { return s.concepts[i].ID < s.concepts[j].ID })
	for i, c := range s.concepts {
		for _, label := range append([]string{c.Label}, c.AltLabels...) {
			for _, token := range strings.Fields(Normalize(label)) {
				s.byToken[token] = append(s.byToken[token], i)
			}
		}
	}
	return s
}

// Lookup returns every concept sharing at least one normalized token
// with the query label, ordered by concept identifier.
func (s *Static) Lookup(ctx context.Context, label string) ([]types.Concept, error) {
	seen := make(map[int]struct{})
	for _, token := range strings.Fields(Normalize(label)) {
		for _, idx := range s.byToken[token] {
			seen[idx] = struct{}{}
		}
	}
	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	out := make([]types.Concept, 0, len(indices))
	for _, idx := range indices {
		out = append(out, s.concepts[idx])
	}
	return out, nil
}

// Concepts returns the full concept listing ordered by identifier.
func (s *Static) Concepts(ctx context.Context) ([]types.Concept, error) {
	out := make([]types.Concept, len(s.concepts))
	copy(out, s.concepts)
	return out, nil
}
