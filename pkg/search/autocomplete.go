package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/metalink/pkg/vocab"
)

// Completion is one autocomplete suggestion.
type Completion struct {
	Label  string `json:"label"`
	NodeID string `json:"node_id"`
}

// autocompleteIndex is a sorted-slice prefix index over normalized
// node labels, rebuilt after each graph rebuild.
type autocompleteIndex struct {
	mu      sync.RWMutex
	built   bool
	entries []indexEntry
}

type indexEntry struct {
	normalized string
	completion Completion
}

// RefreshAutocomplete rebuilds the label prefix index from the current
// graph. Called after a rebuild publishes new nodes.
func (s *Service) RefreshAutocomplete(ctx context.Context) error {
	nodes, err := s.driver.AllNodes(ctx)
	if err != nil {
		return fmt.Errorf("load nodes for autocomplete: %w", err)
	}

	entries := make([]indexEntry, 0, len(nodes))
	for _, node := range nodes {
		seen := map[string]struct{}{}
		for _, label := range append([]string{node.Name}, node.RawTexts...) {
			normalized := vocab.Normalize(label)
			if normalized == "" {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			entries = append(entries, indexEntry{
				normalized: normalized,
				completion: Completion{Label: label, NodeID: node.ID},
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].normalized != entries[j].normalized {
			return entries[i].normalized < entries[j].normalized
		}
		return entries[i].completion.NodeID < entries[j].completion.NodeID
	})

	s.index.mu.Lock()
	s.index.entries = entries
	s.index.built = true
	s.index.mu.Unlock()
	return nil
}

// Autocomplete returns up to limit suggestions whose normalized label
// starts with prefix, in label order. The index is built on first use
// if no refresh has happened yet.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]Completion, error) {
	s.index.mu.RLock()
	built := s.index.built
	s.index.mu.RUnlock()
	if !built {
		if err := s.RefreshAutocomplete(ctx); err != nil {
			return nil, err
		}
	}

	normalized := vocab.Normalize(prefix)
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	s.index.mu.RLock()
	defer s.index.mu.RUnlock()

	start := sort.Search(len(s.index.entries), func(i int) bool {
		return s.index.entries[i].normalized >= normalized
	})
	var out []Completion
	for i := start; i < len(s.index.entries) && len(out) < limit; i++ {
		if !strings.HasPrefix(s.index.entries[i].normalized, normalized) {
			break
		}
		out = append(out, s.index.entries[i].completion)
	}
	return out, nil
}
