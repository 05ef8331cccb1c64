// Package portal defines the data portal boundary: a read-only query
// surface returning raw metadata items by scope. Re-querying a scope
// returns a superset-or-equal of previously seen items; the pipeline
// never assumes old items vanish.
package portal

import (
	"context"
	"errors"
)

// ErrSourceUnavailable is returned when the portal cannot be reached
// at all. It is the only condition that aborts a scope's run; a
// malformed item never does.
var ErrSourceUnavailable = errors.New("portal source unavailable")

// Wiki is the wiki page attached to a portal project, when present.
type Wiki struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Item is one raw metadata item as the portal returns it: untyped
// fields keyed by name, before any normalization.
type Item struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	ParentID string         `json:"parentId,omitempty"`
	Fields   map[string]any `json:"fields"`
	Wiki     *Wiki          `json:"wiki,omitempty"`
}

// Portal is the read-only portal collaborator.
type Portal interface {
	// Items returns the raw items for one identifier scope.
	Items(ctx context.Context, scope string) ([]Item, error)
}
