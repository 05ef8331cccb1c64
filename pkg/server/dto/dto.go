// Package dto defines the request and response shapes of the query
// API consumed by the portal UI.
package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/metalink/pkg/types"
)

// SearchRequest is the body of POST /api/v1/search. Exactly one of
// Query or SeedID must be set.
type SearchRequest struct {
	Query           string   `json:"query"`
	SeedID          string   `json:"seed_id"`
	Limit           int      `json:"limit"`
	MinScore        float64  `json:"min_score"`
	LexicalWeight   float64  `json:"lexical_weight"`
	EmbeddingWeight float64  `json:"embedding_weight"`
	NodeTypes       []string `json:"node_types"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	hasQuery := strings.TrimSpace(r.Query) != ""
	hasSeed := strings.TrimSpace(r.SeedID) != ""
	if hasQuery == hasSeed {
		return errors.New("exactly one of query or seed_id is required")
	}
	if r.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// SearchConfig maps the request onto the service configuration.
func (r *SearchRequest) SearchConfig() *types.SearchConfig {
	cfg := &types.SearchConfig{
		Limit:           r.Limit,
		MinScore:        r.MinScore,
		LexicalWeight:   r.LexicalWeight,
		EmbeddingWeight: r.EmbeddingWeight,
	}
	for _, nt := range r.NodeTypes {
		cfg.NodeTypes = append(cfg.NodeTypes, types.NodeType(nt))
	}
	return cfg
}

// RebuildRequest is the body of POST /api/v1/rebuild.
type RebuildRequest struct {
	Scopes []string `json:"scopes" binding:"required"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
