package types

// SearchConfig holds configuration for similarity queries.
type SearchConfig struct {
	// Limit is the maximum number of results to return.
	Limit int
	// MinScore is the minimum relevance score for results.
	MinScore float64
	// LexicalWeight and EmbeddingWeight blend the two score sources;
	// they should sum to 1.0.
	LexicalWeight   float64
	EmbeddingWeight float64
	// NodeTypes restricts results to the given types when non-empty.
	NodeTypes []NodeType
}

// Validate checks if the SearchConfig has valid values.
func (c *SearchConfig) Validate() error {
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// WithDefaults returns a copy of the config with default values
// applied. A nil receiver yields the full default config.
func (c *SearchConfig) WithDefaults() *SearchConfig {
	if c == nil {
		return &SearchConfig{
			Limit:           10,
			MinScore:        0.0,
			LexicalWeight:   0.5,
			EmbeddingWeight: 0.5,
		}
	}
	result := *c
	if result.Limit == 0 {
		result.Limit = 10
	}
	if result.LexicalWeight == 0 && result.EmbeddingWeight == 0 {
		result.LexicalWeight = 0.5
		result.EmbeddingWeight = 0.5
	}
	return &result
}

// ScoredNode pairs a result node with its relevance score.
type ScoredNode struct {
	Node  *Node   `json:"node"`
	Score float64 `json:"score"`
}

// SearchResults holds the ranked results of one similarity query.
type SearchResults struct {
	Results []ScoredNode `json:"results"`
	Query   string       `json:"query"`
	// Degraded is set when no embedding version was available and
	// scoring fell back to lexical-only matching.
	Degraded bool `json:"degraded"`
	// EmbeddingVersion is the version the scores were computed
	// against, zero when degraded.
	EmbeddingVersion int64 `json:"embedding_version,omitempty"`
}
