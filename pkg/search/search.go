// Package search answers free-text and seed-entity similarity queries
// over the knowledge graph. Scoring blends lexical matching on labels
// and raw texts with cosine similarity against the last published
// embedding version; when no version exists, queries degrade to
// lexical-only matching and say so.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/embedding"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/soundprediction/metalink/pkg/utils"
	"github.com/soundprediction/metalink/pkg/vocab"
)

// VectorSource supplies the latest published embedding version.
// *embedding.Engine satisfies it.
type VectorSource interface {
	Current(ctx context.Context) (map[string][]float32, int64, error)
}

// TextEmbedder embeds free-text queries into the same space as node
// embeddings. A nil embedder forces lexical-only free-text scoring.
type TextEmbedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Service executes similarity queries. It is read-only and stateless
// per query; concurrent use is safe and never blocks a rebuild.
type Service struct {
	driver   driver.GraphDriver
	vectors  VectorSource
	embedder TextEmbedder
	logger   *slog.Logger
	index    autocompleteIndex
}

// NewService creates a search service. vectors and embedder may be nil
// for a permanently degraded (lexical-only) service.
func NewService(d driver.GraphDriver, vectors VectorSource, embedder TextEmbedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		driver:   d,
		vectors:  vectors,
		embedder: embedder,
		logger:   logger.With("component", "search"),
	}
}

// EmbeddingAvailable reports whether a published embedding version
// exists, surfaced to callers as a capability flag.
func (s *Service) EmbeddingAvailable(ctx context.Context) bool {
	if s.vectors == nil {
		return false
	}
	_, _, err := s.currentVectors(ctx)
	return err == nil
}

// Search answers a free-text query with ranked nodes. An empty result
// is not an error. Identical query, graph, and embedding version yield
// identical output: ties are broken by canonical identifier.
func (s *Service) Search(ctx context.Context, query string, cfg *types.SearchConfig) (*types.SearchResults, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodes, err := s.driver.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}

	vectors, version, degraded := s.vectorState(ctx)
	var queryVec []float32
	if !degraded && s.embedder != nil {
		queryVec, err = s.embedder.EmbedSingle(ctx, query)
		if err != nil {
			// Embedding the query is optional capability, not
			// correctness: fall back to lexical scoring.
			s.logger.Warn("query embedding failed, degrading to lexical", "error", err)
			queryVec = nil
		}
	}
	if queryVec == nil {
		degraded = true
		version = 0
	}

	queryTokens := tokenSet(query)
	normalizedQuery := vocab.Normalize(query)
	scored := make([]types.ScoredNode, 0)
	for _, node := range nodes {
		if !typeAllowed(node.Type, cfg.NodeTypes) {
			continue
		}
		lex := lexicalScore(normalizedQuery, queryTokens, node)
		score := lex
		if !degraded {
			emb := embeddingScore(queryVec, vectors[node.ID])
			score = cfg.LexicalWeight*lex + cfg.EmbeddingWeight*emb
		}
		if score <= 0 || score < cfg.MinScore {
			continue
		}
		scored = append(scored, types.ScoredNode{Node: node, Score: score})
	}

	return &types.SearchResults{
		Results:          rank(scored, cfg.Limit),
		Query:            query,
		Degraded:         degraded,
		EmbeddingVersion: version,
	}, nil
}

// Similar answers a seed-entity query: nodes closest to the seed in
// embedding space, lexical fallback when degraded. The seed itself is
// excluded from its own results.
func (s *Service) Similar(ctx context.Context, seedID string, cfg *types.SearchConfig) (*types.SearchResults, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed, err := s.driver.GetNode(ctx, seedID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.driver.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}

	vectors, version, degraded := s.vectorState(ctx)
	seedVec := vectors[seedID]
	if seedVec == nil {
		degraded = true
		version = 0
	}

	seedTokens := tokenSet(seed.Name)
	normalizedSeed := vocab.Normalize(seed.Name)
	scored := make([]types.ScoredNode, 0)
	for _, node := range nodes {
		if node.ID == seedID || !typeAllowed(node.Type, cfg.NodeTypes) {
			continue
		}
		var score float64
		if degraded {
			score = lexicalScore(normalizedSeed, seedTokens, node)
		} else {
			lex := lexicalScore(normalizedSeed, seedTokens, node)
			emb := embeddingScore(seedVec, vectors[node.ID])
			score = cfg.LexicalWeight*lex + cfg.EmbeddingWeight*emb
		}
		if score <= 0 || score < cfg.MinScore {
			continue
		}
		scored = append(scored, types.ScoredNode{Node: node, Score: score})
	}

	return &types.SearchResults{
		Results:          rank(scored, cfg.Limit),
		Query:            seedID,
		Degraded:         degraded,
		EmbeddingVersion: version,
	}, nil
}

// vectorState resolves the published embedding version, reporting
// degraded mode instead of failing.
func (s *Service) vectorState(ctx context.Context) (map[string][]float32, int64, bool) {
	if s.vectors == nil {
		return nil, 0, true
	}
	vectors, version, err := s.currentVectors(ctx)
	if err != nil {
		if !errors.Is(err, embedding.ErrNoVersion) {
			s.logger.Warn("embedding version unavailable", "error", err)
		}
		return nil, 0, true
	}
	return vectors, version, false
}

func (s *Service) currentVectors(ctx context.Context) (map[string][]float32, int64, error) {
	return s.vectors.Current(ctx)
}

// lexicalScore blends exact-label equality (1.0) with token overlap
// between the query and the node's name plus raw texts.
func lexicalScore(normalizedQuery string, queryTokens map[string]struct{}, node *types.Node) float64 {
	if normalizedQuery == "" {
		return 0
	}
	if vocab.Normalize(node.Name) == normalizedQuery {
		return 1.0
	}
	for _, raw := range node.RawTexts {
		if vocab.Normalize(raw) == normalizedQuery {
			return 1.0
		}
	}

	nodeTokens := tokenSet(node.Name + " " + strings.Join(node.RawTexts, " "))
	if len(nodeTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}
	intersection := 0
	for token := range queryTokens {
		if _, ok := nodeTokens[token]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}
	union := len(queryTokens) + len(nodeTokens) - intersection
	// Scaled below 1.0 so token overlap never beats an exact label.
	return 0.9 * float64(intersection) / float64(union)
}

// embeddingScore maps cosine similarity into [0,1], treating missing
// vectors and opposite directions as zero.
func embeddingScore(query, candidate []float32) float64 {
	if query == nil || candidate == nil {
		return 0
	}
	cos := utils.CosineSimilarity(query, candidate)
	if cos < 0 {
		return 0
	}
	return cos
}

// rank orders by descending score with a stable identifier tie-break
// and applies the limit.
func rank(scored []types.ScoredNode, limit int) []types.ScoredNode {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Node.ID < scored[j].Node.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func typeAllowed(nt types.NodeType, allowed []types.NodeType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == nt {
			return true
		}
	}
	return false
}

func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, token := range strings.Fields(vocab.Normalize(text)) {
		out[token] = struct{}{}
	}
	return out
}
