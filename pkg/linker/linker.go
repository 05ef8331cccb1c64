// Package linker maps normalized metadata field values to canonical
// vocabulary concepts. Candidates come from three methods applied in
// order (exact, fuzzy, embedding), with deterministic tie-breaking and
// a configurable acceptance threshold.
package linker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/soundprediction/metalink/pkg/utils"
	"github.com/soundprediction/metalink/pkg/vocab"
)

// An embedding match can never outrank an exact label match.
const maxEmbeddingConfidence = 0.99

// TextEmbedder embeds short label texts for embedding-space matching.
// The linker treats a nil embedder as "lexical methods only".
type TextEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config controls matching thresholds and disambiguation order.
type Config struct {
	// FuzzyThreshold is the minimum string similarity for a fuzzy
	// candidate to be emitted at all.
	FuzzyThreshold float64

	// AcceptanceThreshold is the minimum confidence for the winning
	// candidate to be accepted. At the threshold counts as accepted.
	AcceptanceThreshold float64

	// TieEpsilon bounds the confidence band treated as a tie at the
	// top of the candidate list.
	TieEpsilon float64

	// VocabularyPriority orders source vocabularies for tie-breaking.
	// Vocabularies not listed rank after all listed ones.
	VocabularyPriority []string

	// Fields names the metadata fields whose values get linked.
	Fields []string

	// MaxEmbeddingCandidates caps how many embedding-space neighbors
	// are emitted when lexical methods find nothing.
	MaxEmbeddingCandidates int
}

// DefaultConfig returns the default linker configuration.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:      0.8,
		AcceptanceThreshold: 0.5,
		TieEpsilon:          0.01,
		Fields: []string{
			"assay", "dataType", "diseaseFocus", "manifestation",
			"subject", "tumorType",
		},
		MaxEmbeddingCandidates: 5,
	}
}

// Linker produces scored link candidates against one vocabulary.
type Linker struct {
	vocab    vocab.Vocabulary
	embedder TextEmbedder
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	concepts []types.Concept
	vectors  [][]float32
	byLabel  map[string][]int
	loaded   bool
}

// New creates a linker. embedder may be nil to disable the
// embedding-space fallback.
func New(v vocab.Vocabulary, cfg Config, embedder TextEmbedder, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxEmbeddingCandidates <= 0 {
		cfg.MaxEmbeddingCandidates = DefaultConfig().MaxEmbeddingCandidates
	}
	return &Linker{
		vocab:    v,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("component", "linker"),
	}
}

// Link produces link candidates for one field value, ordered by
// descending confidence. Within TieEpsilon of the top, order falls
// back to vocabulary priority and then concept identifier, and the
// winner is accepted when its confidence clears the acceptance
// threshold. An empty result means the value stays unlinked.
func (l *Linker) Link(ctx context.Context, recordID, field, value string) ([]types.LinkCandidate, error) {
	normalized := vocab.Normalize(value)
	if normalized == "" {
		return nil, nil
	}

	concepts, err := l.vocab.Lookup(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("vocabulary lookup for %q: %w", value, err)
	}

	candidates := l.lexicalCandidates(recordID, field, value, normalized, concepts)
	if len(candidates) == 0 && l.embedder != nil {
		candidates, err = l.embeddingCandidates(ctx, recordID, field, value)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	l.rank(candidates)
	if candidates[0].Confidence >= l.cfg.AcceptanceThreshold {
		candidates[0].Accepted = true
	}
	return candidates, nil
}

// LinkRecord links every configured field of a record and returns the
// aggregated candidates in deterministic field order.
func (l *Linker) LinkRecord(ctx context.Context, record *types.MetadataRecord) ([]types.LinkCandidate, error) {
	var out []types.LinkCandidate
	for _, field := range l.linkFields(record) {
		fv := record.Field(field)
		if !fv.Present {
			continue
		}
		values := fv.Values
		if len(values) == 0 {
			values = []string{fv.Raw}
		}
		for _, value := range values {
			candidates, err := l.Link(ctx, record.ID, field, value)
			if err != nil {
				return nil, err
			}
			out = append(out, candidates...)
		}
	}
	return out, nil
}

// Mentions scans free text for exact normalized matches against
// vocabulary labels, using n-grams of up to three tokens. Matches are
// exact by construction, so every candidate is accepted.
func (l *Linker) Mentions(ctx context.Context, recordID, field, text string) ([]types.LinkCandidate, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}

	tokens := tokenize(text)
	seen := make(map[string]struct{})
	var out []types.LinkCandidate
	for i := range tokens {
		for n := 3; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			gram := joinTokens(tokens[i : i+n])
			for _, idx := range l.byLabel[gram] {
				concept := l.concepts[idx]
				if _, dup := seen[concept.ID]; dup {
					continue
				}
				seen[concept.ID] = struct{}{}
				out = append(out, types.LinkCandidate{
					RecordID:   recordID,
					Field:      field,
					Value:      gram,
					Concept:    concept,
					Confidence: 1.0,
					Method:     types.MatchExact,
					Accepted:   true,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Concept.ID < out[j].Concept.ID })
	return out, nil
}

func (l *Linker) linkFields(record *types.MetadataRecord) []string {
	if len(l.cfg.Fields) == 0 {
		return record.FieldNames()
	}
	return l.cfg.Fields
}

// lexicalCandidates applies the exact and fuzzy methods over the
// vocabulary's own candidate pool.
func (l *Linker) lexicalCandidates(recordID, field, value, normalized string, concepts []types.Concept) []types.LinkCandidate {
	var out []types.LinkCandidate
	for _, concept := range concepts {
		exact := false
		best := 0.0
		for _, label := range conceptLabels(concept) {
			candidate := vocab.Normalize(label)
			if candidate == normalized {
				exact = true
				break
			}
			if sim := stringSimilarity(normalized, candidate); sim > best {
				best = sim
			}
		}
		switch {
		case exact:
			out = append(out, types.LinkCandidate{
				RecordID: recordID, Field: field, Value: value,
				Concept: concept, Confidence: 1.0, Method: types.MatchExact,
			})
		case best >= l.cfg.FuzzyThreshold:
			out = append(out, types.LinkCandidate{
				RecordID: recordID, Field: field, Value: value,
				Concept: concept, Confidence: best, Method: types.MatchFuzzy,
			})
		}
	}
	return out
}

// embeddingCandidates matches the value against all concept label
// embeddings. Used only when lexical methods yield nothing.
func (l *Linker) embeddingCandidates(ctx context.Context, recordID, field, value string) ([]types.LinkCandidate, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	if len(l.vectors) == 0 {
		return nil, nil
	}

	queryVecs, err := l.embedder.Embed(ctx, []string{value})
	if err != nil {
		return nil, fmt.Errorf("embed link query %q: %w", value, err)
	}
	if len(queryVecs) == 0 {
		return nil, nil
	}

	scored := make([]utils.ScoredItem[int], 0, len(l.vectors))
	for i, vec := range l.vectors {
		sim := utils.CosineSimilarity(queryVecs[0], vec)
		if sim <= 0 {
			continue
		}
		if sim > maxEmbeddingConfidence {
			sim = maxEmbeddingConfidence
		}
		scored = append(scored, utils.ScoredItem[int]{Item: i, Score: sim})
	}

	var out []types.LinkCandidate
	for _, item := range utils.TopKByScore(scored, l.cfg.MaxEmbeddingCandidates) {
		out = append(out, types.LinkCandidate{
			RecordID: recordID, Field: field, Value: value,
			Concept:    l.concepts[item.Item],
			Confidence: item.Score,
			Method:     types.MatchEmbedding,
		})
	}
	return out, nil
}

// rank orders candidates by descending confidence; candidates within
// TieEpsilon of the top form a tie group ordered by vocabulary
// priority and then concept identifier.
func (l *Linker) rank(candidates []types.LinkCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return l.less(candidates[i], candidates[j])
	})

	top := candidates[0].Confidence
	tie := 1
	for tie < len(candidates) && top-candidates[tie].Confidence <= l.cfg.TieEpsilon {
		tie++
	}
	if tie > 1 {
		sort.Slice(candidates[:tie], func(i, j int) bool {
			return l.less(candidates[i], candidates[j])
		})
	}
}

func (l *Linker) less(a, b types.LinkCandidate) bool {
	pa, pb := l.vocabRank(a.Concept.Vocabulary), l.vocabRank(b.Concept.Vocabulary)
	if pa != pb {
		return pa < pb
	}
	return a.Concept.ID < b.Concept.ID
}

func (l *Linker) vocabRank(vocabulary string) int {
	for i, v := range l.cfg.VocabularyPriority {
		if v == vocabulary {
			return i
		}
	}
	return len(l.cfg.VocabularyPriority)
}

// load fetches the full concept listing once, builds the normalized
// label index, and embeds the labels when an embedder is configured.
func (l *Linker) load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil
	}

	concepts, err := l.vocab.Concepts(ctx)
	if err != nil {
		return fmt.Errorf("load vocabulary concepts: %w", err)
	}
	l.concepts = concepts

	l.byLabel = make(map[string][]int)
	for i, concept := range concepts {
		for _, label := range conceptLabels(concept) {
			normalized := vocab.Normalize(label)
			if normalized != "" {
				l.byLabel[normalized] = append(l.byLabel[normalized], i)
			}
		}
	}

	if l.embedder != nil && len(concepts) > 0 {
		labels := make([]string, len(concepts))
		for i, concept := range concepts {
			labels[i] = concept.Label
		}
		vectors, err := l.embedder.Embed(ctx, labels)
		if err != nil {
			return fmt.Errorf("embed concept labels: %w", err)
		}
		l.vectors = vectors
	}

	l.loaded = true
	l.logger.Debug("vocabulary loaded", "concepts", len(concepts))
	return nil
}

func conceptLabels(c types.Concept) []string {
	return append([]string{c.Label}, c.AltLabels...)
}

// stringSimilarity is 1 - normalized Levenshtein distance over the
// already-normalized strings.
func stringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func tokenize(text string) []string {
	normalized := vocab.Normalize(text)
	if normalized == "" {
		return nil
	}
	var tokens []string
	start := -1
	for i, r := range normalized {
		if r == ' ' {
			if start >= 0 {
				tokens = append(tokens, normalized[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, normalized[start:])
	}
	return tokens
}

func joinTokens(tokens []string) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	}
	out := tokens[0]
	for _, t := range tokens[1:] {
		out += " " + t
	}
	return out
}
