package types

import (
	"fmt"
	"time"
)

// EdgeType represents the typed relation an edge carries.
type EdgeType string

const (
	// DescribesEdgeType connects a dataset to the project whose data
	// it describes.
	DescribesEdgeType EdgeType = "describes"
	// MentionsEdgeType connects a wiki node to a concept found in its
	// text.
	MentionsEdgeType EdgeType = "mentions"
	// LinksToEdgeType connects a record node to an accepted concept.
	LinksToEdgeType EdgeType = "linksTo"
	// SimilarToEdgeType connects nodes related by similarity scoring.
	SimilarToEdgeType EdgeType = "similarTo"
	// HasWikiEdgeType connects a project to its wiki node.
	HasWikiEdgeType EdgeType = "hasWiki"
	// ParentOfEdgeType connects a project to the files it contains.
	ParentOfEdgeType EdgeType = "parentOf"
)

// PipelineStage names the stage that asserted an edge, kept as
// provenance on every edge.
type PipelineStage string

const (
	StageExtractor PipelineStage = "extractor"
	StageLinker    PipelineStage = "linker"
	StageBuilder   PipelineStage = "builder"
	StageEmbedding PipelineStage = "embedding"
)

// Edge is a typed relation between two nodes. Identity for merge
// purposes is the (SourceID, TargetID, Type) triple; UUID is assigned
// on first creation and survives re-assertion.
type Edge struct {
	UUID       string        `json:"uuid"`
	SourceID   string        `json:"source_id"`
	TargetID   string        `json:"target_id"`
	Type       EdgeType      `json:"type"`
	Provenance PipelineStage `json:"provenance"`
	// Confidence carries the link confidence for linksTo/mentions
	// edges, zero otherwise.
	Confidence float64        `json:"confidence,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Validate checks if the Edge has all required fields set.
func (e *Edge) Validate() error {
	if e.SourceID == "" || e.TargetID == "" {
		return ErrEmptyID
	}
	if e.Type == "" {
		return fmt.Errorf("edge %s->%s: type cannot be empty", e.SourceID, e.TargetID)
	}
	return nil
}

// Key returns the identity triple used for merge-not-duplicate
// semantics in the graph store.
func (e *Edge) Key() string {
	return fmt.Sprintf("%s|%s|%s", e.SourceID, e.TargetID, e.Type)
}

// Merge folds other into e, keeping identity and creation time while
// refreshing provenance, confidence, and attributes.
func (e *Edge) Merge(other *Edge) {
	if other == nil {
		return
	}
	if other.Provenance != "" {
		e.Provenance = other.Provenance
	}
	if other.Confidence != 0 {
		e.Confidence = other.Confidence
	}
	if len(other.Attributes) > 0 && e.Attributes == nil {
		e.Attributes = make(map[string]any, len(other.Attributes))
	}
	for k, v := range other.Attributes {
		e.Attributes[k] = v
	}
	if !other.UpdatedAt.IsZero() {
		e.UpdatedAt = other.UpdatedAt
	}
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	out := *e
	if e.Attributes != nil {
		out.Attributes = make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}
