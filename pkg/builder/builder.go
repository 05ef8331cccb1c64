// Package builder converts extracted records and accepted link
// candidates into graph nodes and edges, upserted idempotently. The
// builder exclusively owns node/edge lifecycle; writes for one record
// happen inside a single transactional scope, so a cancelled record
// commits nothing.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/types"
)

// Builder upserts record-derived graph structure into a graph store.
type Builder struct {
	driver driver.GraphDriver
	logger *slog.Logger
}

// New creates a builder on top of a graph driver.
func New(d driver.GraphDriver, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{driver: d, logger: logger.With("component", "builder")}
}

// BuildRecord upserts one record's node, its containment edges, and
// the concept nodes/edges for its accepted link candidates, all or
// nothing. Unaccepted candidates are ignored; an unlinked record still
// produces its own node.
func (b *Builder) BuildRecord(ctx context.Context, record *types.MetadataRecord, candidates []types.LinkCandidate) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record %q: %w", record.ID, err)
	}

	now := time.Now().UTC()
	return b.driver.WithTx(ctx, func(ctx context.Context, tx driver.Tx) error {
		if err := tx.UpsertNode(ctx, recordNode(record, candidates, now)); err != nil {
			return fmt.Errorf("upsert node %q: %w", record.ID, err)
		}
		if edge := containmentEdge(record, now); edge != nil {
			if err := tx.UpsertEdge(ctx, edge); err != nil {
				return fmt.Errorf("upsert edge %s: %w", edge.Key(), err)
			}
		}
		for _, candidate := range candidates {
			if !candidate.Accepted || candidate.RecordID != record.ID {
				continue
			}
			if err := tx.UpsertNode(ctx, conceptNode(candidate, now)); err != nil {
				return fmt.Errorf("upsert concept %q: %w", candidate.Concept.ID, err)
			}
			edge := linkEdge(record, candidate, now)
			if err := tx.UpsertEdge(ctx, edge); err != nil {
				return fmt.Errorf("upsert edge %s: %w", edge.Key(), err)
			}
		}
		return nil
	})
}

// EnsureIndices creates store indices before a build run.
func (b *Builder) EnsureIndices(ctx context.Context) error {
	return b.driver.CreateIndices(ctx)
}

// recordNode maps a metadata record to its graph node. Scalar fields
// land in Attributes; list fields keep their exploded values. The raw
// spellings of linked values accumulate on the node as raw texts.
func recordNode(record *types.MetadataRecord, candidates []types.LinkCandidate, now time.Time) *types.Node {
	attrs := map[string]any{
		"scope":  record.Scope,
		"status": string(record.Status),
	}
	name := ""
	for _, field := range record.FieldNames() {
		fv := record.Field(field)
		if !fv.Present {
			continue
		}
		if len(fv.Values) > 1 {
			attrs[field] = append([]string(nil), fv.Values...)
		} else {
			attrs[field] = fv.Raw
		}
		if field == "name" || (name == "" && field == "title") {
			name = fv.Raw
		}
	}
	if name == "" {
		name = record.ID
	}

	var rawTexts []string
	for _, candidate := range candidates {
		if candidate.Accepted && candidate.RecordID == record.ID {
			rawTexts = append(rawTexts, candidate.Value)
		}
	}

	return &types.Node{
		ID:         record.ID,
		Type:       nodeType(record.Type),
		Name:       name,
		Attributes: attrs,
		RawTexts:   rawTexts,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// conceptNode maps an accepted candidate's concept to a graph node,
// recording the source spelling that reached it.
func conceptNode(candidate types.LinkCandidate, now time.Time) *types.Node {
	attrs := map[string]any{"vocabulary": candidate.Concept.Vocabulary}
	if candidate.Concept.IRI != "" {
		attrs["iri"] = candidate.Concept.IRI
	}
	return &types.Node{
		ID:         candidate.Concept.ID,
		Type:       types.ConceptNodeType,
		Name:       candidate.Concept.Label,
		Attributes: attrs,
		RawTexts:   []string{candidate.Value},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// containmentEdge derives the edge implied by a record's parent:
// projects carry their files and wikis, datasets describe their
// project.
func containmentEdge(record *types.MetadataRecord, now time.Time) *types.Edge {
	if record.ParentID == "" {
		return nil
	}
	edge := &types.Edge{
		Provenance: types.StageExtractor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch record.Type {
	case types.WikiRecord:
		edge.SourceID, edge.TargetID, edge.Type = record.ParentID, record.ID, types.HasWikiEdgeType
	case types.FileRecord:
		edge.SourceID, edge.TargetID, edge.Type = record.ParentID, record.ID, types.ParentOfEdgeType
	case types.DatasetRecord:
		edge.SourceID, edge.TargetID, edge.Type = record.ID, record.ParentID, types.DescribesEdgeType
	default:
		return nil
	}
	return edge
}

// linkEdge asserts the record-to-concept relation: wiki text mentions
// a concept, any other record links to it.
func linkEdge(record *types.MetadataRecord, candidate types.LinkCandidate, now time.Time) *types.Edge {
	edgeType := types.LinksToEdgeType
	if record.Type == types.WikiRecord {
		edgeType = types.MentionsEdgeType
	}
	return &types.Edge{
		SourceID:   record.ID,
		TargetID:   candidate.Concept.ID,
		Type:       edgeType,
		Provenance: types.StageLinker,
		Confidence: candidate.Confidence,
		Attributes: map[string]any{
			"field":  candidate.Field,
			"method": string(candidate.Method),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func nodeType(rt types.RecordType) types.NodeType {
	switch rt {
	case types.DatasetRecord:
		return types.DatasetNodeType
	case types.ProjectRecord:
		return types.ProjectNodeType
	case types.FileRecord:
		return types.FileNodeType
	case types.WikiRecord:
		return types.WikiNodeType
	default:
		return types.NodeType(rt)
	}
}
