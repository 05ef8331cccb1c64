package types

import (
	"testing"
	"time"
)

func TestEdgeKey(t *testing.T) {
	t.Parallel()

	a := &Edge{SourceID: "syn1", TargetID: "C001", Type: LinksToEdgeType}
	b := &Edge{SourceID: "syn1", TargetID: "C001", Type: LinksToEdgeType, UUID: "different"}
	c := &Edge{SourceID: "syn1", TargetID: "C001", Type: MentionsEdgeType}

	if a.Key() != b.Key() {
		t.Error("edges with equal (source, target, type) must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("edges with different types must not share a key")
	}
}

func TestEdgeMerge(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := &Edge{
		UUID:       "uuid-1",
		SourceID:   "syn1",
		TargetID:   "C001",
		Type:       LinksToEdgeType,
		Provenance: StageLinker,
		Confidence: 0.8,
		CreatedAt:  created,
	}

	e.Merge(&Edge{
		SourceID:   "syn1",
		TargetID:   "C001",
		Type:       LinksToEdgeType,
		Provenance: StageLinker,
		Confidence: 0.95,
		UpdatedAt:  created.Add(time.Hour),
	})

	if e.UUID != "uuid-1" {
		t.Errorf("merge must not replace the edge UUID, got %q", e.UUID)
	}
	if e.Confidence != 0.95 {
		t.Errorf("expected refreshed confidence 0.95, got %v", e.Confidence)
	}
	if !e.CreatedAt.Equal(created) {
		t.Error("creation time must not move on merge")
	}
}

func TestEdgeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		edge    Edge
		wantErr bool
	}{
		{"valid", Edge{SourceID: "a", TargetID: "b", Type: DescribesEdgeType}, false},
		{"missing source", Edge{TargetID: "b", Type: DescribesEdgeType}, true},
		{"missing target", Edge{SourceID: "a", Type: DescribesEdgeType}, true},
		{"missing type", Edge{SourceID: "a", TargetID: "b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edge.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
