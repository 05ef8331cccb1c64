package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/metalink/pkg/embedder"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/soundprediction/metalink/pkg/utils"
)

// DefaultSmoothingRounds is how many neighbor-averaging passes the
// label trainer applies after embedding node texts.
const DefaultSmoothingRounds = 2

// LabelTrainer embeds each node's label text and then smooths the
// vectors over the graph structure: every round replaces a node's
// vector with the normalized mean of itself and its neighbors, so
// structurally close nodes drift together. Deterministic for a fixed
// snapshot and embedding model.
type LabelTrainer struct {
	client embedder.Client
	rounds int
}

// NewLabelTrainer creates the default trainer. rounds <= 0 selects
// DefaultSmoothingRounds.
func NewLabelTrainer(client embedder.Client, rounds int) *LabelTrainer {
	if rounds <= 0 {
		rounds = DefaultSmoothingRounds
	}
	return &LabelTrainer{client: client, rounds: rounds}
}

// Train computes one vector per snapshot node.
func (t *LabelTrainer) Train(ctx context.Context, snapshot *Snapshot) (map[string][]float32, error) {
	texts := make([]string, len(snapshot.Nodes))
	for i, node := range snapshot.Nodes {
		texts[i] = nodeText(node)
	}

	raw, err := t.client.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed node texts: %w", err)
	}
	if len(raw) != len(snapshot.Nodes) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(snapshot.Nodes), len(raw))
	}

	vectors := make(map[string][]float32, len(snapshot.Nodes))
	for i, node := range snapshot.Nodes {
		if v := utils.Normalize(raw[i]); v != nil {
			vectors[node.ID] = v
		}
	}

	for round := 0; round < t.rounds; round++ {
		vectors = t.smooth(snapshot, vectors)
	}
	return vectors, nil
}

// smooth averages each node with its neighbors once. Nodes without a
// vector (zero-magnitude text embedding) stay absent.
func (t *LabelTrainer) smooth(snapshot *Snapshot, vectors map[string][]float32) map[string][]float32 {
	out := make(map[string][]float32, len(vectors))
	for _, node := range snapshot.Nodes {
		self, ok := vectors[node.ID]
		if !ok {
			continue
		}
		group := [][]float32{self}
		for _, neighborID := range snapshot.Neighbors[node.ID] {
			if v, ok := vectors[neighborID]; ok {
				group = append(group, v)
			}
		}
		if smoothed := utils.Normalize(utils.Mean(group)); smoothed != nil {
			out[node.ID] = smoothed
		} else {
			out[node.ID] = self
		}
	}
	return out
}

// nodeText assembles the text embedded for a node: its display name
// plus the raw source spellings that mapped to it.
func nodeText(node *types.Node) string {
	if len(node.RawTexts) == 0 {
		return node.Name
	}
	return node.Name + " " + strings.Join(node.RawTexts, " ")
}
