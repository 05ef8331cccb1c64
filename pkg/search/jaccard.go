package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/metalink/pkg/types"
)

// Edge-type weights for relatedness scoring. Direct annotation links
// count full weight; wiki text mentions are noisier, containment is
// weaker signal still.
var defaultJaccardWeights = map[types.EdgeType]float64{
	types.LinksToEdgeType:   1.0,
	types.DescribesEdgeType: 1.0,
	types.ParentOfEdgeType:  0.75,
	types.MentionsEdgeType:  0.5,
	types.SimilarToEdgeType: 0.5,
	types.HasWikiEdgeType:   0.25,
}

// Relatedness is the outcome of comparing two nodes by their shared
// neighborhoods.
type Relatedness struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	Score  float64  `json:"score"`
	Shared []string `json:"shared,omitempty"`
}

// Compare scores how related two nodes are via weighted Jaccard over
// their neighborhoods: each neighbor contributes the weight of the
// strongest edge type reaching it, and the score is the ratio of
// minimum to maximum contributions over the neighbor union. Symmetric
// and deterministic.
func (s *Service) Compare(ctx context.Context, idA, idB string) (*Relatedness, error) {
	if _, err := s.driver.GetNode(ctx, idA); err != nil {
		return nil, err
	}
	if _, err := s.driver.GetNode(ctx, idB); err != nil {
		return nil, err
	}

	weightsA, err := s.neighborWeights(ctx, idA, idB)
	if err != nil {
		return nil, err
	}
	weightsB, err := s.neighborWeights(ctx, idB, idA)
	if err != nil {
		return nil, err
	}

	var minSum, maxSum float64
	var shared []string
	for id, wa := range weightsA {
		wb, ok := weightsB[id]
		if ok {
			shared = append(shared, id)
		}
		minSum += min(wa, wb)
		maxSum += max(wa, wb)
	}
	for id, wb := range weightsB {
		if _, ok := weightsA[id]; !ok {
			maxSum += wb
		}
	}

	score := 0.0
	if maxSum > 0 {
		score = minSum / maxSum
	}
	sort.Strings(shared)
	return &Relatedness{A: idA, B: idB, Score: score, Shared: shared}, nil
}

// neighborWeights maps each neighbor of nodeID to the strongest edge
// weight reaching it, skipping the comparison partner itself.
func (s *Service) neighborWeights(ctx context.Context, nodeID, exclude string) (map[string]float64, error) {
	edges, err := s.driver.NodeEdges(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("edges of %q: %w", nodeID, err)
	}
	out := make(map[string]float64)
	for _, edge := range edges {
		other := edge.TargetID
		if other == nodeID {
			other = edge.SourceID
		}
		if other == nodeID || other == exclude {
			continue
		}
		if w := defaultJaccardWeights[edge.Type]; w > out[other] {
			out[other] = w
		}
	}
	return out, nil
}
