package types

import (
	"sort"
	"time"
)

// NodeType represents the type of a graph node.
type NodeType string

const (
	// DatasetNodeType represents portal datasets.
	DatasetNodeType NodeType = "dataset"
	// ProjectNodeType represents portal projects (studies).
	ProjectNodeType NodeType = "project"
	// FileNodeType represents portal files.
	FileNodeType NodeType = "file"
	// WikiNodeType represents a project's wiki page.
	WikiNodeType NodeType = "wiki"
	// ConceptNodeType represents linked vocabulary concepts.
	ConceptNodeType NodeType = "concept"
)

// maxRawTexts caps the accumulated raw-text variants kept per node.
const maxRawTexts = 20

// Node is the canonical graph representation of a metadata record or
// concept. ID is the canonical identifier (portal id or concept id);
// it uniquely determines the node across rebuilds.
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	// RawTexts accumulates the source spellings that mapped to this
	// node, set-union on merge.
	RawTexts  []string  `json:"raw_texts,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the Node has all required fields set.
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// Merge folds other into n with last-write-wins per attribute and
// set-union of raw texts. The node identity fields are untouched.
func (n *Node) Merge(other *Node) {
	if other == nil {
		return
	}
	if other.Name != "" {
		n.Name = other.Name
	}
	if other.Type != "" {
		n.Type = other.Type
	}
	if len(other.Attributes) > 0 && n.Attributes == nil {
		n.Attributes = make(map[string]any, len(other.Attributes))
	}
	for k, v := range other.Attributes {
		n.Attributes[k] = v
	}
	n.RawTexts = unionRawTexts(n.RawTexts, other.RawTexts)
	if !other.UpdatedAt.IsZero() {
		n.UpdatedAt = other.UpdatedAt
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := *n
	if n.Attributes != nil {
		out.Attributes = make(map[string]any, len(n.Attributes))
		for k, v := range n.Attributes {
			out.Attributes[k] = v
		}
	}
	if n.RawTexts != nil {
		out.RawTexts = append([]string(nil), n.RawTexts...)
	}
	return &out
}

func unionRawTexts(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, t := range a {
		seen[t] = struct{}{}
	}
	for _, t := range b {
		if t == "" {
			continue
		}
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) > maxRawTexts {
		out = out[:maxRawTexts]
	}
	return out
}

// Neighbor pairs a neighboring node with the edge type that reaches it.
type Neighbor struct {
	Node     *Node    `json:"node"`
	EdgeType EdgeType `json:"edge_type"`
}

// EmbeddingVector is a fixed-dimension vector attached to a node,
// tagged with the embedding run that produced it. A node has at most
// one current vector per version.
type EmbeddingVector struct {
	NodeID  string    `json:"node_id"`
	Vector  []float32 `json:"vector"`
	Version int64     `json:"version"`
}
