package types

import (
	"errors"
	"sort"
	"time"
)

// Validation errors
var (
	ErrEmptyID         = errors.New("id cannot be empty")
	ErrEmptyLabel      = errors.New("label cannot be empty")
	ErrEmptyVocabulary = errors.New("vocabulary cannot be empty")
	ErrInvalidLimit    = errors.New("limit must be positive")
)

// RecordType tags the kind of portal item a metadata record came from.
type RecordType string

const (
	DatasetRecord RecordType = "dataset"
	ProjectRecord RecordType = "project"
	FileRecord    RecordType = "file"
	WikiRecord    RecordType = "wiki"
)

// RecordStatus marks whether a record arrived with all required fields.
type RecordStatus string

const (
	RecordComplete   RecordStatus = "complete"
	RecordIncomplete RecordStatus = "incomplete"
)

// FieldValue is one normalized metadata field. List-valued source
// fields are exploded into Values; Raw keeps the original text.
type FieldValue struct {
	Raw     string   `json:"raw"`
	Values  []string `json:"values"`
	Present bool     `json:"present"`
}

// MetadataRecord is one item extracted from the portal. Records are
// immutable once emitted: a later extraction run supersedes the record
// rather than mutating it.
type MetadataRecord struct {
	ID          string                `json:"id"`
	Type        RecordType            `json:"type"`
	Fields      map[string]FieldValue `json:"fields"`
	Status      RecordStatus          `json:"status"`
	Scope       string                `json:"scope"`
	ParentID    string                `json:"parent_id,omitempty"`
	ExtractedAt time.Time             `json:"extracted_at"`
}

// Validate checks the fields required on every record.
func (r *MetadataRecord) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// Field returns the named field value; Present is false when the
// portal never supplied it.
func (r *MetadataRecord) Field(name string) FieldValue {
	if r.Fields == nil {
		return FieldValue{}
	}
	return r.Fields[name]
}

// FieldNames returns the record's field names in sorted order so that
// iteration over a record is deterministic.
func (r *MetadataRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Concept is an external knowledge-base term. Concepts are read-only
// reference data; the pipeline never writes back to the vocabulary.
type Concept struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Vocabulary string   `json:"vocabulary"`
	AltLabels  []string `json:"alt_labels,omitempty"`
	IRI        string   `json:"iri,omitempty"`
}

// Validate checks the fields required on every concept.
func (c *Concept) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.Label == "" {
		return ErrEmptyLabel
	}
	return nil
}

// MatchMethod identifies which linker stage produced a candidate.
type MatchMethod string

const (
	MatchExact     MatchMethod = "exact"
	MatchFuzzy     MatchMethod = "fuzzy"
	MatchEmbedding MatchMethod = "embedding"
)

// LinkCandidate is a scored proposed association between one metadata
// field value and a vocabulary concept. Confidence is in [0,1];
// exactly one candidate per field may end up accepted.
type LinkCandidate struct {
	RecordID   string      `json:"record_id"`
	Field      string      `json:"field"`
	Value      string      `json:"value"`
	Concept    Concept     `json:"concept"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"method"`
	Accepted   bool        `json:"accepted"`
}

// LinkOutcome describes what the linker decided for one field value.
type LinkOutcome string

const (
	OutcomeLinked   LinkOutcome = "linked"
	OutcomeUnlinked LinkOutcome = "unlinked"
)

// ScopeReport summarizes one portal scope's rebuild run.
type ScopeReport struct {
	Scope     string        `json:"scope"`
	Extracted int           `json:"extracted"`
	Linked    int           `json:"linked"`
	Unlinked  int           `json:"unlinked"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       string        `json:"error,omitempty"`
}

// RebuildReport aggregates per-scope reports plus the embedding
// outcome of one rebuild cycle.
type RebuildReport struct {
	Scopes           []ScopeReport `json:"scopes"`
	EmbeddingVersion int64         `json:"embedding_version,omitempty"`
	Degraded         bool          `json:"degraded"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
}
