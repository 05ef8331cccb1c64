package metalink

import (
	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/embedding"
	"github.com/soundprediction/metalink/pkg/portal"
)

// Error taxonomy for the pipeline, re-exported from the packages that
// produce them so callers can match with errors.Is against a single
// import.
//
// Two conditions are deliberately NOT errors: a record missing
// required fields passes through tagged incomplete, and a field value
// with no acceptable concept is recorded as an unlinked outcome.
var (
	// ErrSourceUnavailable means the portal could not be reached after
	// retries; the affected scope's run fails, other scopes continue.
	ErrSourceUnavailable = portal.ErrSourceUnavailable

	// ErrNodeNotFound is returned by node lookups for unknown
	// canonical identifiers.
	ErrNodeNotFound = driver.ErrNodeNotFound

	// ErrGraphWriteConflict means the store exhausted its transaction
	// retries serializing a write.
	ErrGraphWriteConflict = driver.ErrWriteConflict

	// ErrEmbeddingCompute means an embedding run failed; search
	// degrades to lexical-only until a later run publishes.
	ErrEmbeddingCompute = embedding.ErrCompute

	// ErrNoEmbeddingVersion means no embedding version has been
	// published yet.
	ErrNoEmbeddingVersion = embedding.ErrNoVersion
)
