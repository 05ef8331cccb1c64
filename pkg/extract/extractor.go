// Package extract pulls raw items from the portal collaborator and
// normalizes them into typed metadata records. Partially populated
// source items are never dropped: they are emitted with absent fields
// and tagged incomplete so partial knowledge still reaches the graph.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/metalink/pkg/portal"
	"github.com/soundprediction/metalink/pkg/types"
)

// Config holds extractor configuration.
type Config struct {
	// RetryAttempts bounds how often an unreachable portal is retried
	// before the scope's run fails.
	RetryAttempts int
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
	// RequiredFields lists the fields a record of each type needs to
	// count as complete.
	RequiredFields map[types.RecordType][]string
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		RetryAttempts: 3,
		BackoffBase:   500 * time.Millisecond,
		RequiredFields: map[types.RecordType][]string{
			types.DatasetRecord: {"name", "dataType"},
			types.ProjectRecord: {"name", "diseaseFocus"},
			types.FileRecord:    {"name"},
			types.WikiRecord:    {"markdown"},
		},
	}
}

// Extractor normalizes portal items into metadata records.
type Extractor struct {
	portal portal.Portal
	config Config
	logger *slog.Logger
}

// New creates an extractor over the given portal collaborator.
func New(p portal.Portal, config Config, logger *slog.Logger) *Extractor {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 500 * time.Millisecond
	}
	if config.RequiredFields == nil {
		config.RequiredFields = DefaultConfig().RequiredFields
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{portal: p, config: config, logger: logger}
}

// Extract fetches one scope's items and returns a restartable cursor
// over the normalized records. It retries an unreachable portal with
// bounded exponential backoff before surfacing ErrSourceUnavailable.
func (e *Extractor) Extract(ctx context.Context, scope string) (*Cursor, error) {
	items, err := e.fetchWithRetry(ctx, scope)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]types.MetadataRecord, 0, len(items))
	for _, item := range items {
		record := e.normalize(item, scope, now)
		records = append(records, record)
		if item.Wiki != nil {
			records = append(records, e.normalizeWiki(item, scope, now))
		}
	}
	e.logger.Info("extracted scope",
		slog.String("scope", scope),
		slog.Int("records", len(records)))
	return &Cursor{records: records}, nil
}

func (e *Extractor) fetchWithRetry(ctx context.Context, scope string) ([]portal.Item, error) {
	var lastErr error
	for attempt := 0; attempt < e.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := e.config.BackoffBase * time.Duration(1<<(attempt-1))
			e.logger.Warn("portal unreachable, retrying",
				slog.String("scope", scope),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		items, err := e.portal.Items(ctx, scope)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("scope %s: %w", scope, lastErr)
}

// Cursor is a restartable sequence of metadata records.
type Cursor struct {
	records []types.MetadataRecord
	pos     int
}

// Next returns the next record, or ok=false when the sequence is done.
func (c *Cursor) Next() (*types.MetadataRecord, bool) {
	if c.pos >= len(c.records) {
		return nil, false
	}
	record := c.records[c.pos]
	c.pos++
	return &record, true
}

// Restart rewinds the cursor to the first record.
func (c *Cursor) Restart() { c.pos = 0 }

// Len reports the total number of records in the sequence.
func (c *Cursor) Len() int { return len(c.records) }
