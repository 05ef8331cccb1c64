package metalink

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/metalink/pkg/types"
)

// Rebuild runs the full pipeline for the given scopes. Scopes process
// in parallel; their canonical-identifier namespaces are independent
// and per-identifier write ordering is the graph store's concern. One
// exclusive embedding run follows the graph rebuild; its failure
// degrades search but never aborts the rebuild.
func (c *Client) Rebuild(ctx context.Context, scopes []string) (*types.RebuildReport, error) {
	report := &types.RebuildReport{StartedAt: time.Now().UTC()}

	reports := make([]types.ScopeReport, len(scopes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Parallelism)
	for i, scope := range scopes {
		g.Go(func() error {
			reports[i] = c.rebuildScope(gctx, scope)
			return nil
		})
	}
	// Workers only record failures, they never return errors, so the
	// group is used purely for the concurrency limit and ctx plumbing.
	_ = g.Wait()
	report.Scopes = reports

	if err := ctx.Err(); err != nil {
		report.FinishedAt = time.Now().UTC()
		return report, err
	}

	if c.engine != nil {
		version, err := c.engine.Rebuild(ctx)
		switch {
		case err == nil:
			report.EmbeddingVersion = version
		case errors.Is(err, ErrEmbeddingCompute):
			c.logger.Error("embedding run failed, search degrades to lexical-only", "error", err)
			report.Degraded = true
		default:
			report.FinishedAt = time.Now().UTC()
			return report, err
		}
	} else {
		report.Degraded = true
	}

	if err := c.searcher.RefreshAutocomplete(ctx); err != nil {
		c.logger.Warn("autocomplete refresh failed", "error", err)
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// rebuildScope extracts, links, and builds one scope. Per-record
// failures are counted and skipped; only an unreachable portal fails
// the scope.
func (c *Client) rebuildScope(ctx context.Context, scope string) types.ScopeReport {
	start := time.Now()
	report := types.ScopeReport{Scope: scope}

	cursor, err := c.extractor.Extract(ctx, scope)
	if err != nil {
		report.Err = err.Error()
		report.Elapsed = time.Since(start)
		c.logger.Error("scope extraction failed", "scope", scope, "error", err)
		return report
	}

	for record, ok := cursor.Next(); ok; record, ok = cursor.Next() {
		if err := ctx.Err(); err != nil {
			report.Err = err.Error()
			break
		}
		report.Extracted++

		candidates, err := c.linkRecord(ctx, record)
		if err != nil {
			report.Failed++
			c.logger.Warn("record linking failed", "scope", scope, "record", record.ID, "error", err)
			continue
		}
		if err := c.builder.BuildRecord(ctx, record, candidates); err != nil {
			report.Failed++
			c.logger.Warn("record build failed", "scope", scope, "record", record.ID, "error", err)
			continue
		}

		if hasAccepted(candidates) {
			report.Linked++
		} else {
			report.Unlinked++
		}
	}

	report.Elapsed = time.Since(start)
	c.logger.Info("scope rebuilt",
		"scope", scope,
		"extracted", report.Extracted,
		"linked", report.Linked,
		"unlinked", report.Unlinked,
		"failed", report.Failed,
		"elapsed", report.Elapsed)
	return report
}

// linkRecord routes a record to the right linking mode: wiki text is
// scanned for concept mentions, everything else links its configured
// metadata fields.
func (c *Client) linkRecord(ctx context.Context, record *types.MetadataRecord) ([]types.LinkCandidate, error) {
	if record.Type == types.WikiRecord {
		markdown := record.Field("markdown")
		if !markdown.Present {
			return nil, nil
		}
		return c.linker.Mentions(ctx, record.ID, "markdown", markdown.Raw)
	}
	return c.linker.LinkRecord(ctx, record)
}

func hasAccepted(candidates []types.LinkCandidate) bool {
	for _, candidate := range candidates {
		if candidate.Accepted {
			return true
		}
	}
	return false
}
