package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// snapshotRow is one exported embedding, vector JSON-encoded for a
// stable column type.
type snapshotRow struct {
	NodeID  string `parquet:"node_id"`
	Version int64  `parquet:"version"`
	Vector  string `parquet:"vector"`
}

// ExportSnapshot writes the current published embedding version to a
// Parquet file, rows ordered by node identifier.
func (e *Engine) ExportSnapshot(ctx context.Context, path string) error {
	vectors, version, err := e.Current(ctx)
	if err != nil {
		return fmt.Errorf("load current version: %w", err)
	}

	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]snapshotRow, 0, len(ids))
	for _, id := range ids {
		payload, err := json.Marshal(vectors[id])
		if err != nil {
			return fmt.Errorf("encode vector for %q: %w", id, err)
		}
		rows = append(rows, snapshotRow{NodeID: id, Version: version, Vector: string(payload)})
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write embedding snapshot: %w", err)
	}
	return nil
}
