// Package driver defines the graph store boundary and its
// implementations.
//
// The store contract is upsert-only from the pipeline's point of view:
// node upserts merge by canonical identifier with last-write-wins per
// attribute, and edge upserts merge on the (source, target, type)
// triple so re-running the pipeline never duplicates graph elements.
// The store's transaction discipline is the sole mutual-exclusion
// mechanism for concurrent writers.
//
// Two implementations are provided: Neo4jDriver for a real deployment
// and MemoryDriver for tests and embedded runs.
package driver
