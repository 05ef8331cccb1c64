// Package metalink builds and queries a metadata knowledge graph.
//
// The pipeline extracts structured metadata records from a data
// portal, links field values to external vocabulary concepts, upserts
// the result into a graph store idempotently, computes versioned node
// embeddings per rebuild, and serves hybrid lexical/embedding
// similarity queries.
//
// The Client facade wires the stages together:
//
//	client, err := metalink.New(&metalink.Config{
//	    Driver:     driver.NewMemoryDriver(),
//	    Portal:     portal.NewHTTPPortal(portalURL),
//	    Vocabulary: vocab.NewHTTPVocabulary(vocabURL, nil),
//	})
//	report, err := client.Rebuild(ctx, []string{"nf"})
//	results, err := client.Search(ctx, "diabetes mellitus", nil)
//
// Rebuilds are idempotent against unchanged portal data, and search
// degrades to lexical-only matching (flagged on the results) whenever
// no embedding version is published.
package metalink
