// Package types defines the core data model shared by every pipeline
// stage: metadata records pulled from the portal, vocabulary concepts,
// link candidates, graph nodes and edges, and embedding vectors.
//
// All graph entities are keyed by canonical identifiers (the portal id
// or the concept curie), never by internal surrogates, so repeated
// pipeline runs address the same nodes.
package types
