// Package embedder provides text embedding clients used for
// embedding-space entity matching and graph node embeddings.
//
// Two providers are supported: a local in-process runtime
// (embed-everything) and any OpenAI-compatible embeddings API. Both
// satisfy the Client interface, which batches internally based on
// provider limits.
package embedder
