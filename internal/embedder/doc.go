// Package embedder generates vector embeddings for memory fragments and
// search queries.
//
// Two providers are available:
//
//   - ollama: calls a local Ollama server's /api/embed endpoint with the
//     nomic-embed-text model. The default for real use.
//   - local: a deterministic hash-based fallback. Identical text maps to the
//     same unit vector, which keeps dedup and keyword search working without
//     a model server. Vector similarity is meaningless in this mode.
//
// Passages and queries are embedded asymmetrically: fragment content gets the
// "search_document: " task prefix, queries get "search_query: ". All vectors
// are normalized to unit length so cosine similarity reduces to a dot product.
//
// # Basic Usage
//
//	handle, err := embedder.New(embedder.Config{Provider: "ollama"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer handle.Close()
//
//	provider, err := handle.Acquire(ctx)
//	if err != nil {
//	    // server unreachable; handle stays failed until Reset
//	}
//	vectors, err := provider.EmbedPassages(ctx, chunks)
//
// The Handle defers the reachability probe until the first Acquire, so the
// server starts even when Ollama is down; only embedding operations fail.
//
// # Caching
//
// Providers share an LRU cache keyed by the SHA-256 of the prefixed text.
// Re-archiving a session with mostly unchanged content skips most embedding
// calls.
//
// HTTP calls retry up to 3 times with exponential backoff (100ms base, 5s
// cap). Context cancellation aborts the retry loop immediately.
package embedder
