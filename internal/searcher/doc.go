// Package searcher implements hybrid retrieval over the fragment store.
//
// A hybrid search runs two legs in parallel: cosine similarity over fragment
// embeddings and BM25 full-text search. The ranked lists are combined with
// Reciprocal Rank Fusion (k=60), so a fragment found by both legs outranks
// one found by a single leg regardless of raw score scales. Fused scores are
// then multiplied by an exponential recency decay with a 7 day half-life, so
// recent memories win ties against stale ones without ever hard-excluding
// old content.
//
// If the embedding provider is unavailable the vector leg fails and the
// search degrades to keyword-only results. Both legs failing is an error.
//
// # Basic Usage
//
//	svc := searcher.NewService(st, handle)
//	resp, err := svc.Search(ctx, searcher.Request{
//	    Query:     "how did we fix the session bug",
//	    ProjectID: &projectID,
//	})
//	for _, r := range resp.Results {
//	    fmt.Println(r.Score, r.Source, r.Content)
//	}
//
// Results default to the top 5. Each carries a source tag (vector, keyword,
// hybrid) naming which leg produced it.
package searcher
