package types

import "time"

// ResultSource indicates which ranker(s) contributed a search result.
type ResultSource string

const (
	SourceVector  ResultSource = "vector"
	SourceKeyword ResultSource = "keyword"
	SourceHybrid  ResultSource = "hybrid"
)

// SearchResult is one ranked hit from a memory query. Produced fresh per
// query; never cached or persisted.
type SearchResult struct {
	ID        int64
	Score     float64 // Fused RRF score after recency decay
	Content   string
	Source    ResultSource
	Timestamp time.Time
	ProjectID *string
}

// ArchiveResult counts the outcome of one archive run.
//
// Archived + Skipped + Duplicates equals the number of chunk candidates
// considered during the run.
type ArchiveResult struct {
	Archived   int // Fragments persisted for the first time
	Skipped    int // Candidates rejected by the filter gates
	Duplicates int // Candidates whose content already existed in the store
}

// Total returns the number of chunk candidates the run considered.
func (r ArchiveResult) Total() int {
	return r.Archived + r.Skipped + r.Duplicates
}
