package searcher

import (
	"math"
	"sort"
	"time"

	"github.com/engramdb/engram/internal/store"
	"github.com/engramdb/engram/pkg/types"
)

// Fusion constants
const (
	// DefaultRRFConstant is the k value for Reciprocal Rank Fusion
	DefaultRRFConstant = 60.0

	// DefaultHalfLife is the recency decay half-life
	DefaultHalfLife = 7 * 24 * time.Hour
)

// fusedHit is a fragment after rank fusion and recency decay
type fusedHit struct {
	fragmentID int64
	score      float64
	source     types.ResultSource
	timestamp  time.Time
}

// fuse combines vector and keyword hits with Reciprocal Rank Fusion, then
// applies exponential recency decay.
//
// RRF formula: RRF(d) = Σ 1/(k + rank(d)), ranks 1-indexed per list. A
// fragment appearing in both lists accumulates both terms and is tagged
// hybrid. The decayed score is RRF(d) × 2^(-age/halfLife).
func fuse(vector []store.VectorHit, keyword []store.KeywordHit, k float64, now time.Time, halfLife time.Duration) []fusedHit {
	if k == 0 {
		k = DefaultRRFConstant
	}
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}

	merged := make(map[int64]*fusedHit)

	for rank, vh := range vector {
		merged[vh.FragmentID] = &fusedHit{
			fragmentID: vh.FragmentID,
			score:      1.0 / (k + float64(rank+1)),
			source:     types.SourceVector,
			timestamp:  vh.Timestamp,
		}
	}

	for rank, kh := range keyword {
		if hit, ok := merged[kh.FragmentID]; ok {
			hit.score += 1.0 / (k + float64(rank+1))
			hit.source = types.SourceHybrid
		} else {
			merged[kh.FragmentID] = &fusedHit{
				fragmentID: kh.FragmentID,
				score:      1.0 / (k + float64(rank+1)),
				source:     types.SourceKeyword,
				timestamp:  kh.Timestamp,
			}
		}
	}

	hits := make([]fusedHit, 0, len(merged))
	for _, hit := range merged {
		hit.score *= recencyDecay(now.Sub(hit.timestamp), halfLife)
		hits = append(hits, *hit)
	}

	// Decayed score descending, then newer first, then lower id
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if !hits[i].timestamp.Equal(hits[j].timestamp) {
			return hits[i].timestamp.After(hits[j].timestamp)
		}
		return hits[i].fragmentID < hits[j].fragmentID
	})

	return hits
}

// recencyDecay returns the multiplier 2^(-age/halfLife). Future timestamps
// are clamped to no boost.
func recencyDecay(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	return math.Pow(2, -age.Hours()/halfLife.Hours())
}
