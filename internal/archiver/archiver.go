package archiver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engramdb/engram/internal/chunker"
	"github.com/engramdb/engram/internal/embedder"
	"github.com/engramdb/engram/internal/store"
	"github.com/engramdb/engram/internal/transcript"
	"github.com/engramdb/engram/pkg/types"
)

// ErrArchiveInProgress is returned when another archive run holds the lock
var ErrArchiveInProgress = errors.New("archive already in progress")

// Stage names the pipeline phase an archive run is in
type Stage string

const (
	StageParsing    Stage = "parsing"
	StageExtracting Stage = "extracting"
	StageFiltering  Stage = "filtering"
	StageDeduping   Stage = "deduping"
	StageEmbedding  Stage = "embedding"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
)

// Progress reports pipeline position. Completed and Total are only
// meaningful during the embedding stage.
type Progress struct {
	Stage     Stage
	Completed int
	Total     int
}

// ProgressFunc receives progress updates during an archive run
type ProgressFunc func(Progress)

// Archiver coordinates the archive pipeline:
// parse -> extract -> chunk/filter -> dedup -> embed -> persist
type Archiver struct {
	store   store.Store
	handle  *embedder.Handle
	chunker *chunker.Chunker
	lock    ArchiveLock
}

// New creates a new Archiver instance. Zero fields in opts fall back to the
// chunker defaults.
func New(st store.Store, handle *embedder.Handle, opts chunker.Options) *Archiver {
	return &Archiver{
		store:   st,
		handle:  handle,
		chunker: chunker.New(opts),
	}
}

// candidate is a chunk flowing through the pipeline
type candidate struct {
	content   string
	hash      string
	timestamp time.Time
	embedding []float32
}

// ArchiveSession runs the full pipeline over one transcript file. A missing
// file yields zero counts and no error, so callers can archive on session end
// without checking whether a transcript was ever written. Concurrent runs are
// rejected with ErrArchiveInProgress.
//
// On an unrecoverable error the run aborts but the result is still returned:
// its counts cover everything processed up to the failure, including fragments
// already durably inserted. There is no rollback.
func (a *Archiver) ArchiveSession(ctx context.Context, path string, projectID *string, progress ProgressFunc) (*types.ArchiveResult, error) {
	if !a.lock.TryAcquire() {
		return nil, ErrArchiveInProgress
	}
	defer a.lock.Release()

	result := &types.ArchiveResult{}

	report(progress, Progress{Stage: StageParsing})
	messages, err := transcript.ParseFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to parse transcript: %w", err)
	}

	candidates := a.extractAndFilter(messages, result, progress)

	session := transcript.SessionID(path)
	if err := a.persist(ctx, candidates, projectID, session, result, progress); err != nil {
		return result, err
	}

	report(progress, Progress{Stage: StageDone})
	return result, nil
}

// ArchiveContent archives free-form text outside any transcript. The content
// goes through the same chunking, filtering and dedup gates as session text
// and is attributed to the manual sentinel session.
func (a *Archiver) ArchiveContent(ctx context.Context, content string, projectID *string) (*types.ArchiveResult, error) {
	if !a.lock.TryAcquire() {
		return nil, ErrArchiveInProgress
	}
	defer a.lock.Release()

	result := &types.ArchiveResult{}
	now := time.Now().UTC()

	chunks, skipped := a.chunker.Chunk(content)
	result.Skipped += skipped

	candidates := make([]candidate, 0, len(chunks))
	for _, chunk := range chunks {
		candidates = append(candidates, candidate{
			content:   types.NormalizeContent(chunk),
			hash:      types.HashContent(chunk),
			timestamp: now,
		})
	}

	if err := a.persist(ctx, candidates, projectID, types.ManualSession, result, nil); err != nil {
		return result, err
	}
	return result, nil
}

// extractAndFilter pulls assistant text out of the transcript and runs it
// through the chunker gates. User and system messages never become memories.
func (a *Archiver) extractAndFilter(messages []*types.Message, result *types.ArchiveResult, progress ProgressFunc) []candidate {
	report(progress, Progress{Stage: StageExtracting})

	var candidates []candidate
	for _, msg := range messages {
		if msg.Role != types.RoleAssistant {
			continue
		}
		text := transcript.ExtractText(msg)
		if text == "" {
			continue
		}

		ts := msg.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}

		report(progress, Progress{Stage: StageFiltering})
		chunks, skipped := a.chunker.Chunk(text)
		result.Skipped += skipped
		for _, chunk := range chunks {
			candidates = append(candidates, candidate{
				content:   types.NormalizeContent(chunk),
				hash:      types.HashContent(chunk),
				timestamp: ts,
			})
		}
	}
	return candidates
}

// persist dedups, embeds and inserts the surviving candidates in source order
func (a *Archiver) persist(ctx context.Context, candidates []candidate, projectID *string, session string, result *types.ArchiveResult, progress ProgressFunc) error {
	report(progress, Progress{Stage: StageDeduping})
	fresh := make([]candidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		// Dedup within the batch first, then against the store. The store
		// check is an optimization that saves embedding work; the unique
		// constraint at insert time is what guarantees correctness.
		if seen[cand.hash] {
			result.Duplicates++
			continue
		}
		seen[cand.hash] = true

		exists, err := a.store.ContentExists(ctx, cand.content)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate: %w", err)
		}
		if exists {
			result.Duplicates++
			continue
		}
		fresh = append(fresh, cand)
	}

	if len(fresh) == 0 {
		return nil
	}

	provider, err := a.handle.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("cannot archive without embeddings: %w", err)
	}

	// Embed one chunk at a time so progress is accurate and a cancellation
	// between items loses at most one embedding call
	total := len(fresh)
	for i := range fresh {
		if err := ctx.Err(); err != nil {
			return err
		}
		report(progress, Progress{Stage: StageEmbedding, Completed: i, Total: total})
		vectors, err := provider.EmbedPassages(ctx, []string{fresh[i].content})
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %d: %w", i+1, total, err)
		}
		fresh[i].embedding = vectors[0]
	}
	report(progress, Progress{Stage: StageEmbedding, Completed: total, Total: total})

	report(progress, Progress{Stage: StagePersisting})
	for i := range fresh {
		res, err := a.store.Insert(ctx, &types.Fragment{
			Content:       fresh[i].content,
			ContentHash:   fresh[i].hash,
			Embedding:     fresh[i].embedding,
			ProjectID:     projectID,
			SourceSession: session,
			Timestamp:     fresh[i].timestamp,
		})
		if err != nil {
			return fmt.Errorf("failed to persist fragment: %w", err)
		}
		if res.IsDuplicate {
			result.Duplicates++
		} else {
			result.Archived++
		}
	}
	return nil
}

func report(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
