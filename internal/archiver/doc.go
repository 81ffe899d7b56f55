// Package archiver runs the archive pipeline that turns session transcripts
// into persisted memory fragments.
//
// The pipeline stages are parsing, extracting, filtering, deduping, embedding
// and persisting. Only assistant messages are considered; their text is
// chunked and pushed through the filter gates, duplicates are dropped against
// both the current batch and the store, and the survivors are embedded one at
// a time so a progress callback can report (completed, total) and a
// cancellation loses at most one embedding call. Inserts happen in source
// order.
//
// A missing transcript file is not an error: the run reports zero counts.
// This lets a session-end hook archive unconditionally.
//
// Runs are serialized by a try-lock; a concurrent call fails immediately with
// ErrArchiveInProgress rather than queueing.
//
//	arch := archiver.New(st, handle, chunker.Options{})
//	result, err := arch.ArchiveSession(ctx, path, &projectID, func(p archiver.Progress) {
//	    log.Printf("%s %d/%d", p.Stage, p.Completed, p.Total)
//	})
//
// ArchiveContent feeds manually supplied text through the same gates under
// the "manual" sentinel session.
package archiver
