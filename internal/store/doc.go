// Package store provides SQLite-based persistence for archived memory
// fragments.
//
// The store is content-addressed: every fragment carries a SHA-256 digest of
// its normalized content, and a unique constraint on that digest makes the
// check-and-insert dedup path atomic. The keyword index is an FTS5 virtual
// table kept in sync with the fragment table by triggers; vector search runs
// either through the sqlite-vec extension (cgo build) or a pure Go cosine
// scan (purego build).
//
// # Schema
//
// Tables:
//   - fragments: content, content_hash (unique), embedding blob, project
//     scope, source session, timestamp
//   - fragments_fts: FTS5 index over fragment content
//   - schema_version: applied migration versions
//
// # Basic Usage
//
//	st, err := store.NewSQLiteStore("~/.engram/memory.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	res, err := st.Insert(ctx, &types.Fragment{
//	    Content:       content,
//	    Embedding:     vector,
//	    SourceSession: session,
//	})
//	if res.IsDuplicate {
//	    // identical content was already archived
//	}
//
// # Scope Rule
//
// Project-scoped queries see fragments belonging to that project plus global
// fragments (nil project). Global queries see everything:
//
//	hits, err := st.SearchText(ctx, "authentication", store.Scope{ProjectID: &pid}, 10)
//
// # Build Tags
//
// Two build configurations select the SQLite driver:
//
//   - default / purego: modernc.org/sqlite, pure Go vector scan
//   - sqlite_vec (CGO): github.com/mattn/go-sqlite3 with the sqlite-vec
//     extension for SQL-side cosine distance
package store
