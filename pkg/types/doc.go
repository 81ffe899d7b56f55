// Package types provides shared type definitions for the Engram memory server.
//
// This package defines the domain types used across multiple components of
// Engram, including transcript messages, stored fragments, archive counters,
// and search results.
//
// # Core Types
//
// Message represents one parsed transcript entry. Its Content field accepts
// either a plain string or a sequence of typed parts, mirroring the shapes
// found in session transcripts:
//
//	msg := &types.Message{
//	    Role:    types.RoleAssistant,
//	    Content: []types.ContentPart{{Type: "text", Text: "We fixed the race."}},
//	}
//
// Fragment represents one persisted unit of archived memory:
//
//	frag := &types.Fragment{
//	    Content:       "We implemented JWT authentication ...",
//	    ProjectID:     &projectID,
//	    SourceSession: "2026-08-01-session",
//	}
//
// SearchResult carries a fused relevance score plus a Source tag indicating
// which ranker(s) contributed: "vector", "keyword", or "hybrid".
//
// ArchiveResult counts the outcome of one archive run. The invariant
// Archived + Skipped + Duplicates == number of chunk candidates considered
// holds for every completed run.
package types
