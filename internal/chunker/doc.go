// Package chunker turns extracted message text into archive-worthy fragments.
//
// Chunking splits text on blank-line paragraph boundaries. Paragraphs longer
// than the paragraph limit are re-split on sentence boundaries and greedily
// accumulated up to the chunk limit, so no emitted chunk exceeds the limit by
// more than one trailing sentence.
//
// # Filter Gates
//
// Each chunk passes through three ordered gates; a chunk is kept only if it
// clears all of them:
//
//   - Length gate: normalized length >= the configured minimum (default 50).
//   - Exclusion gate: rejects chunks that are entirely low-information
//     acknowledgments ("ok", "thanks", bare numbers, bare punctuation).
//   - Value gate: accepts chunks carrying code-structure keywords, decision or
//     explanation language, problem-report language, or at least 10 words.
//
// The exclusion and value patterns are explicit named predicate lists so each
// rule can be tested and replaced independently.
//
// # Basic Usage
//
//	c := chunker.New(chunker.DefaultOptions())
//	chunks, skipped := c.Chunk(text)
//	// chunks are the candidates worth archiving; skipped counts the rest
package chunker
