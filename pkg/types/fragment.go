package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ManualSession is the sourceSession sentinel for fragments that were
// entered directly rather than archived from a transcript file.
const ManualSession = "manual"

// Fragment represents one persisted unit of archived memory content plus
// its embedding and metadata. Fragments are created only by the store's
// insert path and are never mutated afterwards.
type Fragment struct {
	// Identification
	ID          int64
	ContentHash string // SHA-256 hex digest of the normalized content; unique per store

	// Content
	Content   string
	Embedding []float32 // Fixed dimension, unit-normalized by the provider

	// Scope and provenance
	ProjectID     *string // nil means globally visible
	SourceSession string
	Timestamp     time.Time
}

// NormalizeContent applies the dedup normalization: exact match after trim.
// Two fragments are "the same content" iff their normalized forms are
// byte-identical.
func NormalizeContent(content string) string {
	return strings.TrimSpace(content)
}

// HashContent computes the dedup key for a piece of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}

// Validate checks the invariants a fragment must satisfy before insert.
func (f *Fragment) Validate(minLength, dimension int) error {
	if NormalizeContent(f.Content) == "" {
		return errors.New("fragment content cannot be empty")
	}
	if len(NormalizeContent(f.Content)) < minLength {
		return errors.New("fragment content below minimum length")
	}
	if dimension > 0 && len(f.Embedding) != dimension {
		return errors.New("fragment embedding has wrong dimension")
	}
	return nil
}
