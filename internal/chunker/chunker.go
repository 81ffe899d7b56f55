package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultMinLength is the minimum normalized chunk length worth keeping.
	DefaultMinLength = 50

	// DefaultMaxParagraph is the paragraph length above which sentence
	// splitting kicks in.
	DefaultMaxParagraph = 1000

	// DefaultMaxChunk is the greedy accumulation target for sentence-split
	// chunks. A chunk may exceed it by at most one trailing sentence.
	DefaultMaxChunk = 800
)

// Options configures chunk sizing.
type Options struct {
	MinLength    int // Minimum chunk length (default 50)
	MaxParagraph int // Paragraph size that triggers sentence splitting (default 1000)
	MaxChunk     int // Accumulation limit for sentence-split chunks (default 800)
}

// DefaultOptions returns the compiled-in sizing defaults.
func DefaultOptions() Options {
	return Options{
		MinLength:    DefaultMinLength,
		MaxParagraph: DefaultMaxParagraph,
		MaxChunk:     DefaultMaxChunk,
	}
}

// Chunker splits extracted text into filtered fragment candidates.
type Chunker struct {
	opts Options
}

// New creates a Chunker. Zero option fields fall back to defaults.
func New(opts Options) *Chunker {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.MaxParagraph <= 0 {
		opts.MaxParagraph = DefaultMaxParagraph
	}
	if opts.MaxChunk <= 0 {
		opts.MaxChunk = DefaultMaxChunk
	}
	return &Chunker{opts: opts}
}

var (
	paragraphBoundary = regexp.MustCompile(`\n\s*\n`)
	sentenceBoundary  = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)
)

// Chunk splits text into archive-worthy chunks and reports how many
// candidates the filter gates rejected. The returned chunks preserve source
// order.
func (c *Chunker) Chunk(text string) (chunks []string, skipped int) {
	for _, candidate := range c.split(text) {
		if c.Keep(candidate) {
			chunks = append(chunks, candidate)
		} else {
			skipped++
		}
	}
	return chunks, skipped
}

// split produces the raw chunk candidates: trimmed paragraphs, with long
// paragraphs re-split on sentence boundaries.
func (c *Chunker) split(text string) []string {
	var candidates []string
	for _, para := range paragraphBoundary.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= c.opts.MaxParagraph {
			candidates = append(candidates, para)
			continue
		}
		candidates = append(candidates, c.splitSentences(para)...)
	}
	return candidates
}

// splitSentences greedily accumulates sentences into chunks of at most
// MaxChunk characters, flushing the remainder at the end. Chunks shorter
// than MinLength are dropped here rather than emitted as candidates the
// length gate would reject anyway; the final remainder is always emitted so
// its rejection is counted.
func (c *Chunker) splitSentences(para string) []string {
	sentences := splitIntoSentences(para)

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > c.opts.MaxChunk {
			chunk := strings.TrimSpace(current.String())
			if len(chunk) >= c.opts.MinLength {
				chunks = append(chunks, chunk)
			}
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if remainder := strings.TrimSpace(current.String()); remainder != "" {
		chunks = append(chunks, remainder)
	}
	return chunks
}

// splitIntoSentences splits on whitespace following '.', '!' or '?'.
// Trailing text without terminal punctuation forms a final sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	rest := text
	for {
		loc := sentenceBoundary.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		sentence := strings.TrimSpace(rest[loc[2]:loc[3]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		rest = rest[loc[1]:]
		if rest == "" {
			return sentences
		}
	}
	if tail := strings.TrimSpace(rest); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Keep applies the three filter gates in order: length, exclusion, value.
func (c *Chunker) Keep(chunk string) bool {
	chunk = strings.TrimSpace(chunk)
	if len(chunk) < c.opts.MinLength {
		return false
	}
	if MatchesExclusion(chunk) {
		return false
	}
	return HasValueSignal(chunk)
}
