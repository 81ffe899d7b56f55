package chunker

import (
	"regexp"
	"strings"
)

// Predicate is one named, independently testable filter rule.
type Predicate struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match reports whether the predicate fires on the given chunk.
func (p Predicate) Match(chunk string) bool {
	return p.Pattern.MatchString(chunk)
}

// ExclusionPredicates reject chunks that are entirely low-information
// acknowledgments, greetings, or single tokens. All patterns are
// case-insensitive whole-string matches.
var ExclusionPredicates = []Predicate{
	{
		Name:    "acknowledgment",
		Pattern: regexp.MustCompile(`(?i)^(ok(ay)?|done|yes|no|yep|nope|sure|got it|sounds good|will do)[.!]*$`),
	},
	{
		Name:    "gratitude",
		Pattern: regexp.MustCompile(`(?i)^(thanks|thank you|thx|ty)[.!]*$`),
	},
	{
		Name:    "greeting",
		Pattern: regexp.MustCompile(`(?i)^(hello|hi|hey|good (morning|afternoon|evening)|bye|goodbye)[.!]*$`),
	},
	{
		Name:    "bare-number",
		Pattern: regexp.MustCompile(`^\d+([.,]\d+)?$`),
	},
	{
		Name:    "bare-punctuation",
		Pattern: regexp.MustCompile(`^[\s\p{P}\p{S}]+$`),
	},
}

// ValuePredicates accept chunks carrying signals worth archiving: code
// structure, decision or explanation language, and problem reports.
var ValuePredicates = []Predicate{
	{
		Name:    "code-structure",
		Pattern: regexp.MustCompile(`(?i)\b(func(tion)?|class|interface|struct|type|import|export|const|var|let|def|package|module)\b`),
	},
	{
		Name:    "decision-language",
		Pattern: regexp.MustCompile(`(?i)\b(implement(ed|ing)?|fix(ed|ing)?|refactor(ed|ing)?|decid(ed|ing)|chose|because|however|therefore|instead|tradeoff|approach|solution)\b`),
	},
	{
		Name:    "problem-report",
		Pattern: regexp.MustCompile(`(?i)\b(error|bug|issue|fail(ed|ure|ing)?|crash(ed|ing)?|broken|regression)\b`),
	},
}

// minValuableWords is the fallback value signal: any chunk with at least
// this many whitespace-delimited words is considered worth keeping.
const minValuableWords = 10

// MatchesExclusion reports whether the whole chunk is a low-information
// token matched by any exclusion predicate.
func MatchesExclusion(chunk string) bool {
	chunk = strings.TrimSpace(chunk)
	for _, p := range ExclusionPredicates {
		if p.Match(chunk) {
			return true
		}
	}
	return false
}

// HasValueSignal reports whether the chunk carries at least one valuable
// signal, or enough words to be worth keeping regardless.
func HasValueSignal(chunk string) bool {
	for _, p := range ValuePredicates {
		if p.Match(chunk) {
			return true
		}
	}
	return len(strings.Fields(chunk)) >= minValuableWords
}
