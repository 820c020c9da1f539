// Package segment splits an anonymized document into the ordered chunks that
// are scored individually to build a sentiment trend.
//
// The split is a length and punctuation-density heuristic, not a sentence
// splitter: long documents with many periods are cut into equal character
// ranges, everything else stays whole.
package segment

import (
	"fmt"
	"strings"

	"github.com/Veraticus/lumos/internal/model"
)

// Policy holds the thresholds that decide whether a document is split.
type Policy struct {
	// MinLength is the character count a document must exceed to be split.
	MinLength int
	// MinSentences is the sentence count a document must exceed to be split.
	MinSentences int
	// Parts is the number of segments a split document is cut into.
	Parts int
}

// DefaultPolicy returns the thresholds used by the dashboard.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    250,
		MinSentences: 10,
		Parts:        4,
	}
}

// Validate checks the policy for values that cannot produce valid segments.
func (p Policy) Validate() error {
	if p.MinLength < 0 {
		return fmt.Errorf("segment min length cannot be negative")
	}
	if p.MinSentences < 0 {
		return fmt.Errorf("segment min sentences cannot be negative")
	}
	if p.Parts < 1 {
		return fmt.Errorf("segment parts must be at least 1")
	}
	return nil
}

// SentenceCount is one more than the number of literal periods in text.
func SentenceCount(text string) int {
	return 1 + strings.Count(text, ".")
}

// ShouldSplit reports whether text exceeds both thresholds.
func (p Policy) ShouldSplit(text string) bool {
	n := len([]rune(text))
	return n > p.MinLength && SentenceCount(text) > p.MinSentences
}

// Split returns the ordered segments of text. Segments are contiguous, never
// overlap and concatenate back to text exactly. A split document has Parts
// segments of n/Parts characters, with the last one absorbing the remainder.
// Anything else, including the empty string, yields one segment.
func (p Policy) Split(text string) []model.Segment {
	runes := []rune(text)
	n := len(runes)

	if p.Parts <= 1 || !p.ShouldSplit(text) {
		return []model.Segment{{Index: 0, Start: 0, End: n, Text: text}}
	}

	q := n / p.Parts
	segments := make([]model.Segment, p.Parts)
	for i := range segments {
		start := i * q
		end := start + q
		if i == p.Parts-1 {
			end = n
		}
		segments[i] = model.Segment{
			Index: i,
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		}
	}
	return segments
}
