// Package classify decides which category folder a file belongs to.
//
// Classification never fails. A MIME match beats an extension match, and
// within each pass the earliest rule wins; anything unmatched, missing or not
// a regular file goes to the rule set's "other" target.
package classify

import (
	"filesorter/internal/rules"
	"filesorter/pkg/types"
)

// MatchKind says how a file was matched
type MatchKind string

const (
	ByMIME      MatchKind = "mime"
	ByExtension MatchKind = "extension"
	// ByFallback covers both "nothing matched" and "not an eligible file".
	ByFallback MatchKind = "fallback"
)

// Match explains a classification.
type Match struct {
	Target    string    `json:"target"`
	Category  string    `json:"category,omitempty"`
	Extension string    `json:"extension,omitempty"`
	MIME      string    `json:"mime,omitempty"`
	By        MatchKind `json:"by"`
	// Ineligible is set when the path was missing or not a regular file.
	Ineligible bool `json:"ineligible,omitempty"`
}

// Classifier matches candidates against a rule set
type Classifier struct {
	rules   *rules.RuleSet
	guesser Guesser
	sniff   bool
}

// Option configures a Classifier
type Option func(*Classifier)

// WithGuesser replaces the name-based MIME guesser
func WithGuesser(g Guesser) Option {
	return func(c *Classifier) { c.guesser = g }
}

// WithContentSniffing falls back to reading file content when the name
// gives no MIME type.
func WithContentSniffing(enabled bool) Option {
	return func(c *Classifier) { c.sniff = enabled }
}

// New creates a Classifier for rs
func New(rs *rules.RuleSet, opts ...Option) *Classifier {
	c := &Classifier{rules: rs, guesser: NameGuesser{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify explains where the candidate belongs.
func (c *Classifier) Classify(cand types.Candidate) Match {
	if !cand.Eligible() {
		return Match{Target: c.rules.OtherTarget(), Category: rules.OtherCategory, By: ByFallback, Ineligible: true}
	}

	m := Match{Extension: Extension(cand.Name)}
	m.MIME = normalizeMediaType(c.guesser.Guess(cand.Name))
	if m.MIME == "" && c.sniff {
		m.MIME = sniff(cand.Path)
	}

	if r, ok := c.rules.FirstByMIME(m.MIME); ok {
		m.Target, m.Category, m.By = r.Target, r.Category, ByMIME
		return m
	}
	if r, ok := c.rules.FirstByExtension(m.Extension); ok {
		m.Target, m.Category, m.By = r.Target, r.Category, ByExtension
		return m
	}

	m.Target, m.Category, m.By = c.rules.OtherTarget(), rules.OtherCategory, ByFallback
	return m
}

// Categorize returns the target folder name for path.
func (c *Classifier) Categorize(path string) string {
	return c.Classify(types.NewCandidate(path)).Target
}

// Categorize classifies path against rs with the default guesser.
func Categorize(path string, rs *rules.RuleSet) string {
	return New(rs).Categorize(path)
}
