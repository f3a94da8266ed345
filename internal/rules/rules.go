// Package rules loads the category rule set that drives classification.
//
// A rules file is a YAML mapping from category key to an optional
// extensions list, an optional mime list and an optional target folder:
//
//	images:
//	  extensions: [jpg, .PNG]
//	  mime: [image/jpeg]
//	  target: Pictures
//	other:
//	  target: Other
//
// Mapping order is significant: earlier categories win when several match.
package rules

import (
	"fmt"
	"slices"
	"strings"
)

// OtherCategory is the category used when nothing matches.
const OtherCategory = "other"

// DefaultOtherTarget is the folder used when the rule set has no "other" rule.
const DefaultOtherTarget = "Other"

// Rule matches files to a category folder. Extensions and MIME types are
// normalized once when the rule is built.
type Rule struct {
	Category   string
	Extensions []string
	MIME       []string
	Target     string
}

// MatchesMIME reports whether the rule lists the (normalized) MIME type.
func (r Rule) MatchesMIME(mime string) bool {
	return mime != "" && slices.Contains(r.MIME, mime)
}

// MatchesExtension reports whether the rule lists the (normalized) extension.
func (r Rule) MatchesExtension(ext string) bool {
	return ext != "" && slices.Contains(r.Extensions, ext)
}

// NormalizeExtension lowercases ext and strips leading dots.
func NormalizeExtension(ext string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// NormalizeMIME lowercases a MIME type.
func NormalizeMIME(mime string) string {
	return strings.ToLower(strings.TrimSpace(mime))
}

func normalize(r Rule) (Rule, error) {
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		return Rule{}, fmt.Errorf("category key is empty")
	}

	exts := make([]string, 0, len(r.Extensions))
	for _, raw := range r.Extensions {
		ext := NormalizeExtension(raw)
		if ext == "" {
			return Rule{}, fmt.Errorf("category %q: empty extension %q", r.Category, raw)
		}
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}

	mimes := make([]string, 0, len(r.MIME))
	for _, raw := range r.MIME {
		mime := NormalizeMIME(raw)
		if mime == "" {
			return Rule{}, fmt.Errorf("category %q: empty mime type", r.Category)
		}
		if !slices.Contains(mimes, mime) {
			mimes = append(mimes, mime)
		}
	}

	r.Extensions = exts
	r.MIME = mimes
	r.Target = strings.TrimSpace(r.Target)
	if r.Target == "" {
		r.Target = r.Category
	}
	return r, nil
}

// RuleSet is an ordered, read-only collection of rules.
type RuleSet struct {
	rules []Rule
	index map[string]int
}

// New builds a RuleSet from rules in priority order. Rules are normalized;
// duplicate categories are rejected.
func New(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		n, err := normalize(r)
		if err != nil {
			return nil, err
		}
		if err := rs.add(n); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// MustNew is New for fixed rule sets; it panics on invalid rules.
func MustNew(rules ...Rule) *RuleSet {
	rs, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

func (rs *RuleSet) add(r Rule) error {
	if _, dup := rs.index[r.Category]; dup {
		return fmt.Errorf("duplicate category %q", r.Category)
	}
	rs.index[r.Category] = len(rs.rules)
	rs.rules = append(rs.rules, r)
	return nil
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns the rules in priority order. The slice is a copy.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.rules)
}

// Lookup returns the rule for a category
func (rs *RuleSet) Lookup(category string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	i, ok := rs.index[category]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[i], true
}

// OtherTarget is the folder for files no rule matches.
func (rs *RuleSet) OtherTarget() string {
	if r, ok := rs.Lookup(OtherCategory); ok {
		return r.Target
	}
	return DefaultOtherTarget
}

// FirstByMIME returns the first rule, in order, listing mime.
func (rs *RuleSet) FirstByMIME(mime string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	for _, r := range rs.rules {
		if r.MatchesMIME(mime) {
			return r, true
		}
	}
	return Rule{}, false
}

// FirstByExtension returns the first rule, in order, listing ext.
func (rs *RuleSet) FirstByExtension(ext string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	for _, r := range rs.rules {
		if r.MatchesExtension(ext) {
			return r, true
		}
	}
	return Rule{}, false
}
