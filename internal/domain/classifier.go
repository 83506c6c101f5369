package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Classification is the outcome of classifying one filename
type Classification struct {
	Category    string
	Destination string // empty for blocked files
	Blocked     bool
	Reason      string
	RuleIndex   int // -1 when the default applied
}

// IsDefault reports whether no rule matched
func (c Classification) IsDefault() bool {
	return c.RuleIndex < 0
}

type compiledRule struct {
	rule  Rule
	match Predicate
}

// Classifier assigns categories using an ordered rule list; first match wins.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules              []compiledRule
	defaultCategory    string
	defaultDestination string
}

// NewClassifier compiles rules in priority order. Empty default values fall
// back to DefaultCategory and DefaultDestination.
func NewClassifier(rules []Rule, defaultCategory, defaultDestination string) (*Classifier, error) {
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}
	if defaultDestination == "" {
		defaultDestination = DefaultDestination
	}
	if err := ValidateDestination(defaultDestination); err != nil {
		return nil, fmt.Errorf("%w: default: %v", ErrInvalidRule, err)
	}

	c := &Classifier{
		rules:              make([]compiledRule, 0, len(rules)),
		defaultCategory:    defaultCategory,
		defaultDestination: defaultDestination,
	}
	for i, r := range rules {
		pred, err := r.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		c.rules = append(c.rules, compiledRule{rule: r, match: pred})
	}
	return c, nil
}

// Classify maps a filename, and optionally a content sample, to a category.
// Only the base name of filename is considered.
func (c *Classifier) Classify(filename, contentHint string) (Classification, error) {
	name := strings.TrimSpace(filename)
	if name != "" {
		name = filepath.Base(name)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return Classification{}, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	for i, cr := range c.rules {
		if !cr.match(name, contentHint) {
			continue
		}
		if cr.rule.Blocks() {
			reason := cr.rule.Reason
			if reason == "" {
				reason = "blocked by rule " + cr.rule.Category
			}
			return Classification{
				Category:  cr.rule.Category,
				Blocked:   true,
				Reason:    reason,
				RuleIndex: i,
			}, nil
		}
		return Classification{
			Category:    cr.rule.Category,
			Destination: cr.rule.Destination,
			RuleIndex:   i,
		}, nil
	}

	return Classification{
		Category:    c.defaultCategory,
		Destination: c.defaultDestination,
		RuleIndex:   -1,
	}, nil
}

// Rules returns a copy of the rule list in priority order
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, cr := range c.rules {
		out[i] = cr.rule
	}
	return out
}

// Default returns the fallback category and destination
func (c *Classifier) Default() (string, string) {
	return c.defaultCategory, c.defaultDestination
}

// Destinations returns every distinct destination directory, in rule order,
// with the default destination last. Values are cleaned slash paths.
func (c *Classifier) Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		d = CleanDestination(d)
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}
	for _, cr := range c.rules {
		if !cr.rule.Blocks() {
			add(cr.rule.Destination)
		}
	}
	add(c.defaultDestination)
	return out
}

// CategoriesFor lists the categories routed to a destination
func (c *Classifier) CategoriesFor(dest string) []string {
	dest = CleanDestination(dest)
	var out []string
	for _, cr := range c.rules {
		if !cr.rule.Blocks() && CleanDestination(cr.rule.Destination) == dest {
			out = append(out, cr.rule.Category)
		}
	}
	if CleanDestination(c.defaultDestination) == dest {
		out = append(out, c.defaultCategory)
	}
	return out
}

// CleanDestination normalizes a destination to a slash path without a
// trailing separator ("Data/analytics/" -> "Data/analytics")
func CleanDestination(dest string) string {
	if dest == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(dest)))
}
