package domain

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Sentinel errors raised by the domain layer
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRule  = errors.New("invalid rule")
)

const (
	DefaultCategory    = "uncategorized"
	DefaultDestination = "Data/temp/"
)

// MatchKind selects how a rule's patterns are compared against a filename
type MatchKind string

const (
	MatchSubstring MatchKind = "substring" // pattern appears anywhere in the name
	MatchGlob      MatchKind = "glob"      // shell wildcards against the whole name
	MatchRegex     MatchKind = "regex"     // RE2 expression
)

// Action is what the organizer does with a file the rule matched
type Action string

const (
	ActionMove  Action = "move"
	ActionBlock Action = "block"
)

// Rule maps filename patterns to a category and destination directory.
// All comparisons are case-insensitive.
type Rule struct {
	Category        string    `yaml:"category" mapstructure:"category"`
	Destination     string    `yaml:"destination,omitempty" mapstructure:"destination"` // relative to the root, e.g. "Data/analytics/"
	Patterns        []string  `yaml:"patterns,omitempty" mapstructure:"patterns"`
	Match           MatchKind `yaml:"match,omitempty" mapstructure:"match"`
	ContentKeywords []string  `yaml:"content_keywords,omitempty" mapstructure:"content_keywords"`
	Action          Action    `yaml:"action,omitempty" mapstructure:"action"`
	Reason          string    `yaml:"reason,omitempty" mapstructure:"reason"` // shown when a block rule matches
}

// Blocks reports whether files matching the rule must not be moved
func (r Rule) Blocks() bool {
	return r.Action == ActionBlock
}

// Predicate is a pure test of a filename and optional content sample
type Predicate func(name, content string) bool

// Compile validates the rule and returns its predicate
func (r Rule) Compile() (Predicate, error) {
	if strings.TrimSpace(r.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidRule)
	}

	switch r.Action {
	case "", ActionMove:
		if err := ValidateDestination(r.Destination); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Category, err)
		}
	case ActionBlock:
	default:
		return nil, fmt.Errorf("%w: %s: unknown action %q", ErrInvalidRule, r.Category, r.Action)
	}

	if len(r.Patterns) == 0 && len(r.ContentKeywords) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one pattern or content keyword is required", ErrInvalidRule, r.Category)
	}

	nameMatchers := make([]func(string) bool, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		m, err := compilePattern(r.Match, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Category, err)
		}
		nameMatchers = append(nameMatchers, m)
	}

	keywords := make([]string, 0, len(r.ContentKeywords))
	for _, k := range r.ContentKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return func(name, content string) bool {
		lowerName := strings.ToLower(name)
		for _, m := range nameMatchers {
			if m(lowerName) {
				return true
			}
		}
		if content == "" {
			return false
		}
		lowerContent := strings.ToLower(content)
		for _, k := range keywords {
			if strings.Contains(lowerContent, k) {
				return true
			}
		}
		return false
	}, nil
}

// compilePattern returns a matcher over an already lower-cased name
func compilePattern(kind MatchKind, pattern string) (func(string) bool, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}

	switch kind {
	case "", MatchSubstring:
		needle := strings.ToLower(pattern)
		return func(name string) bool {
			return strings.Contains(name, needle)
		}, nil

	case MatchGlob:
		glob := strings.ToLower(pattern)
		if _, err := path.Match(glob, ""); err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		return func(name string) bool {
			ok, _ := path.Match(glob, name)
			return ok
		}, nil

	case MatchRegex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("bad regex %q: %w", pattern, err)
		}
		return re.MatchString, nil

	default:
		return nil, fmt.Errorf("unknown match kind %q", kind)
	}
}

// ValidateDestination checks that a destination stays inside the root
func ValidateDestination(dest string) error {
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination is required")
	}
	if path.IsAbs(dest) || strings.HasPrefix(dest, `\`) || (len(dest) > 1 && dest[1] == ':') {
		return fmt.Errorf("destination %q must be relative", dest)
	}
	clean := path.Clean(strings.ReplaceAll(dest, `\`, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("destination %q must name a directory below the root", dest)
	}
	return nil
}

// DefaultRules returns the built-in rule set in priority order
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: "forbidden",
			Patterns: []string{"REDIRECT", "_duplicate_", "コピー"},
			Action:   ActionBlock,
			Reason:   "matches a known junk-file pattern",
		},
		{
			Category:    "analysis",
			Destination: "Data/analytics/",
			Patterns:    []string{"_analysis_"},
		},
		{
			Category:    "reports",
			Destination: "Documentation/reports/",
			Patterns:    []string{"_report_", "_test_results."},
		},
		{
			Category:    "strategy",
			Destination: "Documentation/strategy/",
			Patterns:    []string{"STRATEGIC_*.md", "*_BRIEFING.md", "*_REQUIRED_*.md"},
			Match:       MatchGlob,
		},
		{
			Category:    "migration",
			Destination: "Documentation/migration/",
			Patterns:    []string{"*_compatibility_*.md", "*migration*.md"},
			Match:       MatchGlob,
		},
		{
			Category:    "temp",
			Destination: "Data/temp/",
			Patterns:    []string{"temp_*.txt", "*.tmp", "*.log"},
			Match:       MatchGlob,
		},
	}
}
