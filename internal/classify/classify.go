// Package classify assigns a vendor/OS label to lines of device output.
//
// Patterns are evaluated in the order they were declared and the first
// match wins. The default set lists more specific banners before the
// banners they contain ("Cisco IOS XR" before "Cisco IOS"), so a line is
// never labelled with a less specific family than it names.
package classify

import (
	"fmt"
	"regexp"
)

// Unknown is stored for devices whose output matched no pattern
const Unknown = "unknown"

// Pattern is a labelled banner expression
type Pattern struct {
	// Label identifies the OS family (e.g. "IOS-XR")
	Label string

	// Vendor is the manufacturer the label belongs to
	Vendor string

	// Regexp is tested against a single line of output
	Regexp *regexp.Regexp
}

// Match records which pattern matched which line
type Match struct {
	Label  string
	Vendor string
	Line   string

	// Rank is the precedence of the matching pattern, 0 being the highest
	Rank int
}

// Classifier matches lines against an ordered pattern set. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	patterns []Pattern
}

// DefaultPatterns returns the fixed pattern set in precedence order
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Label: "IOS-XR", Vendor: "Cisco", Regexp: regexp.MustCompile(`Cisco IOS XR`)},
		{Label: "IOS-XE", Vendor: "Cisco", Regexp: regexp.MustCompile(`Cisco IOS[- ]XE`)},
		{Label: "IOS", Vendor: "Cisco", Regexp: regexp.MustCompile(`Cisco IOS`)},
		{Label: "JunOS", Vendor: "Juniper", Regexp: regexp.MustCompile(`(?i)\bjunos\b`)},
	}
}

// New creates a classifier over the given patterns.
// Labels must be unique and every pattern needs a compiled expression.
func New(patterns ...Pattern) (*Classifier, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}

	seen := make(map[string]bool, len(patterns))
	for i, p := range patterns {
		if p.Label == "" {
			return nil, fmt.Errorf("pattern %d has no label", i)
		}
		if p.Regexp == nil {
			return nil, fmt.Errorf("pattern %q has no expression", p.Label)
		}
		if seen[p.Label] {
			return nil, fmt.Errorf("duplicate pattern label %q", p.Label)
		}
		seen[p.Label] = true
	}

	cp := make([]Pattern, len(patterns))
	copy(cp, patterns)
	return &Classifier{patterns: cp}, nil
}

// Default returns a classifier over DefaultPatterns
func Default() *Classifier {
	c, err := New(DefaultPatterns()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Patterns returns a copy of the pattern set in precedence order
func (c *Classifier) Patterns() []Pattern {
	cp := make([]Pattern, len(c.patterns))
	copy(cp, c.patterns)
	return cp
}

// Match returns the first pattern, in precedence order, that matches line
func (c *Classifier) Match(line string) (Match, bool) {
	for rank, p := range c.patterns {
		if p.Regexp.MatchString(line) {
			return Match{Label: p.Label, Vendor: p.Vendor, Line: line, Rank: rank}, true
		}
	}
	return Match{}, false
}

// MatchAll returns every pattern that matches line, in precedence order
func (c *Classifier) MatchAll(line string) []Match {
	var matches []Match
	for rank, p := range c.patterns {
		if p.Regexp.MatchString(line) {
			matches = append(matches, Match{Label: p.Label, Vendor: p.Vendor, Line: line, Rank: rank})
		}
	}
	return matches
}

// Classify returns the highest precedence match across all lines.
// Ties between lines go to the earliest line.
func (c *Classifier) Classify(lines []string) (Match, bool) {
	var (
		best  Match
		found bool
	)

	for _, line := range lines {
		m, ok := c.Match(line)
		if !ok {
			continue
		}
		if !found || m.Rank < best.Rank {
			best = m
			found = true
		}
		if best.Rank == 0 {
			break
		}
	}

	return best, found
}
