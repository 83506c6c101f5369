package domain

import (
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultCriticalPatterns are filenames that always need a human to confirm
var DefaultCriticalPatterns = []string{"README.md", "CLAUDE.md", "package.json", "*.py"}

// RiskPolicy holds the thresholds a plan is checked against
type RiskPolicy struct {
	FileCountThreshold int   // 0 disables the check
	LargeFileBytes     int64 // 0 disables the check
	CriticalPatterns   []string
}

// RiskReport lists why a plan is risky
type RiskReport struct {
	Factors              []string
	HighRisk             []string // paths
	RequiresConfirmation bool
}

// Assess evaluates the plan entries against the policy
func (p RiskPolicy) Assess(entries []PlanEntry) RiskReport {
	var r RiskReport
	flagged := make(map[string]bool)
	flag := func(path string) {
		if !flagged[path] {
			flagged[path] = true
			r.HighRisk = append(r.HighRisk, path)
		}
	}

	if p.FileCountThreshold > 0 && len(entries) >= p.FileCountThreshold {
		r.Factors = append(r.Factors, fmt.Sprintf("bulk operation: %d files (threshold %d)", len(entries), p.FileCountThreshold))
		r.RequiresConfirmation = true
	}

	for _, e := range entries {
		if p.LargeFileBytes > 0 && e.Size > p.LargeFileBytes {
			r.Factors = append(r.Factors, fmt.Sprintf("large file: %s (%s)", e.Name, humanize.Bytes(uint64(e.Size))))
			r.RequiresConfirmation = true
			flag(e.Path)
		}

		if pattern, ok := matchAny(p.CriticalPatterns, e.Name); ok {
			r.Factors = append(r.Factors, fmt.Sprintf("critical file: %s (pattern %s)", e.Name, pattern))
			r.RequiresConfirmation = true
			flag(e.Path)
		}

		if e.Blocked {
			r.Factors = append(r.Factors, fmt.Sprintf("blocked pattern: %s (%s)", e.Name, e.Reason))
			r.RequiresConfirmation = true
		}
	}

	return r
}

func matchAny(patterns []string, name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), lower); ok {
			return p, true
		}
	}
	return "", false
}
