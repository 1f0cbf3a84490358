package model

import "strings"

// Known hair issues offered by the form.
const (
	IssueHairFall  = "Hair Fall"
	IssueDandruff  = "Dandruff"
	IssueDryness   = "Dryness"
	IssueOilyScalp = "Oily Scalp"
	issueSeparator = ","
)

// KnownIssues lists the form choices in display order.
var KnownIssues = []string{IssueHairFall, IssueDandruff, IssueDryness, IssueOilyScalp}

// ParseIssues splits the free-text issue cell of a dataset row.
// A missing or blank cell yields no issues.
func ParseIssues(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return NormalizeIssues(strings.Split(text, issueSeparator))
}

// NormalizeIssues trims each entry, drops blanks and duplicates, and keeps the
// first occurrence order. Training text and form selections both pass through
// here so the issue count feature means the same thing in both places.
func NormalizeIssues(issues []string) []string {
	if len(issues) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(issues))
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		is = strings.TrimSpace(is)
		if is == "" {
			continue
		}
		if _, dup := seen[is]; dup {
			continue
		}
		seen[is] = struct{}{}
		out = append(out, is)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
