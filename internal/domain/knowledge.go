package domain

import "strings"

// OverviewMarker identifies the section that is always part of a chat context.
const OverviewMarker = "Company Overview"

// KnowledgeSection is one titled block of the static knowledge document.
type KnowledgeSection struct {
	Title   string
	Content string
}

// IsOverview reports whether the section is the company overview.
// The match is case-sensitive.
func (s KnowledgeSection) IsOverview() bool {
	return strings.Contains(s.Title, OverviewMarker)
}

// ScoredSection is a knowledge section ranked against a single query.
type ScoredSection struct {
	KnowledgeSection
	Score float64
}
