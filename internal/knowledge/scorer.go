package knowledge

import (
	"sort"
	"strings"

	"github.com/cloo-solutions/sevakai/internal/domain"
)

const (
	titleWeight   = 5
	contentWeight = 1

	// MaxSelected caps the sections picked by score, not counting a forced overview.
	MaxSelected = 3

	overviewScore = 1.0
)

type candidate struct {
	pos     int
	section domain.ScoredSection
}

// Select ranks the index against query and returns the context sections in
// render order. The company overview is always included exactly once; when it
// did not score into the top MaxSelected it is prepended, so up to
// MaxSelected+1 sections can be returned.
func Select(query string, idx *Index) []domain.ScoredSection {
	if idx.Len() == 0 {
		return nil
	}

	tokens := strings.Fields(strings.ToLower(query))

	candidates := make([]candidate, len(idx.sections))
	for pos, s := range idx.sections {
		candidates[pos] = candidate{
			pos: pos,
			section: domain.ScoredSection{
				KnowledgeSection: s,
				Score:            score(tokens, s),
			},
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].section.Score > candidates[b].section.Score
	})

	selected := make([]domain.ScoredSection, 0, MaxSelected+1)
	overviewPos := idx.overviewPos()
	overviewSelected := false
	for _, c := range candidates {
		if len(selected) == MaxSelected || c.section.Score <= 0 {
			break
		}
		if c.pos == overviewPos {
			overviewSelected = true
		}
		selected = append(selected, c.section)
	}

	if overviewPos >= 0 && !overviewSelected {
		overview := domain.ScoredSection{
			KnowledgeSection: idx.sections[overviewPos],
			Score:            overviewScore,
		}
		selected = append([]domain.ScoredSection{overview}, selected...)
	}

	return selected
}

// SelectContext returns the rendered context bundle for query.
func SelectContext(query string, idx *Index) string {
	return Render(Select(query, idx))
}

// Render formats sections as markdown blocks separated by a blank line.
func Render(sections []domain.ScoredSection) string {
	blocks := make([]string, len(sections))
	for i, s := range sections {
		blocks[i] = SectionDelimiter + s.Title + "\n" + s.Content
	}
	return strings.Join(blocks, "\n\n")
}

// Titles lists the titles of scored sections in order.
func Titles(sections []domain.ScoredSection) []string {
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	return titles
}

// score adds titleWeight per token present in the title and contentWeight per
// occurrence of the token in the content.
func score(tokens []string, s domain.KnowledgeSection) float64 {
	title := strings.ToLower(s.Title)
	content := strings.ToLower(s.Content)

	total := 0
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			total += titleWeight
		}
		total += contentWeight * strings.Count(content, tok)
	}
	return float64(total)
}
