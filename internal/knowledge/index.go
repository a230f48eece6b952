// Package knowledge indexes the chatbot's static knowledge document and selects
// the sections relevant to a visitor question.
package knowledge

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/cloo-solutions/sevakai/internal/domain"
)

// SectionDelimiter separates titled sections in a knowledge document.
const SectionDelimiter = "## "

//go:embed sevakai.md
var defaultDocument string

var (
	defaultOnce  sync.Once
	defaultIndex *Index
)

// Index is an immutable, ordered list of knowledge sections. It is safe to share
// across goroutines.
type Index struct {
	sections []domain.KnowledgeSection
}

// BuildIndex splits document on SectionDelimiter. Text before the first delimiter
// is front matter and is dropped. The first line of each chunk is its title and
// the rest is its content. A document without delimiters yields an empty index.
func BuildIndex(document string) *Index {
	chunks := strings.Split(document, SectionDelimiter)
	sections := make([]domain.KnowledgeSection, 0, len(chunks)-1)
	for _, chunk := range chunks[1:] {
		title, content, _ := strings.Cut(chunk, "\n")
		sections = append(sections, domain.KnowledgeSection{
			Title:   strings.TrimSpace(title),
			Content: strings.TrimSpace(content),
		})
	}
	return &Index{sections: sections}
}

// Default returns the index of the embedded document, built on first use.
func Default() *Index {
	defaultOnce.Do(func() {
		defaultIndex = BuildIndex(defaultDocument)
	})
	return defaultIndex
}

// Len returns the number of sections.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.sections)
}

// Sections returns a copy of the sections in document order.
func (i *Index) Sections() []domain.KnowledgeSection {
	if i == nil {
		return nil
	}
	out := make([]domain.KnowledgeSection, len(i.sections))
	copy(out, i.sections)
	return out
}

// Titles returns the section titles in document order.
func (i *Index) Titles() []string {
	if i == nil {
		return nil
	}
	titles := make([]string, len(i.sections))
	for n, s := range i.sections {
		titles[n] = s.Title
	}
	return titles
}

// Overview returns the first section whose title names the company overview.
func (i *Index) Overview() (domain.KnowledgeSection, bool) {
	pos := i.overviewPos()
	if pos < 0 {
		return domain.KnowledgeSection{}, false
	}
	return i.sections[pos], true
}

func (i *Index) overviewPos() int {
	if i == nil {
		return -1
	}
	for n, s := range i.sections {
		if s.IsOverview() {
			return n
		}
	}
	return -1
}
