package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceType classifies a piece of evidence.
type SourceType string

const (
	SourceNews     SourceType = "NEWS"
	SourceBook     SourceType = "BOOK"
	SourcePaper    SourceType = "PAPER"
	SourceWikidata SourceType = "WIKIDATA"
	SourceArchive  SourceType = "ARCHIVE"
	SourceOther    SourceType = "OTHER"
)

// ValidSourceType reports whether t is one of the known source types.
func ValidSourceType(t SourceType) bool {
	switch t {
	case SourceNews, SourceBook, SourcePaper, SourceWikidata, SourceArchive, SourceOther:
		return true
	}
	return false
}

// Source is a citation that can be linked as evidence to any number of
// claims. Sources with a URL share identity across submissions: the id is
// derived from the URL so re-submitting the same link attaches to the
// existing node instead of creating a duplicate.
type Source struct {
	ID          string     `json:"id"`
	SourceType  SourceType `json:"sourceType"`
	Title       string     `json:"title"`
	URL         string     `json:"url,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// SourceKey derives the stable source identifier: URL-keyed when a URL is
// present, otherwise a fresh id.
func SourceKey(url string) string {
	if url != "" {
		return fmt.Sprintf("src:url:%s", url)
	}
	return fmt.Sprintf("src:%s", uuid.New().String())
}
