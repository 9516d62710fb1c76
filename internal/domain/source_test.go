package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceKey(t *testing.T) {
	t.Run("url keyed sources share identity", func(t *testing.T) {
		a := SourceKey("https://example.com/article")
		b := SourceKey("https://example.com/article")
		assert.Equal(t, "src:url:https://example.com/article", a)
		assert.Equal(t, a, b)
	})

	t.Run("urlless sources get fresh ids", func(t *testing.T) {
		a := SourceKey("")
		b := SourceKey("")
		assert.NotEqual(t, a, b)
		assert.Contains(t, a, "src:")
	})
}

func TestValidSourceType(t *testing.T) {
	for _, st := range []SourceType{SourceNews, SourceBook, SourcePaper, SourceWikidata, SourceArchive, SourceOther} {
		assert.True(t, ValidSourceType(st), string(st))
	}
	assert.False(t, ValidSourceType(SourceType("BLOG")))
}
