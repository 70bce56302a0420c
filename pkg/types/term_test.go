package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermEntity(t *testing.T) {
	term := &Term{TermID: 4, Name: "News", Slug: "news"}

	assert.Equal(t, int64(4), term.EntityID())
	assert.Equal(t, "News", term.Anchor())
	assert.Equal(t, "news", term.URLKey())
	assert.Equal(t, "/news", term.URLPath())
}

func TestTaxonomyURLPath(t *testing.T) {
	tests := []struct {
		name     string
		taxonomy string
		want     string
	}{
		{name: "category", taxonomy: TaxonomyCategory, want: "/category/news"},
		{name: "tag", taxonomy: TaxonomyPostTag, want: "/tag/news"},
		{name: "post format", taxonomy: TaxonomyPostFormat, want: "/type/news"},
		{name: "custom taxonomy uses its key", taxonomy: "genre", want: "/genre/news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Taxonomy{
				TermTaxonomyID: 9,
				TermID:         4,
				Taxonomy:       tt.taxonomy,
				Term:           &Term{TermID: 4, Name: "News", Slug: "news"},
			}
			assert.Equal(t, tt.want, tx.URLPath())
		})
	}
}

func TestTaxonomyWithoutTerm(t *testing.T) {
	tx := &Taxonomy{TermTaxonomyID: 9, Taxonomy: TaxonomyCategory}

	assert.Equal(t, int64(9), tx.EntityID())
	assert.Empty(t, tx.Anchor())
	assert.Empty(t, tx.URLKey())
	assert.Equal(t, "/category/", tx.URLPath())
}
