package types

import (
	"github.com/mesh-intelligence/lapress/pkg/meta"
)

// Well-known taxonomy keys.
const (
	TaxonomyCategory   = "category"
	TaxonomyPostTag    = "post_tag"
	TaxonomyPostFormat = "post_format"
	TaxonomyNavMenu    = "nav_menu"
)

// taxonomyBases maps a taxonomy to the first URL segment of its archives.
var taxonomyBases = map[string]string{
	TaxonomyCategory:   "category",
	TaxonomyPostTag:    "tag",
	TaxonomyPostFormat: "type",
}

// Term is a row of the terms table: the name and slug shared by every
// taxonomy the term appears in.
type Term struct {
	*meta.Owner `json:"-"`

	TermID    int64  `json:"term_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	TermGroup int64  `json:"term_group"`
}

// EntityID returns the term ID.
func (t *Term) EntityID() int64 { return t.TermID }

// Anchor returns the term name.
func (t *Term) Anchor() string { return t.Name }

// URLKey returns the term slug.
func (t *Term) URLKey() string { return t.Slug }

// URLPath returns "/" followed by the slug.
func (t *Term) URLPath() string { return "/" + t.Slug }

// Taxonomy is a row of term_taxonomy: a term placed in one taxonomy
// (category, tag, menu, ...). Term is loaded with it.
type Taxonomy struct {
	TermTaxonomyID int64  `json:"id"`
	TermID         int64  `json:"term_id"`
	Taxonomy       string `json:"type"`
	Description    string `json:"description"`
	Parent         int64  `json:"parent"`
	Count          int64  `json:"count"`
	Term           *Term  `json:"term,omitempty"`
}

// EntityID returns the term_taxonomy ID.
func (t *Taxonomy) EntityID() int64 { return t.TermTaxonomyID }

// Name returns the term name, or "" when the term is not loaded.
func (t *Taxonomy) Name() string {
	if t.Term == nil {
		return ""
	}
	return t.Term.Name
}

// Slug returns the term slug, or "" when the term is not loaded.
func (t *Taxonomy) Slug() string {
	if t.Term == nil {
		return ""
	}
	return t.Term.Slug
}

// Anchor returns the term name.
func (t *Taxonomy) Anchor() string { return t.Name() }

// URLKey returns the term slug.
func (t *Taxonomy) URLKey() string { return t.Slug() }

// URLPath returns the archive path, e.g. "/category/news".
func (t *Taxonomy) URLPath() string {
	base, ok := taxonomyBases[t.Taxonomy]
	if !ok {
		base = t.Taxonomy
	}
	return "/" + base + "/" + t.Slug()
}
