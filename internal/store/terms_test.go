package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

func insertTaxonomy(t *testing.T, b *Backend, name, taxonomy string) *types.Taxonomy {
	t.Helper()
	tx := &types.Taxonomy{Taxonomy: taxonomy, Term: &types.Term{Name: name}}
	require.NoError(t, b.InsertTaxonomy(context.Background(), tx))
	return tx
}

func TestInsertTaxonomy(t *testing.T) {
	ctx := context.Background()
	d := events.NewDispatcher(nil)
	var saved []int64
	d.On(events.TaxonomySaved, func(_ context.Context, e events.Event) error {
		saved = append(saved, e.EntityID)
		return nil
	})
	b := newTestBackend(t, WithEvents(d))

	tx := insertTaxonomy(t, b, "Release Notes", types.TaxonomyCategory)
	assert.Positive(t, tx.TermTaxonomyID)
	assert.Equal(t, tx.Term.TermID, tx.TermID)
	assert.Equal(t, "release-notes", tx.Term.Slug)
	assert.Equal(t, []int64{tx.TermTaxonomyID}, saved)

	got, err := b.GetTaxonomy(ctx, tx.TermTaxonomyID)
	require.NoError(t, err)
	assert.Equal(t, types.TaxonomyCategory, got.Taxonomy)
	assert.Equal(t, "Release Notes", got.Name())
	assert.Equal(t, "/category/release-notes", got.URLPath())
}

func TestInsertTaxonomy_Invalid(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	assert.ErrorIs(t, b.InsertTaxonomy(ctx, nil), types.ErrInvalidData)
	assert.ErrorIs(t, b.InsertTaxonomy(ctx, &types.Taxonomy{}), types.ErrInvalidData)
	assert.ErrorIs(t, b.InsertTaxonomy(ctx, &types.Taxonomy{Taxonomy: "category"}), types.ErrInvalidData)
	assert.ErrorIs(t, b.InsertTaxonomy(ctx, &types.Taxonomy{Taxonomy: "category", Term: &types.Term{}}), types.ErrInvalidName)
}

func TestTermInSeveralTaxonomies(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	cat := insertTaxonomy(t, b, "News", types.TaxonomyCategory)
	tag := &types.Taxonomy{Taxonomy: types.TaxonomyPostTag, TermID: cat.TermID}
	require.NoError(t, b.InsertTaxonomy(ctx, tag))

	got, err := b.FindTaxonomyByTermID(ctx, cat.TermID, types.TaxonomyPostTag)
	require.NoError(t, err)
	assert.Equal(t, tag.TermTaxonomyID, got.TermTaxonomyID)

	got, err = b.FindTaxonomyByTermID(ctx, cat.TermID, "")
	require.NoError(t, err)
	assert.Equal(t, cat.TermTaxonomyID, got.TermTaxonomyID, "empty taxonomy picks the first entry")

	_, err = b.FindTaxonomyByTermID(ctx, cat.TermID, types.TaxonomyPostFormat)
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err = b.FindTaxonomyBySlug(ctx, types.TaxonomyPostTag, "news")
	require.NoError(t, err)
	assert.Equal(t, "/tag/news", got.URLPath())

	_, err = b.FindTaxonomyBySlug(ctx, types.TaxonomyPostTag, "")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestAttachTaxonomy(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	post := &types.Post{Title: "Tagged"}
	require.NoError(t, b.InsertPost(ctx, post))
	zebra := insertTaxonomy(t, b, "Zebra", types.TaxonomyPostTag)
	apple := insertTaxonomy(t, b, "Apple", types.TaxonomyPostTag)
	cat := insertTaxonomy(t, b, "General", types.TaxonomyCategory)

	for _, tt := range []*types.Taxonomy{zebra, apple, cat, zebra} {
		require.NoError(t, b.AttachTaxonomy(ctx, post.ID, tt.TermTaxonomyID))
	}

	tags, err := b.PostTaxonomies(ctx, post.ID, types.TaxonomyPostTag)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Apple", tags[0].Name())
	assert.Equal(t, "Zebra", tags[1].Name())

	all, err := b.PostTaxonomies(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := b.GetTaxonomy(ctx, zebra.TermTaxonomyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Count, "attaching twice counts once")

	assert.ErrorIs(t, b.AttachTaxonomy(ctx, 0, zebra.TermTaxonomyID), types.ErrInvalidID)
}

func TestTermMeta(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	red := insertTaxonomy(t, b, "Red", types.TaxonomyCategory)
	blue := insertTaxonomy(t, b, "Blue", types.TaxonomyCategory)
	require.NoError(t, red.Term.SetMeta(ctx, "color", "#f00"))
	require.NoError(t, blue.Term.SetMeta(ctx, "color", "#00f"))
	require.NoError(t, blue.Term.SetMeta(ctx, "featured", "1"))

	terms, err := b.FindTermsByMeta(ctx, "featured", "1")
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "Blue", terms[0].Name)

	got, err := b.GetTaxonomy(ctx, blue.TermTaxonomyID)
	require.NoError(t, err)
	c, err := got.Term.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"color": "#00f", "featured": "1"}, c.FlatMap())
}

func TestGetTerm(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	term := &types.Term{Name: "Plain", Slug: "custom-slug"}
	require.NoError(t, b.InsertTerm(ctx, term))

	got, err := b.GetTerm(ctx, term.TermID)
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", got.Slug)
	assert.Equal(t, "/custom-slug", got.URLPath())

	_, err = b.GetTerm(ctx, term.TermID+1)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetTerm(ctx, -1)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}
