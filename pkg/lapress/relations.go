package lapress

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lapress/pkg/types"
)

// ErrUnknownType is returned when a relationship needs a type name the
// registry does not resolve.
var ErrUnknownType = errors.New("type not registered")

// find loads id as the type registered under name, honoring host
// overrides. A missing row yields nil and no error.
func (s *Site) find(ctx context.Context, name string, id int64) (types.Entity, error) {
	if id <= 0 {
		return nil, nil
	}
	t, ok := s.registry.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownType)
	}

	var (
		e   types.Entity
		err error
	)
	if t.Find != nil {
		e, err = t.Find(ctx, id)
	} else {
		e, err = s.backend.FindByID(ctx, t, id)
	}
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

// Author returns the user who wrote p, or nil when there is none.
func (s *Site) Author(ctx context.Context, p *types.Post) (*types.User, error) {
	e, err := s.find(ctx, "User", p.AuthorID)
	if err != nil || e == nil {
		return nil, err
	}
	u, ok := e.(*types.User)
	if !ok {
		return nil, fmt.Errorf("author of post %d resolved to %T", p.ID, e)
	}
	return u, nil
}

// Thumbnail returns the attachment named by p's _thumbnail_id meta, or
// nil when unset or missing.
func (s *Site) Thumbnail(ctx context.Context, p *types.Post) (types.Entity, error) {
	c, err := p.Meta(ctx)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, "Attachment", c.Int(types.MetaThumbnailID))
}

// Categories returns the categories p is filed under, by name.
func (s *Site) Categories(ctx context.Context, p *types.Post) ([]*types.Taxonomy, error) {
	return s.taxonomies(ctx, "Category", p)
}

// Tags returns the tags attached to p, by name.
func (s *Site) Tags(ctx context.Context, p *types.Post) ([]*types.Taxonomy, error) {
	return s.taxonomies(ctx, "PostTag", p)
}

func (s *Site) taxonomies(ctx context.Context, name string, p *types.Post) ([]*types.Taxonomy, error) {
	t, ok := s.registry.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownType)
	}
	return s.backend.PostTaxonomies(ctx, p.ID, t.Taxonomy)
}

// AddTaxonomy creates a term named name in taxonomy. An empty slug is
// derived from the name.
func (s *Site) AddTaxonomy(ctx context.Context, name, slug, taxonomy string) (*types.Taxonomy, error) {
	tx := &types.Taxonomy{
		Taxonomy: taxonomy,
		Term:     &types.Term{Name: name, Slug: slug},
	}
	if err := s.backend.InsertTaxonomy(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// FindTaxonomy looks a taxonomy entry up by its term slug.
func (s *Site) FindTaxonomy(ctx context.Context, taxonomy, slug string) (*types.Taxonomy, error) {
	return s.backend.FindTaxonomyBySlug(ctx, taxonomy, slug)
}

// TaxonomySummary renders tx with its term's meta flattened to one string
// per key.
func (s *Site) TaxonomySummary(ctx context.Context, tx *types.Taxonomy) (map[string]any, error) {
	out := map[string]any{
		"id":          tx.TermTaxonomyID,
		"type":        tx.Taxonomy,
		"name":        tx.Name(),
		"slug":        tx.Slug(),
		"description": tx.Description,
		"parent":      tx.Parent,
		"count":       tx.Count,
		"meta":        map[string]string{},
	}
	if tx.Term == nil || tx.Term.Owner == nil {
		return out, nil
	}
	c, err := tx.Term.Meta(ctx)
	if err != nil {
		return nil, err
	}
	out["meta"] = c.FlatMap()
	return out, nil
}
