package store

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/lapress/pkg/menu"
	"github.com/mesh-intelligence/lapress/pkg/resolver"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

var (
	_ menu.Finder     = (*Backend)(nil)
	_ menu.Source     = (*Backend)(nil)
	_ menu.PostWriter = (*Backend)(nil)
)

// FindByID loads the entity of type t with primary key id. A post whose
// post_type differs from t.PostType, or a taxonomy entry of another
// taxonomy, is reported as not found.
func (b *Backend) FindByID(ctx context.Context, t resolver.Type, id int64) (types.Entity, error) {
	switch t.Kind {
	case resolver.KindPost:
		p, err := b.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.PostType != "" && p.Type != t.PostType {
			return nil, types.ErrNotFound
		}
		return p, nil
	case resolver.KindTaxonomy:
		tx, err := b.GetTaxonomy(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.Taxonomy != "" && tx.Taxonomy != t.Taxonomy {
			return nil, types.ErrNotFound
		}
		return tx, nil
	case resolver.KindTerm:
		return b.GetTerm(ctx, id)
	case resolver.KindUser:
		return b.GetUser(ctx, id)
	}
	return nil, fmt.Errorf("type %s has unknown kind %q: %w", t.Name, t.Kind, types.ErrInvalidData)
}

// FindByTaxonomyTermID loads the taxonomy entry of term termID within
// t.Taxonomy. Types of other kinds fall back to FindByID.
func (b *Backend) FindByTaxonomyTermID(ctx context.Context, t resolver.Type, termID int64) (types.Entity, error) {
	if t.Kind != resolver.KindTaxonomy {
		return b.FindByID(ctx, t, termID)
	}
	return b.FindTaxonomyByTermID(ctx, termID, t.Taxonomy)
}
