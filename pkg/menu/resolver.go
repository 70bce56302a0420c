package menu

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/lapress/pkg/resolver"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Finder loads entities for resolved types. Implementations return
// types.ErrNotFound when no row matches.
type Finder interface {
	// FindByID loads a post, term or user by primary key, restricted to the
	// type's post type when it has one.
	FindByID(ctx context.Context, t resolver.Type, id int64) (types.Entity, error)

	// FindByTaxonomyTermID loads the taxonomy entry of term termID, restricted
	// to the type's taxonomy when it has one.
	FindByTaxonomyTermID(ctx context.Context, t resolver.Type, termID int64) (types.Entity, error)
}

// Resolver turns a menu item's type tag and object id into the entity it
// points at.
type Resolver struct {
	registry *resolver.Registry
	finder   Finder
	opts     options
}

// NewResolver returns a Resolver looking types up in registry and loading
// entities through finder.
func NewResolver(registry *resolver.Registry, finder Finder, opts ...Option) *Resolver {
	return &Resolver{registry: registry, finder: finder, opts: newOptions(opts)}
}

// Resolve returns the entity item points at. It returns nil and no error
// when the tag is empty, the tag names no registered type, the object id is
// not a positive integer, or the target row does not exist. Storage
// failures are returned.
func (r *Resolver) Resolve(ctx context.Context, item *types.Post) (types.Entity, error) {
	c, err := item.Meta(ctx)
	if err != nil {
		return nil, err
	}

	tag := c.String(KeyObject)
	if tag == "" {
		return r.miss(item, ReasonNoTag, tag)
	}
	name, ok := r.opts.objectTypes[tag]
	if !ok {
		name = tag
	}
	t, ok := r.registry.Resolve(name)
	if !ok {
		return r.miss(item, ReasonUnknownType, tag)
	}
	id := c.Int(KeyObjectID)
	if id <= 0 {
		return r.miss(item, ReasonInvalidID, tag)
	}

	var e types.Entity
	switch {
	case t.Find != nil:
		e, err = t.Find(ctx, id)
	case t.Kind == resolver.KindTaxonomy:
		e, err = r.finder.FindByTaxonomyTermID(ctx, t, id)
	default:
		e, err = r.finder.FindByID(ctx, t, id)
	}
	if errors.Is(err, types.ErrNotFound) || (err == nil && e == nil) {
		return r.miss(item, ReasonDangling, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving menu item %d (%s %d): %w", item.ID, t.Name, id, err)
	}
	return e, nil
}

func (r *Resolver) miss(item *types.Post, reason, tag string) (types.Entity, error) {
	r.opts.unresolved(reason)
	r.opts.logger.Debug("menu item has no target",
		zap.Int64("item_id", item.ID),
		zap.String("tag", tag),
		zap.String("reason", reason))
	return nil, nil
}
