package lapress

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/menu"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// ErrNotMenuItem is returned when a post id names something other than a
// nav_menu_item.
var ErrNotMenuItem = errors.New("post is not a menu item")

// Menu builds the whole menu tree. Branches cut by a cycle or the depth
// limit are dropped and reported as a *menu.StructureError next to the
// remaining tree.
func (s *Site) Menu(ctx context.Context) ([]menu.Node, error) {
	return s.menus.BuildChildren(ctx, 0)
}

// MenuChildren builds the subtree below menu item parentID.
func (s *Site) MenuChildren(ctx context.Context, parentID int64) ([]menu.Node, error) {
	return s.menus.BuildChildren(ctx, parentID)
}

// ResolveMenuItem returns the entity menu item id points at, or nil when
// the item links nowhere.
func (s *Site) ResolveMenuItem(ctx context.Context, id int64) (types.Entity, error) {
	item, err := s.backend.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Type != types.PostTypeMenuItem {
		return nil, fmt.Errorf("post %d (%s): %w", id, item.Type, ErrNotMenuItem)
	}
	return s.resolver.Resolve(ctx, item)
}

// AddCustomMenuItem creates a custom link.
func (s *Site) AddCustomMenuItem(ctx context.Context, name, url string, opts menu.CustomOptions) (*types.Post, error) {
	return menu.AddCustom(ctx, s.backend, name, url, opts)
}

// AddPost stores p.
func (s *Site) AddPost(ctx context.Context, p *types.Post) error {
	return s.backend.InsertPost(ctx, p)
}

// InvalidateMenus drops cached menu trees. Writes through the Site's store
// do this on their own; it is for rows changed behind the store's back.
func (s *Site) InvalidateMenus(ctx context.Context) error {
	return s.menus.Invalidate(ctx)
}

// menuRowEvents are the saves that can change a rendered menu: menu items
// and their targets, with their meta.
var menuRowEvents = []events.Kind{
	events.PostSaved,
	events.PostMetaSaved,
	events.TermSaved,
	events.TermMetaSaved,
	events.TaxonomySaved,
}

// invalidateOnSave drops cached menu trees after every save that can change
// one. A failed invalidation is logged by the dispatcher.
func (s *Site) invalidateOnSave() {
	for _, kind := range menuRowEvents {
		s.events.On(kind, func(ctx context.Context, _ events.Event) error {
			if err := s.menus.Invalidate(ctx); err != nil {
				return fmt.Errorf("invalidating menu cache: %w", err)
			}
			return nil
		})
	}
}
