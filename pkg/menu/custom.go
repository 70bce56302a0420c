package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// PostWriter inserts posts. On success the post's ID is set and its meta
// capability is bound.
type PostWriter interface {
	InsertPost(ctx context.Context, p *types.Post) error
}

// CustomOptions are the optional attributes of a custom link.
type CustomOptions struct {
	Target  string
	Classes []string
	Parent  int64
	Order   int
}

// ErrEmptyName is returned by AddCustom for a blank label.
var ErrEmptyName = errors.New("menu item name must not be empty")

// AddCustom creates a menu item linking to url and labelled name. The item
// is its own object, tagged custom. If writing the meta fails part way the
// post and the meta written so far remain; the error is a
// *meta.PartialWriteError.
func AddCustom(ctx context.Context, w PostWriter, name, url string, opts CustomOptions) (*types.Post, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	p := &types.Post{
		Title:     name,
		Status:    types.PostStatusPublish,
		Type:      types.PostTypeMenuItem,
		MenuOrder: opts.Order,
	}
	if err := w.InsertPost(ctx, p); err != nil {
		return nil, fmt.Errorf("creating menu item %q: %w", name, err)
	}

	err := p.SetManyMeta(ctx,
		meta.Pair{Key: KeyType, Value: ObjectCustom},
		meta.Pair{Key: KeyParent, Value: opts.Parent},
		meta.Pair{Key: KeyObjectID, Value: p.ID},
		meta.Pair{Key: KeyObject, Value: ObjectCustom},
		meta.Pair{Key: KeyTarget, Value: opts.Target},
		meta.Pair{Key: KeyClasses, Value: classes(opts.Classes)},
		meta.Pair{Key: KeyXFN, Value: ""},
		meta.Pair{Key: KeyURL, Value: url},
	)
	return p, err
}

// classes always stores a list, with one empty entry when there are none.
func classes(in []string) []string {
	if len(in) == 0 {
		return []string{""}
	}
	return in
}
