package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Source lists menu items by parent.
type Source interface {
	// MenuItems returns the items whose parent pointer equals parentID,
	// ordered by menu_order then ID. Parent 0 also matches items with no
	// parent pointer.
	MenuItems(ctx context.Context, parentID int64) ([]*types.Post, error)
}

// Node is one rendered menu entry.
type Node struct {
	ID       int64    `json:"id"`
	Anchor   string   `json:"anchor"`
	Type     string   `json:"type"`
	URL      string   `json:"url"`
	URLKey   string   `json:"urlKey"`
	Classes  []string `json:"classes"`
	Target   string   `json:"target,omitempty"`
	Children []Node   `json:"items"`
}

// Structural errors.
var (
	ErrCycle    = errors.New("menu item cycle detected")
	ErrMaxDepth = errors.New("maximum menu depth exceeded")
)

// Issue is one branch cut while building a tree.
type Issue struct {
	Err    error
	ItemID int64
	Path   []int64
}

func (i Issue) String() string {
	parts := make([]string, len(i.Path))
	for n, id := range i.Path {
		parts[n] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%v at item %d (path %s)", i.Err, i.ItemID, strings.Join(parts, ">"))
}

// StructureError is returned together with a tree whose bad branches were
// cut.
type StructureError struct {
	Issues []Issue
}

func (e *StructureError) Error() string {
	if len(e.Issues) == 1 {
		return "menu structure: " + e.Issues[0].String()
	}
	return fmt.Sprintf("menu structure: %d problems, first: %s", len(e.Issues), e.Issues[0])
}

// Unwrap returns the distinct sentinel errors of the issues.
func (e *StructureError) Unwrap() []error {
	var out []error
	for _, i := range e.Issues {
		if !slices.Contains(out, i.Err) {
			out = append(out, i.Err)
		}
	}
	return out
}

// Builder assembles menu trees.
type Builder struct {
	source   Source
	resolver *Resolver
	opts     options
}

// NewBuilder returns a Builder reading items from source and resolving
// their targets with r.
func NewBuilder(source Source, r *Resolver, opts ...Option) *Builder {
	return &Builder{source: source, resolver: r, opts: newOptions(opts)}
}

// BuildChildren returns the tree below parentID; 0 builds every root. When
// a cycle or the depth limit cuts a branch, the rest of the tree is still
// returned along with a *StructureError. Any other error aborts the build.
func (b *Builder) BuildChildren(ctx context.Context, parentID int64) ([]Node, error) {
	key := CacheKey(parentID)
	if nodes, ok := b.cached(ctx, key); ok {
		b.opts.built("cache")
		return nodes, nil
	}

	w := &walk{}
	nodes, err := b.build(ctx, w, parentID, []int64{parentID})
	if err != nil {
		return nil, err
	}
	b.opts.built("store")

	if len(w.issues) > 0 {
		return nodes, &StructureError{Issues: w.issues}
	}
	b.store(ctx, key, nodes)
	return nodes, nil
}

// Invalidate drops every cached tree.
func (b *Builder) Invalidate(ctx context.Context) error {
	if b.opts.cache == nil {
		return nil
	}
	return b.opts.cache.Clear(ctx)
}

// walk collects issues from concurrent branches.
type walk struct {
	mu     sync.Mutex
	issues []Issue
}

func (w *walk) report(i Issue) {
	w.mu.Lock()
	w.issues = append(w.issues, i)
	w.mu.Unlock()
}

func (b *Builder) build(ctx context.Context, w *walk, parentID int64, path []int64) ([]Node, error) {
	items, err := b.source.MenuItems(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing menu items under %d: %w", parentID, err)
	}

	// path holds the starting parent plus every ancestor, so its length is
	// the depth of the items being built.
	if len(path) > b.opts.maxDepth && len(items) > 0 {
		b.cut(w, Issue{Err: ErrMaxDepth, ItemID: items[0].ID, Path: path}, "depth")
		return []Node{}, nil
	}

	kept := items[:0:0]
	for _, item := range items {
		if slices.Contains(path, item.ID) {
			b.cut(w, Issue{Err: ErrCycle, ItemID: item.ID, Path: append(slices.Clone(path), item.ID)}, "cycle")
			continue
		}
		kept = append(kept, item)
	}

	nodes := make([]Node, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.concurrency)
	for i, item := range kept {
		g.Go(func() error {
			n, err := b.node(gctx, w, item, path)
			if err != nil {
				return err
			}
			nodes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (b *Builder) cut(w *walk, i Issue, kind string) {
	w.report(i)
	b.opts.structural(kind)
	b.opts.logger.Warn("menu branch cut",
		zap.String("kind", kind),
		zap.Int64("item_id", i.ItemID),
		zap.Int64s("path", i.Path))
}

func (b *Builder) node(ctx context.Context, w *walk, item *types.Post, path []int64) (Node, error) {
	c, err := item.Meta(ctx)
	if err != nil {
		return Node{}, fmt.Errorf("loading menu item %d: %w", item.ID, err)
	}

	n := Node{
		ID:      item.ID,
		Anchor:  item.Title,
		Type:    c.String(KeyObject),
		URLKey:  item.Name,
		Classes: c.Strings(KeyClasses),
		Target:  c.String(KeyTarget),
	}

	if isCustom(c) {
		n.URL = c.String(KeyURL)
	} else {
		target, err := b.resolver.Resolve(ctx, item)
		if err != nil {
			return Node{}, err
		}
		if target != nil {
			if n.Anchor == "" {
				n.Anchor = target.Anchor()
			}
			n.URL = strings.TrimRight(b.opts.siteURL, "/") + target.URLPath()
			n.URLKey = target.URLKey()
		}
	}

	children, err := b.build(ctx, w, item.ID, append(slices.Clone(path), item.ID))
	if err != nil {
		return Node{}, err
	}
	n.Children = children
	return n, nil
}

func (b *Builder) cached(ctx context.Context, key string) ([]Node, bool) {
	if b.opts.cache == nil {
		return nil, false
	}
	data, ok, err := b.opts.cache.Get(ctx, key)
	if err != nil {
		b.opts.logger.Warn("menu cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		b.opts.logger.Warn("menu cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return nodes, true
}

func (b *Builder) store(ctx context.Context, key string, nodes []Node) {
	if b.opts.cache == nil {
		return
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return
	}
	if err := b.opts.cache.Set(ctx, key, data); err != nil {
		b.opts.logger.Warn("menu cache write failed", zap.String("key", key), zap.Error(err))
	}
}
