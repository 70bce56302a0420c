package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/lapress/internal/textutil"
	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/menu"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// OrderBy selects the ordering of post lists.
type OrderBy int

// Post orderings.
const (
	OrderByID OrderBy = iota
	OrderByMenuOrder
	OrderByDateDesc
)

func (o OrderBy) clause() string {
	switch o {
	case OrderByMenuOrder:
		return "menu_order, ID"
	case OrderByDateDesc:
		return "post_date DESC, ID DESC"
	}
	return "ID"
}

// PostFilter narrows FindPosts. Zero fields match everything.
type PostFilter struct {
	Type    string
	Status  string
	OrderBy OrderBy
	Limit   int
}

// GetPost loads one post by ID.
func (b *Backend) GetPost(ctx context.Context, id int64) (p *types.Post, err error) {
	defer b.observe("get_post", time.Now(), &err)

	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE ID = ?", postColumns, b.table("posts"))
	p, err = b.hydratePost(q.QueryRowContext(ctx, b.dialect.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return p, nil
}

// FindPosts lists posts matching f.
func (b *Backend) FindPosts(ctx context.Context, f PostFilter) (posts []*types.Post, err error) {
	defer b.observe("find_posts", time.Now(), &err)

	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1 = 1", postColumns, b.table("posts"))
	var args []any
	if f.Type != "" {
		query += " AND post_type = ?"
		args = append(args, f.Type)
	}
	if f.Status != "" {
		query += " AND post_status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY " + f.OrderBy.clause()
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	return collect(rows, b.hydratePost)
}

// FindPostsByMeta lists posts having a meta row with key and value. An
// empty postType matches every type.
func (b *Backend) FindPostsByMeta(ctx context.Context, postType, key, value string, order OrderBy) (posts []*types.Post, err error) {
	defer b.observe("find_posts_by_meta", time.Now(), &err)

	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE EXISTS (SELECT 1 FROM %s m WHERE m.post_id = ID AND m.meta_key = ? AND m.meta_value = ?)",
		postColumns, b.table("posts"), b.table("postmeta"))
	args := []any{key, value}
	if postType != "" {
		query += " AND post_type = ?"
		args = append(args, postType)
	}
	query += " ORDER BY " + order.clause()

	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts by meta: %w", err)
	}
	return collect(rows, b.hydratePost)
}

// InsertPost stores p and binds its meta. Missing fields are filled the
// way the legacy application does on create: the slug comes from the title
// (made unique within the post type), dates default to now with GMT
// counterparts, type defaults to post and status to publish. A PostSaved
// event follows a successful insert.
func (b *Backend) InsertPost(ctx context.Context, p *types.Post) (err error) {
	defer b.observe("insert_post", time.Now(), &err)

	if p == nil {
		return types.ErrInvalidData
	}
	q, err := b.conn()
	if err != nil {
		return err
	}

	if p.Type == "" {
		p.Type = types.PostTypePost
	}
	if p.Status == "" {
		p.Status = types.PostStatusPublish
	}
	if p.Name == "" {
		if slug := textutil.Slugify(p.Title); slug != "" {
			p.Name, err = textutil.Unique(slug, func(candidate string) (bool, error) {
				return b.exists(ctx, q, "posts", "post_name = ? AND post_type = ?", candidate, p.Type)
			})
			if err != nil {
				return fmt.Errorf("choosing slug: %w", err)
			}
		}
	}
	now := b.now()
	if p.Date.IsZero() {
		p.Date = now
	}
	if p.DateGMT.IsZero() {
		p.DateGMT = p.Date.UTC()
	}
	if p.Modified.IsZero() {
		p.Modified = p.Date
	}
	if p.ModifiedGMT.IsZero() {
		p.ModifiedGMT = p.Modified.UTC()
	}

	query := fmt.Sprintf(`INSERT INTO %s (post_author, post_date, post_date_gmt, post_content, post_title, post_excerpt,
    post_status, post_name, post_modified, post_modified_gmt, post_parent, guid, menu_order, post_type, post_mime_type)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, b.table("posts"))
	id, err := b.dialect.insert(ctx, q, query, "ID",
		p.AuthorID, b.dialect.timeArg(p.Date), b.dialect.timeArg(p.DateGMT), p.Content, p.Title, p.Excerpt,
		p.Status, p.Name, b.dialect.timeArg(p.Modified), b.dialect.timeArg(p.ModifiedGMT), p.Parent, p.GUID,
		p.MenuOrder, p.Type, p.MimeType)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	p.ID = id
	p.Owner = meta.NewOwner(meta.PostMeta, id, b, b.ownerOptions()...)
	b.emit(ctx, events.PostSaved, id)
	return nil
}

// MenuItems lists the nav_menu_item posts whose parent pointer equals
// parentID, ordered by menu_order then ID. Parent 0 also matches items
// without a parent pointer.
func (b *Backend) MenuItems(ctx context.Context, parentID int64) (items []*types.Post, err error) {
	defer b.observe("menu_items", time.Now(), &err)

	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	hasParent := fmt.Sprintf("EXISTS (SELECT 1 FROM %s m WHERE m.post_id = ID AND m.meta_key = ? AND m.meta_value = ?)",
		b.table("postmeta"))
	args := []any{types.PostTypeMenuItem, menu.KeyParent, fmt.Sprint(parentID)}
	cond := hasParent
	if parentID == 0 {
		cond = fmt.Sprintf("(%s OR NOT EXISTS (SELECT 1 FROM %s m WHERE m.post_id = ID AND m.meta_key = ?))",
			hasParent, b.table("postmeta"))
		args = append(args, menu.KeyParent)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE post_type = ? AND %s ORDER BY menu_order, ID",
		postColumns, b.table("posts"), cond)
	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying menu items under %d: %w", parentID, err)
	}
	return collect(rows, b.hydratePost)
}

// exists reports whether table has a row matching where.
func (b *Backend) exists(ctx context.Context, q querier, table, where string, args ...any) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", b.table(table), where)
	var one int
	err := q.QueryRowContext(ctx, b.dialect.rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
