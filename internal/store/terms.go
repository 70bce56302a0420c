package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/lapress/internal/textutil"
	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// GetTerm loads one term by ID.
func (b *Backend) GetTerm(ctx context.Context, id int64) (t *types.Term, err error) {
	defer b.observe("get_term", time.Now(), &err)

	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s t WHERE t.term_id = ?", termColumns, b.table("terms"))
	t, err = b.hydrateTerm(q.QueryRowContext(ctx, b.dialect.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting term %d: %w", id, err)
	}
	return t, nil
}

// InsertTerm stores t and binds its meta. An empty slug is derived from the
// name.
func (b *Backend) InsertTerm(ctx context.Context, t *types.Term) (err error) {
	defer b.observe("insert_term", time.Now(), &err)

	if t == nil || t.Name == "" {
		return types.ErrInvalidName
	}
	q, err := b.conn()
	if err != nil {
		return err
	}
	if t.Slug == "" {
		t.Slug = textutil.Slugify(t.Name)
	}

	query := fmt.Sprintf("INSERT INTO %s (name, slug, term_group) VALUES (?, ?, ?)", b.table("terms"))
	id, err := b.dialect.insert(ctx, q, query, "term_id", t.Name, t.Slug, t.TermGroup)
	if err != nil {
		return fmt.Errorf("inserting term: %w", err)
	}
	t.TermID = id
	t.Owner = meta.NewOwner(meta.TermMeta, id, b, b.ownerOptions()...)
	b.emit(ctx, events.TermSaved, id)
	return nil
}

// GetTaxonomy loads a taxonomy entry by term_taxonomy_id, with its term.
func (b *Backend) GetTaxonomy(ctx context.Context, id int64) (tx *types.Taxonomy, err error) {
	defer b.observe("get_taxonomy", time.Now(), &err)

	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	return b.oneTaxonomy(ctx, "tt.term_taxonomy_id = ?", id)
}

// FindTaxonomyByTermID loads the entry of term termID in taxonomy. An empty
// taxonomy matches the entry with the lowest id.
func (b *Backend) FindTaxonomyByTermID(ctx context.Context, termID int64, taxonomy string) (tx *types.Taxonomy, err error) {
	defer b.observe("find_taxonomy_by_term", time.Now(), &err)

	if termID <= 0 {
		return nil, types.ErrInvalidID
	}
	if taxonomy == "" {
		return b.oneTaxonomy(ctx, "tt.term_id = ?", termID)
	}
	return b.oneTaxonomy(ctx, "tt.term_id = ? AND tt.taxonomy = ?", termID, taxonomy)
}

// FindTaxonomyBySlug loads the entry of taxonomy whose term has slug.
func (b *Backend) FindTaxonomyBySlug(ctx context.Context, taxonomy, slug string) (tx *types.Taxonomy, err error) {
	defer b.observe("find_taxonomy_by_slug", time.Now(), &err)

	if slug == "" {
		return nil, types.ErrInvalidName
	}
	return b.oneTaxonomy(ctx, "tt.taxonomy = ? AND t.slug = ?", taxonomy, slug)
}

func (b *Backend) oneTaxonomy(ctx context.Context, where string, args ...any) (*types.Taxonomy, error) {
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s tt JOIN %s t ON t.term_id = tt.term_id WHERE %s ORDER BY tt.term_taxonomy_id LIMIT 1",
		taxonomyColumns, b.table("term_taxonomy"), b.table("terms"), where)
	tx, err := b.hydrateTaxonomy(q.QueryRowContext(ctx, b.dialect.rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting taxonomy: %w", err)
	}
	return tx, nil
}

// InsertTaxonomy stores tx. When tx.TermID is zero, tx.Term is inserted
// first. A TaxonomySaved event follows a successful insert.
func (b *Backend) InsertTaxonomy(ctx context.Context, tx *types.Taxonomy) (err error) {
	defer b.observe("insert_taxonomy", time.Now(), &err)

	if tx == nil || tx.Taxonomy == "" {
		return types.ErrInvalidData
	}
	if tx.TermID == 0 {
		if tx.Term == nil {
			return types.ErrInvalidData
		}
		if err := b.InsertTerm(ctx, tx.Term); err != nil {
			return err
		}
		tx.TermID = tx.Term.TermID
	}
	q, err := b.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (term_id, taxonomy, description, parent, count) VALUES (?, ?, ?, ?, ?)",
		b.table("term_taxonomy"))
	id, err := b.dialect.insert(ctx, q, query, "term_taxonomy_id", tx.TermID, tx.Taxonomy, tx.Description, tx.Parent, tx.Count)
	if err != nil {
		return fmt.Errorf("inserting taxonomy: %w", err)
	}
	tx.TermTaxonomyID = id
	b.emit(ctx, events.TaxonomySaved, id)
	return nil
}

// AttachTaxonomy relates post postID to taxonomy entry ttID and bumps the
// entry's count. Attaching twice is a no-op.
func (b *Backend) AttachTaxonomy(ctx context.Context, postID, ttID int64) (err error) {
	defer b.observe("attach_taxonomy", time.Now(), &err)

	if postID <= 0 || ttID <= 0 {
		return types.ErrInvalidID
	}
	q, err := b.conn()
	if err != nil {
		return err
	}

	related, err := b.exists(ctx, q, "term_relationships", "object_id = ? AND term_taxonomy_id = ?", postID, ttID)
	if err != nil {
		return fmt.Errorf("checking relationship: %w", err)
	}
	if related {
		return nil
	}

	insert := fmt.Sprintf("INSERT INTO %s (object_id, term_taxonomy_id, term_order) VALUES (?, ?, 0)",
		b.table("term_relationships"))
	if _, err := q.ExecContext(ctx, b.dialect.rebind(insert), postID, ttID); err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	update := fmt.Sprintf("UPDATE %s SET count = count + 1 WHERE term_taxonomy_id = ?", b.table("term_taxonomy"))
	if _, err := q.ExecContext(ctx, b.dialect.rebind(update), ttID); err != nil {
		return fmt.Errorf("updating taxonomy count: %w", err)
	}
	return nil
}

// PostTaxonomies lists the taxonomy entries related to postID, restricted to
// taxonomy unless it is empty, ordered by term name.
func (b *Backend) PostTaxonomies(ctx context.Context, postID int64, taxonomy string) (out []*types.Taxonomy, err error) {
	defer b.observe("post_taxonomies", time.Now(), &err)

	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s tt
    JOIN %s t ON t.term_id = tt.term_id
    JOIN %s r ON r.term_taxonomy_id = tt.term_taxonomy_id
    WHERE r.object_id = ?`,
		taxonomyColumns, b.table("term_taxonomy"), b.table("terms"), b.table("term_relationships"))
	args := []any{postID}
	if taxonomy != "" {
		query += " AND tt.taxonomy = ?"
		args = append(args, taxonomy)
	}
	query += " ORDER BY t.name, tt.term_taxonomy_id"

	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying post taxonomies: %w", err)
	}
	return collect(rows, b.hydrateTaxonomy)
}

// FindTermsByMeta lists terms having a meta row with key and value.
func (b *Backend) FindTermsByMeta(ctx context.Context, key, value string) ([]*types.Term, error) {
	ids, err := b.FindOwnersByMeta(ctx, meta.TermMeta, key, value)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Term, 0, len(ids))
	for _, id := range ids {
		t, err := b.GetTerm(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
