package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

var _ meta.Store = (*Backend)(nil)

// metaTable names the side table and its columns for one owner kind.
type metaTable struct {
	name     string
	idCol    string
	ownerCol string
	saved    events.Kind
}

var metaTables = map[meta.OwnerKind]metaTable{
	meta.PostMeta: {name: "postmeta", idCol: "meta_id", ownerCol: "post_id", saved: events.PostMetaSaved},
	meta.TermMeta: {name: "termmeta", idCol: "meta_id", ownerCol: "term_id", saved: events.TermMetaSaved},
	meta.UserMeta: {name: "usermeta", idCol: "umeta_id", ownerCol: "user_id", saved: events.UserMetaSaved},
}

func lookupMetaTable(kind meta.OwnerKind) (metaTable, error) {
	t, ok := metaTables[kind]
	if !ok {
		return metaTable{}, fmt.Errorf("unknown meta owner kind %q: %w", kind, types.ErrInvalidData)
	}
	return t, nil
}

// FetchMetaRows returns every meta row of the owner in insertion order.
func (b *Backend) FetchMetaRows(ctx context.Context, kind meta.OwnerKind, ownerID int64) (out []meta.Row, err error) {
	defer b.observe("fetch_meta", time.Now(), &err)

	t, err := lookupMetaTable(kind)
	if err != nil {
		return nil, err
	}
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, %s, meta_key, meta_value FROM %s WHERE %s = ? ORDER BY %s",
		t.idCol, t.ownerCol, b.table(t.name), t.ownerCol, t.idCol)
	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	return collect(rows, func(s scanner) (meta.Row, error) {
		var (
			r          meta.Row
			key, value sql.NullString
		)
		if err := s.Scan(&r.ID, &r.OwnerID, &key, &value); err != nil {
			return r, err
		}
		r.Key, r.Value = key.String, value.String
		return r, nil
	})
}

// InsertMetaRow appends one meta row and raises the owner kind's meta
// saved event.
func (b *Backend) InsertMetaRow(ctx context.Context, kind meta.OwnerKind, ownerID int64, key, value string) (err error) {
	defer b.observe("insert_meta", time.Now(), &err)

	t, err := lookupMetaTable(kind)
	if err != nil {
		return err
	}
	if ownerID <= 0 {
		return types.ErrInvalidID
	}
	q, err := b.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, meta_key, meta_value) VALUES (?, ?, ?)", b.table(t.name), t.ownerCol)
	_, err = b.dialect.insert(ctx, q, query, t.idCol, ownerID, key, value)
	b.metrics.RecordMetaWrite(t.name, err)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", t.name, err)
	}
	b.emit(ctx, t.saved, ownerID)
	return nil
}

// FindOwnersByMeta returns the distinct owner ids having a row with key and
// value, in ascending id order.
func (b *Backend) FindOwnersByMeta(ctx context.Context, kind meta.OwnerKind, key, value string) (ids []int64, err error) {
	defer b.observe("find_owners_by_meta", time.Now(), &err)

	t, err := lookupMetaTable(kind)
	if err != nil {
		return nil, err
	}
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE meta_key = ? AND meta_value = ? ORDER BY %s",
		t.ownerCol, b.table(t.name), t.ownerCol)
	rows, err := q.QueryContext(ctx, b.dialect.rebind(query), key, value)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	return collect(rows, func(s scanner) (int64, error) {
		var id int64
		err := s.Scan(&id)
		return id, err
	})
}
