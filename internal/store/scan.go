package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// legacyTimeLayout is the datetime format of the legacy tables.
const legacyTimeLayout = "2006-01-02 15:04:05"

// dbTime scans datetime columns stored either as text or as native
// timestamps. The legacy zero date reads as the zero time.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into a datetime", src)
}

func (t *dbTime) parse(s string) error {
	if s == "" || s == "0000-00-00 00:00:00" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{legacyTimeLayout, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised datetime %q", s)
}

// timeArg renders t for an INSERT in the dialect's datetime representation.
func (d dialect) timeArg(t time.Time) any {
	if d.numbered {
		return t
	}
	if t.IsZero() {
		return "0000-00-00 00:00:00"
	}
	return t.Format(legacyTimeLayout)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const postColumns = "ID, post_author, post_date, post_date_gmt, post_content, post_title, post_excerpt, " +
	"post_status, post_name, post_modified, post_modified_gmt, post_parent, guid, menu_order, post_type, post_mime_type"

func (b *Backend) hydratePost(row scanner) (*types.Post, error) {
	var p types.Post
	var date, dateGMT, modified, modifiedGMT dbTime
	err := row.Scan(&p.ID, &p.AuthorID, &date, &dateGMT, &p.Content, &p.Title, &p.Excerpt,
		&p.Status, &p.Name, &modified, &modifiedGMT, &p.Parent, &p.GUID, &p.MenuOrder, &p.Type, &p.MimeType)
	if err != nil {
		return nil, err
	}
	p.Date, p.DateGMT = date.Time, dateGMT.Time
	p.Modified, p.ModifiedGMT = modified.Time, modifiedGMT.Time
	p.Owner = meta.NewOwner(meta.PostMeta, p.ID, b, b.ownerOptions()...)
	return &p, nil
}

const termColumns = "t.term_id, t.name, t.slug, t.term_group"

func (b *Backend) hydrateTerm(row scanner) (*types.Term, error) {
	var t types.Term
	if err := row.Scan(&t.TermID, &t.Name, &t.Slug, &t.TermGroup); err != nil {
		return nil, err
	}
	t.Owner = meta.NewOwner(meta.TermMeta, t.TermID, b, b.ownerOptions()...)
	return &t, nil
}

const taxonomyColumns = "tt.term_taxonomy_id, tt.term_id, tt.taxonomy, tt.description, tt.parent, tt.count, " + termColumns

func (b *Backend) hydrateTaxonomy(row scanner) (*types.Taxonomy, error) {
	var (
		tx   types.Taxonomy
		term types.Term
	)
	err := row.Scan(&tx.TermTaxonomyID, &tx.TermID, &tx.Taxonomy, &tx.Description, &tx.Parent, &tx.Count,
		&term.TermID, &term.Name, &term.Slug, &term.TermGroup)
	if err != nil {
		return nil, err
	}
	term.Owner = meta.NewOwner(meta.TermMeta, term.TermID, b, b.ownerOptions()...)
	tx.Term = &term
	return &tx, nil
}

const userColumns = "ID, user_login, user_pass, user_nicename, user_email, user_url, user_registered, " +
	"user_activation_key, user_status, display_name"

func (b *Backend) hydrateUser(row scanner) (*types.User, error) {
	var (
		u          types.User
		registered dbTime
	)
	err := row.Scan(&u.ID, &u.Login, &u.Pass, &u.Nicename, &u.Email, &u.URL, &registered,
		&u.ActivationKey, &u.Status, &u.DisplayName)
	if err != nil {
		return nil, err
	}
	u.Registered = registered.Time
	u.Owner = meta.NewOwner(meta.UserMeta, u.ID, b, b.ownerOptions()...)
	return &u, nil
}

// collect drains rows with hydrate and closes them. Callers must not
// issue other queries until it returns.
func collect[T any](rows *sql.Rows, hydrate func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := hydrate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
