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

// GetUser loads one user by ID.
func (b *Backend) GetUser(ctx context.Context, id int64) (u *types.User, err error) {
	defer b.observe("get_user", time.Now(), &err)

	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	return b.oneUser(ctx, "ID = ?", id)
}

// FindUserByLogin loads the user with login.
func (b *Backend) FindUserByLogin(ctx context.Context, login string) (u *types.User, err error) {
	defer b.observe("find_user_by_login", time.Now(), &err)

	if login == "" {
		return nil, types.ErrInvalidName
	}
	return b.oneUser(ctx, "user_login = ?", login)
}

func (b *Backend) oneUser(ctx context.Context, where string, args ...any) (*types.User, error) {
	q, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", userColumns, b.table("users"), where)
	u, err := b.hydrateUser(q.QueryRowContext(ctx, b.dialect.rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// InsertUser stores u and binds its meta. Registered defaults to now, the
// nicename to the slug of the login and the display name to the login.
// u.Pass is stored as given; callers hash it first.
func (b *Backend) InsertUser(ctx context.Context, u *types.User) (err error) {
	defer b.observe("insert_user", time.Now(), &err)

	if u == nil || u.Login == "" {
		return types.ErrInvalidName
	}
	q, err := b.conn()
	if err != nil {
		return err
	}

	taken, err := b.exists(ctx, q, "users", "user_login = ?", u.Login)
	if err != nil {
		return fmt.Errorf("checking login: %w", err)
	}
	if taken {
		return fmt.Errorf("login %q: %w", u.Login, types.ErrDuplicate)
	}

	if u.Registered.IsZero() {
		u.Registered = b.now().UTC()
	}
	if u.Nicename == "" {
		u.Nicename = textutil.Slugify(u.Login)
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Login
	}

	query := fmt.Sprintf(`INSERT INTO %s (user_login, user_pass, user_nicename, user_email, user_url,
    user_registered, user_activation_key, user_status, display_name) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, b.table("users"))
	id, err := b.dialect.insert(ctx, q, query, "ID",
		u.Login, u.Pass, u.Nicename, u.Email, u.URL,
		b.dialect.timeArg(u.Registered), u.ActivationKey, u.Status, u.DisplayName)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	u.ID = id
	u.Owner = meta.NewOwner(meta.UserMeta, id, b, b.ownerOptions()...)
	b.emit(ctx, events.UserSaved, id)
	return nil
}

// FindUsersByMeta lists users having a meta row with key and value.
func (b *Backend) FindUsersByMeta(ctx context.Context, key, value string) ([]*types.User, error) {
	ids, err := b.FindOwnersByMeta(ctx, meta.UserMeta, key, value)
	if err != nil {
		return nil, err
	}
	out := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		u, err := b.GetUser(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
