package meta

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// OwnerKind names the side table a meta row belongs to.
type OwnerKind string

// Owner kinds, one per legacy meta table.
const (
	PostMeta OwnerKind = "post"
	TermMeta OwnerKind = "term"
	UserMeta OwnerKind = "user"
)

// Store is the storage collaborator for meta rows.
type Store interface {
	// FetchMetaRows returns every row of the owner in retrieval order.
	FetchMetaRows(ctx context.Context, kind OwnerKind, ownerID int64) ([]Row, error)

	// InsertMetaRow appends a row. Existing rows for the key are untouched.
	InsertMetaRow(ctx context.Context, kind OwnerKind, ownerID int64, key, value string) error

	// FindOwnersByMeta returns the ids of owners with at least one row
	// matching key and value. Ordering is unspecified.
	FindOwnersByMeta(ctx context.Context, kind OwnerKind, key, value string) ([]int64, error)
}

// HasMeta is the meta capability shared by posts, terms and users.
type HasMeta interface {
	Meta(ctx context.Context) (*Collection, error)
	SetMeta(ctx context.Context, key string, value any) error
	SetManyMeta(ctx context.Context, pairs ...Pair) error
}

// Pair is one key/value for SetManyMeta.
type Pair struct {
	Key   string
	Value any
}

// Errors returned by Owner.
var (
	ErrNoStore      = errors.New("meta owner has no store")
	ErrEmptyKey     = errors.New("meta key must not be empty")
	ErrPartialWrite = errors.New("meta write partially applied")
)

// PartialWriteError reports a SetManyMeta call that stopped part way. The
// first Applied pairs were stored; Key is the pair that failed.
type PartialWriteError struct {
	Applied int
	Key     string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("meta write stopped at %q after %d applied: %v", e.Key, e.Applied, e.Err)
}

// Unwrap returns both ErrPartialWrite and the underlying cause.
func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}

// Owner implements HasMeta for one owning entity. The Collection is built on
// first access and cached until Reload or a successful write.
type Owner struct {
	kind  OwnerKind
	id    int64
	store Store
	opts  []BuildOption

	mu         sync.Mutex
	collection *Collection
}

var _ HasMeta = (*Owner)(nil)

// NewOwner binds the meta capability of the entity (kind, id) to store.
func NewOwner(kind OwnerKind, id int64, store Store, opts ...BuildOption) *Owner {
	return &Owner{kind: kind, id: id, store: store, opts: opts}
}

// Kind returns the owner's meta table kind.
func (o *Owner) Kind() OwnerKind { return o.kind }

// OwnerID returns the owning entity's id.
func (o *Owner) OwnerID() int64 { return o.id }

// Meta returns the owner's Collection, loading it on first use.
func (o *Owner) Meta(ctx context.Context) (*Collection, error) {
	if o == nil || o.store == nil {
		return nil, ErrNoStore
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.collection != nil {
		return o.collection, nil
	}
	rows, err := o.store.FetchMetaRows(ctx, o.kind, o.id)
	if err != nil {
		return nil, fmt.Errorf("loading %s meta for %d: %w", o.kind, o.id, err)
	}
	o.collection = Build(rows, o.opts...)
	return o.collection, nil
}

// Reload drops the cached Collection; the next Meta call rebuilds it.
func (o *Owner) Reload() {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.collection = nil
	o.mu.Unlock()
}

// SetMeta appends a row for key. It never overwrites or deduplicates:
// setting a key twice leaves two rows, which read back as a List.
func (o *Owner) SetMeta(ctx context.Context, key string, value any) error {
	if o == nil || o.store == nil {
		return ErrNoStore
	}
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := Encode(value)
	if err != nil {
		return err
	}
	if err := o.store.InsertMetaRow(ctx, o.kind, o.id, key, raw); err != nil {
		return fmt.Errorf("inserting %s meta %q for %d: %w", o.kind, key, o.id, err)
	}
	o.Reload()
	return nil
}

// SetManyMeta calls SetMeta for each pair in order. It is not transactional:
// when a pair fails, the pairs before it stay stored and a
// *PartialWriteError is returned. Callers needing all-or-nothing semantics
// must run it inside a storage transaction.
func (o *Owner) SetManyMeta(ctx context.Context, pairs ...Pair) error {
	for i, p := range pairs {
		if err := o.SetMeta(ctx, p.Key, p.Value); err != nil {
			return &PartialWriteError{Applied: i, Key: p.Key, Err: err}
		}
	}
	return nil
}
