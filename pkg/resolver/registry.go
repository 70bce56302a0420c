// Package resolver maps entity type names to type descriptors through an
// ordered list of namespaces, so a host application can override or extend
// any built-in type by registering the same name in an earlier namespace.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Default namespaces, in probe order.
const (
	NamespaceHostModels = "app/models"
	NamespaceHost       = "app"
	NamespaceBuiltin    = "lapress"
)

// Kind is the storage family of a type.
type Kind string

// Type kinds.
const (
	KindPost     Kind = "post"
	KindTaxonomy Kind = "taxonomy"
	KindTerm     Kind = "term"
	KindUser     Kind = "user"
)

// Errors returned by Register.
var (
	ErrEmptyName               = errors.New("type name must not be empty")
	ErrUnknownNamespace        = errors.New("namespace is not in the probe list")
	ErrConflictingRegistration = errors.New("type already registered differently in namespace")
)

// FindFunc loads one entity by id. A host registers one to substitute its
// own lookup for a type.
type FindFunc func(ctx context.Context, id int64) (types.Entity, error)

// Type describes a resolvable entity type.
type Type struct {
	Name      string
	Namespace string
	Kind      Kind

	// PostType restricts post-kind lookups to one post_type value.
	// Empty matches any.
	PostType string

	// Taxonomy restricts taxonomy-kind lookups to one taxonomy.
	// Empty matches any.
	Taxonomy string

	// Find, when set, replaces the storage lookup.
	Find FindFunc
}

func (t Type) same(other Type) bool {
	if t.Name != other.Name || t.Kind != other.Kind ||
		t.PostType != other.PostType || t.Taxonomy != other.Taxonomy {
		return false
	}
	if t.Find == nil || other.Find == nil {
		return t.Find == nil && other.Find == nil
	}
	return reflect.ValueOf(t.Find).Pointer() == reflect.ValueOf(other.Find).Pointer()
}

// Registry resolves type names against an ordered namespace list. It is
// safe for concurrent use; registrations normally happen at startup.
type Registry struct {
	mu         sync.RWMutex
	namespaces []string
	types      map[string]map[string]Type
}

// New returns an empty registry probing namespaces in the given order.
// With no arguments the default order app/models, app, lapress is used.
func New(namespaces ...string) *Registry {
	if len(namespaces) == 0 {
		namespaces = []string{NamespaceHostModels, NamespaceHost, NamespaceBuiltin}
	}
	r := &Registry{
		namespaces: make([]string, 0, len(namespaces)),
		types:      make(map[string]map[string]Type, len(namespaces)),
	}
	for _, ns := range namespaces {
		if _, dup := r.types[ns]; dup {
			continue
		}
		r.namespaces = append(r.namespaces, ns)
		r.types[ns] = make(map[string]Type)
	}
	return r
}

// Builtins returns the descriptors registered by Default.
func Builtins() []Type {
	return []Type{
		{Name: "Post", Kind: KindPost, PostType: types.PostTypePost},
		{Name: "Page", Kind: KindPost, PostType: types.PostTypePage},
		{Name: "Attachment", Kind: KindPost, PostType: types.PostTypeAttachment},
		{Name: "MenuItem", Kind: KindPost, PostType: types.PostTypeMenuItem},
		{Name: "Category", Kind: KindTaxonomy, Taxonomy: types.TaxonomyCategory},
		{Name: "PostTag", Kind: KindTaxonomy, Taxonomy: types.TaxonomyPostTag},
		{Name: "PostFormat", Kind: KindTaxonomy, Taxonomy: types.TaxonomyPostFormat},
		{Name: "Taxonomy", Kind: KindTaxonomy},
		{Name: "Term", Kind: KindTerm},
		{Name: "User", Kind: KindUser},
	}
}

// Default returns a registry with the given probe order (or the default
// order) and the built-in types registered in the lapress namespace. When
// a custom order omits lapress, it is appended last.
func Default(namespaces ...string) *Registry {
	r := New(namespaces...)
	if _, ok := r.types[NamespaceBuiltin]; !ok {
		r.namespaces = append(r.namespaces, NamespaceBuiltin)
		r.types[NamespaceBuiltin] = make(map[string]Type)
	}
	for _, t := range Builtins() {
		// Built-in names are unique and the namespace exists.
		_ = r.Register(NamespaceBuiltin, t)
	}
	return r
}

// Register adds t under namespace. Registering an identical descriptor
// again is a no-op; a different descriptor under a taken name is rejected.
func (r *Registry) Register(namespace string, t Type) error {
	if t.Name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.types[namespace]
	if !ok {
		return fmt.Errorf("registering %s in %q: %w", t.Name, namespace, ErrUnknownNamespace)
	}
	t.Namespace = namespace
	if existing, ok := bucket[t.Name]; ok {
		if existing.same(t) {
			return nil
		}
		return fmt.Errorf("registering %s in %q: %w", t.Name, namespace, ErrConflictingRegistration)
	}
	bucket[t.Name] = t
	return nil
}

// Resolve returns the type registered under name in the first namespace,
// in probe order, that has one. Matching is exact.
func (r *Registry) Resolve(name string) (Type, bool) {
	if name == "" {
		return Type{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ns := range r.namespaces {
		if t, ok := r.types[ns][name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

// Namespaces returns the probe order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.namespaces))
	copy(out, r.namespaces)
	return out
}

// Entries lists every registration, grouped by namespace in probe order and
// sorted by name within a namespace.
func (r *Registry) Entries() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Type
	for _, ns := range r.namespaces {
		names := make([]string, 0, len(r.types[ns]))
		for name := range r.types[ns] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, r.types[ns][name])
		}
	}
	return out
}
