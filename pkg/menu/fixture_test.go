package menu

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/resolver"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// fixture is an in-memory site: posts, taxonomies and post meta.
type fixture struct {
	mu         sync.Mutex
	posts      map[int64]*types.Post
	taxonomies []*types.Taxonomy
	rows       []meta.Row
	nextID     int64
	listErr    error
	findErr    error
	lists      int
}

func newFixture() *fixture {
	return &fixture{posts: map[int64]*types.Post{}, nextID: 100}
}

func (f *fixture) FetchMetaRows(ctx context.Context, kind meta.OwnerKind, ownerID int64) ([]meta.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []meta.Row
	for _, r := range f.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fixture) InsertMetaRow(ctx context.Context, kind meta.OwnerKind, ownerID int64, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, meta.Row{ID: int64(len(f.rows) + 1), OwnerID: ownerID, Key: key, Value: value})
	return nil
}

func (f *fixture) FindOwnersByMeta(ctx context.Context, kind meta.OwnerKind, key, value string) ([]int64, error) {
	return nil, errors.New("not supported")
}

func (f *fixture) InsertPost(ctx context.Context, p *types.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	p.Owner = meta.NewOwner(meta.PostMeta, p.ID, f)
	stored := *p
	f.posts[p.ID] = &stored
	return nil
}

// addPost stores a post that menu items can point at.
func (f *fixture) addPost(id int64, postType, title, slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[id] = &types.Post{ID: id, Type: postType, Title: title, Name: slug, Status: types.PostStatusPublish}
}

// addItem stores a menu item with extra meta pairs. A negative parent
// leaves the parent pointer unset.
func (f *fixture) addItem(id, parent int64, order int, title string, pairs ...string) {
	f.mu.Lock()
	f.posts[id] = &types.Post{ID: id, Type: types.PostTypeMenuItem, Title: title, MenuOrder: order}
	f.mu.Unlock()

	ctx := context.Background()
	if parent >= 0 {
		_ = f.InsertMetaRow(ctx, meta.PostMeta, id, KeyParent, itoa(parent))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		_ = f.InsertMetaRow(ctx, meta.PostMeta, id, pairs[i], pairs[i+1])
	}
}

func (f *fixture) addTaxonomy(ttID, termID int64, taxonomy, name, slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taxonomies = append(f.taxonomies, &types.Taxonomy{
		TermTaxonomyID: ttID,
		TermID:         termID,
		Taxonomy:       taxonomy,
		Term:           &types.Term{TermID: termID, Name: name, Slug: slug},
	})
}

func (f *fixture) bind(p *types.Post) *types.Post {
	cp := *p
	cp.Owner = meta.NewOwner(meta.PostMeta, cp.ID, f)
	return &cp
}

func (f *fixture) MenuItems(ctx context.Context, parentID int64) ([]*types.Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	f.lists++
	parents := map[int64]string{}
	for _, r := range f.rows {
		if r.Key == KeyParent {
			if _, seen := parents[r.OwnerID]; !seen {
				parents[r.OwnerID] = r.Value
			}
		}
	}
	var out []*types.Post
	for _, p := range f.posts {
		if p.Type != types.PostTypeMenuItem {
			continue
		}
		v, ok := parents[p.ID]
		if (ok && v == itoa(parentID)) || (!ok && parentID == 0) {
			out = append(out, p)
		}
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].MenuOrder != out[j].MenuOrder {
			return out[i].MenuOrder < out[j].MenuOrder
		}
		return out[i].ID < out[j].ID
	})
	for i, p := range out {
		out[i] = f.bind(p)
	}
	return out, nil
}

func (f *fixture) FindByID(ctx context.Context, t resolver.Type, id int64) (types.Entity, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	p, ok := f.posts[id]
	f.mu.Unlock()
	if !ok || (t.PostType != "" && p.Type != t.PostType) {
		return nil, types.ErrNotFound
	}
	return f.bind(p), nil
}

func (f *fixture) FindByTaxonomyTermID(ctx context.Context, t resolver.Type, termID int64) (types.Entity, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.taxonomies {
		if tx.TermID == termID && (t.Taxonomy == "" || tx.Taxonomy == t.Taxonomy) {
			return tx, nil
		}
	}
	return nil, types.ErrNotFound
}

// item returns the bound menu item id.
func (f *fixture) item(id int64) *types.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bind(f.posts[id])
}

// counter records Recorder calls.
type counter struct {
	mu         sync.Mutex
	unresolved map[string]int
	structural map[string]int
	builds     map[string]int
}

func newCounter() *counter {
	return &counter{unresolved: map[string]int{}, structural: map[string]int{}, builds: map[string]int{}}
}

func (c *counter) UnresolvedReference(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unresolved[reason]++
}

func (c *counter) StructuralError(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.structural[kind]++
}

func (c *counter) MenuBuild(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builds[source]++
}

// memoryCache is a map-backed Cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string][]byte{}
	return nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func ids(nodes []Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
