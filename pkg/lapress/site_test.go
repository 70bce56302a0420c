package lapress

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/menu"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/resolver"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

func openSite(t *testing.T, opts ...Option) *Site {
	t.Helper()
	s, err := Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		SiteURL: "https://example.com",
	}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: "oracle"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	_, err := Open(context.Background(), types.Config{
		DataDir: t.TempDir(),
		Redis:   types.RedisConfig{Addr: "localhost:99999"},
	})
	assert.Error(t, err)
}

func TestSite_MenuWithCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := prometheus.NewRegistry()
	s := openSite(t, WithRedisClient(client), WithRegisterer(reg))

	about := &types.Post{Title: "About", Type: types.PostTypePage}
	require.NoError(t, s.AddPost(ctx, about))

	item := &types.Post{Type: types.PostTypeMenuItem, MenuOrder: 1}
	require.NoError(t, s.AddPost(ctx, item))
	require.NoError(t, item.SetManyMeta(ctx,
		meta.Pair{Key: menu.KeyObject, Value: types.PostTypePage},
		meta.Pair{Key: menu.KeyObjectID, Value: about.ID},
	))

	nodes, err := s.Menu(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "About", nodes[0].Anchor)
	assert.Equal(t, "https://example.com/about", nodes[0].URL)
	assert.True(t, mr.Exists("lapress:menu:0"))

	again, err := s.Menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, nodes, again)
	m := s.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MenuBuildsTotal.WithLabelValues("cache")))

	_, err = s.AddCustomMenuItem(ctx, "Docs", "https://docs.example.com", menu.CustomOptions{Order: 2})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lapress:menu:0"), "adding an item drops cached trees")

	nodes, err = s.Menu(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Docs", nodes[1].Anchor)
	assert.Equal(t, "https://docs.example.com", nodes[1].URL)
	assert.True(t, mr.Exists("lapress:menu:0"))

	// Meta written straight through an item drops the cached tree.
	require.NoError(t, item.SetMeta(ctx, menu.KeyClasses, "highlight"))
	assert.False(t, mr.Exists("lapress:menu:0"))
	nodes, err = s.Menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"highlight"}, nodes[0].Classes)

	// So does a change to the post an item points at.
	require.NoError(t, about.SetMeta(ctx, "subtitle", "Who we are"))
	assert.False(t, mr.Exists("lapress:menu:0"))
}

func TestSite_MenuReportsCycles(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	s := openSite(t, WithLogger(zap.New(core)))

	root, err := s.AddCustomMenuItem(ctx, "Root", "/", menu.CustomOptions{})
	require.NoError(t, err)
	a, err := s.AddCustomMenuItem(ctx, "A", "/a", menu.CustomOptions{Parent: root.ID})
	require.NoError(t, err)
	// A second parent row also files root under a, closing a loop.
	require.NoError(t, root.SetMeta(ctx, menu.KeyParent, a.ID))

	nodes, err := s.MenuChildren(ctx, root.ID)
	var se *menu.StructureError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, menu.ErrCycle)
	require.Len(t, nodes, 1)
	assert.Equal(t, "A", nodes[0].Anchor)
	assert.Equal(t, 1, logs.FilterMessage("menu branch cut").Len())
}

func TestSite_ResolveMenuItem(t *testing.T) {
	ctx := context.Background()
	s := openSite(t)

	news, err := s.AddTaxonomy(ctx, "News", "", types.TaxonomyCategory)
	require.NoError(t, err)

	item := &types.Post{Title: "News", Type: types.PostTypeMenuItem}
	require.NoError(t, s.AddPost(ctx, item))
	require.NoError(t, item.SetManyMeta(ctx,
		meta.Pair{Key: menu.KeyObject, Value: types.TaxonomyCategory},
		meta.Pair{Key: menu.KeyObjectID, Value: news.TermID},
	))

	e, err := s.ResolveMenuItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "/category/news", e.URLPath())

	plain := &types.Post{Title: "Plain"}
	require.NoError(t, s.AddPost(ctx, plain))
	_, err = s.ResolveMenuItem(ctx, plain.ID)
	assert.ErrorIs(t, err, ErrNotMenuItem)
}

func TestSite_HostOverride(t *testing.T) {
	ctx := context.Background()
	reg := resolver.Default()
	s := openSite(t, WithRegistry(reg))

	// The host namespace wins over the built-in Page type.
	stub := &types.Post{ID: 77, Title: "Landing", Name: "landing"}
	require.NoError(t, reg.Register(resolver.NamespaceHostModels, resolver.Type{
		Name: "Page",
		Kind: resolver.KindPost,
		Find: func(context.Context, int64) (types.Entity, error) { return stub, nil },
	}))

	page := &types.Post{Type: types.PostTypeMenuItem}
	require.NoError(t, s.AddPost(ctx, page))
	require.NoError(t, page.SetManyMeta(ctx,
		meta.Pair{Key: menu.KeyObject, Value: types.PostTypePage},
		meta.Pair{Key: menu.KeyObjectID, Value: 5},
	))

	e, err := s.ResolveMenuItem(ctx, page.ID)
	require.NoError(t, err)
	assert.Same(t, stub, e)
}

func TestSite_Relations(t *testing.T) {
	ctx := context.Background()
	s := openSite(t)

	author, err := s.AddUser(ctx, NewUser{Login: "ann", Password: "s3cret", Role: "editor"})
	require.NoError(t, err)

	img := &types.Post{Title: "Header", Type: types.PostTypeAttachment, MimeType: "image/png"}
	require.NoError(t, s.AddPost(ctx, img))

	p := &types.Post{Title: "Story", AuthorID: author.ID}
	require.NoError(t, s.AddPost(ctx, p))
	require.NoError(t, p.SetMeta(ctx, types.MetaThumbnailID, img.ID))

	cat, err := s.AddTaxonomy(ctx, "World", "", types.TaxonomyCategory)
	require.NoError(t, err)
	tag, err := s.AddTaxonomy(ctx, "Breaking", "breaking-news", types.TaxonomyPostTag)
	require.NoError(t, err)
	require.NoError(t, s.Store().AttachTaxonomy(ctx, p.ID, cat.TermTaxonomyID))
	require.NoError(t, s.Store().AttachTaxonomy(ctx, p.ID, tag.TermTaxonomyID))

	got, err := s.Author(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Login)

	thumb, err := s.Thumbnail(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, thumb)
	assert.Equal(t, img.ID, thumb.EntityID())

	cats, err := s.Categories(ctx, p)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "World", cats[0].Name())

	tags, err := s.Tags(ctx, p)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "/tag/breaking-news", tags[0].URLPath())

	orphan := &types.Post{Title: "No author"}
	require.NoError(t, s.AddPost(ctx, orphan))
	none, err := s.Author(ctx, orphan)
	require.NoError(t, err)
	assert.Nil(t, none)
	noThumb, err := s.Thumbnail(ctx, orphan)
	require.NoError(t, err)
	assert.Nil(t, noThumb)
}

func TestSite_TaxonomySummary(t *testing.T) {
	ctx := context.Background()
	s := openSite(t)

	tx, err := s.AddTaxonomy(ctx, "Sport", "", types.TaxonomyCategory)
	require.NoError(t, err)
	require.NoError(t, tx.Term.SetMeta(ctx, "color", "green"))
	require.NoError(t, tx.Term.SetMeta(ctx, "alias", "sports"))
	require.NoError(t, tx.Term.SetMeta(ctx, "alias", "athletics"))

	found, err := s.FindTaxonomy(ctx, types.TaxonomyCategory, "sport")
	require.NoError(t, err)
	summary, err := s.TaxonomySummary(ctx, found)
	require.NoError(t, err)

	assert.Equal(t, tx.TermTaxonomyID, summary["id"])
	assert.Equal(t, "Sport", summary["name"])
	assert.Equal(t, map[string]string{"color": "green", "alias": "sports"}, summary["meta"])

	bare, err := s.TaxonomySummary(ctx, &types.Taxonomy{Taxonomy: "category"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{}, bare["meta"])
}

func TestSite_AddUser(t *testing.T) {
	ctx := context.Background()
	d := events.NewDispatcher(nil)
	var saved []int64
	d.On(events.UserSaved, func(_ context.Context, e events.Event) error {
		saved = append(saved, e.EntityID)
		return nil
	})
	s := openSite(t, WithEvents(d))

	u, err := s.AddUser(ctx, NewUser{Login: "bob", Email: "bob@example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", u.Pass)
	assert.Equal(t, []int64{u.ID}, saved)

	c, err := u.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", c.String("wp_user_level"))
	assert.Equal(t, []string{"1"}, c.Strings("wp_capabilities"))

	got, err := s.Authenticate(ctx, "bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.AddUser(ctx, NewUser{Login: "bob", Password: "x"})
	assert.ErrorIs(t, err, types.ErrDuplicate)
	_, err = s.AddUser(ctx, NewUser{Login: "carol"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestSite_DecodeFallbackIsLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.DebugLevel)
	s := openSite(t, WithLogger(zap.New(core)))

	p := &types.Post{Title: "Odd"}
	require.NoError(t, s.AddPost(ctx, p))
	require.NoError(t, p.SetMeta(ctx, "blob", "a:1:{broken"))

	c, err := p.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a:1:{broken", c.String("blob"))
	assert.Equal(t, 1, logs.FilterMessage("meta value kept as raw text").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().DecodeFallbacksTotal))
}
