// Package lapress wires the data layer together: the SQL store, the type
// resolver, menu building with its cache, save events, logging and
// metrics. A Site is the entry point for applications and the CLI.
package lapress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lapress/internal/cache"
	"github.com/mesh-intelligence/lapress/internal/metrics"
	"github.com/mesh-intelligence/lapress/internal/store"
	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/menu"
	"github.com/mesh-intelligence/lapress/pkg/resolver"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Site is an attached data layer.
type Site struct {
	config   types.Config
	backend  *store.Backend
	registry *resolver.Registry
	resolver *menu.Resolver
	menus    *menu.Builder
	cache    *cache.RedisCache
	events   *events.Dispatcher
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	registry   *resolver.Registry
	events     *events.Dispatcher
	db         *sql.DB
	redis      *redis.Client
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the Site's metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithRegistry replaces the default type registry. Host applications use it
// to override built-in types from their own namespaces.
func WithRegistry(r *resolver.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithEvents delivers save events to d.
func WithEvents(d *events.Dispatcher) Option {
	return func(o *options) { o.events = d }
}

// WithDB attaches an already opened database instead of opening one from
// the config.
func WithDB(db *sql.DB) Option {
	return func(o *options) { o.db = db }
}

// WithRedisClient caches menu trees in client instead of dialing
// config.Redis.Addr.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// Open validates cfg, attaches the store and assembles the Site.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Site, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.registry == nil {
		o.registry = resolver.Default(cfg.Namespaces...)
	}
	if o.events == nil {
		o.events = events.NewDispatcher(o.logger)
	}

	s := &Site{
		config:   cfg,
		registry: o.registry,
		events:   o.events,
		metrics:  metrics.New(o.registerer),
		logger:   o.logger,
	}
	s.backend = store.NewBackend(
		store.WithLogger(o.logger),
		store.WithMetrics(s.metrics),
		store.WithMetaObserver(decodeLogger{logger: o.logger, metrics: s.metrics}),
		store.WithEvents(o.events),
	)

	var err error
	if o.db != nil {
		err = s.backend.AttachDB(ctx, o.db, cfg)
	} else {
		err = s.backend.Attach(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("attaching %s store: %w", cfg.Backend, err)
	}

	switch {
	case o.redis != nil:
		s.cache = cache.NewWithClient(o.redis, cache.DefaultPrefix, cfg.Redis.TTL)
	case cfg.Redis.Addr != "":
		s.cache, err = cache.New(ctx, cfg.Redis)
		if err != nil {
			s.backend.Detach()
			return nil, fmt.Errorf("connecting menu cache: %w", err)
		}
	}

	menuOpts := []menu.Option{
		menu.WithLogger(o.logger),
		menu.WithRecorder(s.metrics),
		menu.WithObjectTypes(cfg.ObjectTypes),
		menu.WithSiteURL(cfg.SiteURL),
		menu.WithMaxDepth(cfg.MenuMaxDepth),
		menu.WithConcurrency(cfg.MenuConcurrency),
	}
	if s.cache != nil {
		menuOpts = append(menuOpts, menu.WithCache(s.cache))
	}
	s.resolver = menu.NewResolver(s.registry, s.backend, menuOpts...)
	s.menus = menu.NewBuilder(s.backend, s.resolver, menuOpts...)
	if s.cache != nil {
		s.invalidateOnSave()
	}

	o.logger.Info("site opened",
		zap.String("backend", cfg.Backend),
		zap.Bool("menu_cache", s.cache != nil),
		zap.Strings("namespaces", s.registry.Namespaces()))
	return s, nil
}

// Close detaches the store and closes the cache connection.
func (s *Site) Close() error {
	err := s.backend.Detach()
	if s.cache != nil {
		err = errors.Join(err, s.cache.Close())
	}
	return err
}

// Config returns the effective configuration.
func (s *Site) Config() types.Config { return s.config }

// Store returns the storage collaborator.
func (s *Site) Store() *store.Backend { return s.backend }

// Registry returns the type registry.
func (s *Site) Registry() *resolver.Registry { return s.registry }

// Events returns the save event dispatcher.
func (s *Site) Events() *events.Dispatcher { return s.events }

// Metrics returns the Site's metrics.
func (s *Site) Metrics() *metrics.Metrics { return s.metrics }

// decodeLogger reports meta values kept as raw text.
type decodeLogger struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (d decodeLogger) DecodeFallback(key string, err error) {
	d.logger.Debug("meta value kept as raw text", zap.String("key", key), zap.Error(err))
	d.metrics.DecodeFallback(key, err)
}
