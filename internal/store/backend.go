// Package store implements the SQL storage collaborator: meta rows, posts,
// terms, taxonomies and users in the legacy table layout. SQLite (via
// modernc.org/sqlite) is the default backend; PostgreSQL is reached through
// the pgx database/sql driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/lapress/internal/metrics"
	"github.com/mesh-intelligence/lapress/pkg/events"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// DatabaseFile is the SQLite file name inside DataDir.
const DatabaseFile = "lapress.db"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Backend is the storage collaborator. It implements meta.Store,
// menu.Finder, menu.Source and menu.PostWriter.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dialect  dialect

	// tx is set on the Backend handed to a WithTx callback. Once the
	// transaction ends, that Backend forwards to parent.
	tx      *sql.Tx
	pending *[]func(context.Context)
	parent  *Backend

	logger   *zap.Logger
	metrics  *metrics.Metrics
	observer meta.Observer
	events   *events.Dispatcher
	now      func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics records operation timings and meta writes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Backend) { b.metrics = m }
}

// WithMetaObserver reports meta decode fallbacks to o instead of the
// metrics set by WithMetrics.
func WithMetaObserver(o meta.Observer) Option {
	return func(b *Backend) { b.observer = o }
}

// WithEvents emits save events to d after successful inserts.
func WithEvents(d *events.Dispatcher) Option {
	return func(b *Backend) { b.events = d }
}

// WithClock replaces time.Now for generated dates.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the database named by config. For SQLite it creates DataDir
// and the schema when missing; existing data is kept. For PostgreSQL the
// schema must already exist.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return err
	}

	var (
		db  *sql.DB
		err error
	)
	switch config.Backend {
	case types.BackendPostgres:
		db, err = sql.Open("pgx", config.DSN)
	default:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		db, err = sql.Open("sqlite", filepath.Join(dataDir, DatabaseFile)+"?_pragma=busy_timeout(5000)")
		if err == nil {
			// One writer at a time keeps SQLite from returning SQLITE_BUSY.
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return fmt.Errorf("opening %s database: %w", config.Backend, err)
	}

	if err := b.AttachDB(ctx, db, config); err != nil {
		db.Close()
		return err
	}
	return nil
}

// AttachDB attaches an already opened database. The dialect follows
// config.Backend; the SQLite schema is created when missing.
func (b *Backend) AttachDB(ctx context.Context, db *sql.DB, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", config.Backend, err)
	}

	d := dialectFor(config.Backend)
	if d.createsSchema {
		for _, stmt := range schemaStatements(config.TablePrefix) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
		}
	}

	b.db = db
	b.config = config
	b.dialect = d
	b.attached = true
	b.logger.Debug("backend attached",
		zap.String("backend", config.Backend),
		zap.String("prefix", config.TablePrefix))
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrBackendDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached || b.tx != nil || b.parent != nil {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Config returns the attached configuration.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// conn returns the transaction when inside WithTx, otherwise the pool.
func (b *Backend) conn() (querier, error) {
	b.mu.RLock()
	attached, tx, db, parent := b.attached, b.tx, b.db, b.parent
	b.mu.RUnlock()

	switch {
	case tx != nil:
		return tx, nil
	case parent != nil:
		return parent.conn()
	case !attached:
		return nil, types.ErrBackendDetached
	}
	return db, nil
}

// WithTx runs fn against a Backend bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Save
// events raised inside fn are emitted after the commit.
func (b *Backend) WithTx(ctx context.Context, fn func(tx *Backend) error) error {
	b.mu.RLock()
	if b.tx != nil {
		b.mu.RUnlock()
		return fn(b)
	}
	if b.parent != nil {
		b.mu.RUnlock()
		return b.parent.WithTx(ctx, fn)
	}
	if !b.attached {
		b.mu.RUnlock()
		return types.ErrBackendDetached
	}
	db := b.db
	b.mu.RUnlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var pending []func(context.Context)
	txb := &Backend{
		attached: true,
		config:   b.config,
		db:       db,
		dialect:  b.dialect,
		tx:       tx,
		pending:  &pending,
		parent:   b,
		logger:   b.logger,
		metrics:  b.metrics,
		observer: b.observer,
		events:   b.events,
		now:      b.now,
	}
	// Entities bound inside fn go through b afterwards.
	defer func() {
		txb.mu.Lock()
		txb.tx = nil
		txb.pending = nil
		txb.mu.Unlock()
	}()

	if err := fn(txb); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	for _, emit := range pending {
		emit(ctx)
	}
	return nil
}

// emit raises a save event now, or after commit inside WithTx.
func (b *Backend) emit(ctx context.Context, kind events.Kind, id int64) {
	if b.events == nil {
		return
	}
	fire := func(ctx context.Context) { b.events.Emit(ctx, kind, id) }
	if b.pending != nil {
		*b.pending = append(*b.pending, fire)
		return
	}
	fire(ctx)
}

// observe records the duration and outcome of a database operation.
func (b *Backend) observe(op string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	if errors.Is(e, types.ErrNotFound) {
		e = nil
	}
	b.metrics.RecordDbOperation(op, e, time.Since(start))
}

// ownerOptions are the build options for every meta.Owner this backend
// binds.
func (b *Backend) ownerOptions() []meta.BuildOption {
	switch {
	case b.observer != nil:
		return []meta.BuildOption{meta.WithObserver(b.observer)}
	case b.metrics != nil:
		return []meta.BuildOption{meta.WithObserver(b.metrics)}
	}
	return nil
}

func (b *Backend) table(name string) string {
	return b.config.TablePrefix + name
}
