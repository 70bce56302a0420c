package types

import (
	"regexp"
	"time"
)

// Config holds backend selection and the parameters of the data layer.
type Config struct {
	Backend     string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DSN         string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	TablePrefix string `json:"table_prefix" yaml:"table_prefix" mapstructure:"table_prefix"`
	SiteURL     string `json:"site_url" yaml:"site_url" mapstructure:"site_url"`

	// Namespaces is the type resolver probe order, most specific first.
	Namespaces []string `json:"namespaces,omitempty" yaml:"namespaces,omitempty" mapstructure:"namespaces"`
	// ObjectTypes maps menu item object tags to type names.
	ObjectTypes map[string]string `json:"object_types,omitempty" yaml:"object_types,omitempty" mapstructure:"object_types"`

	MenuMaxDepth    int `json:"menu_max_depth" yaml:"menu_max_depth" mapstructure:"menu_max_depth"`
	MenuConcurrency int `json:"menu_concurrency" yaml:"menu_concurrency" mapstructure:"menu_concurrency"`

	Redis    RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
	LogLevel string      `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// RedisConfig enables the menu tree cache when Addr is set.
type RedisConfig struct {
	Addr     string        `json:"addr,omitempty" yaml:"addr,omitempty" mapstructure:"addr"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`
	TTL      time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty" mapstructure:"ttl"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults applied by WithDefaults.
const (
	DefaultTablePrefix     = "wp_"
	DefaultMenuMaxDepth    = 32
	DefaultMenuConcurrency = 4
	DefaultCacheTTL        = 10 * time.Minute
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// tablePrefixPattern guards the prefix, which is interpolated into SQL.
var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	if !tablePrefixPattern.MatchString(c.TablePrefix) {
		return ErrInvalidTablePrefix
	}
	if c.MenuMaxDepth < 0 {
		return ErrInvalidMenuDepth
	}
	if c.MenuConcurrency < 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.TablePrefix == "" {
		c.TablePrefix = DefaultTablePrefix
	}
	if c.MenuMaxDepth == 0 {
		c.MenuMaxDepth = DefaultMenuMaxDepth
	}
	if c.MenuConcurrency == 0 {
		c.MenuConcurrency = DefaultMenuConcurrency
	}
	if c.Redis.Addr != "" && c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultCacheTTL
	}
	return c
}
