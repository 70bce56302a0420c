package meta

import (
	"strconv"
	"strings"
)

// Row is one raw record of a meta side table. Several rows may share the
// same (OwnerID, Key) pair.
type Row struct {
	ID      int64  `json:"meta_id"`
	OwnerID int64  `json:"owner_id"`
	Key     string `json:"meta_key"`
	Value   string `json:"meta_value"`
}

// Observer receives notifications while a Collection is built.
type Observer interface {
	// DecodeFallback is called for every row whose value did not parse as a
	// serialized structure and was kept as raw text.
	DecodeFallback(key string, err error)
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	observer Observer
}

// WithObserver reports decode fallbacks to o.
func WithObserver(o Observer) BuildOption {
	return func(c *buildConfig) {
		c.observer = o
	}
}

// Collection indexes all meta values of one owning entity by key. It is
// read-only once built; a reload builds a new Collection.
type Collection struct {
	values map[string]Value
	keys   []string
}

// Build folds rows, in the order given, into a Collection. Each row is
// decoded; a key seen again is merged into a List: a Scalar followed by
// another row becomes a List of both, a List gets the new elements appended.
// Many rows under one key and one row holding a serialized list therefore
// normalize to the same List.
func Build(rows []Row, opts ...BuildOption) *Collection {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Collection{values: make(map[string]Value, len(rows))}
	for _, r := range rows {
		v, err := TryDecode(r.Value)
		if err != nil && cfg.observer != nil && looksSerialized(r.Value) {
			cfg.observer.DecodeFallback(r.Key, err)
		}
		c.add(r.Key, v)
	}
	return c
}

func (c *Collection) add(key string, v Value) {
	old, ok := c.values[key]
	if !ok {
		c.values[key] = v
		c.keys = append(c.keys, key)
		return
	}
	c.values[key] = old.append(v)
}

// looksSerialized filters out plain text so observers only hear about
// values that resemble a serialized blob but failed to parse.
func looksSerialized(raw string) bool {
	if len(raw) < 2 {
		return false
	}
	switch raw[0] {
	case 'a', 'O', 's', 'i', 'b', 'd':
		return raw[1] == ':'
	case 'N':
		return raw[1] == ';'
	}
	return false
}

// Get returns the value stored under key, or the empty Scalar when the key
// is absent. It never fails.
func (c *Collection) Get(key string) Value {
	if c == nil {
		return Value{}
	}
	return c.values[key]
}

// Has reports whether at least one row exists for key.
func (c *Collection) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.values[key]
	return ok
}

// String returns Get(key).String().
func (c *Collection) String(key string) string {
	return c.Get(key).String()
}

// Strings returns the non-empty elements stored under key.
func (c *Collection) Strings(key string) []string {
	return c.Get(key).NonEmpty()
}

// Int parses the value under key as a base-10 integer, returning 0 when it
// is absent or not numeric.
func (c *Collection) Int(key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(c.String(key)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Keys returns the keys in first-encounter order.
func (c *Collection) Keys() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of distinct keys.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// All returns a copy of the key to value mapping.
func (c *Collection) All() map[string]Value {
	out := make(map[string]Value, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// FlatMap returns one string per key, for serializing an owning entity.
// A List is rendered as its first element.
func (c *Collection) FlatMap() map[string]string {
	out := make(map[string]string, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.values {
		out[k] = v.String()
	}
	return out
}
