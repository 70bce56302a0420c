// Package menu resolves navigation menu items to the entities they point at
// and assembles them into trees.
//
// A menu item is a post of type nav_menu_item. Its meta names the parent
// item, the kind of object it links to (_menu_item_object) and that
// object's id; custom items carry a literal URL instead.
package menu

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lapress/pkg/meta"
)

// Menu item meta keys.
const (
	KeyType     = "_menu_item_type"
	KeyParent   = "_menu_item_menu_item_parent"
	KeyObjectID = "_menu_item_object_id"
	KeyObject   = "_menu_item_object"
	KeyTarget   = "_menu_item_target"
	KeyClasses  = "_menu_item_classes"
	KeyURL      = "_menu_item_url"
	KeyXFN      = "_menu_item_xfn"
)

// ObjectCustom is the object tag and item type of items holding a literal
// URL.
const ObjectCustom = "custom"

// Defaults applied when no option overrides them.
const (
	DefaultMaxDepth    = 32
	DefaultConcurrency = 4
)

// DefaultObjectTypes maps object tags to registry type names. Tags not in
// the map are looked up verbatim.
func DefaultObjectTypes() map[string]string {
	return map[string]string{
		"post":        "Post",
		"page":        "Page",
		"category":    "Category",
		"post_tag":    "PostTag",
		"post_format": "PostFormat",
	}
}

// Recorder receives counters for unresolved references and cut branches.
type Recorder interface {
	UnresolvedReference(reason string)
	StructuralError(kind string)
	MenuBuild(source string)
}

// Unresolved reference reasons.
const (
	ReasonNoTag       = "no_tag"
	ReasonUnknownType = "unknown_type"
	ReasonInvalidID   = "invalid_id"
	ReasonDangling    = "dangling"
)

// Option configures a Resolver or Builder.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	recorder    Recorder
	objectTypes map[string]string
	siteURL     string
	maxDepth    int
	concurrency int
	cache       Cache
}

func newOptions(opts []Option) options {
	o := options{
		logger:      zap.NewNop(),
		objectTypes: DefaultObjectTypes(),
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder reports counters to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithObjectTypes adds or replaces tag to type-name mappings.
func WithObjectTypes(m map[string]string) Option {
	return func(o *options) {
		for tag, name := range m {
			o.objectTypes[tag] = name
		}
	}
}

// WithSiteURL prefixes resolved target paths.
func WithSiteURL(u string) Option {
	return func(o *options) { o.siteURL = u }
}

// WithMaxDepth limits tree depth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithConcurrency bounds the sibling items built at once per level.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCache stores fully built trees in c.
func WithCache(c Cache) Option {
	return func(o *options) { o.cache = c }
}

func (o *options) unresolved(reason string) {
	if o.recorder != nil {
		o.recorder.UnresolvedReference(reason)
	}
}

func (o *options) structural(kind string) {
	if o.recorder != nil {
		o.recorder.StructuralError(kind)
	}
}

func (o *options) built(source string) {
	if o.recorder != nil {
		o.recorder.MenuBuild(source)
	}
}

func isCustom(c *meta.Collection) bool {
	return c.String(KeyObject) == ObjectCustom || c.String(KeyType) == ObjectCustom
}
