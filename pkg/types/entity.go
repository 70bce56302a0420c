package types

// Entity is anything a menu item or relationship can point at.
type Entity interface {
	// EntityID returns the primary identifier.
	EntityID() int64

	// Anchor returns the display title used as link text.
	Anchor() string

	// URLKey returns the slug that identifies the entity in URLs.
	URLKey() string

	// URLPath returns the site-relative canonical path, starting with "/".
	URLPath() string
}

var (
	_ Entity = (*Post)(nil)
	_ Entity = (*Term)(nil)
	_ Entity = (*Taxonomy)(nil)
	_ Entity = (*User)(nil)
)
