// Package types defines the owning entities of the legacy content database
// (posts, terms, taxonomies, users), the Entity contract that menu
// references resolve to, the backend Config, and the standard error values.
//
// Posts, terms and users embed *meta.Owner and so carry the meta capability
// once a backend has bound them.
package types
