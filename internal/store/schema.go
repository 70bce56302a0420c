package store

import (
	"strings"
)

// Schema DDL for the SQLite backend. {p} is replaced by the table prefix.
const (
	createPosts = `CREATE TABLE IF NOT EXISTS {p}posts (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    post_author INTEGER NOT NULL DEFAULT 0,
    post_date TEXT NOT NULL,
    post_date_gmt TEXT NOT NULL,
    post_content TEXT NOT NULL DEFAULT '',
    post_title TEXT NOT NULL DEFAULT '',
    post_excerpt TEXT NOT NULL DEFAULT '',
    post_status TEXT NOT NULL DEFAULT 'publish',
    post_name TEXT NOT NULL DEFAULT '',
    post_modified TEXT NOT NULL,
    post_modified_gmt TEXT NOT NULL,
    post_parent INTEGER NOT NULL DEFAULT 0,
    guid TEXT NOT NULL DEFAULT '',
    menu_order INTEGER NOT NULL DEFAULT 0,
    post_type TEXT NOT NULL DEFAULT 'post',
    post_mime_type TEXT NOT NULL DEFAULT ''
);`

	createPostMeta = `CREATE TABLE IF NOT EXISTS {p}postmeta (
    meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL DEFAULT 0,
    meta_key TEXT,
    meta_value TEXT
);`

	createTerms = `CREATE TABLE IF NOT EXISTS {p}terms (
    term_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    slug TEXT NOT NULL DEFAULT '',
    term_group INTEGER NOT NULL DEFAULT 0
);`

	createTermMeta = `CREATE TABLE IF NOT EXISTS {p}termmeta (
    meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
    term_id INTEGER NOT NULL DEFAULT 0,
    meta_key TEXT,
    meta_value TEXT
);`

	createTermTaxonomy = `CREATE TABLE IF NOT EXISTS {p}term_taxonomy (
    term_taxonomy_id INTEGER PRIMARY KEY AUTOINCREMENT,
    term_id INTEGER NOT NULL DEFAULT 0,
    taxonomy TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    parent INTEGER NOT NULL DEFAULT 0,
    count INTEGER NOT NULL DEFAULT 0,
    UNIQUE (term_id, taxonomy)
);`

	createTermRelationships = `CREATE TABLE IF NOT EXISTS {p}term_relationships (
    object_id INTEGER NOT NULL DEFAULT 0,
    term_taxonomy_id INTEGER NOT NULL DEFAULT 0,
    term_order INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (object_id, term_taxonomy_id)
);`

	createUsers = `CREATE TABLE IF NOT EXISTS {p}users (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    user_login TEXT NOT NULL DEFAULT '',
    user_pass TEXT NOT NULL DEFAULT '',
    user_nicename TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL DEFAULT '',
    user_url TEXT NOT NULL DEFAULT '',
    user_registered TEXT NOT NULL,
    user_activation_key TEXT NOT NULL DEFAULT '',
    user_status INTEGER NOT NULL DEFAULT 0,
    display_name TEXT NOT NULL DEFAULT ''
);`

	createUserMeta = `CREATE TABLE IF NOT EXISTS {p}usermeta (
    umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL DEFAULT 0,
    meta_key TEXT,
    meta_value TEXT
);`
)

// Index DDL for the SQLite backend.
const (
	indexPostMetaPost    = `CREATE INDEX IF NOT EXISTS {p}postmeta_post_id ON {p}postmeta(post_id)`
	indexPostMetaKey     = `CREATE INDEX IF NOT EXISTS {p}postmeta_meta_key ON {p}postmeta(meta_key)`
	indexPostsType       = `CREATE INDEX IF NOT EXISTS {p}posts_type_status ON {p}posts(post_type, post_status)`
	indexPostsName       = `CREATE INDEX IF NOT EXISTS {p}posts_name ON {p}posts(post_name)`
	indexTermMetaTerm    = `CREATE INDEX IF NOT EXISTS {p}termmeta_term_id ON {p}termmeta(term_id)`
	indexTermsSlug       = `CREATE INDEX IF NOT EXISTS {p}terms_slug ON {p}terms(slug)`
	indexTaxonomy        = `CREATE INDEX IF NOT EXISTS {p}term_taxonomy_taxonomy ON {p}term_taxonomy(taxonomy)`
	indexRelationshipsTT = `CREATE INDEX IF NOT EXISTS {p}term_relationships_tt ON {p}term_relationships(term_taxonomy_id)`
	indexUserMetaUser    = `CREATE INDEX IF NOT EXISTS {p}usermeta_user_id ON {p}usermeta(user_id)`
	indexUsersLogin      = `CREATE INDEX IF NOT EXISTS {p}users_login ON {p}users(user_login)`
)

var schemaDDL = []string{
	createPosts,
	createPostMeta,
	createTerms,
	createTermMeta,
	createTermTaxonomy,
	createTermRelationships,
	createUsers,
	createUserMeta,
}

var indexDDL = []string{
	indexPostMetaPost,
	indexPostMetaKey,
	indexPostsType,
	indexPostsName,
	indexTermMetaTerm,
	indexTermsSlug,
	indexTaxonomy,
	indexRelationshipsTT,
	indexUserMetaUser,
	indexUsersLogin,
}

// schemaStatements returns the table and index DDL for prefix.
func schemaStatements(prefix string) []string {
	out := make([]string, 0, len(schemaDDL)+len(indexDDL))
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		out = append(out, strings.ReplaceAll(stmt, "{p}", prefix))
	}
	return out
}
