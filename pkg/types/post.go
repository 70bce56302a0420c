package types

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/mesh-intelligence/lapress/pkg/meta"
)

// Post statuses.
const (
	PostStatusPublish = "publish"
	PostStatusDraft   = "draft"
	PostStatusInherit = "inherit"
)

// Post types stored in the posts table.
const (
	PostTypePost       = "post"
	PostTypePage       = "page"
	PostTypeAttachment = "attachment"
	PostTypeMenuItem   = "nav_menu_item"
)

// DefaultExcerptLength is the rune limit of a generated excerpt.
const DefaultExcerptLength = 300

// Well-known post meta keys.
const (
	MetaThumbnailID = "_thumbnail_id"
	MetaMenuClasses = "_menu_item_classes"
)

// Post is a row of the posts table. Pages, attachments and menu items are
// posts distinguished by Type.
type Post struct {
	*meta.Owner `json:"-"`

	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	Date        time.Time `json:"date"`
	DateGMT     time.Time `json:"-"`
	Content     string    `json:"content"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Status      string    `json:"status"`
	Name        string    `json:"name"`
	Modified    time.Time `json:"modified"`
	ModifiedGMT time.Time `json:"-"`
	Parent      int64     `json:"parent"`
	GUID        string    `json:"guid,omitempty"`
	MenuOrder   int       `json:"menu_order"`
	Type        string    `json:"type"`
	MimeType    string    `json:"mime_type,omitempty"`
}

// EntityID returns the post ID.
func (p *Post) EntityID() int64 { return p.ID }

// Anchor returns the post title.
func (p *Post) Anchor() string { return p.Title }

// URLKey returns the post slug.
func (p *Post) URLKey() string { return p.Name }

// URLPath returns "/" followed by the slug.
func (p *Post) URLPath() string { return "/" + p.Name }

// IsPublished reports whether the post has the publish status.
func (p *Post) IsPublished() bool { return p.Status == PostStatusPublish }

// IsDraft reports whether the post has the draft status.
func (p *Post) IsDraft() bool { return p.Status == PostStatusDraft }

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Summary returns the explicit excerpt, or the content with markup removed
// and cut to limit runes followed by "...". A limit of zero uses
// DefaultExcerptLength.
func (p *Post) Summary(limit int) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	if limit <= 0 {
		limit = DefaultExcerptLength
	}
	text := strings.TrimSpace(tagPattern.ReplaceAllString(p.Content, ""))
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}

// Classes returns the non-empty CSS classes stored in _menu_item_classes,
// joined by a space.
func (p *Post) Classes(ctx context.Context) (string, error) {
	c, err := p.Meta(ctx)
	if err != nil {
		return "", err
	}
	return c.Get(MetaMenuClasses).Join(" "), nil
}
