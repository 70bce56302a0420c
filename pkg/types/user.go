package types

import (
	"time"

	"github.com/mesh-intelligence/lapress/pkg/meta"
)

// User is a row of the users table.
type User struct {
	*meta.Owner `json:"-"`

	ID            int64     `json:"id"`
	Login         string    `json:"login"`
	Pass          string    `json:"-"`
	Nicename      string    `json:"key"`
	Email         string    `json:"email"`
	URL           string    `json:"url,omitempty"`
	Registered    time.Time `json:"registered"`
	ActivationKey string    `json:"-"`
	Status        int       `json:"status"`
	DisplayName   string    `json:"name"`
}

// EntityID returns the user ID.
func (u *User) EntityID() int64 { return u.ID }

// Anchor returns the display name.
func (u *User) Anchor() string { return u.DisplayName }

// URLKey returns the nicename.
func (u *User) URLKey() string { return u.Nicename }

// URLPath returns the author archive path.
func (u *User) URLPath() string { return "/author/" + u.Nicename }

// DefaultUserMeta returns the meta rows seeded for every new user, in the
// order they are written. Capabilities are stored serialized.
func DefaultUserMeta(role string) []meta.Pair {
	if role == "" {
		role = "author"
	}
	return []meta.Pair{
		{Key: "nickname", Value: ""},
		{Key: "first_name", Value: ""},
		{Key: "last_name", Value: ""},
		{Key: "description", Value: ""},
		{Key: "rich_editing", Value: "true"},
		{Key: "syntax_highlighting", Value: "true"},
		{Key: "comment_shortcuts", Value: "false"},
		{Key: "admin_color", Value: "fresh"},
		{Key: "use_ssl", Value: "0"},
		{Key: "show_admin_bar_front", Value: "true"},
		{Key: "locale", Value: ""},
		{Key: "wp_capabilities", Value: map[string]bool{role: true}},
		{Key: "wp_user_level", Value: "2"},
		{Key: "dismissed_wp_pointers", Value: "wp496_privacy"},
	}
}
