package session

import "time"

// Theme values persisted per user.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// User identifies the signed-in account as carried by the auth token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the per-request view of the authenticated browser session. The
// token is forwarded verbatim to the backend API on authenticated calls.
type Session struct {
	Token     string    `json:"-"`
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
