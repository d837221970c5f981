// Package identity resolves who owns what. Every request is attributed to
// either a logged-in user or an anonymous guest tracked by an opaque cookie
// token, and persisted records carry one of the two references.
package identity

import "time"

type Config struct {
	// Name of the cookie carrying the guest token. Required
	CookieName string

	// How long an issued guest token stays valid. The cookie is re-issued
	// on every use, so the window slides as long as the visitor keeps
	// coming back
	TokenLifetime time.Duration

	// Store the guest's last seen client IP next to the token
	TrackSourceAddr bool

	// Column names of the two owner references on owned tables
	PrincipalColumn string
	GuestColumn     string
}

func (c Config) withDefaults() Config {
	if c.TokenLifetime == 0 {
		c.TokenLifetime = 365 * 24 * time.Hour
	}
	if c.PrincipalColumn == "" {
		c.PrincipalColumn = "user_id"
	}
	if c.GuestColumn == "" {
		c.GuestColumn = "guest_id"
	}

	return c
}
