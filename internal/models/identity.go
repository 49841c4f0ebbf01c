package models

import "time"

// Identity is a best-effort resolved user identity: a bearer token plus the
// user id it belongs to. A nil *Identity means "anonymous" everywhere.
type Identity struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the identity carries a usable, unexpired token.
// A zero ExpiresAt means the expiry is unknown and the token is trusted
// as-is; the resolver fills ExpiresAt from the token's exp claim when it can.
func (i *Identity) Valid(now time.Time) bool {
	if i == nil || i.AccessToken == "" || i.UserID == "" {
		return false
	}
	if i.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(i.ExpiresAt)
}
