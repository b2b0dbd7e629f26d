// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account (the owning principal for every
// generated artifact and generation event).
//
// Email and Username are each globally unique; the sqlite schema enforces
// this with UNIQUE constraints. The internal ID is what scopes artifacts
// and events to their owner.
//
// WHY PasswordHash `json:"-"`?
// The bcrypt hash must never appear in an API response. Tagging the field
// with "-" makes encoding/json skip it entirely, so a handler can return the
// whole User without leaking the credential.
//
// GitHubID is zero for users who signed up with email/password. It is only
// set (and unique) for accounts created through the optional GitHub OAuth
// flow.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
