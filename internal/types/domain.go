// Package types defines the shared domain model and error taxonomy for the
// starter backend. It has no dependencies on other internal packages so that
// every layer (repositories, services, handlers) can import it freely.
package types

import "time"

// User is an application account mirrored from the external identity
// provider. ExternalID is the provider-issued identity key; it is unique and
// immutable once assigned. Email is refreshed on every sync but is not the
// uniqueness key.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IdentityPayload carries the user fields extracted from an identity
// provider event or profile. Name and AvatarURL may be empty.
type IdentityPayload struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

// RateLimitResult is the outcome of a single rate-limit check. It is
// produced fresh per check and owned entirely by the caller.
type RateLimitResult struct {
	Allowed   bool  `json:"ok"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// StatsData is the cached stats snapshot stored under a single well-known
// cache key. Once written it is treated as immutable until it expires or is
// overwritten.
type StatsData struct {
	UserCount int    `json:"userCount"`
	Timestamp string `json:"timestamp"`
	Random    int    `json:"random"`
}

// MediaUploadResult is the outcome of a successful upload: a publicly
// resolvable URL plus the opaque storage identifier usable for later URL
// transformation. Nothing in this system persists it; the caller decides.
type MediaUploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}
