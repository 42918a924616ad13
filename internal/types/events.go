package types

import "strings"

// IdentityEventType discriminates inbound identity webhook events.
type IdentityEventType string

// Event types delivered by the identity provider's webhook.
const (
	EventUserCreated IdentityEventType = "user.created"
	EventUserUpdated IdentityEventType = "user.updated"
	EventUserDeleted IdentityEventType = "user.deleted"
)

// IdentityEvent is the verified webhook payload: a tagged union over Type
// with a user-shaped Data object. Dispatch sites switch exhaustively on Type
// so adding a new event type is a compile-visible decision.
type IdentityEvent struct {
	Type IdentityEventType `json:"type"`
	Data IdentityEventUser `json:"data"`
}

// IdentityEventUser mirrors the provider's wire format for the user object
// embedded in webhook events.
type IdentityEventUser struct {
	ID             string             `json:"id"`
	EmailAddresses []IdentityEmail    `json:"email_addresses"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	ImageURL       string             `json:"image_url"`
}

// IdentityEmail is a single entry in the provider's email address list.
type IdentityEmail struct {
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the first email address in the payload, or "" when
// the list is empty.
func (u *IdentityEventUser) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

// DisplayName joins the non-empty first/last name fields with a space.
// Returns "" when both are empty; callers store that as NULL.
func (u *IdentityEventUser) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.FirstName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
