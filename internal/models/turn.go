package models

import "time"

// Turn represents one exchange unit in a conversation, tagged with the role
// of its speaker. A turn is immutable once created; ordering within a session
// is chronological, with insertion order equal to conversation order.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// IsError marks turns that record a failed round-trip. Error turns are
	// rendered visually distinct but stay in the transcript so the user keeps
	// context; they are never relayed back to the backend.
	IsError bool
}

// Role represents the role of a conversation participant.
type Role string

const (
	// RoleUser represents a turn typed by the user.
	RoleUser Role = "user"
	// RoleAssistant represents a reply from the backend, or an error turn
	// standing in for one.
	RoleAssistant Role = "assistant"
)
