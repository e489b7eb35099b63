package domain

import "time"

// ConnectionStatus is the lifecycle state of a mentorship connection.
type ConnectionStatus string

const (
	StatusPending   ConnectionStatus = "pending"
	StatusAccepted  ConnectionStatus = "accepted"
	StatusRejected  ConnectionStatus = "rejected"
	StatusActive    ConnectionStatus = "active"
	StatusCompleted ConnectionStatus = "completed"
)

// Live reports whether a connection in this status blocks a new request
// for the same (mentor, mentee) pair. Rejected and completed connections
// never block re-requesting.
func (s ConnectionStatus) Live() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusActive
}

// SessionStatus is the state of a scheduled mentorship session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// DefaultSessionMinutes is applied when a session is scheduled without
// an explicit duration.
const DefaultSessionMinutes = 60

// Session is a mentorship meeting attached to a connection. Sessions are
// owned by their parent connection and are append-only from the caller's
// perspective.
type Session struct {
	ID              string        `json:"id"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `json:"status"`
	Notes           string        `json:"notes,omitempty"`
}

// Connection is a mentor/mentee relationship record. Role is
// per-relationship: the same user may be mentor in one connection and
// mentee in another. Connections store participant ids only, never
// denormalized user data; display fields come from the User Directory.
type Connection struct {
	ID        string           `json:"id"`
	MentorID  string           `json:"mentor_id"`
	MenteeID  string           `json:"mentee_id"`
	Status    ConnectionStatus `json:"status"`
	Sessions  []Session        `json:"sessions"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Involves reports whether the given user is a participant.
func (c *Connection) Involves(userID string) bool {
	return c.MentorID == userID || c.MenteeID == userID
}
