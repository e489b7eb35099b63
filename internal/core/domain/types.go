package domain

// Request/response types shared between the web layer and its callers.

// ConnectionRequest is the payload for requesting a new mentorship
// connection. The caller becomes the mentee.
type ConnectionRequest struct {
	TargetMentorID string `json:"target_mentor_id" binding:"required"`
}

// DecisionRequest is the payload for responding to a pending request.
// Decision is "accept" or "reject"; only the mentor side may respond.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// ScheduleSessionRequest is the payload for attaching a session to an
// accepted or active connection. ScheduledAt is RFC 3339; past-dated
// sessions are permitted as historical records.
type ScheduleSessionRequest struct {
	ScheduledAt     string `json:"scheduled_at" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// SessionStatusRequest is the payload for marking a scheduled session
// completed or cancelled.
type SessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UserProfile is the display projection supplied by the User Directory
// collaborator. This subsystem never stores it.
type UserProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Headline    string   `json:"headline,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	KarmaPoints int      `json:"karma_points,omitempty"`
}
