// Package view derives role-qualified read-only projections from a
// user's connections: pending requests, accepted mentors/mentees,
// follower/following counts, upcoming and past sessions, and the stats
// summary the dashboard shows.
//
// Every function is pure and deterministic over (userID, connections,
// now) — no I/O, no mutation of the input. None of them ever fails:
// upstream validation is not guaranteed, so absent session slices are
// treated as empty and sessions with a zero timestamp are skipped by
// the time-based views. Strict validation belongs in the logic layer,
// not here.
package view

import (
	"sort"
	"time"

	"github.com/campuslink/mentorship-service/internal/core/domain"
)

// Role is a user's side of one connection. Role is per-relationship,
// not a fixed attribute of the user.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
	RoleNone   Role = "none"
)

// ResolveRole returns the user's role within the connection, or
// RoleNone when the user is not a participant.
func ResolveRole(userID string, conn domain.Connection) Role {
	switch userID {
	case "":
		return RoleNone
	case conn.MentorID:
		return RoleMentor
	case conn.MenteeID:
		return RoleMentee
	default:
		return RoleNone
	}
}

// PendingRequestsReceived returns the pending connections where the
// user is the mentor, oldest first. Only the mentor side sees a request
// as "received".
func PendingRequestsReceived(userID string, conns []domain.Connection) []domain.Connection {
	return filterByRole(userID, conns, RoleMentor, domain.StatusPending)
}

// AcceptedAsMentor returns the user's accepted or active connections
// where they are the mentor, oldest first.
func AcceptedAsMentor(userID string, conns []domain.Connection) []domain.Connection {
	return filterByRole(userID, conns, RoleMentor, domain.StatusAccepted, domain.StatusActive)
}

// AcceptedAsMentee returns the user's accepted or active connections
// where they are the mentee, oldest first.
func AcceptedAsMentee(userID string, conns []domain.Connection) []domain.Connection {
	return filterByRole(userID, conns, RoleMentee, domain.StatusAccepted, domain.StatusActive)
}

// FollowerCount is the social-network framing of mentorship: a mentor's
// accepted mentees are their followers.
func FollowerCount(userID string, conns []domain.Connection) int {
	return len(AcceptedAsMentor(userID, conns))
}

// FollowingCount counts the accepted mentors the user follows as a
// mentee.
func FollowingCount(userID string, conns []domain.Connection) int {
	return len(AcceptedAsMentee(userID, conns))
}

// SessionView is a session tagged with its parent connection for role
// context.
type SessionView struct {
	domain.Session
	ConnectionID  string `json:"connection_id"`
	Role          Role   `json:"role"`
	CounterpartID string `json:"counterpart_id"`
}

// UpcomingSessions flattens the sessions of every connection involving
// the user, keeps those strictly after now, ascending by ScheduledAt.
func UpcomingSessions(userID string, conns []domain.Connection, now time.Time) []SessionView {
	out := flattenSessions(userID, conns, func(at time.Time) bool { return at.After(now) })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

// PastSessions flattens the sessions of every connection involving the
// user, keeps those at or before now, descending by ScheduledAt,
// truncated to limit. A non-positive limit means unlimited.
func PastSessions(userID string, conns []domain.Connection, now time.Time, limit int) []SessionView {
	out := flattenSessions(userID, conns, func(at time.Time) bool { return !at.After(now) })
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].ScheduledAt.Before(out[i].ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats is the per-user summary shown on the dashboard.
type Stats struct {
	ActiveMentees  int `json:"active_mentees"`
	TotalSessions  int `json:"total_sessions"`
	PendingCount   int `json:"pending_count"`
	UpcomingCount  int `json:"upcoming_count"`
	CompletedCount int `json:"completed_count"`
}

// StatsSummary composes the other projections into one summary.
// TotalSessions counts every session across the user's connections
// regardless of connection status; CompletedCount is the unlimited
// past-session count.
func StatsSummary(userID string, conns []domain.Connection, now time.Time) Stats {
	total := 0
	for i := range conns {
		if ResolveRole(userID, conns[i]) == RoleNone {
			continue
		}
		total += len(conns[i].Sessions)
	}

	return Stats{
		ActiveMentees:  FollowerCount(userID, conns),
		TotalSessions:  total,
		PendingCount:   len(PendingRequestsReceived(userID, conns)),
		UpcomingCount:  len(UpcomingSessions(userID, conns, now)),
		CompletedCount: len(PastSessions(userID, conns, now, 0)),
	}
}

func filterByRole(userID string, conns []domain.Connection, role Role, statuses ...domain.ConnectionStatus) []domain.Connection {
	out := []domain.Connection{}
	for i := range conns {
		if ResolveRole(userID, conns[i]) != role {
			continue
		}
		for _, st := range statuses {
			if conns[i].Status == st {
				out = append(out, conns[i])
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func flattenSessions(userID string, conns []domain.Connection, keep func(time.Time) bool) []SessionView {
	out := []SessionView{}
	for i := range conns {
		role := ResolveRole(userID, conns[i])
		if role == RoleNone {
			continue
		}
		counterpart := conns[i].MenteeID
		if role == RoleMentee {
			counterpart = conns[i].MentorID
		}
		for _, s := range conns[i].Sessions {
			// A zero timestamp means the record was never validated
			// upstream; the time-based views skip it.
			if s.ScheduledAt.IsZero() || !keep(s.ScheduledAt) {
				continue
			}
			out = append(out, SessionView{
				Session:       s,
				ConnectionID:  conns[i].ID,
				Role:          role,
				CounterpartID: counterpart,
			})
		}
	}
	return out
}
