package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuslink/mentorship-service/internal/core/domain"
	"github.com/campuslink/mentorship-service/middleware"
)

// ConnectionService implements the mentorship connection business rules.
// It depends on the repository interface (injected via constructor) and
// MUST NOT access the database or SQL directly. The clock and id
// generator are injectable so tests are deterministic.
type ConnectionService struct {
	connections domain.ConnectionRepository
	clock       func() time.Time
	newID       func() string
}

// NewConnectionService creates a new ConnectionService with the given
// repository dependency.
func NewConnectionService(connections domain.ConnectionRepository) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
}

// RequestConnection creates a pending connection. The requester becomes
// the mentee and the target becomes the mentor — a request is always
// mentee-initiated, regardless of either user's role tag.
func (s *ConnectionService) RequestConnection(ctx context.Context, requesterID, targetID string) (*domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, "connection.request", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("mentee_id", requesterID),
		attribute.String("mentor_id", targetID),
	))
	defer span.End()

	if requesterID == "" || targetID == "" {
		return nil, fmt.Errorf("request connection: missing participant id: %w", ErrValidation)
	}
	if requesterID == targetID {
		span.AddEvent("request.rejected_self")
		return nil, fmt.Errorf("request connection for %q: %w", requesterID, ErrSelfConnection)
	}

	now := s.clock()
	conn := &domain.Connection{
		ID:        s.newID(),
		MentorID:  targetID,
		MenteeID:  requesterID,
		Status:    domain.StatusPending,
		Sessions:  []domain.Session{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The store's conditional insert is the uniqueness check; a
	// check-then-insert here would race.
	if err := s.connections.Create(ctx, conn); err != nil {
		if errors.Is(err, domain.ErrPairExists) {
			span.AddEvent("request.duplicate")
			return nil, fmt.Errorf("request connection %s->%s: %w", requesterID, targetID, ErrDuplicateConnection)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert connection: %w", err)
	}

	span.SetAttributes(attribute.String("connection.id", conn.ID))
	span.AddEvent("connection.requested")

	return conn, nil
}

// RespondToConnection accepts or rejects a pending request. Only the
// mentor side responds; decision is "accept" or "reject".
func (s *ConnectionService) RespondToConnection(ctx context.Context, responderID, connectionID, decision string) (*domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, "connection.respond", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("connection.id", connectionID),
		attribute.String("decision", decision),
	))
	defer span.End()

	var to domain.ConnectionStatus
	switch decision {
	case "accept":
		to = domain.StatusAccepted
	case "reject":
		to = domain.StatusRejected
	default:
		return nil, fmt.Errorf("decision %q: %w", decision, ErrValidation)
	}

	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if conn.MentorID != responderID {
		span.AddEvent("respond.unauthorized")
		return nil, fmt.Errorf("respond to connection %s as %q: %w", connectionID, responderID, ErrUnauthorized)
	}

	// Compare-and-swap on status: a concurrent double-accept resolves to
	// one winner, the loser observes a non-pending status here.
	ok, err := s.connections.UpdateStatus(ctx, connectionID, []domain.ConnectionStatus{domain.StatusPending}, to)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update connection status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("respond to connection %s in status %q: %w", connectionID, conn.Status, ErrInvalidTransition)
	}

	conn.Status = to
	conn.UpdatedAt = s.clock()
	span.AddEvent("connection.responded")

	return conn, nil
}

// ActivateConnection moves an accepted connection to active. Either
// participant may activate.
func (s *ConnectionService) ActivateConnection(ctx context.Context, actorID, connectionID string) (*domain.Connection, error) {
	return s.transition(ctx, "connection.activate", actorID, connectionID,
		[]domain.ConnectionStatus{domain.StatusAccepted}, domain.StatusActive)
}

// CompleteConnection moves an accepted or active connection to its
// terminal completed state. Either participant may complete.
func (s *ConnectionService) CompleteConnection(ctx context.Context, actorID, connectionID string) (*domain.Connection, error) {
	return s.transition(ctx, "connection.complete", actorID, connectionID,
		[]domain.ConnectionStatus{domain.StatusAccepted, domain.StatusActive}, domain.StatusCompleted)
}

func (s *ConnectionService) transition(ctx context.Context, spanName, actorID, connectionID string, from []domain.ConnectionStatus, to domain.ConnectionStatus) (*domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, spanName, trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("connection.id", connectionID),
	))
	defer span.End()

	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !conn.Involves(actorID) {
		return nil, fmt.Errorf("update connection %s as %q: %w", connectionID, actorID, ErrUnauthorized)
	}

	ok, err := s.connections.UpdateStatus(ctx, connectionID, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update connection status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("transition connection %s from %q to %q: %w", connectionID, conn.Status, to, ErrInvalidTransition)
	}

	conn.Status = to
	conn.UpdatedAt = s.clock()
	return conn, nil
}

// ScheduleSession appends a session to an accepted or active
// connection. Past-dated sessions are permitted as historical records;
// the connection's own status never changes here.
func (s *ConnectionService) ScheduleSession(ctx context.Context, actorID, connectionID string, scheduledAt time.Time, durationMinutes int, notes string) (*domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, "connection.schedule_session", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("connection.id", connectionID),
	))
	defer span.End()

	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("schedule session: missing timestamp: %w", ErrValidation)
	}
	if durationMinutes == 0 {
		durationMinutes = domain.DefaultSessionMinutes
	}
	if durationMinutes < 0 {
		return nil, fmt.Errorf("schedule session: duration %d: %w", durationMinutes, ErrValidation)
	}

	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !conn.Involves(actorID) {
		return nil, fmt.Errorf("schedule session on %s as %q: %w", connectionID, actorID, ErrUnauthorized)
	}
	if conn.Status != domain.StatusAccepted && conn.Status != domain.StatusActive {
		return nil, fmt.Errorf("schedule session on %s in status %q: %w", connectionID, conn.Status, ErrInvalidTransition)
	}

	session := domain.Session{
		ID:              s.newID(),
		ScheduledAt:     scheduledAt,
		DurationMinutes: durationMinutes,
		Status:          domain.SessionScheduled,
		Notes:           notes,
	}

	if err := s.connections.AddSession(ctx, connectionID, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert session: %w", err)
	}

	conn.Sessions = append(conn.Sessions, session)
	span.SetAttributes(attribute.String("session.id", session.ID))
	span.AddEvent("session.scheduled")

	return conn, nil
}

// UpdateSessionStatus marks a scheduled session completed or cancelled.
func (s *ConnectionService) UpdateSessionStatus(ctx context.Context, actorID, connectionID, sessionID, status string) (*domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, "connection.update_session", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("connection.id", connectionID),
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	to := domain.SessionStatus(status)
	if to != domain.SessionCompleted && to != domain.SessionCancelled {
		return nil, fmt.Errorf("session status %q: %w", status, ErrValidation)
	}

	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !conn.Involves(actorID) {
		return nil, fmt.Errorf("update session on %s as %q: %w", connectionID, actorID, ErrUnauthorized)
	}

	idx := -1
	for i := range conn.Sessions {
		if conn.Sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("session %s on connection %s: %w", sessionID, connectionID, ErrSessionNotFound)
	}

	ok, err := s.connections.UpdateSessionStatus(ctx, connectionID, sessionID, domain.SessionScheduled, to)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update session status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s in status %q: %w", sessionID, conn.Sessions[idx].Status, ErrInvalidTransition)
	}

	conn.Sessions[idx].Status = to
	span.AddEvent("session.updated")

	return conn, nil
}

// ListConnections returns every connection involving the user, in
// unspecified store order. Callers re-sort through the view package.
func (s *ConnectionService) ListConnections(ctx context.Context, userID string) ([]domain.Connection, error) {
	ctx, span := middleware.StartSpan(ctx, "connection.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list connections for %q: %w", userID, err)
	}

	span.SetAttributes(attribute.Int("connection.count", len(conns)))
	return conns, nil
}

func (s *ConnectionService) getConnection(ctx context.Context, connectionID string) (*domain.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("query connection %s: %w", connectionID, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("lookup connection %s: %w", connectionID, ErrConnectionNotFound)
	}
	return conn, nil
}
