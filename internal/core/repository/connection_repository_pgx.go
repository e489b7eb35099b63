package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/mentorship-service/internal/core/domain"
)

const pgUniqueViolation = "23505"

// PgxConnectionRepository implements domain.ConnectionRepository using
// pgxpool. Pair uniqueness is enforced by a partial unique index over
// live statuses, so Create never needs a separate existence check.
type PgxConnectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository creates a new PgxConnectionRepository.
func NewConnectionRepository(pool *pgxpool.Pool) *PgxConnectionRepository {
	return &PgxConnectionRepository{pool: pool}
}

// Create inserts a new connection. A unique violation on the live-pair
// index surfaces as domain.ErrPairExists.
func (r *PgxConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (id, mentor_id, mentee_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		conn.ID, conn.MentorID, conn.MenteeID, conn.Status, conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrPairExists
		}
		return err
	}

	return nil
}

// GetByID returns the connection with its sessions populated.
// Returns (nil, nil) when no connection is found.
func (r *PgxConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	query := `
		SELECT id, mentor_id, mentee_id, status, created_at, updated_at
		FROM connections
		WHERE id = $1
	`

	var conn domain.Connection
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conn.ID, &conn.MentorID, &conn.MenteeID, &conn.Status, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	sessions, err := r.loadSessions(ctx, []string{conn.ID})
	if err != nil {
		return nil, err
	}
	conn.Sessions = sessions[conn.ID]
	if conn.Sessions == nil {
		conn.Sessions = []domain.Session{}
	}

	return &conn, nil
}

// ListByUser returns every connection where the user appears as mentor
// or mentee, sessions populated.
func (r *PgxConnectionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Connection, error) {
	query := `
		SELECT id, mentor_id, mentee_id, status, created_at, updated_at
		FROM connections
		WHERE mentor_id = $1 OR mentee_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []domain.Connection
	var ids []string
	for rows.Next() {
		var conn domain.Connection
		err := rows.Scan(
			&conn.ID, &conn.MentorID, &conn.MenteeID, &conn.Status, &conn.CreatedAt, &conn.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		conn.Sessions = []domain.Session{}
		conns = append(conns, conn)
		ids = append(ids, conn.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(conns) == 0 {
		return []domain.Connection{}, nil
	}

	sessions, err := r.loadSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range conns {
		if s, ok := sessions[conns[i].ID]; ok {
			conns[i].Sessions = s
		}
	}

	return conns, nil
}

// UpdateStatus transitions the connection status with a per-record
// compare-and-swap. Returns false when the current status is not one of
// from, so a concurrent double-apply resolves to a single winner.
func (r *PgxConnectionRepository) UpdateStatus(ctx context.Context, id string, from []domain.ConnectionStatus, to domain.ConnectionStatus) (bool, error) {
	query := `
		UPDATE connections
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
	`

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	result, err := r.pool.Exec(ctx, query, to, id, fromStrs)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

// AddSession appends a session to the connection.
func (r *PgxConnectionRepository) AddSession(ctx context.Context, connectionID string, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, connection_id, scheduled_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID, connectionID, session.ScheduledAt, session.DurationMinutes, session.Status, session.Notes,
	)
	return err
}

// UpdateSessionStatus transitions a session status with the same
// compare-and-swap contract as UpdateStatus.
func (r *PgxConnectionRepository) UpdateSessionStatus(ctx context.Context, connectionID, sessionID string, from, to domain.SessionStatus) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $1
		WHERE id = $2 AND connection_id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, to, sessionID, connectionID, from)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

// loadSessions fetches sessions for the given connection ids, grouped
// by connection, in insertion order.
func (r *PgxConnectionRepository) loadSessions(ctx context.Context, connectionIDs []string) (map[string][]domain.Session, error) {
	query := `
		SELECT id, connection_id, scheduled_at, duration_minutes, status, notes
		FROM sessions
		WHERE connection_id = ANY($1)
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, connectionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]domain.Session)
	for rows.Next() {
		var s domain.Session
		var connID string
		err := rows.Scan(&s.ID, &connID, &s.ScheduledAt, &s.DurationMinutes, &s.Status, &s.Notes)
		if err != nil {
			return nil, err
		}
		grouped[connID] = append(grouped[connID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grouped, nil
}
