package domain

import (
	"context"
	"errors"
)

// ErrPairExists is returned by ConnectionRepository.Create when a live
// (pending, accepted or active) connection already exists for the same
// (mentor, mentee) pair. The store raises it from a single conditional
// insert, so concurrent duplicate requests cannot both succeed.
var ErrPairExists = errors.New("live connection already exists for pair")

// ConnectionRepository defines the data-access contract for connection
// operations. Implementations live in internal/core/repository (Core
// layer). The Logic layer depends on this interface only — never on SQL
// or pgx directly.
type ConnectionRepository interface {
	// Create inserts a new connection. Returns ErrPairExists when a live
	// connection for the same (mentor, mentee) pair already exists; the
	// uniqueness check and the insert are a single atomic operation.
	Create(ctx context.Context, conn *Connection) error

	// GetByID returns the connection with its sessions populated.
	// Returns (nil, nil) when no connection is found.
	GetByID(ctx context.Context, id string) (*Connection, error)

	// ListByUser returns every connection where the user appears as
	// mentor or mentee, sessions populated, in store order.
	ListByUser(ctx context.Context, userID string) ([]Connection, error)

	// UpdateStatus transitions the connection to the given status if and
	// only if its current status is one of from (a per-record
	// compare-and-swap). Returns false when the row exists but the swap
	// did not apply.
	UpdateStatus(ctx context.Context, id string, from []ConnectionStatus, to ConnectionStatus) (bool, error)

	// AddSession appends a session to the connection.
	AddSession(ctx context.Context, connectionID string, session *Session) error

	// UpdateSessionStatus transitions a session from one status to
	// another with the same compare-and-swap contract as UpdateStatus.
	UpdateSessionStatus(ctx context.Context, connectionID, sessionID string, from, to SessionStatus) (bool, error)
}
