package v1

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/mentorship-service/internal/core/domain"
	"github.com/campuslink/mentorship-service/internal/view"
)

var fixedTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeConnectionRepo is an in-memory domain.ConnectionRepository with
// the same atomicity contract as the pgx implementation: conditional
// insert for live pairs, compare-and-swap for status updates.
type fakeConnectionRepo struct {
	mu    sync.Mutex
	conns map[string]*domain.Connection
}

func newFakeRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{conns: make(map[string]*domain.Connection)}
}

func (f *fakeConnectionRepo) Create(ctx context.Context, conn *domain.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.conns {
		if existing.MentorID == conn.MentorID && existing.MenteeID == conn.MenteeID && existing.Status.Live() {
			return domain.ErrPairExists
		}
	}
	f.conns[conn.ID] = copyConn(conn)
	return nil
}

func (f *fakeConnectionRepo) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.conns[id]
	if !ok {
		return nil, nil
	}
	return copyConn(conn), nil
}

func (f *fakeConnectionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Connection{}
	for _, conn := range f.conns {
		if conn.Involves(userID) {
			out = append(out, *copyConn(conn))
		}
	}
	return out, nil
}

func (f *fakeConnectionRepo) UpdateStatus(ctx context.Context, id string, from []domain.ConnectionStatus, to domain.ConnectionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.conns[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if conn.Status == st {
			conn.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConnectionRepo) AddSession(ctx context.Context, connectionID string, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.conns[connectionID]
	if !ok {
		return fmt.Errorf("connection %s missing", connectionID)
	}
	conn.Sessions = append(conn.Sessions, *session)
	return nil
}

func (f *fakeConnectionRepo) UpdateSessionStatus(ctx context.Context, connectionID, sessionID string, from, to domain.SessionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.conns[connectionID]
	if !ok {
		return false, nil
	}
	for i := range conn.Sessions {
		if conn.Sessions[i].ID == sessionID && conn.Sessions[i].Status == from {
			conn.Sessions[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func copyConn(conn *domain.Connection) *domain.Connection {
	dup := *conn
	dup.Sessions = append([]domain.Session{}, conn.Sessions...)
	return &dup
}

func newTestService(repo domain.ConnectionRepository) *ConnectionService {
	s := NewConnectionService(repo)
	s.clock = func() time.Time { return fixedTime }
	var mu sync.Mutex
	n := 0
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s
}

func TestRequestConnectionSuccess(t *testing.T) {
	service := newTestService(newFakeRepo())

	conn, err := service.RequestConnection(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", conn.MentorID, "target becomes the mentor")
	assert.Equal(t, "alice", conn.MenteeID, "requester becomes the mentee")
	assert.Equal(t, domain.StatusPending, conn.Status)
	assert.Empty(t, conn.Sessions)
	assert.Equal(t, fixedTime, conn.CreatedAt)
}

func TestRequestConnectionSelf(t *testing.T) {
	service := newTestService(newFakeRepo())

	_, err := service.RequestConnection(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfConnection)
}

func TestRequestConnectionMissingID(t *testing.T) {
	service := newTestService(newFakeRepo())

	_, err := service.RequestConnection(context.Background(), "", "bob")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestConnectionDuplicate(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	first, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = service.RequestConnection(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	// the reverse direction is a different pair and is allowed
	_, err = service.RequestConnection(ctx, "bob", "alice")
	require.NoError(t, err)

	// after rejection the pair no longer blocks a new request
	_, err = service.RespondToConnection(ctx, "bob", first.ID, "reject")
	require.NoError(t, err)
	_, err = service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
}

func TestRequestConnectionConcurrentDuplicates(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.RequestConnection(ctx, "alice", "bob")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, duplicates := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrDuplicateConnection):
			duplicates++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one request wins")
	assert.Equal(t, attempts-1, duplicates)
}

func TestRespondToConnectionAccept(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	updated, err := service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, updated.Status)
}

func TestRespondToConnectionNotFound(t *testing.T) {
	service := newTestService(newFakeRepo())

	_, err := service.RespondToConnection(context.Background(), "bob", "missing", "accept")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestRespondToConnectionMenteeCannotRespond(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	// only the mentor side responds to a request
	_, err = service.RespondToConnection(ctx, "alice", conn.ID, "accept")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRespondToConnectionTwice(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)

	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "reject")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRespondToConnectionBadDecision(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	// an arbitrary status string is not a decision
	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "completed")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRejectedIsTerminal(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "reject")
	require.NoError(t, err)

	_, err = service.ActivateConnection(ctx, "bob", conn.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = service.CompleteConnection(ctx, "bob", conn.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = service.ScheduleSession(ctx, "bob", conn.ID, fixedTime.Add(time.Hour), 30, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActivateAndComplete(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	// pending cannot be activated
	_, err = service.ActivateConnection(ctx, "alice", conn.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)

	activated, err := service.ActivateConnection(ctx, "alice", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, activated.Status)

	completed, err := service.CompleteConnection(ctx, "bob", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	// completed is terminal
	_, err = service.ActivateConnection(ctx, "alice", conn.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionRequiresParticipant(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)

	_, err = service.CompleteConnection(ctx, "stranger", conn.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func acceptedConnection(t *testing.T, service *ConnectionService) *domain.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	conn, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)
	return conn
}

func TestScheduleSessionDefaultsDuration(t *testing.T) {
	service := newTestService(newFakeRepo())
	conn := acceptedConnection(t, service)

	updated, err := service.ScheduleSession(context.Background(), "alice", conn.ID,
		fixedTime.Add(48*time.Hour), 0, "intro call")
	require.NoError(t, err)
	require.Len(t, updated.Sessions, 1)
	assert.Equal(t, domain.DefaultSessionMinutes, updated.Sessions[0].DurationMinutes)
	assert.Equal(t, domain.SessionScheduled, updated.Sessions[0].Status)
	assert.Equal(t, "intro call", updated.Sessions[0].Notes)
	// scheduling never advances the connection status
	assert.Equal(t, domain.StatusAccepted, updated.Status)
}

func TestScheduleSessionPastDatedAllowed(t *testing.T) {
	service := newTestService(newFakeRepo())
	conn := acceptedConnection(t, service)

	updated, err := service.ScheduleSession(context.Background(), "bob", conn.ID,
		fixedTime.Add(-24*time.Hour), 45, "recorded after the fact")
	require.NoError(t, err)
	assert.Len(t, updated.Sessions, 1)
}

func TestScheduleSessionValidation(t *testing.T) {
	service := newTestService(newFakeRepo())
	conn := acceptedConnection(t, service)
	ctx := context.Background()

	_, err := service.ScheduleSession(ctx, "alice", conn.ID, time.Time{}, 30, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.ScheduleSession(ctx, "alice", conn.ID, fixedTime.Add(time.Hour), -10, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.ScheduleSession(ctx, "stranger", conn.ID, fixedTime.Add(time.Hour), 30, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestScheduleSessionRequiresAcceptedOrActive(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = service.ScheduleSession(ctx, "alice", conn.ID, fixedTime.Add(time.Hour), 30, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.RespondToConnection(ctx, "bob", conn.ID, "accept")
	require.NoError(t, err)
	_, err = service.ActivateConnection(ctx, "alice", conn.ID)
	require.NoError(t, err)

	// active still accepts sessions
	_, err = service.ScheduleSession(ctx, "alice", conn.ID, fixedTime.Add(time.Hour), 30, "")
	require.NoError(t, err)
}

func TestUpdateSessionStatus(t *testing.T) {
	service := newTestService(newFakeRepo())
	conn := acceptedConnection(t, service)
	ctx := context.Background()

	updated, err := service.ScheduleSession(ctx, "alice", conn.ID, fixedTime.Add(time.Hour), 30, "")
	require.NoError(t, err)
	sessionID := updated.Sessions[0].ID

	_, err = service.UpdateSessionStatus(ctx, "alice", conn.ID, sessionID, "deleted")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.UpdateSessionStatus(ctx, "stranger", conn.ID, sessionID, "completed")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = service.UpdateSessionStatus(ctx, "bob", conn.ID, "missing-session", "completed")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	done, err := service.UpdateSessionStatus(ctx, "bob", conn.ID, sessionID, "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, done.Sessions[0].Status)

	// a settled session cannot change again
	_, err = service.UpdateSessionStatus(ctx, "bob", conn.ID, sessionID, "cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListConnections(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := service.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = service.RequestConnection(ctx, "carol", "bob")
	require.NoError(t, err)
	_, err = service.RequestConnection(ctx, "carol", "dave")
	require.NoError(t, err)

	conns, err := service.ListConnections(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, conns, 2)

	conns, err = service.ListConnections(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

// Full lifecycle: request, accept, schedule, then watch the session
// move from the upcoming view to the past view as time passes.
func TestMentorshipLifecycleScenario(t *testing.T) {
	service := newTestService(newFakeRepo())
	ctx := context.Background()

	conn, err := service.RequestConnection(ctx, "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, "user-b", conn.MentorID)
	assert.Equal(t, "user-a", conn.MenteeID)

	_, err = service.RespondToConnection(ctx, "user-b", conn.ID, "accept")
	require.NoError(t, err)

	sessionAt := fixedTime.Add(48 * time.Hour)
	_, err = service.ScheduleSession(ctx, "user-a", conn.ID, sessionAt, 45, "")
	require.NoError(t, err)

	conns, err := service.ListConnections(ctx, "user-a")
	require.NoError(t, err)

	upcoming := view.UpcomingSessions("user-a", conns, fixedTime)
	require.Len(t, upcoming, 1)
	assert.Equal(t, sessionAt, upcoming[0].ScheduledAt)
	assert.Equal(t, 45, upcoming[0].DurationMinutes)
	assert.Empty(t, view.PastSessions("user-a", conns, fixedTime, 5))

	// after the date passes the same session shows up as past instead
	later := fixedTime.Add(72 * time.Hour)
	assert.Empty(t, view.UpcomingSessions("user-a", conns, later))
	past := view.PastSessions("user-a", conns, later, 5)
	require.Len(t, past, 1)
	assert.Equal(t, sessionAt, past[0].ScheduledAt)
}
