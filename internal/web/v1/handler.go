// Package v1 exposes the connection subsystem over HTTP. Handlers map
// the logic layer's sentinel errors to caller-visible statuses and
// never leak store errors.
package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuslink/mentorship-service/internal/core/domain"
	"github.com/campuslink/mentorship-service/internal/logger"
	logicv1 "github.com/campuslink/mentorship-service/internal/logic/v1"
	"github.com/campuslink/mentorship-service/internal/view"
	"github.com/campuslink/mentorship-service/middleware"
)

// DefaultPastSessionLimit bounds GET /sessions/past when the caller
// gives no limit.
const DefaultPastSessionLimit = 5

// Directory is the slice of the User Directory client the web layer
// needs. Profile data is display-only; connection records never store it.
type Directory interface {
	GetUser(ctx context.Context, id string) (*domain.UserProfile, error)
	ListMentors(ctx context.Context) ([]domain.UserProfile, error)
}

// Handler groups HTTP handlers for the connection API v1.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	connections *logicv1.ConnectionService
	directory   Directory
}

// NewHandler creates a new Handler.
func NewHandler(connections *logicv1.ConnectionService, directory Directory) *Handler {
	return &Handler{connections: connections, directory: directory}
}

// RegisterRoutes registers all connection API v1 routes on the given
// router group. Every route requires a caller identity.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.IdentityMiddleware())

	rg.POST("/connections", h.RequestConnection)
	rg.GET("/connections", h.ListConnections)
	rg.GET("/connections/requests", h.ListPendingRequests)
	rg.PUT("/connections/:id", h.RespondToConnection)
	rg.POST("/connections/:id/activate", h.ActivateConnection)
	rg.POST("/connections/:id/complete", h.CompleteConnection)
	rg.POST("/connections/:id/sessions", h.ScheduleSession)
	rg.PUT("/connections/:id/sessions/:sessionId", h.UpdateSessionStatus)
	rg.GET("/sessions/upcoming", h.UpcomingSessions)
	rg.GET("/sessions/past", h.PastSessions)
	rg.GET("/me/stats", h.Stats)
	rg.GET("/mentors", h.ListMentors)
}

// RequestConnection handles POST /connections. The caller becomes the
// mentee of the target mentor.
func (h *Handler) RequestConnection(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.request_connection")
	defer span.End()

	var req domain.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.connections.RequestConnection(ctx, middleware.UserID(c), req.TargetMentorID)
	if err != nil {
		respondError(c, span, log, err, "Connection request failed")
		return
	}

	log.Info().Str("connection_id", conn.ID).Msg("Connection requested")
	c.JSON(http.StatusCreated, conn)
}

// ListConnections handles GET /connections.
func (h *Handler) ListConnections(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.list_connections")
	defer span.End()

	conns, err := h.connections.ListConnections(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, span, log, err, "List connections failed")
		return
	}

	c.JSON(http.StatusOK, conns)
}

// PendingRequestView is one received request together with the
// requesting mentee's display profile.
type PendingRequestView struct {
	Connection domain.Connection   `json:"connection"`
	Mentee     *domain.UserProfile `json:"mentee,omitempty"`
}

// ListPendingRequests handles GET /connections/requests: the pending
// requests where the caller is the mentor, enriched with mentee
// profiles from the User Directory. Directory failures degrade to
// id-only entries rather than failing the whole request.
func (h *Handler) ListPendingRequests(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.list_pending_requests")
	defer span.End()

	userID := middleware.UserID(c)
	conns, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		respondError(c, span, log, err, "List pending requests failed")
		return
	}

	pending := view.PendingRequestsReceived(userID, conns)
	out := make([]PendingRequestView, 0, len(pending))
	for _, conn := range pending {
		item := PendingRequestView{Connection: conn}
		profile, err := h.directory.GetUser(ctx, conn.MenteeID)
		if err != nil {
			log.Warn().Err(err).Str("mentee_id", conn.MenteeID).Msg("Directory lookup failed")
		} else {
			item.Mentee = profile
		}
		out = append(out, item)
	}

	span.SetAttributes(attribute.Int("pending.count", len(out)))
	c.JSON(http.StatusOK, out)
}

// RespondToConnection handles PUT /connections/:id with
// {decision: accept|reject}. Only the mentor side may respond.
func (h *Handler) RespondToConnection(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.respond_connection")
	defer span.End()

	var req domain.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.connections.RespondToConnection(ctx, middleware.UserID(c), c.Param("id"), req.Decision)
	if err != nil {
		respondError(c, span, log, err, "Respond to connection failed")
		return
	}

	log.Info().Str("connection_id", conn.ID).Str("status", string(conn.Status)).Msg("Connection responded")
	c.JSON(http.StatusOK, conn)
}

// ActivateConnection handles POST /connections/:id/activate.
func (h *Handler) ActivateConnection(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.activate_connection")
	defer span.End()

	conn, err := h.connections.ActivateConnection(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, log, err, "Activate connection failed")
		return
	}

	c.JSON(http.StatusOK, conn)
}

// CompleteConnection handles POST /connections/:id/complete.
func (h *Handler) CompleteConnection(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.complete_connection")
	defer span.End()

	conn, err := h.connections.CompleteConnection(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, log, err, "Complete connection failed")
		return
	}

	c.JSON(http.StatusOK, conn)
}

// ScheduleSession handles POST /connections/:id/sessions.
func (h *Handler) ScheduleSession(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.schedule_session")
	defer span.End()

	var req domain.ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be an RFC 3339 timestamp"})
		return
	}

	conn, err := h.connections.ScheduleSession(ctx, middleware.UserID(c), c.Param("id"),
		scheduledAt, req.DurationMinutes, req.Notes)
	if err != nil {
		respondError(c, span, log, err, "Schedule session failed")
		return
	}

	log.Info().Str("connection_id", conn.ID).Msg("Session scheduled")
	c.JSON(http.StatusOK, conn)
}

// UpdateSessionStatus handles PUT /connections/:id/sessions/:sessionId
// with {status: completed|cancelled}.
func (h *Handler) UpdateSessionStatus(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.update_session")
	defer span.End()

	var req domain.SessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.connections.UpdateSessionStatus(ctx, middleware.UserID(c), c.Param("id"),
		c.Param("sessionId"), req.Status)
	if err != nil {
		respondError(c, span, log, err, "Update session failed")
		return
	}

	c.JSON(http.StatusOK, conn)
}

// UpcomingSessions handles GET /sessions/upcoming.
func (h *Handler) UpcomingSessions(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.upcoming_sessions")
	defer span.End()

	userID := middleware.UserID(c)
	conns, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		respondError(c, span, log, err, "Upcoming sessions failed")
		return
	}

	c.JSON(http.StatusOK, view.UpcomingSessions(userID, conns, time.Now()))
}

// PastSessions handles GET /sessions/past?limit=N (default 5).
func (h *Handler) PastSessions(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.past_sessions")
	defer span.End()

	limit := DefaultPastSessionLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	userID := middleware.UserID(c)
	conns, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		respondError(c, span, log, err, "Past sessions failed")
		return
	}

	c.JSON(http.StatusOK, view.PastSessions(userID, conns, time.Now(), limit))
}

// Stats handles GET /me/stats.
func (h *Handler) Stats(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.stats")
	defer span.End()

	userID := middleware.UserID(c)
	conns, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		respondError(c, span, log, err, "Stats failed")
		return
	}

	c.JSON(http.StatusOK, view.StatsSummary(userID, conns, time.Now()))
}

// ListMentors handles GET /mentors, proxying the User Directory.
func (h *Handler) ListMentors(c *gin.Context) {
	ctx, span, log := h.begin(c, "http.list_mentors")
	defer span.End()

	mentors, err := h.directory.ListMentors(ctx)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("Directory unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "User directory unavailable"})
		return
	}

	c.JSON(http.StatusOK, mentors)
}

func (h *Handler) begin(c *gin.Context, spanName string) (context.Context, trace.Span, *zerolog.Logger) {
	ctx, span := middleware.StartSpan(c.Request.Context(), spanName, trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	return ctx, span, logger.FromContext(ctx)
}

// respondError maps sentinel errors to HTTP statuses. Anything outside
// the taxonomy is an internal error; its detail stays in the logs.
func respondError(c *gin.Context, span trace.Span, log *zerolog.Logger, err error, msg string) {
	span.RecordError(err)

	switch {
	case errors.Is(err, logicv1.ErrSelfConnection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot send a connection request to yourself"})
	case errors.Is(err, logicv1.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request input"})
	case errors.Is(err, logicv1.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this connection"})
	case errors.Is(err, logicv1.ErrConnectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
	case errors.Is(err, logicv1.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, logicv1.ErrDuplicateConnection):
		c.JSON(http.StatusConflict, gin.H{"error": "A connection with this user already exists"})
	case errors.Is(err, logicv1.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "This request has already been processed"})
	default:
		log.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Warn().Err(err).Msg(msg)
}
