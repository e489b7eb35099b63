// Package v1 provides mentorship connection business logic for API
// version 1.
//
// Error Handling:
// This package defines sentinel errors that represent the failure
// taxonomy of the connection subsystem. These errors should be wrapped
// with context using fmt.Errorf("%w") when returned from business logic
// methods.
//
// Example Usage:
//
//	if requesterID == targetID {
//	    return nil, fmt.Errorf("request connection for %q: %w", requesterID, ErrSelfConnection)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrDuplicateConnection):
//	    c.JSON(http.StatusConflict, gin.H{"error": "A connection with this mentor already exists"})
//	case errors.Is(err, logicv1.ErrConnectionNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import "errors"

// Sentinel errors for connection operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrSelfConnection indicates a user tried to request a connection
	// with themselves.
	// HTTP Status: 400 Bad Request
	ErrSelfConnection = errors.New("cannot connect with yourself")

	// ErrDuplicateConnection indicates a pending, accepted or active
	// connection already exists for the (mentor, mentee) pair.
	// HTTP Status: 409 Conflict
	ErrDuplicateConnection = errors.New("connection already exists")

	// ErrConnectionNotFound indicates the connection does not exist.
	// HTTP Status: 404 Not Found
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrSessionNotFound indicates the session does not exist on the
	// connection.
	// HTTP Status: 404 Not Found
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized indicates the caller is not allowed to act on the
	// connection (wrong side of the relationship, or not a participant).
	// HTTP Status: 403 Forbidden
	ErrUnauthorized = errors.New("not authorized for this connection")

	// ErrInvalidTransition indicates the connection or session is not in
	// a status that permits the requested operation.
	// HTTP Status: 409 Conflict
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation indicates malformed caller input (bad decision,
	// bad timestamp, non-positive duration, missing id).
	// HTTP Status: 400 Bad Request
	ErrValidation = errors.New("invalid input")
)
