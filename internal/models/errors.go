package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound     = errors.New("resource not found") // General not found
	ErrNodeNotFound = errors.New("story node not found")

	// Request Errors
	ErrInvalidInput = errors.New("invalid input data")
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but acting for another user

	// Startup
	ErrConfiguration = errors.New("configuration error")

	// Story Generation Errors
	ErrGenerationFailed = errors.New("story generation request failed")
	ErrGenerationParse  = errors.New("generated story could not be parsed")

	// Story Graph Store Errors
	ErrPersistence      = errors.New("persistence error")
	ErrEdgeExists       = errors.New("a node already exists for this parent and choice")
	ErrProgressConflict = errors.New("user progress was modified concurrently")
)

// Error codes returned to clients alongside the human readable message.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeGenerationParse  = "GENERATION_PARSE_ERROR"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)
