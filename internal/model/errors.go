package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNoSession       = errors.New("no active session")
	ErrSessionEnded    = errors.New("session has ended")
	ErrSessionNotFound = errors.New("game not found or finished")
	ErrEstablishFailed = errors.New("could not establish a game session")

	// Storage errors
	ErrIdentityNotFound = errors.New("player identity not found")
	ErrScoreNotFound    = errors.New("no final score recorded")

	// Catalog errors
	ErrInvalidCatalog = errors.New("invalid card catalog")
)
