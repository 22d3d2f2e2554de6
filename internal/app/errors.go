package app

import "errors"

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	// ErrUpstream marks a failed or empty completion from the AI provider.
	ErrUpstream = errors.New("upstream completion failed")
	// ErrPersonalityLocked marks use of a paid persona by a free account.
	ErrPersonalityLocked = errors.New("personality requires an active subscription")
	// ErrFollowupLimit marks an exhausted follow-up allowance.
	ErrFollowupLimit = errors.New("follow-up limit reached")
	// ErrSessionNotFound marks a missing or foreign session.
	ErrSessionNotFound = errors.New("session not found")
)
