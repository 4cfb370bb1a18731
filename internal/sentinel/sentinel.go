package sentinel

import "errors"

// Sentinel dependency errors. Dependencies (stores, the Steam client) should
// return these (optionally wrapped) so services can translate them into
// domain errors exactly once.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrExpired            = errors.New("expired")
	ErrInvalidState       = errors.New("invalid state")
	ErrUnavailable        = errors.New("unavailable")
	ErrVerificationFailed = errors.New("verification failed")
)
