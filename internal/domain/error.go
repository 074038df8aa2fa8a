package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Quota ledger
	ErrNotRegistered        = errors.New("user is not registered")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrConcurrentUpdateLost = errors.New("concurrent update lost, retry")

	// Content services
	ErrInputTooLong       = errors.New("input too long")
	ErrUnsupportedAction  = errors.New("unsupported action")
	ErrServiceUnavailable = errors.New("content service unavailable")
)
