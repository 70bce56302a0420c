package types

import "errors"

// Storage errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidData     = errors.New("invalid entity data")
	ErrInvalidName     = errors.New("invalid name")
	ErrDuplicate       = errors.New("entity already exists")
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrDSNEmpty           = errors.New("dsn must not be empty for this backend")
	ErrInvalidTablePrefix = errors.New("table prefix may only contain letters, digits and underscores")
	ErrInvalidMenuDepth   = errors.New("menu max depth must not be negative")
	ErrInvalidConcurrency = errors.New("menu concurrency must not be negative")
)
