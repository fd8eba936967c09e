package neoql

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .neoql.yaml is found.
	ErrConfigNotFound = errors.New("neoql: no .neoql.yaml found")

	// ErrUnknownDriver is returned when an unregistered driver is requested.
	ErrUnknownDriver = errors.New("neoql: unknown driver")
)
