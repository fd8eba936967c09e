package query

import "errors"

// Sentinel errors for the query package.
var (
	// ErrUnknownBucket is returned when a binding targets a bucket that does not exist.
	ErrUnknownBucket = errors.New("query: invalid binding type")

	// ErrValueRequired is returned when an operator needs a value and none was given.
	ErrValueRequired = errors.New("query: value must be provided")

	// ErrBetweenValues is returned when a between predicate does not get exactly two values.
	ErrBetweenValues = errors.New("query: between requires exactly two values")

	// ErrInvalidColumn is returned for column arguments of an unsupported type.
	ErrInvalidColumn = errors.New("query: invalid column")

	// ErrNoConnection is returned by terminal operations on a builder without a connection.
	ErrNoConnection = errors.New("query: builder has no connection")

	// ErrImmutableIdentity is returned when an update tries to set the intrinsic identity.
	ErrImmutableIdentity = errors.New("query: identity cannot be updated")

	// ErrInvalidIdentity is returned when an identity value is not an integer.
	ErrInvalidIdentity = errors.New("query: identity value must be an integer")

	// ErrNoValues is returned when an insert is given no records.
	ErrNoValues = errors.New("query: no values to insert")

	// ErrNotAList is returned when a list predicate gets a scalar value.
	ErrNotAList = errors.New("query: value is not a list")

	// ErrBindingCollision is returned when a raw binding reuses a name already in the table.
	ErrBindingCollision = errors.New("query: binding name already in use")

	// ErrUnknownAggregate is returned for aggregate functions the grammar cannot express.
	ErrUnknownAggregate = errors.New("query: unknown aggregate function")
)
