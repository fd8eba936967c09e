package cypher

import "errors"

// Compilation errors.
var (
	// ErrNoTarget is returned when a statement has neither labels nor matches.
	ErrNoTarget = errors.New("cypher: query has no labels and no matches")

	// ErrUnknownAlias is returned when a column references an alias that is not bound.
	ErrUnknownAlias = errors.New("cypher: unknown alias")

	// ErrUnsupportedClause is returned for clause variants the grammar does not know.
	ErrUnsupportedClause = errors.New("cypher: unsupported clause")

	// ErrNoLabels is returned when a label update names no labels.
	ErrNoLabels = errors.New("cypher: no labels given")
)
