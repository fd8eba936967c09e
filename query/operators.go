package query

import "strings"

// Operators are the clause operators Where accepts.
var Operators = []string{
	"+", "-", "*", "/", "%", "^", // Mathematical
	"=", "<>", "!=", "<", ">", "<=", ">=", // Comparison
	"is null", "is not null",
	"and", "or", "xor", "not", // Boolean
	"in", "[x]", "[x .. y]", // Collection
	"=~",                                    // Regular Expression
	"starts with", "ends with", "contains", // String
}

var operatorSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Operators))
	for _, op := range Operators {
		m[op] = struct{}{}
	}

	return m
}()

// IsOperator reports whether s is a recognized operator, ignoring case.
func IsOperator(s string) bool {
	_, ok := operatorSet[strings.ToLower(strings.TrimSpace(s))]

	return ok
}

// acceptsNull reports whether op may be used without a value.
func acceptsNull(op string) bool {
	switch strings.ToLower(op) {
	case "=", "<>", "!=", "is null", "is not null":
		return true
	default:
		return false
	}
}

// negatesNull reports whether a null comparison with op means IS NOT NULL.
func negatesNull(op string) bool {
	switch strings.ToLower(op) {
	case "<>", "!=", "is not null":
		return true
	default:
		return false
	}
}
