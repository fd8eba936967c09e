package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// toInt64 coerces integer-like values. Values that cannot be represented are
// returned unchanged.
func toInt64(v any) any {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return v
		}

		return i
	default:
		return v
	}
}

// identity coerces an identity value to int64, failing for values that are
// not integers.
func identity(v any) (any, error) {
	id, ok := toInt64(v).(int64)
	if !ok {
		return nil, fmt.Errorf("%w: %v (%T)", ErrInvalidIdentity, v, v)
	}

	return id, nil
}

// identities coerces every element of list in place.
func identities(list []any) error {
	for i, v := range list {
		id, err := identity(v)
		if err != nil {
			return err
		}

		list[i] = id
	}

	return nil
}

// asInt64 converts a scalar result value.
func asInt64(v any) int64 {
	if n, ok := toInt64(v).(int64); ok {
		return n
	}

	return 0
}

// asFloat64 converts a scalar result value.
func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case nil:
		return 0
	}

	if i, ok := toInt64(v).(int64); ok {
		return float64(i)
	}

	return 0
}

// toList converts any slice or array into []any. Strings and byte slices
// are scalars, not lists.
func toList(v any) ([]any, error) {
	switch l := v.(type) {
	case []any:
		return append([]any(nil), l...), nil
	case string, []byte, nil:
		return nil, fmt.Errorf("%w: %T", ErrNotAList, v)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T", ErrNotAList, v)
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, nil
}
