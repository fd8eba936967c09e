package connection

import (
	"reflect"
	"sort"
	"strconv"
	"time"
)

// PrepareBindings turns builder bindings into driver parameters:
//   - time.Time values become strings in dateFormat,
//   - slices and arrays become []any,
//   - map values stay maps under their own key, their entries prepared,
//   - numeric top-level keys are replaced with param_<n>.
func PrepareBindings(bindings map[string]any, dateFormat string) map[string]any {
	prepared := make(map[string]any, len(bindings))

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := bindings[key]

		if isNumericKey(key) {
			key = "param_" + key
		}

		prepared[key] = prepareValue(value, dateFormat)
	}

	return prepared
}

func prepareValue(v any, dateFormat string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.Format(dateFormat)
	case *time.Time:
		if t == nil {
			return nil
		}

		return t.Format(dateFormat)
	case []byte:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = prepareValue(e, dateFormat)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = prepareValue(e, dateFormat)
		}

		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = prepareValue(rv.Index(i).Interface(), dateFormat)
	}

	return out
}

func isNumericKey(s string) bool {
	if s == "" {
		return false
	}

	_, err := strconv.ParseUint(s, 10, 64)

	return err == nil
}
