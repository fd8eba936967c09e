package connection_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/connection"
)

func TestPrepareBindings(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	got := connection.PrepareBindings(map[string]any{
		"0":     "a",
		"name":  "jd",
		"ids":   []int{1, 2},
		"when":  when,
		"whenp": &when,
		"blob":  []byte("raw"),
		"group": map[string]any{"x": 1, "at": when},
	}, neoql.DateFormat)

	want := map[string]any{
		"param_0": "a",
		"name":    "jd",
		"ids":     []any{1, 2},
		"when":    "2024-03-09 14:05:00",
		"whenp":   "2024-03-09 14:05:00",
		"blob":    []byte("raw"),
		"group":   map[string]any{"x": 1, "at": "2024-03-09 14:05:00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PrepareBindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareBindings_MapParameterKeepsItsKey(t *testing.T) {
	t.Parallel()

	got := connection.PrepareBindings(map[string]any{
		"age":   18,
		"props": map[string]any{"age": 99, "name": "x", "tags": []string{"a"}},
	}, neoql.DateFormat)

	want := map[string]any{
		"age":   18,
		"props": map[string]any{"age": 99, "name": "x", "tags": []any{"a"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PrepareBindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareBindings_NestedSlices(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	got := connection.PrepareBindings(map[string]any{
		"dates": []time.Time{when},
		"mixed": []any{when, [2]string{"a", "b"}, nil},
	}, neoql.DateFormat)

	want := map[string]any{
		"dates": []any{"2024-01-02 03:04:05"},
		"mixed": []any{"2024-01-02 03:04:05", []any{"a", "b"}, nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PrepareBindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareBindings_Empty(t *testing.T) {
	t.Parallel()

	got := connection.PrepareBindings(nil, neoql.DateFormat)
	if len(got) != 0 {
		t.Errorf("PrepareBindings(nil) = %v, want empty", got)
	}
}

func TestConnection_MapValueReachesClient(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t)

	_, err := conn.Table("User").
		Where("name", "jd").
		Where("meta", "=", map[string]any{"name": "other"}).
		Get(t.Context())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if len(client.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(client.calls))
	}

	want := map[string]any{"name": "jd", "meta": map[string]any{"name": "other"}}
	if diff := cmp.Diff(want, client.calls[0].params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}
