package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

type point struct {
	X, Y int
}

func TestKeySerializer_Segments(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	var nilPtr *int
	n := 7

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{
			name:   "no args",
			method: "Select",
			want:   "Select",
		},
		{
			name:   "collection and integer id",
			method: "Find",
			args:   []any{"articles", int64(42)},
			want:   joinWithSeparator("Find", "articles", "42"),
		},
		{
			name:   "basic types",
			method: "Find",
			args:   []any{1, true, 3.5, uint8(2)},
			want:   joinWithSeparator("Find", "1", "true", "3.5", "2"),
		},
		{
			name:   "nil values",
			method: "Find",
			args:   []any{nil, nilPtr, []string(nil), map[string]any(nil)},
			want:   joinWithSeparator("Find", "nil", "nil", "[]", "{}"),
		},
		{
			name:   "pointer is dereferenced",
			method: "Find",
			args:   []any{&n},
			want:   joinWithSeparator("Find", "7"),
		},
		{
			name:   "stringer",
			method: "Find",
			args:   []any{id},
			want:   joinWithSeparator("Find", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		},
		{
			name:   "columns",
			method: "Select",
			args:   []any{[]string{"id", "title"}, [2]int{1, 2}},
			want:   joinWithSeparator("Select", "[id,title]", "[1,2]"),
		},
		{
			name:   "map keys are sorted",
			method: "Select",
			args:   []any{map[string]any{"status": "published", "author": 3}},
			want:   joinWithSeparator("Select", "{author=3,status=published}"),
		},
		{
			name:   "struct falls back to json",
			method: "Select",
			args:   []any{point{X: 1, Y: 2}},
			want:   joinWithSeparator("Select", `{"X":1,"Y":2}`),
		},
		{
			name:   "unmarshalable value falls back to type",
			method: "Select",
			args:   []any{make(chan int)},
			want:   joinWithSeparator("Select", "chan int"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeySerializer_Namespace(t *testing.T) {
	serializer := NewKeySerializer("collections")

	got := serializer.SerializeKey("Find", "articles", 42)
	want := joinWithSeparator("collections", "Find", "articles", "42")
	if got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}
}

func TestKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	filter := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4}

	first := serializer.SerializeKey("Select", "articles", filter)
	for i := 0; i < 20; i++ {
		if got := serializer.SerializeKey("Select", "articles", filter); got != first {
			t.Fatalf("unstable key: %v != %v", got, first)
		}
	}
}
