package merge_test

import (
	"testing"

	"github.com/jacentio/arbor/merge"
	"github.com/jacentio/arbor/tree"
)

func mustJSON(t *testing.T, s string) *tree.Value {
	t.Helper()
	v, err := tree.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func TestInto(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		delta    string
		expected string
	}{
		{
			name:     "overwrite leaf",
			base:     `{"name":"Sally","age":27}`,
			delta:    `{"age":28}`,
			expected: `{"name":"Sally","age":28}`,
		},
		{
			name:     "add new path",
			base:     `{"a":{"b":1}}`,
			delta:    `{"a":{"c":2},"d":3}`,
			expected: `{"a":{"b":1,"c":2},"d":3}`,
		},
		{
			name:     "shorter delta sequence keeps base tail",
			base:     `{"list":["a","b","c"]}`,
			delta:    `{"list":["z"]}`,
			expected: `{"list":["z","b","c"]}`,
		},
		{
			name:     "longer delta sequence extends",
			base:     `{"list":["a"]}`,
			delta:    `{"list":["x","y","z"]}`,
			expected: `{"list":["x","y","z"]}`,
		},
		{
			name:     "scalar replaces container",
			base:     `{"a":{"b":1},"c":2}`,
			delta:    `{"a":"flat"}`,
			expected: `{"a":"flat","c":2}`,
		},
		{
			name:     "container replaces scalar",
			base:     `{"a":"flat"}`,
			delta:    `{"a":{"b":1}}`,
			expected: `{"a":{"b":1}}`,
		},
		{
			name:     "empty delta mapping replaces base mapping",
			base:     `{"a":{"b":1},"c":2}`,
			delta:    `{"a":{}}`,
			expected: `{"a":{},"c":2}`,
		},
		{
			name:     "empty delta sequence replaces base sequence",
			base:     `{"tags":["x","y"],"n":1}`,
			delta:    `{"tags":[]}`,
			expected: `{"tags":[],"n":1}`,
		},
		{
			name:     "empty delta container nested deeper",
			base:     `{"a":{"b":{"c":1},"d":2}}`,
			delta:    `{"a":{"b":{}}}`,
			expected: `{"a":{"b":{},"d":2}}`,
		},
		{
			name:     "empty key is kept",
			base:     `{"":1,"a":2}`,
			delta:    `{"a":3}`,
			expected: `{"":1,"a":3}`,
		},
		{
			name:     "empty key in delta",
			base:     `{"a":{"":"x","b":1}}`,
			delta:    `{"a":{"":"y"}}`,
			expected: `{"a":{"":"y","b":1}}`,
		},
		{
			name:     "empty delta container added where absent",
			base:     `{"a":1}`,
			delta:    `{"e":[]}`,
			expected: `{"a":1,"e":[]}`,
		},
		{
			name:     "into empty base",
			base:     `{}`,
			delta:    `{"a":[1]}`,
			expected: `{"a":[1]}`,
		},
		{
			name:     "nested sequence of mappings",
			base:     `{"pets":[{"name":"rex","legs":4},{"name":"tweety","legs":2}]}`,
			delta:    `{"pets":[{"legs":3}]}`,
			expected: `{"pets":[{"name":"rex","legs":3},{"name":"tweety","legs":2}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := mustJSON(t, tt.base)
			delta := mustJSON(t, tt.delta)
			got, err := merge.Into(base, delta, ".")
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
			if base.String() != tt.base {
				t.Errorf("base was modified: %s", base)
			}
			if delta.String() != tt.delta {
				t.Errorf("delta was modified: %s", delta)
			}
		})
	}
}

func TestIntoIdentity(t *testing.T) {
	docs := []string{
		`{}`,
		`{"a":1}`,
		`{"a":{"b":[1,{"c":{}}]},"d":[]}`,
		`{"list":[[1,2],[]]}`,
		`{"":1,"a":{"":[]}}`,
		`"scalar"`,
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			base := mustJSON(t, doc)
			got, err := merge.Into(base, tree.EmptyMap(), ".")
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			if !got.Equal(base) {
				t.Errorf("expected %s, got %s", base, got)
			}
		})
	}
}

func TestFields(t *testing.T) {
	base := mustJSON(t, `{"user":{"name":"Sally","tags":["a","b"]},"n":1}`)
	got, err := merge.Fields(base, "user.tags[1]", tree.String("z"), ".")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	expected := `{"user":{"name":"Sally","tags":["a","z"]},"n":1}`
	if got.String() != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}

	d := tree.NewDoc(got, ".")
	for _, p := range []string{"user.name", "user.tags[0]", "n"} {
		before, _ := tree.NewDoc(base, ".").Get(p)
		after, err := d.Get(p)
		if err != nil || !after.Equal(before) {
			t.Errorf("%s: expected %s unchanged, got %v (%v)", p, before, after, err)
		}
	}
}

func TestFieldsCustomDelimiter(t *testing.T) {
	got, err := merge.Fields(mustJSON(t, `{"a":{"b":1}}`), "/a/c", tree.Bool(true), "/")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.String() != `{"a":{"b":1,"c":true}}` {
		t.Errorf("unexpected result %s", got)
	}
}

func TestFieldsInvalidPath(t *testing.T) {
	if _, err := merge.Fields(tree.EmptyMap(), "a..b", tree.Null(), "."); err == nil {
		t.Fatal("expected error")
	}
}
