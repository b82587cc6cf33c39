package javadoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testResolver() Resolver {
	names := map[string]string{
		"List":    "java.util.List",
		"Map":     "java.util.Map",
		"Widget":  "com.example.ui.Widget",
		"IOError": "java.io.IOException",
	}

	return ResolverFunc(func(name string) (string, bool) {
		fqn, ok := names[name]

		return fqn, ok
	})
}

func TestQualifyReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		want  string
		count int
	}{
		{name: "link", in: "See {@link List}.", want: "See {@link java.util.List}.", count: 1},
		{name: "linkplain with label", in: "{@linkplain Widget the widget}", want: "{@linkplain com.example.ui.Widget the widget}", count: 1},
		{name: "member", in: "{@link Widget#draw(int)}", want: "{@link com.example.ui.Widget#draw(int)}", count: 1},
		{name: "nested type", in: "{@link Map.Entry}", want: "{@link java.util.Map.Entry}", count: 1},
		{name: "value", in: "{@value Widget#MAX}", want: "{@value com.example.ui.Widget#MAX}", count: 1},
		{name: "see", in: " * @see Widget", want: " * @see com.example.ui.Widget", count: 1},
		{name: "throws", in: "@throws IOError if broken", want: "@throws java.io.IOException if broken", count: 1},
		{name: "exception", in: "\n@exception IOError x", want: "\n@exception java.io.IOException x", count: 1},
		{name: "local member", in: "{@link #draw()}", want: "{@link #draw()}", count: 0},
		{name: "already qualified", in: "{@link java.util.List}", want: "{@link java.util.List}", count: 0},
		{name: "unknown", in: "{@link Gadget}", want: "{@link Gadget}", count: 0},
		{name: "quoted see", in: `@see "The Book"`, want: `@see "The Book"`, count: 0},
		{name: "html see", in: `@see <a href="x">x</a>`, want: `@see <a href="x">x</a>`, count: 0},
		{name: "email is not a tag", in: "mail me@see Widget", want: "mail me@see Widget", count: 0},
		{
			name:  "several",
			in:    "{@link List} and {@link Map}\n@see Widget",
			want:  "{@link java.util.List} and {@link java.util.Map}\n@see com.example.ui.Widget",
			count: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, count := QualifyReferences(tt.in, testResolver())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestQualifyReferences_NilResolver(t *testing.T) {
	t.Parallel()

	got, count := QualifyReferences("{@link List}", nil)

	assert.Equal(t, "{@link List}", got)
	assert.Zero(t, count)
}
