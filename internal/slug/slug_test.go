package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple title", title: "Hello World!", want: "hello-world"},
		{name: "already a slug", title: "hello-world", want: "hello-world"},
		{name: "punctuation runs collapse", title: "A -- B __ C", want: "a-b-c"},
		{name: "leading and trailing noise", title: "  !!Launch v2??  ", want: "launch-v2"},
		{name: "accents fold to ascii", title: "Café Crème Brûlée", want: "cafe-creme-brulee"},
		{name: "digits kept", title: "OAuth 2.0 Login", want: "oauth-2-0-login"},
		{name: "empty input", title: "", want: Fallback},
		{name: "punctuation only", title: "?!.,;", want: Fallback},
		{name: "non-latin only", title: "日本語", want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{
		"", "Hello World!", "---", "Über Fancy  Feature", "a", "x_y_z",
		strings.Repeat("long title ", 30), "Ⅻ roman", "ﬁne ligature",
	}

	for _, in := range inputs {
		once := Slugify(in)
		assert.NotEmpty(t, once, "input %q", in)
		assert.Equal(t, once, Slugify(once), "input %q", in)
	}
}

func TestSlugify_MaxLength(t *testing.T) {
	got := Slugify(strings.Repeat("word ", 40))

	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
	assert.False(t, strings.HasPrefix(got, "-"))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		want    string
		wantErr bool
	}{
		{name: "valid", title: "Hello World!", want: "hello-world"},
		{name: "too short", title: "ab", wantErr: true},
		{name: "whitespace padded short", title: "  ab  ", wantErr: true},
		{name: "too long", title: strings.Repeat("a", MaxTitleLength+1), wantErr: true},
		{name: "exact minimum", title: "abc", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.title)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTitle)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
