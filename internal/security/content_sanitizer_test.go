package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentSanitizer_StripsScripts(t *testing.T) {
	s := NewContentSanitizer(nil)

	out := s.Sanitize(`<p>hello</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`)
	assert.Contains(t, out, "<p>hello</p>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestContentSanitizer_RemovesBlockedTerms(t *testing.T) {
	s := NewContentSanitizer([]string{"viagra", "казино", "赌博", "café"})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "buy viagra now", "buy  now"},
		{"ascii case-insensitive", "buy VIAGRA now", "buy  now"},
		{"ascii inside a word", "viagras are fine", "viagras are fine"},
		{"adjacent terms", "viagra viagra", " "},
		{"cyrillic", "лучшее казино тут", "лучшее  тут"},
		{"cyrillic case-insensitive", "ЛУЧШЕЕ КАЗИНО", "ЛУЧШЕЕ "},
		{"cyrillic inside a word", "казиноман", "казиноман"},
		{"accented", "le café noir", "le  noir"},
		{"accented at start", "Café au lait", " au lait"},
		{"accented inside a word", "cafés", "cafés"},
		{"han matches without spaces", "来赌博吧", "来吧"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}

func TestTitleSanitizer_RemovesNonASCIITerms(t *testing.T) {
	s := NewTitleSanitizer([]string{"казино", "赌博", "café"})

	assert.Equal(t, "лучшее  тут", s.Sanitize("лучшее казино тут"))
	assert.Equal(t, "来吧", s.Sanitize("来赌博吧"))
	assert.Equal(t, "le  noir", s.Sanitize("le café noir"))
}

func TestContentSanitizer_Idempotent(t *testing.T) {
	s := NewContentSanitizer([]string{"spam"})
	inputs := []string{
		"plain text",
		`<p onclick="x()">para <em>em</em> spam</p>`,
		"",
	}
	for _, in := range inputs {
		once := s.Sanitize(in)
		assert.Equal(t, once, s.Sanitize(once), "input %q", in)
	}
}

func TestTitleSanitizer(t *testing.T) {
	s := NewTitleSanitizer([]string{"casino"})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"markup removed", "<b>Bold</b> title", "Bold title"},
		{"entities decoded", "Tom & Jerry", "Tom & Jerry"},
		{"blocked term", "Best casino ever", "Best  ever"},
		{"trimmed", "  spaced  ", "spaced"},
		{"escaped markup", "&lt;b&gt;x&lt;/b&gt; y", "x y"},
		{"double-escaped markup", "&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", "bold"},
		{"triple-escaped script", "&amp;amp;lt;script&amp;amp;gt;alert(1)&amp;amp;lt;/script&amp;amp;gt; hi", "hi"},
		{"quadruple-escaped tag", "&amp;amp;amp;lt;i&amp;amp;amp;gt;x", "x"},
		{"double-escaped ampersand", "Tom &amp;amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
			assert.Equal(t, got, s.Sanitize(got))
		})
	}
}

func TestLoadBlockedTerms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocked.yml")
	require.NoError(t, os.WriteFile(path, []byte("blocked_terms:\n  - Spam\n  - spam\n  - \"  \"\n  - casino\n"), 0o600))

	terms, err := LoadBlockedTerms(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"spam", "casino"}, terms)

	terms, err = LoadBlockedTerms("")
	assert.NoError(t, err)
	assert.Empty(t, terms)

	_, err = LoadBlockedTerms(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", Excerpt("<p>Hello</p>\n<p>world</p>", 200))
	assert.Equal(t, "héllo", Excerpt("héllo wörld", 5))
	assert.Equal(t, "", Excerpt("anything", 0))

	long := strings.Repeat("a", 300)
	assert.Len(t, Excerpt(long, 200), 200)
}
