package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_Empty(t *testing.T) {
	require.Equal(t, "", Render(""))
	require.Equal(t, "", Render("   \n"))
}

func TestRender_Sanitizes(t *testing.T) {
	html := Render("hello <script>alert(1)</script> **world**")
	require.NotContains(t, strings.ToLower(html), "<script")
	require.Contains(t, html, "<strong>world</strong>")
}

func TestRender_Links(t *testing.T) {
	html := Render("[docs](https://example.com) [bad](javascript:alert(1))")
	require.Contains(t, html, `href="https://example.com"`)
	require.Contains(t, html, `rel="nofollow`)
	require.NotContains(t, html, "javascript:")
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "hello world", Excerpt("# hello\n\n**world**", 0))
	require.Equal(t, "Tom & Jerry", Excerpt("Tom & Jerry", 0))
	require.Equal(t, "abc…", Excerpt("abcdef", 3))
	require.Equal(t, "", Excerpt("", 10))
}
