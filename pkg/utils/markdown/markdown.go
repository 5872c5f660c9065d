// Package markdown renders user-authored descriptions into sanitized HTML.
package markdown

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	bfRenderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank | blackfriday.Smartypants | blackfriday.SmartypantsDashes,
	})
	bfExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode | blackfriday.Autolink | blackfriday.Strikethrough | blackfriday.SpaceHeadings
	ugcPolicy    = bluemonday.UGCPolicy()
	stripPolicy  = bluemonday.StrictPolicy()
)

func render(source string) []byte {
	return blackfriday.Run([]byte(source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
}

// Render converts markdown source into HTML safe to embed in a page.
func Render(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	return string(bytes.TrimSpace(ugcPolicy.SanitizeBytes(render(source))))
}

// Excerpt returns the rendered text without markup, collapsed to single
// spaces and cut to at most n runes with an ellipsis. n <= 0 means no limit.
func Excerpt(source string, n int) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	text := html.UnescapeString(string(stripPolicy.SanitizeBytes(render(source))))
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
