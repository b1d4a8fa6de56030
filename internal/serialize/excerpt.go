package serialize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"blogcms/internal/models"
)

// ExcerptLength is the maximum number of characters taken from the content
// when a post has no stored excerpt.
const ExcerptLength = 150

var stripPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Excerpt returns the stored excerpt when it is not blank, otherwise a
// plain-text summary derived from the content.
func Excerpt(p *models.Post) string {
	if e := strings.TrimSpace(p.Excerpt); e != "" {
		return e
	}
	return Summarize(p.Content, ExcerptLength)
}

// Summarize strips markup from s, collapses whitespace and cuts the text to
// at most limit characters on a word boundary, appending "..." when
// anything was cut.
func Summarize(s string, limit int) string {
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:limit])
	if runes[limit] != ' ' {
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " .,;:") + "..."
}
