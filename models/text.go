package models

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy lets only the line breaks added by RenderText through.
var textPolicy = bluemonday.NewPolicy().AllowElements("br")

// RenderText turns stored plain text into HTML: markup is escaped and newlines become <br>.
// Text is kept as typed in the database and only escaped here, on the way out.
func RenderText(text string) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return textPolicy.Sanitize(strings.ReplaceAll(escaped, "\n", "<br>"))
}
