package commentservice

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var contentPolicy = bluemonday.StrictPolicy()

// sanitizeContent strips all markup and returns plain text. Escaping is left to whoever renders it.
func sanitizeContent(content string) string {
	return html.UnescapeString(contentPolicy.Sanitize(content))
}
