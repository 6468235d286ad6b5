package sanitize

import "github.com/microcosm-cc/bluemonday"

// strict removes every HTML tag and attribute. Page content is stored as
// plain text: anything that looks like markup, script included, is gone
// before it ever reaches the database.
var strict = bluemonday.StrictPolicy()

// Text strips all HTML from the input and returns plain text.
func Text(input string) string {
	return strict.Sanitize(input)
}
