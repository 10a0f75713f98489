package legal

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRun = regexp.MustCompile(`[ \n\t\r]+`)

// Key returns the identity form of a document: every run of spaces, tabs,
// carriage returns and newlines removed, then lowercased.
func Key(text string) string {
	return cases.Lower(language.Und).String(whitespaceRun.ReplaceAllString(text, ""))
}

// Marker is the display stand-in for a full reference license body.
func Marker(name string) string {
	return fmt.Sprintf("---[%s - full text]---\n\n", name)
}

// Display returns text with every exact occurrence of a reference body
// replaced by its marker.
func Display(text string, refs References) string {
	for _, ref := range refs {
		if ref.Body == "" {
			continue
		}
		text = strings.ReplaceAll(text, ref.Body, Marker(ref.Name))
	}
	return text
}

// Canonical computes both the key and the display text.
func Canonical(text string, refs References) (key, display string) {
	return Key(text), Display(text, refs)
}
