package markdown

import "strings"

const titlePrefix = "# "

// ExtractTitle returns the text of the first level-one heading in markdown.
// Any line qualifies, not only the first block, and surrounding whitespace
// is ignored.
func ExtractTitle(markdown string) (string, error) {
	for line := range strings.Lines(markdown) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, titlePrefix) {
			return strings.TrimSpace(line[len(titlePrefix):]), nil
		}
	}
	return "", noHeadingError("")
}
