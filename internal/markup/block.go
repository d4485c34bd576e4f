package markup

import "strings"

// BlockKind is the structural kind of a block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockCode
	BlockQuote
	BlockUnorderedList
	BlockOrderedList
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockCode:
		return "code"
	case BlockQuote:
		return "quote"
	case BlockUnorderedList:
		return "unordered_list"
	case BlockOrderedList:
		return "ordered_list"
	default:
		return "unknown"
	}
}

const (
	codeFence      = "```"
	quotePrefix    = ">"
	listItemPrefix = "- "
	maxHeading     = 6
)

// SplitBlocks splits a document into blocks separated by one or more blank
// lines. Blocks are trimmed and empty ones dropped.
func SplitBlocks(document string) []string {
	document = normalizeNewlines(document)
	document = strings.TrimSpace(document)
	if document == "" {
		return nil
	}

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		if block := strings.TrimSpace(strings.Join(current, "\n")); block != "" {
			blocks = append(blocks, block)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(document, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// Classify returns the kind of a single block. The first matching rule wins:
// code, heading, quote, unordered list, ordered list, paragraph.
func Classify(block string) BlockKind {
	if strings.HasPrefix(block, codeFence) && strings.HasSuffix(block, codeFence) {
		return BlockCode
	}

	lines := strings.Split(block, "\n")
	if _, ok := headingLevel(lines[0]); ok {
		return BlockHeading
	}
	if allLines(lines, func(line string) bool { return strings.HasPrefix(line, quotePrefix) }) {
		return BlockQuote
	}
	if allLines(lines, func(line string) bool { return strings.HasPrefix(line, listItemPrefix) }) {
		return BlockUnorderedList
	}
	if isOrderedList(lines) {
		return BlockOrderedList
	}
	return BlockParagraph
}

// headingLevel counts the leading '#' characters of line and reports whether
// they form a heading marker: 1 to 6 hashes followed by a space.
func headingLevel(line string) (int, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeading {
		return level, false
	}
	if level >= len(line) || line[level] != ' ' {
		return level, false
	}
	return level, true
}

func isOrderedList(lines []string) bool {
	for i, line := range lines {
		if _, ok := orderedItemText(line, i+1); !ok {
			return false
		}
	}
	return true
}

// orderedItemText strips the "N. " prefix from line when N equals want.
func orderedItemText(line string, want int) (string, bool) {
	if len(line) < 3 {
		return "", false
	}
	dot := strings.IndexByte(line, '.')
	if dot <= 0 {
		return "", false
	}
	number, ok := parseDigits(line[:dot])
	if !ok || number != want {
		return "", false
	}
	if dot+1 >= len(line) || line[dot+1] != ' ' {
		return "", false
	}
	return line[dot+2:], true
}

// parseDigits parses an unsigned base-10 integer made only of ASCII digits.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}

func allLines(lines []string, pred func(string) bool) bool {
	for _, line := range lines {
		if !pred(line) {
			return false
		}
	}
	return true
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
