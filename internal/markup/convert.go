package markup

import (
	"fmt"
	"strings"
)

const (
	tagRoot       = "div"
	tagParagraph  = "p"
	tagPre        = "pre"
	tagQuote      = "blockquote"
	tagUnordered  = "ul"
	tagOrdered    = "ol"
	tagListItem   = "li"
	headingPrefix = "h"
)

// ToHTML converts a document and serialises the resulting tree.
func ToHTML(document string) (string, error) {
	root, err := DocumentToTree(document)
	if err != nil {
		return "", err
	}
	return root.HTML(), nil
}

// DocumentToTree converts a whole document into a root div holding one node
// per block. The first failing block aborts the conversion.
func DocumentToTree(document string) (*Container, error) {
	blocks := SplitBlocks(document)
	children := make([]Node, 0, len(blocks))
	for i, block := range blocks {
		kind := Classify(block)
		node, err := BlockToNode(block, kind)
		if err != nil {
			return nil, blockError(err, i, kind)
		}
		children = append(children, node)
	}
	return NewContainer(tagRoot, children, nil), nil
}

// BlockToNode builds the container for a block already classified as kind.
func BlockToNode(block string, kind BlockKind) (*Container, error) {
	switch kind {
	case BlockParagraph:
		return paragraphToNode(block)
	case BlockHeading:
		return headingToNode(block)
	case BlockCode:
		return codeToNode(block)
	case BlockQuote:
		return quoteToNode(block)
	case BlockUnorderedList:
		return unorderedListToNode(block)
	case BlockOrderedList:
		return orderedListToNode(block)
	default:
		return nil, invalidBlockKindError(kind)
	}
}

// textToChildren runs the inline parser over text and converts the spans.
func textToChildren(text string) ([]Node, error) {
	spans, err := ParseInline(text)
	if err != nil {
		return nil, err
	}
	return SpansToNodes(spans)
}

func inlineContainer(tag, text string) (*Container, error) {
	children, err := textToChildren(text)
	if err != nil {
		return nil, err
	}
	return NewContainer(tag, children, nil), nil
}

func paragraphToNode(block string) (*Container, error) {
	return inlineContainer(tagParagraph, strings.ReplaceAll(block, "\n", " "))
}

func headingToNode(block string) (*Container, error) {
	level := 0
	for level < len(block) && block[level] == '#' {
		level++
	}
	if level < 1 || level > maxHeading {
		return nil, invalidBlockKindError(BlockHeading)
	}
	return inlineContainer(fmt.Sprintf("%s%d", headingPrefix, level), strings.TrimSpace(block[level:]))
}

func codeToNode(block string) (*Container, error) {
	leaf, err := SpanToLeaf(Text(codeContent(block)))
	if err != nil {
		return nil, err
	}
	code := NewContainer(tagCode, []Node{leaf}, nil)
	return NewContainer(tagPre, []Node{code}, nil), nil
}

// codeContent removes the opening and closing fences. Fences may sit on
// their own lines or be glued to the first and last content lines.
func codeContent(block string) string {
	lines := strings.Split(block, "\n")
	if len(lines) >= 2 {
		first, last := lines[0], lines[len(lines)-1]
		if strings.TrimSpace(first) == codeFence && strings.TrimSpace(last) == codeFence {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
		if strings.HasPrefix(first, codeFence) && strings.HasSuffix(last, codeFence) {
			body := make([]string, 0, len(lines))
			if head := strings.TrimSpace(first[len(codeFence):]); head != "" {
				body = append(body, head)
			}
			body = append(body, lines[1:len(lines)-1]...)
			if tail := strings.TrimSpace(last[:len(last)-len(codeFence)]); tail != "" {
				body = append(body, tail)
			}
			return strings.Join(body, "\n")
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(block, codeFence, ""))
}

func quoteToNode(block string) (*Container, error) {
	lines := strings.Split(block, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimPrefix(line, quotePrefix)
		line = strings.TrimPrefix(line, " ")
		cleaned = append(cleaned, line)
	}
	return inlineContainer(tagQuote, strings.Join(cleaned, " "))
}

func unorderedListToNode(block string) (*Container, error) {
	lines := strings.Split(block, "\n")
	items := make([]Node, 0, len(lines))
	for _, line := range lines {
		item, err := inlineContainer(tagListItem, strings.TrimSpace(strings.TrimPrefix(line, listItemPrefix)))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return NewContainer(tagUnordered, items, nil), nil
}

func orderedListToNode(block string) (*Container, error) {
	lines := strings.Split(block, "\n")
	items := make([]Node, 0, len(lines))
	for i, line := range lines {
		text, ok := orderedItemText(line, i+1)
		if !ok {
			// Classified elsewhere; fall back to stripping through the first ". ".
			if _, after, found := strings.Cut(line, ". "); found {
				text = after
			} else {
				text = line
			}
		}
		item, err := inlineContainer(tagListItem, strings.TrimSpace(text))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return NewContainer(tagOrdered, items, nil), nil
}
