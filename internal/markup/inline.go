package markup

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Inline delimiters, applied in this order.
const (
	DelimiterBold   = "**"
	DelimiterItalic = "_"
	DelimiterCode   = "`"
)

var (
	imagePattern = regexp2.MustCompile(`!\[([^\[\]]*)\]\(([^\(\)]*)\)`, regexp2.None)
	linkPattern  = regexp2.MustCompile(`(?<!!)\[([^\[\]]*)\]\(([^\(\)]*)\)`, regexp2.None)
)

// Reference is an extracted link or image: the anchor (or alt) text and the
// target url.
type Reference struct {
	Text string
	URL  string
}

// ExtractImages returns every ![alt](url) reference in text, left to right.
func ExtractImages(text string) []Reference {
	return extractReferences(imagePattern, text)
}

// ExtractLinks returns every [anchor](url) reference in text that is not
// part of an image, left to right.
func ExtractLinks(text string) []Reference {
	return extractReferences(linkPattern, text)
}

func extractReferences(pattern *regexp2.Regexp, text string) []Reference {
	var refs []Reference
	match, err := pattern.FindStringMatch(text)
	for err == nil && match != nil {
		refs = append(refs, Reference{
			Text: match.GroupByNumber(1).String(),
			URL:  match.GroupByNumber(2).String(),
		})
		match, err = pattern.FindNextMatch(match)
	}
	return refs
}

// ParseInline splits text into inline spans: images, then links, then bold,
// italic and code delimiters.
func ParseInline(text string) ([]Span, error) {
	spans := []Span{Text(text)}
	spans = SplitImages(spans)
	spans = SplitLinks(spans)

	var err error
	for _, step := range []struct {
		delimiter string
		kind      SpanKind
	}{
		{DelimiterBold, SpanBold},
		{DelimiterItalic, SpanItalic},
		{DelimiterCode, SpanCode},
	} {
		spans, err = SplitDelimiter(spans, step.delimiter, step.kind)
		if err != nil {
			return nil, err
		}
	}
	return spans, nil
}

// SplitImages replaces image syntax inside text spans with image spans.
func SplitImages(spans []Span) []Span {
	return splitReferences(spans, ExtractImages, SpanImage, func(ref Reference) string {
		return "![" + ref.Text + "](" + ref.URL + ")"
	})
}

// SplitLinks replaces link syntax inside text spans with link spans.
func SplitLinks(spans []Span) []Span {
	return splitReferences(spans, ExtractLinks, SpanLink, func(ref Reference) string {
		return "[" + ref.Text + "](" + ref.URL + ")"
	})
}

func splitReferences(
	spans []Span,
	extract func(string) []Reference,
	kind SpanKind,
	literal func(Reference) string,
) []Span {
	out := make([]Span, 0, len(spans))
	for _, span := range spans {
		if span.Kind != SpanText {
			out = append(out, span)
			continue
		}
		refs := extract(span.Text)
		if len(refs) == 0 {
			out = append(out, span)
			continue
		}

		remaining := span.Text
		for _, ref := range refs {
			before, after, found := strings.Cut(remaining, literal(ref))
			if !found {
				break
			}
			if before != "" {
				out = append(out, Text(before))
			}
			out = append(out, Span{Text: ref.Text, Kind: kind, URL: ref.URL, hasURL: true})
			remaining = after
		}
		if remaining != "" {
			out = append(out, Text(remaining))
		}
	}
	return out
}

// SplitDelimiter turns text enclosed by a pair of delimiters into spans of
// kind. Only text spans are scanned. An opening delimiter without a closing
// one fails with ErrUnbalancedDelimiter.
func SplitDelimiter(spans []Span, delimiter string, kind SpanKind) ([]Span, error) {
	if delimiter == "" {
		return spans, nil
	}
	out := make([]Span, 0, len(spans))
	for _, span := range spans {
		if span.Kind != SpanText {
			out = append(out, span)
			continue
		}

		text := span.Text
		for text != "" {
			start := strings.Index(text, delimiter)
			if start < 0 {
				out = append(out, Text(text))
				break
			}
			if start > 0 {
				out = append(out, Text(text[:start]))
			}

			rest := text[start+len(delimiter):]
			end := strings.Index(rest, delimiter)
			if end < 0 {
				return nil, unbalancedDelimiterError(delimiter, span.Text)
			}
			if inner := rest[:end]; inner != "" {
				out = append(out, Span{Text: inner, Kind: kind})
			}
			text = rest[end+len(delimiter):]
		}
	}
	return out, nil
}
