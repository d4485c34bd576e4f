package markup

// SpanKind identifies the semantic kind of an inline span.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanItalic
	SpanCode
	SpanLink
	SpanImage
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanBold:
		return "bold"
	case SpanItalic:
		return "italic"
	case SpanCode:
		return "code"
	case SpanLink:
		return "link"
	case SpanImage:
		return "image"
	default:
		return "unknown"
	}
}

// Span is a contiguous run of inline content with one kind. URL is only
// meaningful for links and images and is set through Link or Image; an empty
// target such as "[home]()" still counts as present. Spans are values and
// compare structurally with ==.
type Span struct {
	Text   string
	Kind   SpanKind
	URL    string
	hasURL bool
}

func Text(text string) Span   { return Span{Text: text, Kind: SpanText} }
func Bold(text string) Span   { return Span{Text: text, Kind: SpanBold} }
func Italic(text string) Span { return Span{Text: text, Kind: SpanItalic} }
func Code(text string) Span   { return Span{Text: text, Kind: SpanCode} }

// Link returns a link span with anchor text and target url.
func Link(text, url string) Span { return Span{Text: text, Kind: SpanLink, URL: url, hasURL: true} }

// Image returns an image span with alt text and source url.
func Image(alt, url string) Span { return Span{Text: alt, Kind: SpanImage, URL: url, hasURL: true} }

// HasURL reports whether the span carries a url. Link and Image always
// set one, even when empty.
func (s Span) HasURL() bool {
	return s.hasURL || s.URL != ""
}

const (
	tagBold   = "b"
	tagItalic = "i"
	tagCode   = "code"
	tagAnchor = "a"
	tagImage  = "img"
)

// SpanToLeaf converts a span into its leaf node.
func SpanToLeaf(span Span) (*Leaf, error) {
	switch span.Kind {
	case SpanText:
		return NewLeaf("", span.Text, nil), nil
	case SpanBold:
		return NewLeaf(tagBold, span.Text, nil), nil
	case SpanItalic:
		return NewLeaf(tagItalic, span.Text, nil), nil
	case SpanCode:
		return NewLeaf(tagCode, span.Text, nil), nil
	case SpanLink:
		if !span.HasURL() {
			return nil, missingURLError(span)
		}
		return NewLeaf(tagAnchor, span.Text, Attrs("href", span.URL)), nil
	case SpanImage:
		if !span.HasURL() {
			return nil, missingURLError(span)
		}
		return NewLeaf(tagImage, "", Attrs("src", span.URL, "alt", span.Text)), nil
	default:
		return nil, invalidSpanKindError(span.Kind)
	}
}

// SpansToNodes converts spans to leaves, preserving order.
func SpansToNodes(spans []Span) ([]Node, error) {
	nodes := make([]Node, 0, len(spans))
	for _, span := range spans {
		leaf, err := SpanToLeaf(span)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, leaf)
	}
	return nodes, nil
}
