package markdown

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdsite/internal/markup"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Engine names accepted by NewParser.
const (
	EngineNative   = "native"
	EngineGoldmark = "goldmark"
)

// NativeParser renders the module's own Markdown dialect through the markup
// package. It has no options; ParseOptions are accepted and ignored.
type NativeParser struct{}

var _ interfaces.MarkdownParser = NativeParser{}

// Parse implements interfaces.MarkdownParser.
func (NativeParser) Parse(markdown []byte) ([]byte, error) {
	html, err := markup.ToHTML(string(markdown))
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// ParseWithOptions implements interfaces.MarkdownParser.
func (p NativeParser) ParseWithOptions(markdown []byte, _ interfaces.ParseOptions) ([]byte, error) {
	return p.Parse(markdown)
}

// NewParser returns the parser for engine. An empty engine selects the
// native dialect.
func NewParser(engine string, defaults interfaces.ParseOptions) (interfaces.MarkdownParser, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineNative:
		return NativeParser{}, nil
	case EngineGoldmark:
		return NewGoldmarkParser(defaults), nil
	default:
		return nil, goerrors.Wrap(ErrUnknownEngine, goerrors.CategoryBadInput, engine).
			WithTextCode(textCodeUnknownEngine)
	}
}
