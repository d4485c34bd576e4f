package interfaces

import (
	"context"
	"time"
)

// MarkdownParser converts a Markdown document into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises parsing. Only the goldmark engine reads these
// fields; the native dialect is fixed.
type ParseOptions struct {
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
	HardWraps  bool     `json:"hard_wraps" yaml:"hard_wraps" mapstructure:"hard_wraps"`
	SafeMode   bool     `json:"safe_mode" yaml:"safe_mode" mapstructure:"safe_mode"`
}

// MarkdownService exposes the file workflows used by the site generator and
// the CLI: discovery, front matter parsing, rendering and title lookup.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
	Title(doc *Document) (string, error)
}

// Document represents a Markdown file with parsed metadata and content.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	Size         int64
	// Checksum is the BLAKE3 digest of the original file content, front
	// matter included.
	Checksum []byte
}

// FrontMatter models the optional metadata block at the top of a page.
type FrontMatter struct {
	Title    string         `yaml:"title" json:"title"`
	Slug     string         `yaml:"slug" json:"slug"`
	Summary  string         `yaml:"summary" json:"summary"`
	Template string         `yaml:"template" json:"template"`
	Tags     []string       `yaml:"tags" json:"tags"`
	Author   string         `yaml:"author" json:"author"`
	Date     time.Time      `yaml:"date" json:"date"`
	Draft    bool           `yaml:"draft" json:"draft"`
	Custom   map[string]any `yaml:",inline" json:"custom"`
	Raw      map[string]any `yaml:"-" json:"raw"`
}

// LoadOptions fine-tunes how documents are discovered and parsed.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	// Lazy skips rendering; BodyHTML stays empty until RenderDocument.
	Lazy   bool
	Parser ParseOptions
}
