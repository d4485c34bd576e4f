package markdown

import (
	"context"
	"io/fs"
	"slices"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	Pattern   string
	Recursive bool
	// Engine selects the parser when none is injected.
	Engine string
	Parser interfaces.ParseOptions
}

// Service implements interfaces.MarkdownService for an fs.FS rooted at the
// content directory.
type Service struct {
	cfg    Config
	parser interfaces.MarkdownParser
	loader *Loader
	logger interfaces.Logger
}

var _ interfaces.MarkdownService = (*Service)(nil)

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithParser overrides the parser selected from Config.Engine.
func WithParser(parser interfaces.MarkdownParser) ServiceOption {
	return func(s *Service) {
		if parser != nil {
			s.parser = parser
		}
	}
}

// WithLogger sets the logger used for load and render diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Markdown service reading from filesystem.
func NewService(filesystem fs.FS, cfg Config, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		cfg: cfg,
		loader: NewLoader(filesystem, LoaderConfig{
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
		}),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.parser == nil {
		parser, err := NewParser(cfg.Engine, cfg.Parser)
		if err != nil {
			return nil, err
		}
		s.parser = parser
	}
	return s, nil
}

// Load reads a single Markdown document. Unless opts.Lazy is set the body
// is rendered into BodyHTML.
func (s *Service) Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if !opts.Lazy {
		if _, err := s.RenderDocument(ctx, result.Document, opts.Parser); err != nil {
			return nil, err
		}
	}
	return result.Document, nil
}

// LoadDirectory reads every matching Markdown document within dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, dir, LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		if !opts.Lazy {
			if _, err := s.RenderDocument(ctx, result.Document, opts.Parser); err != nil {
				return nil, err
			}
		}
		docs = append(docs, result.Document)
	}

	s.logger.Debug("markdown.directory.loaded", "dir", dir, "documents", len(docs), "lazy", opts.Lazy)
	return docs, nil
}

// Render converts Markdown bytes into HTML.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// RenderDocument converts the document body and stores the result in
// BodyHTML.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, goerrors.Wrap(ErrDocumentNil, goerrors.CategoryBadInput, "render document")
	}
	html, err := s.Render(ctx, doc.Body, opts)
	if err != nil {
		logging.WithDocumentContext(s.logger, doc.FilePath, "").Warn("markdown.render.failed", "error", err)
		return nil, renderError(err, doc.FilePath)
	}
	doc.BodyHTML = html
	return html, nil
}

// Title returns the page title: the first "# " heading of the body, or the
// front matter title when the body has none.
func (s *Service) Title(doc *interfaces.Document) (string, error) {
	if doc == nil {
		return "", goerrors.Wrap(ErrDocumentNil, goerrors.CategoryBadInput, "title")
	}
	title, err := ExtractTitle(string(doc.Body))
	if err == nil {
		return title, nil
	}
	if doc.FrontMatter.Title != "" {
		return doc.FrontMatter.Title, nil
	}
	return "", noHeadingError(doc.FilePath)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = slices.Clone(override.Extensions)
	}
	result.HardWraps = result.HardWraps || override.HardWraps
	result.SafeMode = result.SafeMode || override.SafeMode
	return result
}
