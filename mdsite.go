// Package mdsite converts Markdown documents into HTML and builds static
// sites from a content tree, a page template and a static asset directory.
package mdsite

import (
	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/markup"
	"github.com/goliatone/go-mdsite/pkg/interfaces"

	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
)

// GeneratorService exports the static site generator.
type GeneratorService = *generator.Service

// BuildOptions narrows a generator run.
type BuildOptions = generator.BuildOptions

// BuildResult reports aggregated build metadata.
type BuildResult = generator.BuildResult

// CommandHandlers exports the site command handlers.
type CommandHandlers = sitecmd.Handlers

// Option customises the module wiring.
type Option = di.Option

var (
	WithFilesystem     = di.WithFilesystem
	WithLoggerProvider = di.WithLoggerProvider
	WithLogWriter      = di.WithLogWriter
	WithMarkdownParser = di.WithMarkdownParser
	WithClock          = di.WithClock
)

// Module represents the top level runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg. The configuration is validated first.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the validated configuration the module was built with.
func (m *Module) Config() Config {
	return m.container.Config
}

// Markdown returns the document service.
func (m *Module) Markdown() interfaces.MarkdownService {
	return m.container.MarkdownService()
}

// Generator returns the static site generator.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Commands returns the site command handlers.
func (m *Module) Commands() CommandHandlers {
	return m.container.CommandHandlers()
}

// Logger returns a logger for name from the configured provider.
func (m *Module) Logger(name string) interfaces.Logger {
	return logging.ModuleLogger(m.container.LoggerProvider(), name)
}

// ToHTML converts a Markdown document to an HTML fragment wrapped in a
// single div.
func ToHTML(document string) (string, error) {
	return markup.ToHTML(document)
}

// ExtractTitle returns the text of the first "# " heading in document.
func ExtractTitle(document string) (string, error) {
	return markdown.ExtractTitle(document)
}
