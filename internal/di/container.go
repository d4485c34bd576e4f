package di

import (
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/internal/logging/console"
	"github.com/goliatone/go-mdsite/internal/logging/gologger"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Container wires the services behind the mdsite facade.
type Container struct {
	Config runtimeconfig.Config

	fs             afero.Fs
	logWriter      io.Writer
	loggerProvider interfaces.LoggerProvider
	parser         interfaces.MarkdownParser
	now            func() time.Time

	markdownSvc  *markdown.Service
	generatorSvc *generator.Service
	handlers     sitecmd.Handlers
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithFilesystem sets the filesystem content, templates and output live on.
// Defaults to the OS filesystem.
func WithFilesystem(filesystem afero.Fs) Option {
	return func(c *Container) {
		if filesystem != nil {
			c.fs = filesystem
		}
	}
}

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithLogWriter redirects the console logging provider.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		if w != nil {
			c.logWriter = w
		}
	}
}

// WithMarkdownParser overrides the parser selected by Config.Markdown.Engine.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		if parser != nil {
			c.parser = parser
		}
	}
}

// WithClock overrides the generator clock.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.loggerProvider == nil {
		provider, err := newLoggerProvider(cfg.Logging, c.logWriter)
		if err != nil {
			return nil, err
		}
		c.loggerProvider = provider
	}

	markdownOpts := []markdown.ServiceOption{
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
	}
	if c.parser != nil {
		markdownOpts = append(markdownOpts, markdown.WithParser(c.parser))
	}
	engine := strings.ToLower(strings.TrimSpace(cfg.Markdown.Engine))
	markdownSvc, err := markdown.NewService(contentFS(c.fs, cfg.Markdown.ContentDir), markdown.Config{
		Pattern:   cfg.Markdown.Pattern,
		Recursive: cfg.Markdown.Recursive,
		Engine:    engine,
		Parser: interfaces.ParseOptions{
			Extensions: cfg.Markdown.Parser.Extensions,
			HardWraps:  cfg.Markdown.Parser.HardWraps,
			SafeMode:   cfg.Markdown.Parser.SafeMode,
		},
	}, markdownOpts...)
	if err != nil {
		return nil, err
	}
	c.markdownSvc = markdownSvc

	gen := cfg.Generator
	c.generatorSvc = generator.NewService(c.fs, markdownSvc, generator.Config{
		OutputDir:       gen.OutputDir,
		StaticDir:       gen.StaticDir,
		TemplatePath:    gen.TemplatePath,
		BasePath:        gen.BasePath,
		BaseURL:         gen.BaseURL,
		Engine:          engine,
		CleanBuild:      gen.CleanBuild,
		CopyStatic:      gen.CopyStatic,
		Incremental:     gen.Incremental,
		GenerateSitemap: gen.GenerateSitemap,
		GenerateRobots:  gen.GenerateRobots,
		IncludeDrafts:   gen.IncludeDrafts,
		SlugifyPaths:    gen.SlugifyPaths,
		FailFast:        gen.FailFast,
		Workers:         gen.Workers,
		RenderTimeout:   gen.RenderTimeout,
	},
		generator.WithLogger(logging.GeneratorLogger(c.loggerProvider)),
		generator.WithClock(c.now),
	)

	c.handlers = sitecmd.NewHandlers(c.generatorSvc, logging.CommandsLogger(c.loggerProvider))
	return c, nil
}

// LoggerProvider returns the provider every module logger comes from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Filesystem returns the filesystem the services operate on.
func (c *Container) Filesystem() afero.Fs {
	return c.fs
}

// MarkdownService returns the document service.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// GeneratorService returns the static site generator.
func (c *Container) GeneratorService() *generator.Service {
	return c.generatorSvc
}

// CommandHandlers returns the site command handlers.
func (c *Container) CommandHandlers() sitecmd.Handlers {
	return c.handlers
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig, w io.Writer) (interfaces.LoggerProvider, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Provider), runtimeconfig.LoggingProviderGoLogger) {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	}

	level, _ := console.ParseLevel(cfg.Level)
	return console.NewProvider(console.Options{
		Writer:   w,
		MinLevel: &level,
	}), nil
}

// contentFS roots an fs.FS at dir so document paths are relative to the
// content directory.
func contentFS(filesystem afero.Fs, dir string) fs.FS {
	clean := filepath.Clean(strings.TrimSpace(dir))
	if clean == "." {
		return afero.NewIOFS(filesystem)
	}
	return afero.NewIOFS(afero.NewBasePathFs(filesystem, clean))
}
