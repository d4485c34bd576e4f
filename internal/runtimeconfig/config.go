package runtimeconfig

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrContentDirRequired     = errors.New("mdsite config: markdown content directory is required")
	ErrOutputDirRequired      = errors.New("mdsite config: generator output directory is required")
	ErrTemplatePathRequired   = errors.New("mdsite config: generator template path is required")
	ErrOutputOverlapsContent  = errors.New("mdsite config: output directory must differ from content and static directories")
	ErrSitemapRequiresBaseURL = errors.New("mdsite config: sitemap generation requires a base url")
	ErrBasePathInvalid        = errors.New("mdsite config: base path must start with /")
	ErrOutputDirUnsafe        = errors.New("mdsite config: output directory must be a relative path below the working directory")
)

const textCodeConfigInvalid = "CONFIG_INVALID"

// Supported engine and logging values.
const (
	EngineNative   = "native"
	EngineGoldmark = "goldmark"

	LoggingProviderConsole  = "console"
	LoggingProviderGoLogger = "gologger"
)

// Config aggregates the settings for document loading, site generation and
// logging.
type Config struct {
	Markdown  MarkdownConfig  `json:"markdown" mapstructure:"markdown"`
	Generator GeneratorConfig `json:"generator" mapstructure:"generator"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// MarkdownConfig captures discovery and parser behaviour.
type MarkdownConfig struct {
	ContentDir string `json:"content_dir" mapstructure:"content_dir"`
	Pattern    string `json:"pattern" mapstructure:"pattern"`
	Recursive  bool   `json:"recursive" mapstructure:"recursive"`
	// Engine selects the converter: "native" for the built-in dialect or
	// "goldmark" for CommonMark.
	Engine string               `json:"engine" mapstructure:"engine"`
	Parser MarkdownParserConfig `json:"parser" mapstructure:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	HardWraps  bool     `json:"hard_wraps" mapstructure:"hard_wraps"`
	SafeMode   bool     `json:"safe_mode" mapstructure:"safe_mode"`
}

// GeneratorConfig captures behaviour for the static site generator.
type GeneratorConfig struct {
	OutputDir    string `json:"output_dir" mapstructure:"output_dir"`
	StaticDir    string `json:"static_dir" mapstructure:"static_dir"`
	TemplatePath string `json:"template_path" mapstructure:"template_path"`
	// BasePath is the URL prefix root-relative links are rewritten to.
	BasePath        string        `json:"base_path" mapstructure:"base_path"`
	BaseURL         string        `json:"base_url" mapstructure:"base_url"`
	CleanBuild      bool          `json:"clean_build" mapstructure:"clean_build"`
	CopyStatic      bool          `json:"copy_static" mapstructure:"copy_static"`
	Incremental     bool          `json:"incremental" mapstructure:"incremental"`
	GenerateSitemap bool          `json:"generate_sitemap" mapstructure:"generate_sitemap"`
	GenerateRobots  bool          `json:"generate_robots" mapstructure:"generate_robots"`
	IncludeDrafts   bool          `json:"include_drafts" mapstructure:"include_drafts"`
	SlugifyPaths    bool          `json:"slugify_paths" mapstructure:"slugify_paths"`
	FailFast        bool          `json:"fail_fast" mapstructure:"fail_fast"`
	Workers         int           `json:"workers" mapstructure:"workers"`
	RenderTimeout   time.Duration `json:"render_timeout" mapstructure:"render_timeout"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `json:"provider" mapstructure:"provider"`
	Level     string   `json:"level" mapstructure:"level"`
	Format    string   `json:"format" mapstructure:"format"`
	AddSource bool     `json:"add_source" mapstructure:"add_source"`
	Focus     []string `json:"focus" mapstructure:"focus"`
}

// DefaultConfig returns the conventional site layout: content/, static/ and
// template.html in, docs/ out, served from the root path.
func DefaultConfig() Config {
	return Config{
		Markdown: MarkdownConfig{
			ContentDir: "content",
			Pattern:    "*.md",
			Recursive:  true,
			Engine:     EngineNative,
		},
		Generator: GeneratorConfig{
			OutputDir:    "docs",
			StaticDir:    "static",
			TemplatePath: "template.html",
			BasePath:     "/",
			CleanBuild:   true,
			CopyStatic:   true,
		},
		Logging: LoggingConfig{
			Provider: LoggingProviderConsole,
			Level:    "info",
		},
	}
}

// Validate checks cross-field consistency first, returning the matching
// sentinel, then field values. Every failure carries the validation category.
func (cfg Config) Validate() error {
	if err := cfg.validateLayout(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration").
			WithTextCode(textCodeConfigInvalid)
	}

	for _, section := range []validation.Validatable{cfg.Markdown, cfg.Generator, cfg.Logging} {
		if err := section.Validate(); err != nil {
			return goerrors.FromOzzoValidation(err, "invalid configuration").
				WithTextCode(textCodeConfigInvalid)
		}
	}
	return nil
}

func (cfg Config) validateLayout() error {
	content := strings.TrimSpace(cfg.Markdown.ContentDir)
	output := strings.TrimSpace(cfg.Generator.OutputDir)
	static := strings.TrimSpace(cfg.Generator.StaticDir)

	if content == "" {
		return ErrContentDirRequired
	}
	if output == "" {
		return ErrOutputDirRequired
	}
	if strings.TrimSpace(cfg.Generator.TemplatePath) == "" {
		return ErrTemplatePathRequired
	}
	if !belowWorkingDir(output) {
		return fmt.Errorf("%w: %s", ErrOutputDirUnsafe, output)
	}
	if samePath(output, content) || (static != "" && samePath(output, static)) {
		return fmt.Errorf("%w: %s", ErrOutputOverlapsContent, output)
	}
	if base := strings.TrimSpace(cfg.Generator.BasePath); base != "" && !strings.HasPrefix(base, "/") {
		return fmt.Errorf("%w: %s", ErrBasePathInvalid, base)
	}
	if cfg.Generator.GenerateSitemap && strings.TrimSpace(cfg.Generator.BaseURL) == "" {
		return ErrSitemapRequiresBaseURL
	}
	return nil
}

// Validate implements validation.Validatable.
func (m MarkdownConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Engine, validation.By(oneOf(EngineNative, EngineGoldmark))),
		validation.Field(&m.Pattern, validation.By(validGlob)),
	)
}

// Validate implements validation.Validatable.
func (g GeneratorConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Workers, validation.Min(0)),
		validation.Field(&g.RenderTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (l LoggingConfig) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&l.Provider, validation.By(oneOf(LoggingProviderConsole, LoggingProviderGoLogger))),
		validation.Field(&l.Level, validation.By(oneOf("trace", "debug", "info", "warn", "warning", "error", "fatal"))),
	}
	if normalize(l.Provider) == LoggingProviderGoLogger {
		rules = append(rules, validation.Field(&l.Format, validation.By(oneOf("json", "console", "pretty"))))
	}
	return validation.ValidateStruct(&l, rules...)
}

// oneOf accepts empty values and any of allowed, compared case-insensitively.
func oneOf(allowed ...string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		s = normalize(s)
		if s == "" {
			return nil
		}
		for _, candidate := range allowed {
			if s == candidate {
				return nil
			}
		}
		return validation.NewError("validation_unsupported_value",
			fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
	}
}

func validGlob(value any) error {
	pattern, _ := value.(string)
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return validation.NewError("validation_invalid_pattern", "must be a valid glob pattern")
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// belowWorkingDir mirrors the generator's clean guard: output is rebuilt
// with RemoveAll, so only relative paths strictly below "." are accepted.
func belowWorkingDir(dir string) bool {
	if filepath.IsAbs(dir) || filepath.VolumeName(dir) != "" {
		return false
	}
	cleaned := path.Clean(filepath.ToSlash(dir))
	return !path.IsAbs(cleaned) && cleaned != "." && cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
