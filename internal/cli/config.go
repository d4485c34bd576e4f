package cli

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
)

const (
	configName          = "mdsite"
	envPrefix           = "mdsite"
	configKeyAnnotation = "mdsite_config_key"

	textCodeConfigRead = "CONFIG_READ_FAILED"
)

// ConfigOption describes one configuration key, its default and meaning.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns every supported key seeded from
// runtimeconfig.DefaultConfig.
func GetConfigOptions() []ConfigOption {
	d := runtimeconfig.DefaultConfig()
	return []ConfigOption{
		{Key: "markdown.content_dir", Default: d.Markdown.ContentDir, Comment: "Directory holding the markdown sources"},
		{Key: "markdown.pattern", Default: d.Markdown.Pattern, Comment: "Glob matched against file names during discovery"},
		{Key: "markdown.recursive", Default: d.Markdown.Recursive, Comment: "Descend into sub-directories of content_dir"},
		{Key: "markdown.engine", Default: d.Markdown.Engine, Comment: "Converter: native or goldmark"},
		{Key: "markdown.parser.extensions", Default: []string{}, Comment: "Goldmark extensions (gfm, table, strikethrough, linkify, tasklist, typographer, footnote)"},
		{Key: "markdown.parser.hard_wraps", Default: d.Markdown.Parser.HardWraps, Comment: "Goldmark: render soft line breaks as <br>"},
		{Key: "markdown.parser.safe_mode", Default: d.Markdown.Parser.SafeMode, Comment: "Goldmark: drop raw HTML"},

		{Key: "generator.output_dir", Default: d.Generator.OutputDir, Comment: "Directory the site is written to"},
		{Key: "generator.static_dir", Default: d.Generator.StaticDir, Comment: "Directory copied verbatim into output_dir"},
		{Key: "generator.template_path", Default: d.Generator.TemplatePath, Comment: "Page template with {{ Title }} and {{ Content }} placeholders"},
		{Key: "generator.base_path", Default: d.Generator.BasePath, Comment: "URL prefix root-relative links are rewritten to"},
		{Key: "generator.base_url", Default: d.Generator.BaseURL, Comment: "Absolute site URL used by sitemap.xml and robots.txt"},
		{Key: "generator.clean_build", Default: d.Generator.CleanBuild, Comment: "Empty output_dir before a full build"},
		{Key: "generator.copy_static", Default: d.Generator.CopyStatic, Comment: "Copy static_dir into output_dir"},
		{Key: "generator.incremental", Default: d.Generator.Incremental, Comment: "Skip pages whose checksum matches the build manifest"},
		{Key: "generator.generate_sitemap", Default: d.Generator.GenerateSitemap, Comment: "Write sitemap.xml (requires base_url)"},
		{Key: "generator.generate_robots", Default: d.Generator.GenerateRobots, Comment: "Write robots.txt"},
		{Key: "generator.include_drafts", Default: d.Generator.IncludeDrafts, Comment: "Render documents marked draft in front matter"},
		{Key: "generator.slugify_paths", Default: d.Generator.SlugifyPaths, Comment: "Slugify output directory names"},
		{Key: "generator.fail_fast", Default: d.Generator.FailFast, Comment: "Stop the build on the first page error"},
		{Key: "generator.workers", Default: d.Generator.Workers, Comment: "Concurrent page renders; 0 uses the CPU count"},
		{Key: "generator.render_timeout", Default: d.Generator.RenderTimeout, Comment: "Per-page render deadline; 0 disables it"},

		{Key: "logging.provider", Default: d.Logging.Provider, Comment: "console or gologger"},
		{Key: "logging.level", Default: d.Logging.Level, Comment: "trace, debug, info, warn or error"},
		{Key: "logging.format", Default: d.Logging.Format, Comment: "gologger output: json, console or pretty"},
		{Key: "logging.add_source", Default: d.Logging.AddSource, Comment: "gologger: include caller information"},
		{Key: "logging.focus", Default: []string{}, Comment: "gologger: only emit entries for these logger names"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env < flags.
// Flags take part when they carry a config key annotation (see bindFlag).
// A missing mdsite.{yaml,toml,json} in the working directory is not an
// error; a missing file named through SetConfigFile is.
func Load(v *viper.Viper, flags *pflag.FlagSet) (runtimeconfig.Config, error) {
	var cfg runtimeconfig.Config

	explicit := v.ConfigFileUsed() != ""
	if !explicit {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "read config file").
				WithTextCode(textCodeConfigRead)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "decode configuration").
			WithTextCode(textCodeConfigRead)
	}
	return cfg, nil
}

// bindFlag marks flag name as an override for config key.
func bindFlag(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, configKeyAnnotation, []string{key})
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if err != nil || len(keys) == 0 {
			return
		}
		err = v.BindPFlag(keys[0], f)
	})
	return err
}
