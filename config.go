package mdsite

import "github.com/goliatone/go-mdsite/internal/runtimeconfig"

var (
	ErrContentDirRequired     = runtimeconfig.ErrContentDirRequired
	ErrOutputDirRequired      = runtimeconfig.ErrOutputDirRequired
	ErrTemplatePathRequired   = runtimeconfig.ErrTemplatePathRequired
	ErrOutputOverlapsContent  = runtimeconfig.ErrOutputOverlapsContent
	ErrSitemapRequiresBaseURL = runtimeconfig.ErrSitemapRequiresBaseURL
	ErrBasePathInvalid        = runtimeconfig.ErrBasePathInvalid
	ErrOutputDirUnsafe        = runtimeconfig.ErrOutputDirUnsafe
)

type (
	Config               = runtimeconfig.Config
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
