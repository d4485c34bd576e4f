package sitecmd

import (
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-mdsite/internal/generator"
)

const (
	buildSiteMessageType = "mdsite.site.build"
	buildPageMessageType = "mdsite.site.build_page"
	diffSiteMessageType  = "mdsite.site.diff"
	cleanSiteMessageType = "mdsite.site.clean"
)

// ResultCallback receives the outcome of a generator operation. It is
// optional and invoked synchronously from the handler.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope carries whichever generator result the operation produced.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Page     *generator.RenderedPage
	Static   *generator.StaticResult
	Metadata map[string]any
}

// BuildSiteCommand runs a full generator build.
type BuildSiteCommand struct {
	// BasePath overrides the configured base path, e.g. "/repo/" when the
	// site is served from a sub-directory.
	BasePath string `json:"base_path,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
	// StaticOnly copies the static tree without rendering pages.
	StaticOnly     bool           `json:"static_only,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures the base path override is root-relative.
func (m BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BasePath, validation.By(validBasePath(buildSiteMessageType))),
	)
}

// BuildPageCommand renders a single source document.
type BuildPageCommand struct {
	// Source is relative to the content directory, e.g. "blog/post.md".
	Source         string         `json:"source"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildPageCommand) Type() string { return buildPageMessageType }

// Validate ensures the source stays inside the content directory.
func (m BuildPageCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Source, validation.Required, validation.By(func(value any) error {
			source := strings.TrimSpace(value.(string))
			if source == "" {
				return nil
			}
			clean := path.Clean(source)
			if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
				return validation.NewError(buildPageMessageType+".source_invalid", "source must be relative to the content directory")
			}
			return nil
		})),
	)
}

// DiffSiteCommand performs a dry-run build to report what would be written.
type DiffSiteCommand struct {
	BasePath       string         `json:"base_path,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (DiffSiteCommand) Type() string { return diffSiteMessageType }

// Validate ensures the base path override is root-relative.
func (m DiffSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BasePath, validation.By(validBasePath(diffSiteMessageType))),
	)
}

// CleanSiteCommand empties the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

func validBasePath(messageType string) validation.RuleFunc {
	return func(value any) error {
		basePath := strings.TrimSpace(value.(string))
		if basePath == "" || strings.HasPrefix(basePath, "/") {
			return nil
		}
		return validation.NewError(messageType+".base_path_invalid", "base_path must start with /")
	}
}
