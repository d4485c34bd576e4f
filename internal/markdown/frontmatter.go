package markdown

import (
	"bytes"
	"maps"
	"slices"
	"time"

	"github.com/adrg/frontmatter"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// ParseFrontMatter splits source into its YAML or TOML front matter and the
// Markdown body. Sources without front matter return an empty FrontMatter
// and the unchanged content.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse front matter").
			WithTextCode(textCodeFrontMatter)
	}

	return meta.frontMatter(), body, nil
}

// BuildDocument assembles a Document from a file path, its raw content and
// modification time. BodyHTML is left empty so callers can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, path).
			WithMetadata(map[string]any{"path": path})
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
		Size:         int64(len(source)),
	}, nil
}

type frontMatterEnvelope struct {
	Title    string         `yaml:"title" toml:"title"`
	Slug     string         `yaml:"slug" toml:"slug"`
	Summary  string         `yaml:"summary" toml:"summary"`
	Template string         `yaml:"template" toml:"template"`
	Tags     []string       `yaml:"tags" toml:"tags"`
	Author   string         `yaml:"author" toml:"author"`
	Date     time.Time      `yaml:"date" toml:"date"`
	Draft    bool           `yaml:"draft" toml:"draft"`
	Custom   map[string]any `yaml:",inline" toml:"-"`
}

func (env frontMatterEnvelope) frontMatter() interfaces.FrontMatter {
	custom := maps.Clone(env.Custom)
	if custom == nil {
		custom = map[string]any{}
	}

	raw := maps.Clone(custom)
	set := func(key string, value any, present bool) {
		if present {
			raw[key] = value
		}
	}
	set("title", env.Title, env.Title != "")
	set("slug", env.Slug, env.Slug != "")
	set("summary", env.Summary, env.Summary != "")
	set("template", env.Template, env.Template != "")
	set("tags", slices.Clone(env.Tags), len(env.Tags) > 0)
	set("author", env.Author, env.Author != "")
	set("date", env.Date, !env.Date.IsZero())
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:    env.Title,
		Slug:     env.Slug,
		Summary:  env.Summary,
		Template: env.Template,
		Tags:     slices.Clone(env.Tags),
		Author:   env.Author,
		Date:     env.Date,
		Draft:    env.Draft,
		Custom:   custom,
		Raw:      raw,
	}
}
