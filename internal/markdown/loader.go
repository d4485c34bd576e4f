package markdown

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

const defaultPattern = "*.md"

// LoaderConfig configures how Markdown files are discovered.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the glob. Patterns
	// without a slash match the base name only.
	Pattern   string
	Recursive bool
}

// Loader turns paths within an fs.FS into parsed documents.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

// NewLoader constructs a Loader over filesystem. Paths passed to it are
// slash separated and relative to the filesystem root.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = defaultPattern
	}
	return &Loader{
		fs:        filesystem,
		pattern:   pattern,
		recursive: cfg.Recursive,
	}
}

// DocumentResult carries the parsed document along with the raw source.
type DocumentResult struct {
	Document *interfaces.Document
	Source   []byte
}

// LoadParams provide call-specific overrides for discovery.
type LoadParams struct {
	Pattern   string
	Recursive *bool
}

// LoadFile reads and parses a single Markdown document.
func (l *Loader) LoadFile(ctx context.Context, name string) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = cleanName(name)
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, readError(err, name)
	}
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, readError(err, name)
	}

	doc, err := BuildDocument(name, data, info.ModTime())
	if err != nil {
		return nil, err
	}
	sum := blake3.Sum256(data)
	doc.Checksum = sum[:]

	return &DocumentResult{Document: doc, Source: data}, nil
}

// LoadDirectory discovers Markdown files under dir and returns parsed
// documents sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := cleanName(dir)
	recursive := l.recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	pattern := l.pattern
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		pattern = trimmed
	}

	var results []*DocumentResult
	err := fs.WalkDir(l.fs, root, func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return readError(walkErr, name)
		}
		if d.IsDir() {
			if name != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !matchesPattern(name, pattern) {
			return nil
		}

		result, err := l.LoadFile(ctx, name)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Document.FilePath < results[j].Document.FilePath
	})
	return results, nil
}

func matchesPattern(name, pattern string) bool {
	pattern = strings.ReplaceAll(filepath.ToSlash(pattern), "**/", "")
	target := name
	if !strings.Contains(pattern, "/") {
		target = path.Base(name)
	}
	match, err := path.Match(pattern, target)
	return err == nil && match
}

// cleanName converts a user supplied path into an fs.FS name.
func cleanName(name string) string {
	name = path.Clean(filepath.ToSlash(strings.TrimSpace(name)))
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return name
}
