package generator

import (
	"path"
	"strings"

	"github.com/goliatone/go-slug"
)

const indexName = "index"

// OutputPath maps a source document path, relative to the content root, to
// its output file: "dir/index.md" becomes "dir/index.html" and
// "dir/name.md" becomes "dir/name/index.html". With slugify set every
// segment is normalised into a URL slug.
func OutputPath(source string, slugify bool) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(source))
	if clean == "/" || strings.HasSuffix(source, "/") {
		return "", invalidSourceError(source)
	}

	dir, file := path.Split(strings.TrimPrefix(clean, "/"))
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == "" {
		return "", invalidSourceError(source)
	}

	segments := splitSegments(dir)
	if name != indexName {
		segments = append(segments, name)
	}
	if slugify {
		for i, segment := range segments {
			normalized, err := slug.Normalize(segment)
			if err != nil || normalized == "" {
				return "", invalidSourceError(source)
			}
			segments[i] = normalized
		}
	}
	return path.Join(append(segments, "index.html")...), nil
}

// RouteFor returns the URL path, relative to the base path, that serves an
// output file: "blog/post/index.html" becomes "blog/post/".
func RouteFor(output string) string {
	dir := path.Dir(output)
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.TrimPrefix(dir, "/") + "/"
}

func splitSegments(dir string) []string {
	var segments []string
	for _, segment := range strings.Split(dir, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func joinOutputPath(base, rel string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "." {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(base, rel)
}
