package generator

import "strings"

// Template placeholders replaced by AssemblePage.
const (
	PlaceholderTitle   = "{{ Title }}"
	PlaceholderContent = "{{ Content }}"
)

// AssemblePage fills template with the page title and content HTML, then
// rewrites root-relative href and src attributes so the site can be served
// from basePath.
func AssemblePage(template, title, content, basePath string) string {
	page := strings.ReplaceAll(template, PlaceholderTitle, title)
	page = strings.ReplaceAll(page, PlaceholderContent, content)

	base := NormalizeBasePath(basePath)
	if base == "/" {
		return page
	}
	return strings.NewReplacer(
		`href="/`, `href="`+base,
		`src="/`, `src="`+base,
	).Replace(page)
}

// NormalizeBasePath returns basePath with a leading and trailing slash. An
// empty value means the root.
func NormalizeBasePath(basePath string) string {
	base := strings.TrimSpace(basePath)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
