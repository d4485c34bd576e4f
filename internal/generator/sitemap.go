package generator

import (
	"encoding/xml"
	"fmt"
	"slices"
	"strings"
	"time"
)

type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

// buildSitemap lists every page under baseURL joined with the base path.
func buildSitemap(baseURL, basePath string, pages []RenderedPage, fallback time.Time) string {
	root := siteRoot(baseURL, basePath)

	entries := make([]sitemapEntry, 0, len(pages))
	seen := map[string]struct{}{}
	for _, page := range pages {
		location := root + page.Route
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		lastMod := page.LastModified
		if lastMod.IsZero() {
			lastMod = fallback
		}
		entries = append(entries, sitemapEntry{Location: location, LastMod: lastMod})
	}
	slices.SortFunc(entries, func(a, b sitemapEntry) int {
		return strings.Compare(a.Location, b.Location)
	})

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		b.WriteString("  <url>\n    <loc>")
		_ = xml.EscapeText(&b, []byte(entry.Location))
		b.WriteString("</loc>\n")
		if !entry.LastMod.IsZero() {
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.RFC3339))
		}
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

func buildRobots(baseURL, basePath string, includeSitemap bool) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	if includeSitemap {
		fmt.Fprintf(&b, "\nSitemap: %ssitemap.xml\n", siteRoot(baseURL, basePath))
	}
	return b.String()
}

// siteRoot returns the absolute URL of the site root, ending with "/".
func siteRoot(baseURL, basePath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://localhost"
	}
	return base + NormalizeBasePath(basePath)
}
