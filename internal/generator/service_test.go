package generator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/afero"

	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/markup"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

var buildTime = time.Date(2024, 2, 5, 14, 30, 0, 0, time.UTC)

func siteFixture() map[string]string {
	return map[string]string{
		"template.html":           testTemplate,
		"content/index.md":        "# Tolkien Fan Club\n\n**I like Tolkien**. Read my [first post here](/blog/majesty)\n",
		"content/blog/majesty.md": "# The Majesty\n\n> All that is gold does not glitter\n\n- Gandalf\n- Bilbo\n",
		"content/drafts/wip.md":   "---\ndraft: true\n---\n# Work in progress\n",
		"static/index.css":        "body { color: black; }\n",
		"static/images/logo.png":  "png",
	}
}

func newSiteFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		writeSiteFile(t, fs, name, body)
	}
	return fs
}

func writeSiteFile(t *testing.T, fs afero.Fs, name, body string) {
	t.Helper()
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testConfig() Config {
	return Config{
		OutputDir:    "docs",
		StaticDir:    "static",
		TemplatePath: "template.html",
		BasePath:     "/",
		Engine:       "native",
		CleanBuild:   true,
		CopyStatic:   true,
		Workers:      2,
	}
}

func newTestService(t *testing.T, fs afero.Fs, cfg Config) *Service {
	t.Helper()
	md, err := markdown.NewService(afero.NewIOFS(afero.NewBasePathFs(fs, "content")), markdown.Config{
		Pattern:   "*.md",
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("markdown service: %v", err)
	}
	return NewService(fs, md, cfg, WithClock(func() time.Time { return buildTime }))
}

func readDocument(t *testing.T, fs afero.Fs, name string) *goquery.Document {
	t.Helper()
	file, err := fs.Open(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer file.Close()
	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return doc
}

func assertExists(t *testing.T, fs afero.Fs, name string, want bool) {
	t.Helper()
	ok, err := afero.Exists(fs, name)
	if err != nil {
		t.Fatalf("stat %s: %v", name, err)
	}
	if ok != want {
		t.Fatalf("expected exists(%s) = %v", name, want)
	}
}

func TestBuildWritesSite(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	writeSiteFile(t, fs, "docs/leftover.html", "old")
	svc := newTestService(t, fs, testConfig())

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.BuildID == "" {
		t.Fatal("expected build id")
	}
	if result.PagesBuilt != 2 || result.DraftsSkipped != 1 || result.PagesFailed != 0 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.StaticFiles != 2 {
		t.Fatalf("expected 2 static files, got %d", result.StaticFiles)
	}
	if result.BytesWritten == 0 {
		t.Fatal("expected bytes written")
	}
	if len(result.Rendered) != 2 || result.Rendered[0].Source != "blog/majesty.md" || result.Rendered[1].Source != "index.md" {
		t.Fatalf("unexpected rendered pages %+v", result.Rendered)
	}
	if len(result.Diagnostics) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(result.Diagnostics))
	}

	assertExists(t, fs, "docs/leftover.html", false)
	assertExists(t, fs, "docs/drafts/wip/index.html", false)
	assertExists(t, fs, "docs/index.css", true)
	assertExists(t, fs, "docs/images/logo.png", true)
	assertExists(t, fs, "docs/"+manifestFileName, true)
	assertExists(t, fs, "docs/"+sitemapFileName, false)

	home := readDocument(t, fs, "docs/index.html")
	if title := home.Find("title").Text(); title != "Tolkien Fan Club" {
		t.Fatalf("unexpected title %q", title)
	}
	if bold := home.Find("article b").Text(); bold != "I like Tolkien" {
		t.Fatalf("unexpected bold text %q", bold)
	}
	if href, _ := home.Find("article a").Attr("href"); href != "/blog/majesty" {
		t.Fatalf("unexpected link %q", href)
	}

	post := readDocument(t, fs, "docs/blog/majesty/index.html")
	if quote := post.Find("blockquote").Text(); quote != "All that is gold does not glitter" {
		t.Fatalf("unexpected quote %q", quote)
	}
	if items := post.Find("ul li").Length(); items != 2 {
		t.Fatalf("expected 2 list items, got %d", items)
	}
}

func TestBuildRewritesBasePath(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	svc := newTestService(t, fs, testConfig())

	if _, err := svc.Build(context.Background(), BuildOptions{BasePath: "/tolkien"}); err != nil {
		t.Fatalf("build: %v", err)
	}

	home := readDocument(t, fs, "docs/index.html")
	if href, _ := home.Find("link").Attr("href"); href != "/tolkien/index.css" {
		t.Fatalf("unexpected stylesheet href %q", href)
	}
	if href, _ := home.Find("article a").Attr("href"); href != "/tolkien/blog/majesty" {
		t.Fatalf("unexpected link %q", href)
	}
}

func TestBuildIncludesDrafts(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	cfg := testConfig()
	cfg.IncludeDrafts = true
	svc := newTestService(t, fs, cfg)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 3 || result.DraftsSkipped != 0 {
		t.Fatalf("unexpected counts %+v", result)
	}
	assertExists(t, fs, "docs/drafts/wip/index.html", true)
}

func TestBuildReportsFailedPagesAndContinues(t *testing.T) {
	files := siteFixture()
	files["content/broken.md"] = "# Broken\n\nthis **is unbalanced\n"
	fs := newSiteFs(t, files)
	svc := newTestService(t, fs, testConfig())

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err == nil {
		t.Fatal("expected build error")
	}
	if !errors.Is(err, markup.ErrUnbalancedDelimiter) {
		t.Fatalf("expected unbalanced delimiter error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
	if result.PagesBuilt != 2 || result.PagesFailed != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}

	var failed *RenderDiagnostic
	for i := range result.Diagnostics {
		if result.Diagnostics[i].Source == "broken.md" {
			failed = &result.Diagnostics[i]
		}
	}
	if failed == nil || failed.Err == nil {
		t.Fatalf("expected diagnostic for broken.md, got %+v", result.Diagnostics)
	}
	assertExists(t, fs, "docs/index.html", true)
	assertExists(t, fs, "docs/broken/index.html", false)

	data, readErr := afero.ReadFile(fs, "docs/"+manifestFileName)
	if readErr != nil {
		t.Fatalf("read manifest: %v", readErr)
	}
	manifest, parseErr := parseManifest(data)
	if parseErr != nil {
		t.Fatalf("parse manifest: %v", parseErr)
	}
	if _, ok := manifest.Pages["broken.md"]; ok {
		t.Fatal("failed page must not be recorded in the manifest")
	}
	if len(manifest.Pages) != 2 {
		t.Fatalf("expected 2 manifest pages, got %d", len(manifest.Pages))
	}
}

func TestBuildFailFastStopsBeforeArtifacts(t *testing.T) {
	files := siteFixture()
	files["content/broken.md"] = "# Broken\n\nthis **is unbalanced\n"
	fs := newSiteFs(t, files)
	cfg := testConfig()
	cfg.FailFast = true
	cfg.Workers = 1
	cfg.GenerateRobots = true
	svc := newTestService(t, fs, cfg)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, markup.ErrUnbalancedDelimiter) {
		t.Fatalf("expected unbalanced delimiter error, got %v", err)
	}
	if result.PagesFailed == 0 {
		t.Fatalf("expected a failed page, got %+v", result)
	}
	assertExists(t, fs, "docs/"+manifestFileName, false)
	assertExists(t, fs, "docs/"+robotsFileName, false)
}

func TestBuildIncrementalSkipsUnchangedPages(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	cfg := testConfig()
	cfg.Incremental = true
	svc := newTestService(t, fs, cfg)
	ctx := context.Background()

	first, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if first.PagesBuilt != 2 || first.PagesSkipped != 0 {
		t.Fatalf("unexpected first counts %+v", first)
	}

	second, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PagesBuilt != 0 || second.PagesSkipped != 2 || len(second.Rendered) != 0 {
		t.Fatalf("expected every page skipped, got %+v", second)
	}

	writeSiteFile(t, fs, "content/blog/majesty.md", "# The Majesty\n\nRewritten.\n")
	third, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.PagesBuilt != 1 || third.PagesSkipped != 1 {
		t.Fatalf("expected one rebuilt page, got %+v", third)
	}
	if third.Rendered[0].Source != "blog/majesty.md" {
		t.Fatalf("unexpected rebuilt page %s", third.Rendered[0].Source)
	}

	fourth, err := svc.Build(ctx, BuildOptions{BasePath: "/moved"})
	if err != nil {
		t.Fatalf("fourth build: %v", err)
	}
	if fourth.PagesBuilt != 2 {
		t.Fatalf("expected base path change to rebuild every page, got %+v", fourth)
	}
}

func TestBuildIncrementalRemovesStaleOutputs(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	cfg := testConfig()
	cfg.Incremental = true
	svc := newTestService(t, fs, cfg)
	ctx := context.Background()

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	assertExists(t, fs, "docs/blog/majesty/index.html", true)

	if err := fs.Remove("content/blog/majesty.md"); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesSkipped != 1 {
		t.Fatalf("expected the home page to be skipped, got %+v", result)
	}
	assertExists(t, fs, "docs/blog/majesty/index.html", false)
	assertExists(t, fs, "docs/index.html", true)
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	writeSiteFile(t, fs, "docs/leftover.html", "old")
	cfg := testConfig()
	cfg.GenerateSitemap = true
	cfg.BaseURL = "https://example.com"
	svc := newTestService(t, fs, cfg)

	result, err := svc.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !result.DryRun || result.PagesBuilt != 2 || result.BytesWritten != 0 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	if len(result.Rendered) != 2 || !strings.Contains(result.Rendered[1].HTML, "<title>Tolkien Fan Club</title>") {
		t.Fatalf("expected rendered html in result, got %+v", result.Rendered)
	}
	assertExists(t, fs, "docs/leftover.html", true)
	assertExists(t, fs, "docs/index.html", false)
	assertExists(t, fs, "docs/index.css", false)
	assertExists(t, fs, "docs/"+sitemapFileName, false)
}

func TestBuildWritesSitemapAndRobots(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	cfg := testConfig()
	cfg.GenerateSitemap = true
	cfg.GenerateRobots = true
	cfg.BaseURL = "https://example.com"
	cfg.BasePath = "/tolkien/"
	svc := newTestService(t, fs, cfg)

	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}

	sitemap, err := afero.ReadFile(fs, "docs/"+sitemapFileName)
	if err != nil {
		t.Fatalf("read sitemap: %v", err)
	}
	for _, loc := range []string{
		"<loc>https://example.com/tolkien/</loc>",
		"<loc>https://example.com/tolkien/blog/majesty/</loc>",
	} {
		if !strings.Contains(string(sitemap), loc) {
			t.Fatalf("expected %s in sitemap:\n%s", loc, sitemap)
		}
	}
	if strings.Contains(string(sitemap), "drafts") {
		t.Fatalf("drafts must not be listed:\n%s", sitemap)
	}

	robots, err := afero.ReadFile(fs, "docs/"+robotsFileName)
	if err != nil {
		t.Fatalf("read robots: %v", err)
	}
	if !strings.Contains(string(robots), "Sitemap: https://example.com/tolkien/sitemap.xml") {
		t.Fatalf("unexpected robots.txt:\n%s", robots)
	}
}

func TestBuildMissingTemplate(t *testing.T) {
	files := siteFixture()
	delete(files, "template.html")
	svc := newTestService(t, newSiteFs(t, files), testConfig())

	_, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
}

func TestBuildCancelledContext(t *testing.T) {
	svc := newTestService(t, newSiteFs(t, siteFixture()), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Build(ctx, BuildOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildPageRendersSingleDocument(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	svc := newTestService(t, fs, testConfig())

	page, err := svc.BuildPage(context.Background(), "drafts/wip.md")
	if err != nil {
		t.Fatalf("build page: %v", err)
	}
	if page.Output != "drafts/wip/index.html" || page.Route != "drafts/wip/" {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Title != "Work in progress" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	assertExists(t, fs, "docs/drafts/wip/index.html", true)
	assertExists(t, fs, "docs/index.html", false)
}

func TestCopyStatic(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	svc := newTestService(t, fs, testConfig())

	result, err := svc.CopyStatic(context.Background())
	if err != nil {
		t.Fatalf("copy static: %v", err)
	}
	if result.Files != 2 || result.Bytes != int64(len("body { color: black; }\n")+len("png")) {
		t.Fatalf("unexpected result %+v", result)
	}
	data, err := afero.ReadFile(fs, "docs/images/logo.png")
	if err != nil || string(data) != "png" {
		t.Fatalf("unexpected copy %q: %v", data, err)
	}
}

func TestCopyStaticMissingDirectory(t *testing.T) {
	files := siteFixture()
	delete(files, "static/index.css")
	delete(files, "static/images/logo.png")
	svc := newTestService(t, newSiteFs(t, files), testConfig())

	result, err := svc.CopyStatic(context.Background())
	if err != nil {
		t.Fatalf("copy static: %v", err)
	}
	if result.Files != 0 {
		t.Fatalf("expected nothing copied, got %+v", result)
	}
}

func TestCleanRefusesUnsafeDirectories(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	for _, dir := range []string{"", ".", "/", "..", "../elsewhere", "./"} {
		cfg := testConfig()
		cfg.OutputDir = dir
		svc := newTestService(t, fs, cfg)
		if err := svc.Clean(context.Background()); !errors.Is(err, ErrUnsafeOutputDir) {
			t.Fatalf("Clean(%q): expected ErrUnsafeOutputDir, got %v", dir, err)
		}
	}
	assertExists(t, fs, "content/index.md", true)
}

func TestCleanRefusesAbsoluteDirectories(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	writeSiteFile(t, fs, "/etc/passwd", "root:x:0:0")
	writeSiteFile(t, fs, "/home/user/notes.txt", "keep")

	for _, dir := range []string{"/etc", "/home/user", " /etc/ ", "/tmp/../etc"} {
		svc := NewService(fs, nil, Config{OutputDir: dir})
		err := svc.Clean(context.Background())
		if !errors.Is(err, ErrUnsafeOutputDir) {
			t.Fatalf("Clean(%q): expected ErrUnsafeOutputDir, got %v", dir, err)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
			t.Fatalf("Clean(%q): expected bad input category, got %v", dir, err)
		}
	}
	assertExists(t, fs, "/etc/passwd", true)
	assertExists(t, fs, "/home/user/notes.txt", true)
}

func TestIsCleanableOutputDir(t *testing.T) {
	tests := map[string]bool{
		"docs":         true,
		"./public/":    true,
		"site/../docs": true,
		"":             false,
		".":            false,
		"docs/..":      false,
		"../docs":      false,
		"/etc":         false,
		"/":            false,
	}
	for dir, want := range tests {
		if got := IsCleanableOutputDir(dir); got != want {
			t.Fatalf("IsCleanableOutputDir(%q) = %v, want %v", dir, got, want)
		}
	}
}

func TestCleanRecreatesOutputDirectory(t *testing.T) {
	fs := newSiteFs(t, siteFixture())
	writeSiteFile(t, fs, "docs/blog/old/index.html", "old")
	svc := newTestService(t, fs, testConfig())

	if err := svc.Clean(context.Background()); err != nil {
		t.Fatalf("clean: %v", err)
	}
	assertExists(t, fs, "docs/blog/old/index.html", false)
	ok, err := afero.DirExists(fs, "docs")
	if err != nil || !ok {
		t.Fatalf("expected docs directory to exist: %v", err)
	}
}

// stubMarkdown serves fixed documents and lets tests control rendering.
type stubMarkdown struct {
	docs   []*interfaces.Document
	render func(ctx context.Context, doc *interfaces.Document) ([]byte, error)
}

func (s *stubMarkdown) Load(_ context.Context, path string, _ interfaces.LoadOptions) (*interfaces.Document, error) {
	for _, doc := range s.docs {
		if doc.FilePath == path {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("missing %s", path)
}

func (s *stubMarkdown) LoadDirectory(context.Context, string, interfaces.LoadOptions) ([]*interfaces.Document, error) {
	return s.docs, nil
}

func (s *stubMarkdown) Render(context.Context, []byte, interfaces.ParseOptions) ([]byte, error) {
	return nil, errors.New("not used")
}

func (s *stubMarkdown) RenderDocument(ctx context.Context, doc *interfaces.Document, _ interfaces.ParseOptions) ([]byte, error) {
	return s.render(ctx, doc)
}

func (s *stubMarkdown) Title(doc *interfaces.Document) (string, error) {
	return doc.FilePath, nil
}

func stubDocuments(count int) []*interfaces.Document {
	docs := make([]*interfaces.Document, count)
	for i := range docs {
		docs[i] = &interfaces.Document{
			FilePath: fmt.Sprintf("page-%02d.md", i),
			Checksum: []byte{byte(i)},
		}
	}
	return docs
}

func TestBuildRendersWithWorkerPool(t *testing.T) {
	var (
		active  atomic.Int32
		peak    atomic.Int32
		mu      sync.Mutex
		renders int
	)
	stub := &stubMarkdown{
		docs: stubDocuments(8),
		render: func(ctx context.Context, doc *interfaces.Document) ([]byte, error) {
			current := active.Add(1)
			defer active.Add(-1)
			for {
				prev := peak.Load()
				if current <= prev || peak.CompareAndSwap(prev, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			renders++
			mu.Unlock()
			return []byte("<div></div>"), nil
		},
	}
	cfg := testConfig()
	cfg.Workers = 4
	svc := NewService(newSiteFs(t, siteFixture()), stub, cfg)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 8 || renders != 8 {
		t.Fatalf("expected 8 pages, got %d built and %d renders", result.PagesBuilt, renders)
	}
	if peak.Load() < 2 {
		t.Fatalf("expected concurrent rendering, peak was %d", peak.Load())
	}
	if peak.Load() > 4 {
		t.Fatalf("expected at most 4 workers, peak was %d", peak.Load())
	}
}

func TestBuildRenderTimeout(t *testing.T) {
	stub := &stubMarkdown{
		docs: stubDocuments(1),
		render: func(ctx context.Context, doc *interfaces.Document) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	cfg := testConfig()
	cfg.RenderTimeout = 10 * time.Millisecond
	svc := NewService(newSiteFs(t, siteFixture()), stub, cfg)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if result.PagesFailed != 1 {
		t.Fatalf("expected one failed page, got %+v", result)
	}
}

func TestBuildRequiresMarkdownService(t *testing.T) {
	svc := NewService(afero.NewMemMapFs(), nil, testConfig())
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrMarkdownServiceRequired) {
		t.Fatalf("expected ErrMarkdownServiceRequired, got %v", err)
	}
}
