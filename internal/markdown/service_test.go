package markdown

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/zeebo/blake3"

	"github.com/goliatone/go-mdsite/internal/markup"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

func testFS() fstest.MapFS {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	file := func(body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(body), ModTime: modified}
	}
	return fstest.MapFS{
		"index.md":           file("# Home\n\nWelcome **in**."),
		"about.md":           file("---\ntitle: About us\n---\nNo heading here."),
		"notes.txt":          file("# Not markdown"),
		"blog/post.md":       file("# Post\n\n- one\n- two"),
		"blog/drafts/wip.md": file("---\ndraft: true\n---\n# WIP"),
		"broken.md":          file("# Broken\n\nopen **bold"),
	}
}

func newTestService(tb testing.TB, filesystem fstest.MapFS, recursive bool) *Service {
	tb.Helper()
	svc, err := NewService(filesystem, Config{Pattern: "*.md", Recursive: recursive})
	if err != nil {
		tb.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestServiceLoad(t *testing.T) {
	filesystem := testFS()
	svc := newTestService(t, filesystem, true)

	doc, err := svc.Load(context.Background(), "/index.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.FilePath != "index.md" {
		t.Fatalf("expected cleaned path, got %q", doc.FilePath)
	}
	if got := string(doc.BodyHTML); got != "<div><h1>Home</h1><p>Welcome <b>in</b>.</p></div>" {
		t.Fatalf("unexpected html %q", got)
	}
	sum := blake3.Sum256(filesystem["index.md"].Data)
	if !bytes.Equal(doc.Checksum, sum[:]) {
		t.Fatalf("expected blake3 checksum, got %x", doc.Checksum)
	}
	if doc.Size != int64(len(filesystem["index.md"].Data)) {
		t.Fatalf("unexpected size %d", doc.Size)
	}
}

func TestServiceLoadLazy(t *testing.T) {
	svc := newTestService(t, testFS(), true)

	doc, err := svc.Load(context.Background(), "broken.md", interfaces.LoadOptions{Lazy: true})
	if err != nil {
		t.Fatalf("lazy load should not render: %v", err)
	}
	if len(doc.BodyHTML) != 0 {
		t.Fatalf("expected empty BodyHTML, got %q", doc.BodyHTML)
	}

	_, err = svc.RenderDocument(context.Background(), doc, interfaces.ParseOptions{})
	if !errors.Is(err, markup.ErrUnbalancedDelimiter) {
		t.Fatalf("expected ErrUnbalancedDelimiter, got %v", err)
	}
	if delimiter, ok := markup.DelimiterOf(err); !ok || delimiter != "**" {
		t.Fatalf("DelimiterOf = %q, %v", delimiter, ok)
	}
}

func TestServiceLoadMissingFile(t *testing.T) {
	svc := newTestService(t, testFS(), true)
	if _, err := svc.Load(context.Background(), "missing.md", interfaces.LoadOptions{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestServiceLoadDirectory(t *testing.T) {
	svc := newTestService(t, testFS(), true)

	docs, err := svc.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{Lazy: true})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	want := []string{"about.md", "blog/drafts/wip.md", "blog/post.md", "broken.md", "index.md"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i, doc := range docs {
		if doc.FilePath != want[i] {
			t.Fatalf("document %d = %s, want %s", i, doc.FilePath, want[i])
		}
	}
	if !docs[1].FrontMatter.Draft {
		t.Fatal("expected draft front matter on blog/drafts/wip.md")
	}
}

func TestServiceLoadDirectoryRendersEagerly(t *testing.T) {
	filesystem := testFS()
	delete(filesystem, "broken.md")
	svc := newTestService(t, filesystem, true)

	docs, err := svc.LoadDirectory(context.Background(), "blog", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	for _, doc := range docs {
		if len(doc.BodyHTML) == 0 {
			t.Fatalf("expected BodyHTML for %s", doc.FilePath)
		}
	}
}

func TestServiceLoadDirectory_NonRecursiveOverride(t *testing.T) {
	svc := newTestService(t, testFS(), true)

	no := false
	docs, err := svc.LoadDirectory(context.Background(), "blog", interfaces.LoadOptions{
		Recursive: &no,
		Lazy:      true,
	})
	if err != nil {
		t.Fatalf("LoadDirectory override: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "blog/post.md" {
		t.Fatalf("expected only blog/post.md, got %d documents", len(docs))
	}
}

func TestServiceLoadDirectory_PatternOverride(t *testing.T) {
	svc := newTestService(t, testFS(), true)

	docs, err := svc.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{
		Pattern: "*.txt",
		Lazy:    true,
	})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "notes.txt" {
		t.Fatalf("expected notes.txt only, got %d documents", len(docs))
	}
}

func TestServiceLoadDirectoryCancelled(t *testing.T) {
	svc := newTestService(t, testFS(), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.LoadDirectory(ctx, ".", interfaces.LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestServiceTitle(t *testing.T) {
	svc := newTestService(t, testFS(), true)
	ctx := context.Background()

	doc, err := svc.Load(ctx, "index.md", interfaces.LoadOptions{Lazy: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if title, err := svc.Title(doc); err != nil || title != "Home" {
		t.Fatalf("Title = %q, %v", title, err)
	}

	about, err := svc.Load(ctx, "about.md", interfaces.LoadOptions{Lazy: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if title, err := svc.Title(about); err != nil || title != "About us" {
		t.Fatalf("expected front matter fallback, got %q, %v", title, err)
	}

	about.FrontMatter.Title = ""
	if _, err := svc.Title(about); !errors.Is(err, ErrNoHeadingFound) {
		t.Fatalf("expected ErrNoHeadingFound, got %v", err)
	}
}

func TestServiceRenderWithGoldmarkEngine(t *testing.T) {
	svc, err := NewService(testFS(), Config{Engine: EngineGoldmark})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	html, err := svc.Render(context.Background(), []byte("open **bold"), interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("goldmark should accept unbalanced emphasis: %v", err)
	}
	if len(html) == 0 {
		t.Fatal("expected html output")
	}
}

func TestServiceRenderDocumentNil(t *testing.T) {
	svc := newTestService(t, testFS(), true)
	if _, err := svc.RenderDocument(context.Background(), nil, interfaces.ParseOptions{}); !errors.Is(err, ErrDocumentNil) {
		t.Fatalf("expected ErrDocumentNil, got %v", err)
	}
}
