package generator

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestManifestRoundTripKeepsPages(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	manifest := newBuildManifest()
	manifest.BuildID = "b-1"
	manifest.GeneratedAt = now
	manifest.set(manifestPage{Source: "index.md", Output: "index.html", Hash: "h1", RenderedAt: now})
	manifest.set(manifestPage{Source: "blog/majesty.md", Output: "blog/majesty/index.html", Hash: "h2", RenderedAt: now})

	data, err := manifest.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "docs/"+manifestFileName, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := loadManifest(fs, "docs/"+manifestFileName)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.BuildID != "b-1" || !loaded.GeneratedAt.Equal(now) {
		t.Fatalf("unexpected header %+v", loaded)
	}
	if !loaded.shouldSkip("index.md", "h1", "index.html") {
		t.Fatal("expected unchanged page to be skipped")
	}
	if loaded.shouldSkip("index.md", "other", "index.html") {
		t.Fatal("expected changed hash to render")
	}
	if loaded.shouldSkip("index.md", "h1", "home/index.html") {
		t.Fatal("expected moved output to render")
	}
	if loaded.shouldSkip("about.md", "h1", "about/index.html") {
		t.Fatal("expected unknown page to render")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	manifest, err := loadManifest(afero.NewMemMapFs(), "docs/"+manifestFileName)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(manifest.Pages) != 0 || manifest.Version != manifestFileVersion {
		t.Fatalf("expected empty manifest, got %+v", manifest)
	}
}

func TestParseManifestUnknownVersionStartsOver(t *testing.T) {
	manifest, err := parseManifest([]byte(`{"version": 99, "pages": [{"source": "index.md", "hash": "h"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(manifest.Pages) != 0 {
		t.Fatalf("expected pages to be discarded, got %d", len(manifest.Pages))
	}
}

func TestParseManifestRejectsGarbage(t *testing.T) {
	if _, err := parseManifest([]byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestManifestStale(t *testing.T) {
	manifest := newBuildManifest()
	manifest.set(manifestPage{Source: "index.md", Output: "index.html"})
	manifest.set(manifestPage{Source: "old.md", Output: "old/index.html"})
	manifest.set(manifestPage{Source: "a.md", Output: "a/index.html"})

	stale := manifest.stale(map[string]struct{}{"index.md": {}})
	if len(stale) != 2 || stale[0].Source != "a.md" || stale[1].Source != "old.md" {
		t.Fatalf("unexpected stale entries %+v", stale)
	}
}

func TestPageHashTracksInputs(t *testing.T) {
	base := pageHash([]byte("sum"), "tmpl", "/", "native")
	if base != pageHash([]byte("sum"), "tmpl", "/", "native") {
		t.Fatal("expected stable hash")
	}
	variants := []string{
		pageHash([]byte("sum2"), "tmpl", "/", "native"),
		pageHash([]byte("sum"), "tmpl2", "/", "native"),
		pageHash([]byte("sum"), "tmpl", "/site/", "native"),
		pageHash([]byte("sum"), "tmpl", "/", "goldmark"),
	}
	for i, variant := range variants {
		if variant == base {
			t.Fatalf("variant %d should change the hash", i)
		}
	}
}
