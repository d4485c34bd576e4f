package generator

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

const (
	manifestFileName    = ".mdsite-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records the inputs of the last build so incremental runs can
// skip pages whose source, template and base path are unchanged.
type buildManifest struct {
	Version     int                     `json:"version"`
	BuildID     string                  `json:"build_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Pages       map[string]manifestPage `json:"-"`
}

type manifestPage struct {
	Source       string    `json:"source"`
	Output       string    `json:"output"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

// manifestFile is the on-disk shape: pages as a list sorted by source.
type manifestFile struct {
	Version     int            `json:"version"`
	BuildID     string         `json:"build_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Pages       []manifestPage `json:"pages"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
	}
}

func loadManifest(filesystem afero.Fs, target string) (*buildManifest, error) {
	data, err := afero.ReadFile(filesystem, target)
	if errors.Is(err, os.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "read manifest")
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (*buildManifest, error) {
	manifest := newBuildManifest()
	if len(data) == 0 {
		return manifest, nil
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse manifest")
	}
	if file.Version != 0 && file.Version != manifestFileVersion {
		// Unknown layout: start over rather than trust it.
		return manifest, nil
	}
	manifest.BuildID = file.BuildID
	manifest.GeneratedAt = file.GeneratedAt
	for _, page := range file.Pages {
		manifest.Pages[page.Source] = page
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	file := manifestFile{
		Version:     manifestFileVersion,
		BuildID:     m.BuildID,
		GeneratedAt: m.GeneratedAt,
		Pages:       make([]manifestPage, 0, len(m.Pages)),
	}
	for _, page := range m.Pages {
		file.Pages = append(file.Pages, page)
	}
	slices.SortFunc(file.Pages, func(a, b manifestPage) int {
		return strings.Compare(a.Source, b.Source)
	})
	return json.MarshalIndent(file, "", "  ")
}

func (m *buildManifest) shouldSkip(source, hash, output string) bool {
	entry, ok := m.Pages[source]
	return ok && entry.Hash == hash && entry.Output == output
}

func (m *buildManifest) set(entry manifestPage) {
	m.Pages[entry.Source] = entry
}

func (m *buildManifest) remove(source string) {
	delete(m.Pages, source)
}

// stale returns the entries whose sources are not in present.
func (m *buildManifest) stale(present map[string]struct{}) []manifestPage {
	var out []manifestPage
	for source, entry := range m.Pages {
		if _, ok := present[source]; !ok {
			out = append(out, entry)
		}
	}
	slices.SortFunc(out, func(a, b manifestPage) int { return strings.Compare(a.Source, b.Source) })
	return out
}

// pageHash identifies one rendering of a page: the source checksum plus
// every input that changes the output bytes.
func pageHash(sourceChecksum []byte, templateHash, basePath, engine string) string {
	h := blake3.New()
	_, _ = h.Write(sourceChecksum)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(templateHash))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(basePath))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(engine))
	return hex.EncodeToString(h.Sum(nil))
}

func computeHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
