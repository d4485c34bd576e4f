package generator

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryStatic   writeCategory = "static"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write routed through the artifact writer.
type writeFileRequest struct {
	Path     string
	Content  io.Reader
	Size     int64
	Category writeCategory
	Checksum string
}

// artifactWriter abstracts where generator outputs land.
type artifactWriter interface {
	EnsureDir(ctx context.Context, dir string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Remove(ctx context.Context, target string) error
}

func newArtifactWriter(filesystem afero.Fs, dryRun bool) artifactWriter {
	if filesystem == nil || dryRun {
		return noopWriter{}
	}
	return &fsWriter{fs: filesystem}
}

type fsWriter struct {
	fs afero.Fs
}

func (w *fsWriter) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return writeError(err, dir)
	}
	return nil
}

func (w *fsWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil || strings.TrimSpace(req.Path) == "" {
		return writeError(errors.New("write requires a path and content"), req.Path)
	}
	if err := w.EnsureDir(ctx, path.Dir(req.Path)); err != nil {
		return err
	}

	file, err := w.fs.OpenFile(req.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return writeError(err, req.Path)
	}
	if _, err := io.Copy(file, req.Content); err != nil {
		_ = file.Close()
		return writeError(err, req.Path)
	}
	if err := file.Close(); err != nil {
		return writeError(err, req.Path)
	}
	return nil
}

func (w *fsWriter) Remove(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.fs.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return writeError(err, target)
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (noopWriter) Remove(context.Context, string) error { return nil }
