package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// StaticResult summarises a static tree copy.
type StaticResult struct {
	Files int
	Bytes int64
}

// copyTree copies every regular file under srcDir into dstDir, keeping the
// relative layout. A missing srcDir copies nothing.
func copyTree(ctx context.Context, filesystem afero.Fs, writer artifactWriter, srcDir, dstDir string) (StaticResult, error) {
	var result StaticResult

	exists, err := afero.DirExists(filesystem, srcDir)
	if err != nil {
		return result, writeError(err, srcDir)
	}
	if !exists {
		return result, nil
	}

	err = afero.Walk(filesystem, srcDir, func(name string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, name)
		if err != nil {
			return err
		}
		target := joinOutputPath(dstDir, filepath.ToSlash(rel))
		if info.IsDir() {
			return writer.EnsureDir(ctx, target)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		file, err := filesystem.Open(name)
		if err != nil {
			return err
		}
		writeErr := writer.WriteFile(ctx, writeFileRequest{
			Path:     target,
			Content:  file,
			Size:     info.Size(),
			Category: categoryStatic,
		})
		closeErr := file.Close()
		if err := errors.Join(writeErr, closeErr); err != nil {
			return err
		}
		result.Files++
		result.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return result, writeError(err, srcDir)
	}
	return result, nil
}
