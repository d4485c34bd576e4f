package generator

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrTemplateMissing indicates the page template could not be read.
	ErrTemplateMissing = errors.New("generator: page template not found")
	// ErrUnsafeOutputDir guards Clean against removing anything that is not
	// a directory below the working directory.
	ErrUnsafeOutputDir = errors.New("generator: refusing to clean unsafe output directory")
	// ErrRenderTimeout is returned when a page exceeds the configured render
	// timeout.
	ErrRenderTimeout = errors.New("generator: page render timed out")
	// ErrInvalidSourcePath is returned for sources that cannot map to an
	// output path.
	ErrInvalidSourcePath = errors.New("generator: invalid source path")
)

const (
	textCodeTemplateMissing = "GENERATOR_TEMPLATE_MISSING"
	textCodeUnsafeOutput    = "GENERATOR_UNSAFE_OUTPUT_DIR"
	textCodeRenderTimeout   = "GENERATOR_RENDER_TIMEOUT"
	textCodeInvalidSource   = "GENERATOR_INVALID_SOURCE"
	textCodeWrite           = "GENERATOR_WRITE_FAILED"
	textCodePage            = "GENERATOR_PAGE_FAILED"
)

// pageError annotates a failure with the source document. Errors that
// already carry a category keep it.
func pageError(err error, source string) error {
	if err == nil {
		return nil
	}
	wrapped := goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("page %s", source)).
		WithMetadata(map[string]any{"source": source})
	if wrapped.TextCode == "" {
		wrapped = wrapped.WithTextCode(textCodePage)
	}
	return wrapped
}

func writeError(err error, target string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("write %s", target)).
		WithTextCode(textCodeWrite).
		WithMetadata(map[string]any{"path": target})
}

func templateError(err error, target string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %w", ErrTemplateMissing, err), goerrors.CategoryNotFound, target).
		WithTextCode(textCodeTemplateMissing).
		WithMetadata(map[string]any{"path": target})
}

func invalidSourceError(source string) error {
	return goerrors.Wrap(ErrInvalidSourcePath, goerrors.CategoryBadInput, source).
		WithTextCode(textCodeInvalidSource)
}
