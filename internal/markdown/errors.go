package markdown

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrNoHeadingFound is returned by ExtractTitle when no line starts with
	// "# ".
	ErrNoHeadingFound = errors.New("markdown: no level-one heading found")
	// ErrUnknownEngine is returned by NewParser for unsupported engine names.
	ErrUnknownEngine = errors.New("markdown: unknown engine")
	// ErrDocumentNil is returned when a nil document is passed for rendering.
	ErrDocumentNil = errors.New("markdown: document is nil")
)

const (
	textCodeNoHeading     = "MARKDOWN_NO_HEADING"
	textCodeUnknownEngine = "MARKDOWN_UNKNOWN_ENGINE"
	textCodeFrontMatter   = "MARKDOWN_FRONT_MATTER"
	textCodeRender        = "MARKDOWN_RENDER_FAILED"
	textCodeRead          = "MARKDOWN_READ_FAILED"
)

func noHeadingError(path string) error {
	msg := "document has no title heading"
	if path != "" {
		msg = fmt.Sprintf("%s has no title heading", path)
	}
	return goerrors.Wrap(ErrNoHeadingFound, goerrors.CategoryNotFound, msg).
		WithTextCode(textCodeNoHeading)
}

func renderError(err error, path string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, fmt.Sprintf("render %s", path)).
		WithTextCode(textCodeRender).
		WithMetadata(map[string]any{"path": path})
}

func readError(err error, path string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("read %s", path)).
		WithTextCode(textCodeRead).
		WithMetadata(map[string]any{"path": path})
}
