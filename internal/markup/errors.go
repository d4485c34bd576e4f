package markup

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrUnbalancedDelimiter is returned when an inline delimiter opens a span
	// that is never closed within the same block.
	ErrUnbalancedDelimiter = errors.New("markup: unbalanced inline delimiter")
	// ErrMissingURL is returned when a link or image span carries no url.
	ErrMissingURL = errors.New("markup: span requires a url")
	// ErrInvalidSpanKind is returned for span kinds outside the known set.
	ErrInvalidSpanKind = errors.New("markup: invalid span kind")
	// ErrInvalidBlockKind is returned for block kinds outside the known set.
	ErrInvalidBlockKind = errors.New("markup: invalid block kind")
)

const (
	textCodeUnbalancedDelimiter = "MARKUP_UNBALANCED_DELIMITER"
	textCodeMissingURL          = "MARKUP_MISSING_URL"
	textCodeInvalidSpanKind     = "MARKUP_INVALID_SPAN_KIND"
	textCodeInvalidBlockKind    = "MARKUP_INVALID_BLOCK_KIND"

	metaDelimiter  = "delimiter"
	metaText       = "text"
	metaSpanKind   = "span_kind"
	metaBlockIndex = "block_index"
	metaBlockKind  = "block_kind"
)

func unbalancedDelimiterError(delimiter, text string) error {
	return goerrors.Wrap(ErrUnbalancedDelimiter, goerrors.CategoryBadInput,
		fmt.Sprintf("opening %q has no closing %q", delimiter, delimiter)).
		WithTextCode(textCodeUnbalancedDelimiter).
		WithMetadata(map[string]any{
			metaDelimiter: delimiter,
			metaText:      text,
		})
}

func missingURLError(span Span) error {
	return goerrors.Wrap(ErrMissingURL, goerrors.CategoryBadInput,
		fmt.Sprintf("%s span %q has no url", span.Kind, span.Text)).
		WithTextCode(textCodeMissingURL).
		WithMetadata(map[string]any{
			metaSpanKind: span.Kind.String(),
			metaText:     span.Text,
		})
}

func invalidSpanKindError(kind SpanKind) error {
	return goerrors.Wrap(ErrInvalidSpanKind, goerrors.CategoryBadInput,
		fmt.Sprintf("span kind %d", int(kind))).
		WithTextCode(textCodeInvalidSpanKind).
		WithMetadata(map[string]any{metaSpanKind: int(kind)})
}

func invalidBlockKindError(kind BlockKind) error {
	return goerrors.Wrap(ErrInvalidBlockKind, goerrors.CategoryBadInput,
		fmt.Sprintf("block kind %d", int(kind))).
		WithTextCode(textCodeInvalidBlockKind).
		WithMetadata(map[string]any{metaBlockKind: int(kind)})
}

// blockError annotates a conversion failure with the position and kind of
// the block that produced it. The sentinel chain is preserved.
func blockError(err error, index int, kind BlockKind) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryBadInput,
		fmt.Sprintf("block %d (%s)", index+1, kind)).
		WithMetadata(map[string]any{
			metaBlockIndex: index,
			metaBlockKind:  kind.String(),
		})
}

// DelimiterOf reports the delimiter attached to an unbalanced delimiter error.
func DelimiterOf(err error) (string, bool) {
	value, ok := metadataValue(err, metaDelimiter)
	if !ok {
		return "", false
	}
	delimiter, ok := value.(string)
	return delimiter, ok
}

// BlockIndexOf reports the zero-based index of the block a document
// conversion failed on.
func BlockIndexOf(err error) (int, bool) {
	value, ok := metadataValue(err, metaBlockIndex)
	if !ok {
		return 0, false
	}
	index, ok := value.(int)
	return index, ok
}

func metadataValue(err error, key string) (any, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return nil, false
	}
	value, ok := richErr.Metadata[key]
	return value, ok
}
