package domain

import "errors"

var (
	// ErrParse reports an unreadable or corrupt document.
	ErrParse = errors.New("document could not be parsed")
	// ErrUnsupportedFile reports an upload that is not a PDF.
	ErrUnsupportedFile = errors.New("only PDF documents are supported")
	// ErrEmbeddingService reports a failure of the external embedding service.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrCompletionService reports a failure of the external completion service.
	ErrCompletionService = errors.New("completion service error")
	// ErrEmptyQuery reports a blank question.
	ErrEmptyQuery = errors.New("query is empty")
)

// Retryable reports whether err came from an external service and may succeed if repeated.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingService) || errors.Is(err, ErrCompletionService)
}
