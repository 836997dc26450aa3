package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput is returned when neither text nor image was supplied.
	ErrNoInput = errors.New("no text or image input")
	// ErrUnsupportedInput is returned by embedders that lack a modality.
	ErrUnsupportedInput = errors.New("input modality not supported by embedder")
	// ErrDimensionMismatch is returned when vectors cannot be combined or do not fit the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// EmbeddingError reports a failure to produce a query vector. Op is the step that failed:
// "text", "image" or "fuse", or "input" when nothing could be embedded.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IsNoInput reports whether err is an EmbeddingError caused by missing input.
func IsNoInput(err error) bool {
	var ee *EmbeddingError
	return errors.As(err, &ee) && errors.Is(ee.Err, ErrNoInput)
}
