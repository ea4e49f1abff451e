package services

import (
	"errors"
	"fmt"

	"github.com/notesphere/backend/repository"
)

// ErrNoteNotFound surfaces when an operation targets an unknown note id, or a
// note owned by somebody else. It is the repository sentinel so that
// errors.Is works regardless of which layer produced it.
var ErrNoteNotFound = repository.ErrNotFound

// ErrInvalidCallback reports a malformed or incomplete callback body from the
// analysis worker.
var ErrInvalidCallback = errors.New("invalid callback payload")

// ErrEmbeddingUnavailable reports that the synchronous embedding call failed
// or timed out. It surfaces to search callers only; the fire-and-forget
// enrichment path swallows its own transport errors.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// ValidationError reports rejected user input on create or edit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
