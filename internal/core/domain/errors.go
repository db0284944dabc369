package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates a wrong operator key
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a required AI service is not configured or unreachable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrStoreUnavailable indicates the document store could not be reached
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrQuery indicates the document store rejected a query
	ErrQuery = errors.New("query rejected")

	// ErrDocumentNotFound indicates a single-document lookup failed
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyDocument indicates a document has no usable content
	ErrEmptyDocument = errors.New("document is empty")

	// ErrLanguageModel indicates the language model gateway failed
	ErrLanguageModel = errors.New("language model error")

	// ErrIndexingPipeline indicates a reindex run stopped on a failure
	ErrIndexingPipeline = errors.New("indexing pipeline error")

	// ErrReindexInProgress indicates another run holds the collection
	ErrReindexInProgress = errors.New("reindex already in progress")
)

// RetrievalError reports a failed search against one collection
type RetrievalError struct {
	Collection string
	Mode       SearchMode
	Err        error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s search on %q: %v", e.Mode, e.Collection, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// DocumentError reports a single-document flow failure.
// Kind is ErrDocumentNotFound or ErrEmptyDocument.
type DocumentError struct {
	Kind       error
	Collection string
	ID         string
	Err        error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s/%s: %v", e.Kind, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%v: %s/%s", e.Kind, e.Collection, e.ID)
}

func (e *DocumentError) Is(target error) bool {
	return target == e.Kind
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// GenerationError wraps a gateway failure
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%v (model %s): %v", ErrLanguageModel, e.Model, e.Err)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrLanguageModel
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Pipeline stages reported by PipelineError
const (
	StageScan  = "scan"
	StageEmbed = "embed"
	StageWrite = "write"
)

// PipelineError reports where a reindex run stopped.
// Pages written before the failure stay valid.
type PipelineError struct {
	Collection string
	Stage      string
	Processed  int
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%v: %s stage on %q after %d documents: %v",
		ErrIndexingPipeline, e.Stage, e.Collection, e.Processed, e.Err)
}

func (e *PipelineError) Is(target error) bool {
	return target == ErrIndexingPipeline
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
