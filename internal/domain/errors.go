package domain

import (
	"errors"
	"fmt"
)

// Error kinds of the ranking pipeline. Every request-level failure carries exactly one of them.
var (
	// ErrEmbeddingFailure signals that the query embedder is unreachable or errored.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrStoreUnavailable signals that the vector index or the chunk store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStageTimeout signals that a blocking stage exceeded its deadline.
	ErrStageTimeout = errors.New("stage timeout")
	// ErrFeatureDisabled signals a call into a module that is not configured.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrMalformedRecord signals a chunk store record that failed to decode.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrValidation signals request parameters outside of the allowed bounds.
	ErrValidation = errors.New("validation error")
)

// Stage names a step of the ranking pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageEmbed        Stage = "embed"
	StageBroadSearch  Stage = "broad_search"
	StageDedup        Stage = "dedup"
	StageHierarchical Stage = "hierarchical_rerank"
	StageAuthority    Stage = "authority_rerank"
)

// StageError attaches the failing stage and the error kind to the underlying cause.
// errors.Is matches both the kind sentinel and anything in the cause chain.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStageError builds a StageError for the given stage and kind.
func NewStageError(stage Stage, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// Kinds lists every error kind, most specific first.
var Kinds = []error{
	ErrValidation,
	ErrStageTimeout,
	ErrEmbeddingFailure,
	ErrStoreUnavailable,
	ErrFeatureDisabled,
	ErrMalformedRecord,
}

// KindOf returns the error kind carried by err, or nil if err carries none.
func KindOf(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	for _, k := range Kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
