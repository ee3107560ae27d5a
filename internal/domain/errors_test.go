package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestStageError_IsKindAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewStageError(StageBroadSearch, ErrStageTimeout, cause)

	if !errors.Is(err, ErrStageTimeout) {
		t.Error("expected errors.Is(err, ErrStageTimeout)")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is(err, context.DeadlineExceeded)")
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Error("timeout must be distinguishable from store unavailable")
	}
}

func TestStageError_Message(t *testing.T) {
	err := NewStageError(StageEmbed, ErrEmbeddingFailure, errors.New("connection refused"))
	want := "embed: embedding failure: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewStageError(StageAuthority, ErrFeatureDisabled, nil)
	if bare.Error() != "authority_rerank: feature disabled" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestStageError_As(t *testing.T) {
	err := fmt.Errorf("search: %w", NewStageError(StageHierarchical, ErrStoreUnavailable, errors.New("pool closed")))

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to find StageError")
	}
	if se.Stage != StageHierarchical {
		t.Errorf("Stage = %q", se.Stage)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"stage error", NewStageError(StageEmbed, ErrEmbeddingFailure, nil), ErrEmbeddingFailure},
		{"wrapped sentinel", fmt.Errorf("bad limit: %w", ErrValidation), ErrValidation},
		{"plain", errors.New("boom"), nil},
		{"nil", nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want { //nolint:errorlint // comparing sentinels
				t.Errorf("KindOf() = %v, want %v", got, tc.want)
			}
		})
	}
}
