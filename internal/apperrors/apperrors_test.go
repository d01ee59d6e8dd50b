package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapKeepsBothEndsMatchable(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrSaveFailed, cause)

	if !errors.Is(err, ErrSaveFailed) {
		t.Errorf("expected wrapped error to match ErrSaveFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped error to match the cause, got %v", err)
	}
}

func TestPartialFailureIsDistinctFromSaveFailed(t *testing.T) {
	err := Wrap(ErrPartialFailure, fmt.Errorf("counter increment: %w", ErrUpdateFailed))

	if errors.Is(err, ErrSaveFailed) {
		t.Error("partial failure must not match SaveFailed")
	}
	if !errors.Is(err, ErrPartialFailure) {
		t.Error("expected ErrPartialFailure match")
	}
	if !errors.Is(err, ErrUpdateFailed) {
		t.Error("expected nested cause kind to stay matchable")
	}
}

func TestValidationCarriesReason(t *testing.T) {
	err := Validation("username already taken")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "username already taken") {
		t.Errorf("reason missing from message: %q", err.Error())
	}
}
