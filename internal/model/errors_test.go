package model

import (
	"errors"
	"testing"
)

func TestValidationError_MessageAndType(t *testing.T) {
	err := NewValidationError("content", "must not be empty")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "content" || ve.Reason != "must not be empty" {
		t.Fatalf("unexpected fields: %+v", ve)
	}
	if err.Error() != "validation error: content: must not be empty" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestNotFoundError_MessageIncludesKindAndID(t *testing.T) {
	err := NewNotFoundError("memory", "abc-123")
	if err.Error() != "memory not found: abc-123" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestBudgetExceeded_WrapsBudgetName(t *testing.T) {
	err := NewBudgetExceeded("max_active")
	var be *BudgetExceeded
	if !errors.As(err, &be) {
		t.Fatalf("expected *BudgetExceeded, got %T", err)
	}
	if be.Budget != "max_active" {
		t.Fatalf("unexpected budget: %s", be.Budget)
	}
}

func TestProviderError_MessageIncludesProvider(t *testing.T) {
	err := NewProviderError("openai", "rate limited")
	if err.Error() != "provider openai error: rate limited" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestTransactionError_MessageIncludesOp(t *testing.T) {
	err := NewTransactionError("commit", "context canceled")
	if err.Error() != "transaction error during commit: context canceled" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestSchemaError_MessageIncludesVersion(t *testing.T) {
	err := NewSchemaError("0003", "duplicate column")
	if err.Error() != "schema error applying version 0003: duplicate column" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
