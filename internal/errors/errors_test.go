package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewUsesRegisteredMessage(t *testing.T) {
	err := New(CodeNotFound, "")
	if err.Message() != "resource not found" {
		t.Fatalf("unexpected message: %q", err.Message())
	}
	if !strings.Contains(err.Error(), string(CodeNotFound)) {
		t.Fatalf("code missing from error text: %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeStorageFailure, cause, "save record")

	if !stdErrors.Is(err, cause) {
		t.Fatal("cause must be reachable through the chain")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("cause missing from error text: %q", err.Error())
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if CodeOf(wrapped) != CodeStorageFailure {
		t.Fatalf("code lost through wrapping: %s", CodeOf(wrapped))
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeNotFound, "decision record not found")
	other := New(CodeNotFound, "different message, same class")
	if !stdErrors.Is(other, sentinel) {
		t.Fatal("errors with the same code must match")
	}
	if stdErrors.Is(New(CodeTimeout, ""), sentinel) {
		t.Fatal("errors with different codes must not match")
	}
}

func TestRegisteredAttributes(t *testing.T) {
	const code Code = "ERRORS_TEST_CODE"
	Register(code, Attributes{
		Message:   "test failure",
		Severity:  SeverityCritical,
		Retryable: true,
		Alert:     true,
	})

	err := New(code, "")
	if !err.Retryable() || !err.ShouldAlert() || err.Severity() != SeverityCritical {
		t.Fatalf("registered attributes not applied: %+v", err)
	}
}

func TestOptionOverrides(t *testing.T) {
	err := New(CodeStorageFailure, "save failed",
		WithRetryable(false),
		WithAlert(false),
		WithSeverity(SeverityInfo),
		WithMetadata("table", "decision_records"),
	)
	if err.Retryable() || err.ShouldAlert() || err.Severity() != SeverityInfo {
		t.Fatalf("overrides not applied: %+v", err)
	}
	if err.Metadata()["table"] != "decision_records" {
		t.Fatalf("metadata not attached: %v", err.Metadata())
	}

	meta := err.Metadata()
	meta["table"] = "mutated"
	if err.Metadata()["table"] != "decision_records" {
		t.Fatal("Metadata must return a copy")
	}
}

func TestHelpersOnForeignErrors(t *testing.T) {
	plain := stdErrors.New("plain failure")
	if CodeOf(plain) != CodeUnknown {
		t.Fatalf("expected UNKNOWN for plain error, got %s", CodeOf(plain))
	}
	if MessageOf(plain) != "plain failure" {
		t.Fatalf("unexpected message: %q", MessageOf(plain))
	}
	if RetryableError(plain) || ShouldAlert(plain) {
		t.Fatal("plain errors carry no coded behaviour")
	}
	if CodeOf(nil) != CodeUnknown {
		t.Fatal("nil must map to UNKNOWN")
	}
	if MessageOf(nil) != "" {
		t.Fatal("nil must have no message")
	}
}

func TestAttributesOfUnknownCode(t *testing.T) {
	attr := AttributesOf("NEVER_REGISTERED")
	if attr.Severity != SeverityCritical {
		t.Fatalf("unknown codes must fall back to UNKNOWN attributes: %+v", attr)
	}
}
