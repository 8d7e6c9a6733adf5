package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindConfiguration, "configuration"},
		{KindFormat, "format"},
		{KindDecode, "decode"},
		{KindIntegrity, "integrity"},
		{KindQuery, "query"},
		{KindResource, "resource"},
		{ErrorKind(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.kind.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestKindOf_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"missing file", ErrRequiredFileMissing, KindConfiguration},
		{"header", ErrInvalidHeader, KindFormat},
		{"unexpected column", ErrUnexpectedColumn, KindFormat},
		{"sctid", ErrInvalidSctID, KindDecode},
		{"boolean", ErrInvalidBoolean, KindDecode},
		{"cycle", ErrCycleDetected, KindIntegrity},
		{"unknown concept", ErrUnknownConcept, KindQuery},
		{"cancelled", ErrCancelled, KindResource},
		{"iteration cap", ErrIterationExceeded, KindResource},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			kind, ok := KindOf(test.err)
			if !ok {
				t.Fatalf("expected classification for %v", test.err)
			}
			if kind != test.kind {
				t.Errorf("expected %v, got %v", test.kind, kind)
			}
		})
	}
}

func TestKindOf_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("row 42: %w", ErrInvalidSctID)
	kind, ok := KindOf(err)
	if !ok || kind != KindDecode {
		t.Errorf("expected decode classification, got %v ok=%v", kind, ok)
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if _, ok := KindOf(errors.New("something else")); ok {
		t.Error("expected no classification for unknown error")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("expected no classification for nil")
	}
}

func TestWrapKind(t *testing.T) {
	base := errors.New("boom")
	err := WrapFormat(base, "Reader", "validateHeader", "header check")

	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatal("expected ClassifiedError")
	}
	if ce.Kind != KindFormat {
		t.Errorf("expected format kind, got %v", ce.Kind)
	}
	if ce.Component != "Reader" || ce.Operation != "validateHeader" {
		t.Errorf("unexpected origin: %s.%s", ce.Component, ce.Operation)
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match base via errors.Is")
	}

	expected := "Reader.validateHeader: header check failed: boom"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(nil, "c", "m", "a") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if WrapDecode(nil, "c", "m", "a") != nil {
		t.Error("WrapDecode(nil) should be nil")
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(ErrInvalidDate) {
		t.Error("decode errors are recoverable")
	}
	if !IsRecoverable(ErrDanglingReference) {
		t.Error("integrity errors are recoverable")
	}
	if IsRecoverable(ErrInvalidHeader) {
		t.Error("format errors abort loading")
	}
	if IsRecoverable(errors.New("unclassified")) {
		t.Error("unclassified errors abort loading")
	}
}
