package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeValidation, "metadata must include a title"),
			want: "VALIDATION_FAILED: metadata must include a title",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, fmt.Errorf("connection refused"), "failed to fetch %q", "base.yaml"),
			want: `NETWORK_ERROR: failed to fetch "base.yaml": connection refused`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeTemplateCycle, "cyclic extends chain")
	if !Is(err, ErrCodeTemplateCycle) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeValidation) {
		t.Error("Is() should not match a different code")
	}
	if Is(fmt.Errorf("plain error"), ErrCodeValidation) {
		t.Error("Is() should not match a plain error")
	}

	// Code survives wrapping with %w.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeTemplateCycle) {
		t.Error("Is() should unwrap wrapped errors")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNotFound, "missing")); got != ErrCodeNotFound {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeNotFound)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeValidation, "structure is required")
	if got := UserMessage(err); got != "structure is required" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(fmt.Errorf("boom")); got != "boom" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestConversionError(t *testing.T) {
	err := NewConversionError("html", "structure.div.children[2]", "style value is %T, expected string", []string{"a"})
	msg := err.Error()

	for _, want := range []string{"CONVERSION_FAILED", "manifest -> html", "structure.div.children[2]", "expected string"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestAsConversion(t *testing.T) {
	orig := NewConversionError("php", "structure", "bad node")
	if got := AsConversion(orig, "html"); got != orig {
		t.Error("AsConversion() should pass existing ConversionErrors through")
	}

	plain := fmt.Errorf("unexpected shape")
	ce := AsConversion(plain, "vue")
	if ce.TargetFormat != "vue" {
		t.Errorf("TargetFormat = %q, want vue", ce.TargetFormat)
	}
	if !stderrors.Is(ce, plain) {
		t.Error("AsConversion() should wrap the original error")
	}
}
