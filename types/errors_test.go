package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		wantClass ErrorClass
	}{
		{name: "invalid amount", code: ErrorCodeInvalidAmount, wantClass: ClassValidation},
		{name: "invalid recipient", code: ErrorCodeInvalidRecipient, wantClass: ClassValidation},
		{name: "invalid signature", code: ErrorCodeInvalidSignature, wantClass: ClassValidation},
		{name: "authority not connected", code: ErrorCodeAuthorityNotConnected, wantClass: ClassAuthority},
		{name: "signing unsupported", code: ErrorCodeSigningUnsupported, wantClass: ClassAuthority},
		{name: "network unavailable", code: ErrorCodeNetworkUnavailable, wantClass: ClassNetwork},
		{name: "broadcast rejected", code: ErrorCodeBroadcastRejected, wantClass: ClassNetwork},
		{name: "integrity violation", code: ErrorCodeSignatureIntegrityViolation, wantClass: ClassProtocolInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, "detail", nil)
			if err.Class != tt.wantClass {
				t.Errorf("expected class %s, got %s", tt.wantClass, err.Class)
			}
			if err.UserMessage == "" {
				t.Error("expected user message")
			}
			if err.TraceID == "" {
				t.Error("expected trace id")
			}
			if err.Timestamp == "" {
				t.Error("expected timestamp")
			}
		})
	}
}

func TestWalletError_Is(t *testing.T) {
	err := fmt.Errorf("stamp failed: %w", NewError(ErrorCodeNetworkUnavailable, "dial tcp", nil))

	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Error("expected wrapped error to match ErrNetworkUnavailable")
	}
	if errors.Is(err, ErrBroadcastRejected) {
		t.Error("did not expect match with ErrBroadcastRejected")
	}
	if ClassOf(err) != ClassNetwork {
		t.Errorf("expected network class, got %s", ClassOf(err))
	}
	if !IsRetryable(err) {
		t.Error("network errors should be retryable")
	}
}

func TestWalletError_Unwrap(t *testing.T) {
	cause := errors.New("user declined")
	err := NewError(ErrorCodeSigningRejected, "", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "user declined") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if IsRetryable(err) {
		t.Error("authority errors are not retryable")
	}
}

func TestClassOf_PlainError(t *testing.T) {
	if ClassOf(errors.New("boom")) != "" {
		t.Error("expected empty class for plain error")
	}
	if CodeOf(nil) != "" {
		t.Error("expected empty code for nil error")
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(ErrorCodeBroadcastRejected, "reason: %s", "Blockhash not found")
	if err.Detail != "reason: Blockhash not found" {
		t.Errorf("unexpected detail %q", err.Detail)
	}
	if CodeOf(err) != ErrorCodeBroadcastRejected {
		t.Errorf("unexpected code %s", CodeOf(err))
	}
}
