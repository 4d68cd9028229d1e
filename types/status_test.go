package types

import (
	"encoding/json"
	"testing"
)

func TestConfirmationStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status ConfirmationStatus
		want   bool
	}{
		{name: "pending", status: Pending(), want: false},
		{name: "zero value", status: ConfirmationStatus{}, want: false},
		{name: "confirmed", status: Confirmed(), want: true},
		{name: "failed timeout", status: Failed(ReasonTimeout, ""), want: true},
		{name: "failed execution", status: Failed(ReasonTransactionError, "InsufficientFunds"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirmationStatus_String(t *testing.T) {
	if got := Failed(ReasonTimeout, "").String(); got != "failed(timeout)" {
		t.Errorf("unexpected %q", got)
	}
	if got := Failed(ReasonTransactionError, "boom").String(); got != "failed(transaction_error): boom" {
		t.Errorf("unexpected %q", got)
	}
	if got := Confirmed().String(); got != "confirmed" {
		t.Errorf("unexpected %q", got)
	}
}

func TestConfirmationStatus_JSON(t *testing.T) {
	data, err := json.Marshal(ConfirmationStatus{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"state":"pending"}` {
		t.Errorf("unexpected json %s", data)
	}

	var decoded ConfirmationStatus
	if err := json.Unmarshal([]byte(`{"state":"failed","reason":"timeout"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != Failed(ReasonTimeout, "") {
		t.Errorf("unexpected status %+v", decoded)
	}
}
