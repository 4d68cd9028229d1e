package utils

import (
	"errors"
	"testing"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

func TestParseSOL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{name: "one SOL", input: "1", want: LamportsPerSOL},
		{name: "fraction", input: "0.1", want: 100_000_000},
		{name: "one lamport", input: "0.000000001", want: 1},
		{name: "surrounding spaces", input: " 2.5 ", want: 2_500_000_000},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "too many decimals", input: "0.0000000001", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "overflow", input: "18446744074", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSOL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSOL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, types.ErrInvalidAmount) {
					t.Errorf("expected INVALID_AMOUNT, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseSOL(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSOL(t *testing.T) {
	tests := []struct {
		lamports uint64
		want     string
	}{
		{lamports: 0, want: "0.0000"},
		{lamports: LamportsPerSOL, want: "1.0000"},
		{lamports: 1_234_500_000, want: "1.2345"},
		{lamports: 100_000, want: "0.0001"},
	}

	for _, tt := range tests {
		if got := FormatSOL(tt.lamports); got != tt.want {
			t.Errorf("FormatSOL(%d) = %q, want %q", tt.lamports, got, tt.want)
		}
	}

	if got := FormatSOLExact(1); got != "0.000000001" {
		t.Errorf("FormatSOLExact(1) = %q", got)
	}
}
