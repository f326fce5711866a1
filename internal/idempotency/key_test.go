package idempotency

import (
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "uuid-shaped key", input: "7f6c3a2e-4b8d-4f1a-9c0e-2d5b8a7f6c3a", wantErr: false},
		{name: "short key", input: "abc-123", wantErr: false},
		{name: "exactly 50 bytes", input: strings.Repeat("k", 50), wantErr: false},
		{name: "51 bytes", input: strings.Repeat("k", 51), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if key.String() != tt.input {
				t.Errorf("got %q, want %q", key.String(), tt.input)
			}
		})
	}
}
