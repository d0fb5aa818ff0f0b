package blobstore

import (
	"errors"
	"testing"
)

func Test_ValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid nested key", key: "documents/CS101/abc-123/notes.pdf", wantErr: false},
		{name: "empty key", key: "", wantErr: true},
		{name: "whitespace only", key: "   ", wantErr: true},
		{name: "leading slash", key: "/documents/notes.pdf", wantErr: true},
		{name: "double slash", key: "documents//notes.pdf", wantErr: true},
		{name: "parent traversal", key: "documents/../secrets.pdf", wantErr: true},
		{name: "trailing parent traversal", key: "documents/..", wantErr: true},
		{name: "disallowed character", key: "documents/notes?.pdf", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateKey(tt.key)
			if tt.wantErr && err == nil {
				t.Fatalf("ValidateKey(%q): expected error, got nil", tt.key)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("ValidateKey(%q): expected ErrInvalidKey, got %v", tt.key, err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateKey(%q): unexpected error: %v", tt.key, err)
			}
		})
	}
}
