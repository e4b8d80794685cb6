package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("RECRUITER_TEST_SECRET", " from-env ")
	t.Setenv("RECRUITER_TEST_UNSET", "")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins over value", src: Source{Name: "api key", File: keyFile, Value: "inline"}, want: "from-file"},
		{name: "inline value", src: Source{Value: " inline "}, want: "inline"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile}, wantErr: "api key file"},
		{name: "missing file", src: Source{Name: "db url", File: filepath.Join(dir, "nope")}, wantErr: "reading db url"},
		{name: "env before value", src: Source{Env: "RECRUITER_TEST_SECRET", Value: "inline"}, want: "from-env"},
		{name: "unset env falls back to value", src: Source{Env: "RECRUITER_TEST_UNSET", Value: "inline"}, want: "inline"},
		{name: "not configured", src: Source{}, wantErr: "secret: secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
