package version

import (
	"strings"
	"testing"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                     "",
		"abc123":               "abc123",
		"0123456789abcdef0123": "0123456789ab",
	}
	for in, want := range tests {
		if got := shortCommit(in); got != want {
			t.Errorf("shortCommit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	t.Parallel()
	info := Resolve()
	if info.Version == "" || info.GoVersion == "" {
		t.Fatalf("incomplete info: %+v", info)
	}
	if s := String(); !strings.HasPrefix(s, info.Version) {
		t.Fatalf("String() = %q, want prefix %q", s, info.Version)
	}
}
