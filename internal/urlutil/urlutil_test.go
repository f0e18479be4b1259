package urlutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/page?a=1#x", "https://example.com/page?a=1"},
		{"https://example.com/page?a=1", "https://example.com/page?a=1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	p := Parse("https://example.com/api/users/42?page=2&sort=asc#frag")

	if p.Host != "example.com" {
		t.Errorf("Host = %q, want example.com", p.Host)
	}
	if p.Path != "/api/users/42" {
		t.Errorf("Path = %q, want /api/users/42", p.Path)
	}
	if want := []string{"api", "users", "42"}; !reflect.DeepEqual(p.Segments, want) {
		t.Errorf("Segments = %v, want %v", p.Segments, want)
	}
	if p.Query["page"] != "2" || p.Query["sort"] != "asc" {
		t.Errorf("Query = %v, want page=2 sort=asc", p.Query)
	}
}

func TestParseMalformed(t *testing.T) {
	p := Parse("://broken")
	if p.Host != "" {
		t.Errorf("Host = %q, want empty for malformed input", p.Host)
	}
	if p.Query == nil {
		t.Error("Query must not be nil on malformed input")
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/a//b/", []string{"a", "b"}},
		{"/", []string{}},
		{"", []string{}},
	}

	for _, tt := range tests {
		if got := SplitPath(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base string
		ref  string
		want string
	}{
		{"https://example.com/a/b", "/c", "https://example.com/c"},
		{"https://example.com/a/", "c", "https://example.com/a/c"},
		{"https://example.com/", "https://other.com/x", "https://other.com/x"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.base, tt.ref); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
