// Package urlutil provides URL normalization and parsing for the analysis
// pipeline. Malformed URLs degrade to empty parses rather than errors so
// downstream grouping simply excludes them.
package urlutil

import (
	"net/url"
	"strings"
)

// Parsed is the decomposed form of a captured URL.
type Parsed struct {
	Host     string
	Path     string
	Segments []string
	Query    map[string]string
}

// Normalize strips the fragment from a raw URL. The query string is
// preserved; correlation and grouping both key on the fragment-free form.
func Normalize(raw string) string {
	if idx := strings.Index(raw, "#"); idx != -1 {
		return raw[:idx]
	}
	return raw
}

// Parse decomposes a URL into host, path, path segments, and first-value
// query parameters. On malformed input it returns an empty Parsed; an
// endpoint with host "" is excluded from grouping, never fatal.
func Parse(raw string) Parsed {
	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return Parsed{Query: map[string]string{}}
	}

	query := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		} else {
			query[key] = ""
		}
	}

	return Parsed{
		Host:     u.Host,
		Path:     u.Path,
		Segments: SplitPath(u.Path),
		Query:    query,
	}
}

// SplitPath splits a URL path into non-empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// PathOf returns the path component of a raw URL, or "" when malformed.
func PathOf(raw string) string {
	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return ""
	}
	return u.Path
}

// HostOf returns the host component of a raw URL, or "" when malformed.
func HostOf(raw string) string {
	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return ""
	}
	return u.Host
}

// Resolve resolves a possibly relative reference against a base URL.
// Returns the reference unchanged when either side is malformed.
func Resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
