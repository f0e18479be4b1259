package endpoints

import (
	"regexp"
	"strconv"
	"strings"
)

// Static path vocabulary: segments that stay literal even when short and
// alphanumeric. Grouping depends on these never being mistaken for ids.
var staticSegments = map[string]bool{
	"api": true, "rest": true, "graphql": true, "public": true,
	"v1": true, "v2": true, "v3": true, "v4": true,
	"users": true, "user": true, "auth": true, "login": true,
	"logout": true, "register": true, "signup": true, "signin": true,
	"admin": true, "settings": true, "profile": true, "account": true,
	"accounts": true, "search": true, "posts": true, "comments": true,
	"items": true, "products": true, "orders": true, "categories": true,
	"tags": true, "files": true, "uploads": true, "images": true,
	"sessions": true, "token": true, "refresh": true, "me": true,
	"status": true, "health": true, "config": true, "notifications": true,
	"messages": true, "groups": true, "teams": true, "projects": true,
}

var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
var hex24Re = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// segmentKind classifies one path segment.
type segmentKind int

const (
	segLiteral segmentKind = iota
	segUUID
	segNumeric
	segObjectID
	segToken
)

// classifySegment applies the parameter heuristics in priority order:
// UUID, then pure-numeric, then 24-hex Mongo-style id, then long
// alphanumeric token. Anything in the static vocabulary stays literal.
func classifySegment(segment string) segmentKind {
	if staticSegments[strings.ToLower(segment)] {
		return segLiteral
	}
	if uuidRe.MatchString(segment) {
		return segUUID
	}
	if isNumeric(segment) {
		return segNumeric
	}
	if hex24Re.MatchString(segment) {
		return segObjectID
	}
	if len(segment) > 20 && isAlphanumeric(segment) {
		return segToken
	}
	return segLiteral
}

// TemplateForPath builds a path template from a concrete path: literal
// segments are preserved and dynamic segments become {name} placeholders.
// Parameter names come from the singularized preceding static segment
// with "Id" appended, falling back to the segment kind's generic name.
func TemplateForPath(path string) string {
	parts := strings.Split(path, "/")
	used := make(map[string]bool)
	fallbacks := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		kind := classifySegment(part)
		if kind == segLiteral {
			continue
		}

		prev := ""
		if i > 0 {
			prev = parts[i-1]
		}
		name := paramName(prev, kind, &fallbacks)
		for n := 2; used[name]; n++ {
			name = name + strconv.Itoa(n)
		}
		used[name] = true
		parts[i] = "{" + name + "}"
	}

	return strings.Join(parts, "/")
}

// paramName derives a parameter name from the preceding static segment,
// or falls back to a generic name keyed on the segment kind.
func paramName(prev string, kind segmentKind, fallbacks *int) string {
	if prev != "" && classifySegment(prev) == segLiteral && isIdentifierish(prev) {
		return singularize(strings.ToLower(prev)) + "Id"
	}

	switch kind {
	case segUUID:
		return "uuid"
	case segNumeric:
		return "id"
	case segObjectID:
		return "objectId"
	default:
		*fallbacks++
		return "param" + strconv.Itoa(*fallbacks)
	}
}

// singularize strips a plural suffix: ies -> y, then es, then s.
func singularize(word string) string {
	if strings.HasSuffix(word, "ies") {
		return strings.TrimSuffix(word, "ies") + "y"
	}
	if strings.HasSuffix(word, "es") {
		return strings.TrimSuffix(word, "es")
	}
	if strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		return strings.TrimSuffix(word, "s")
	}
	return word
}

func isNumeric(s string) bool {
	if len(s) == 0 || len(s) > 20 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return len(s) > 0
}

func isIdentifierish(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
