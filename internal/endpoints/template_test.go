package endpoints

import "testing"

func TestTemplateForPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "nested numeric ids",
			path: "/api/users/123/posts/789",
			want: "/api/users/{userId}/posts/{postId}",
		},
		{
			name: "uuid segment",
			path: "/api/orders/550e8400-e29b-41d4-a716-446655440000",
			want: "/api/orders/{orderId}",
		},
		{
			name: "mongo object id",
			path: "/api/items/507f1f77bcf86cd799439011",
			want: "/api/items/{itemId}",
		},
		{
			name: "long alphanumeric token",
			path: "/download/a1b2c3d4e5f6g7h8i9j0k1l2m3",
			want: "/download/{downloadId}",
		},
		{
			name: "static vocabulary stays literal",
			path: "/api/v2/users/me",
			want: "/api/v2/users/me",
		},
		{
			name: "no dynamic segments",
			path: "/about/contact",
			want: "/about/contact",
		},
		{
			name: "ies plural singularized",
			path: "/api/categories/42",
			want: "/api/categories/{categoryId}",
		},
		{
			name: "uuid without preceding literal name",
			path: "/550e8400-e29b-41d4-a716-446655440000",
			want: "/{uuid}",
		},
		{
			name: "duplicate names get numeric suffix",
			path: "/api/users/1/users/2",
			want: "/api/users/{userId}/users/{userId2}",
		},
		{
			name: "root",
			path: "/",
			want: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TemplateForPath(tt.path); got != tt.want {
				t.Errorf("TemplateForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		segment string
		want    segmentKind
	}{
		{"users", segLiteral},
		{"API", segLiteral},
		{"123", segNumeric},
		{"550e8400-e29b-41d4-a716-446655440000", segUUID},
		{"507f1f77bcf86cd799439011", segObjectID},
		{"a1b2c3d4e5f6g7h8i9j0k1l2m3", segToken},
		{"short", segLiteral},
		{"123456789012345678901234567", segToken},
	}

	for _, tt := range tests {
		if got := classifySegment(tt.segment); got != tt.want {
			t.Errorf("classifySegment(%q) = %v, want %v", tt.segment, got, tt.want)
		}
	}
}

func TestSingularize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"users", "user"},
		{"categories", "category"},
		{"boxes", "box"},
		{"address", "address"},
		{"item", "item"},
	}

	for _, tt := range tests {
		if got := singularize(tt.word); got != tt.want {
			t.Errorf("singularize(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}
