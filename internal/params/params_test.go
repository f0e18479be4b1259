package params

import (
	"reflect"
	"testing"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func TestInferType(t *testing.T) {
	a := New()

	tests := []struct {
		name   string
		values []string
		want   model.ParameterType
	}{
		{"empty defaults to string", nil, model.TypeString},
		{"integers", []string{"1", "42", "-7"}, model.TypeInteger},
		{"floats", []string{"1.5", "2"}, model.TypeNumber},
		{"booleans", []string{"true", "false"}, model.TypeBoolean},
		{"zero and one are integers first", []string{"0", "1"}, model.TypeInteger},
		{"comma separated", []string{"a,b,c"}, model.TypeArray},
		{"escaped comma is not an array", []string{`a\,b`}, model.TypeString},
		{"mixed", []string{"1", "abc"}, model.TypeString},
		{"bool mixed with word", []string{"true", "maybe"}, model.TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.InferType(tt.values); got != tt.want {
				t.Errorf("InferType(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestPathParameters(t *testing.T) {
	a := New()

	params := a.PathParameters("/api/users/{userId}/posts/{postId}", []string{
		"/api/users/123/posts/789",
		"/api/users/456/posts/789",
	})

	if len(params) != 2 {
		t.Fatalf("got %d parameters, want 2", len(params))
	}

	userID := params[0]
	if userID.Name != "userId" {
		t.Errorf("Name = %q, want userId", userID.Name)
	}
	if !userID.Required {
		t.Error("path parameters must be required")
	}
	if userID.Type != model.TypeInteger {
		t.Errorf("Type = %v, want integer", userID.Type)
	}
	if want := []string{"123", "456"}; !reflect.DeepEqual(userID.ObservedValues, want) {
		t.Errorf("ObservedValues = %v, want %v", userID.ObservedValues, want)
	}

	postID := params[1]
	if postID.Name != "postId" {
		t.Errorf("Name = %q, want postId", postID.Name)
	}
	if want := []string{"789"}; !reflect.DeepEqual(postID.ObservedValues, want) {
		t.Errorf("ObservedValues = %v, want %v", postID.ObservedValues, want)
	}
}

func TestPathParametersNoPlaceholders(t *testing.T) {
	a := New()
	if params := a.PathParameters("/api/health", []string{"/api/health"}); params != nil {
		t.Errorf("got %v, want nil", params)
	}
}

func TestQueryParametersRequired(t *testing.T) {
	a := New()

	params := a.QueryParameters([]map[string]string{
		{"page": "1", "limit": "10"},
		{"page": "2", "limit": "10"},
		{"page": "3"},
	})

	byName := make(map[string]model.Parameter)
	for _, p := range params {
		byName[p.Name] = p
	}

	if !byName["page"].Required {
		t.Error("page appears in every request, should be required")
	}
	if byName["limit"].Required {
		t.Error("limit is missing from one request, should be optional")
	}
	// Sorted by descending frequency.
	if params[0].Name != "page" {
		t.Errorf("params[0].Name = %q, want page", params[0].Name)
	}
}

func TestQueryParametersSingleObservation(t *testing.T) {
	a := New()

	params := a.QueryParameters([]map[string]string{{"q": "term"}})
	if len(params) != 1 {
		t.Fatalf("got %d parameters, want 1", len(params))
	}
	if params[0].Required {
		t.Error("a single observation must not mark the parameter required")
	}
}

func TestHeaderParameters(t *testing.T) {
	a := New()

	params := a.HeaderParameters([]map[string]string{
		{"Authorization": "Bearer abc", "X-Request-Id": "r1", "User-Agent": "x", "Sec-Fetch-Mode": "cors"},
		{"Authorization": "Bearer def", "X-Request-Id": "r2"},
	})

	if len(params) != 2 {
		t.Fatalf("got %d parameters, want 2: %v", len(params), params)
	}

	// Auth headers sort first.
	auth := params[0]
	if auth.Name != "Authorization" {
		t.Fatalf("params[0].Name = %q, want Authorization", auth.Name)
	}
	if !auth.Required {
		t.Error("auth header should be required")
	}
	if len(auth.ObservedValues) != 0 {
		t.Errorf("auth header values must be suppressed, got %v", auth.ObservedValues)
	}

	if params[1].Name != "X-Request-Id" {
		t.Errorf("params[1].Name = %q, want X-Request-Id", params[1].Name)
	}
}

func TestCorrelations(t *testing.T) {
	a := New()

	got := a.Correlations([]map[string]string{
		{"page": "1", "limit": "10"},
		{"page": "2", "limit": "20"},
		{"page": "3"},
		{"sort": "asc"},
	})

	want := []Correlation{
		{First: "limit", Second: "page", Kind: FirstRequiresSecond, Together: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Correlations = %v, want %v", got, want)
	}
}

func TestCorrelationsAlwaysTogether(t *testing.T) {
	a := New()

	got := a.Correlations([]map[string]string{
		{"lat": "1", "lng": "2"},
		{"lat": "3", "lng": "4"},
	})

	if len(got) != 1 || got[0].Kind != AlwaysTogether {
		t.Errorf("got %v, want one always_together pair", got)
	}
}
