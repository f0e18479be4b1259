package endpoints

import (
	"testing"
	"time"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func jsonExchange(id, method, url string, status int, started time.Time) model.Exchange {
	return model.Exchange{
		ID:        id,
		StartedAt: started,
		Request: model.Request{
			Method: method,
			URL:    url,
		},
		Response: &model.Response{
			Status:  status,
			Headers: map[string]string{"Content-Type": "application/json"},
		},
	}
}

func TestExtractGroupsByTemplate(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	exchanges := []model.Exchange{
		jsonExchange("ex1", "GET", "https://example.com/api/items/1", 200, base),
		jsonExchange("ex2", "GET", "https://example.com/api/items/2", 200, base.Add(time.Minute)),
		jsonExchange("ex3", "GET", "https://example.com/api/items/3", 200, base.Add(2*time.Minute)),
	}

	got := NewExtractor(nil).Extract(exchanges)
	if len(got) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(got))
	}

	ep := got[0]
	if ep.PathTemplate != "/api/items/{itemId}" {
		t.Errorf("PathTemplate = %q, want /api/items/{itemId}", ep.PathTemplate)
	}
	if ep.Method != "GET" {
		t.Errorf("Method = %q, want GET", ep.Method)
	}
	if ep.Metadata.HitCount != 3 {
		t.Errorf("HitCount = %d, want 3", ep.Metadata.HitCount)
	}
	if ep.Metadata.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", ep.Metadata.SuccessRate)
	}
	if len(ep.ExampleExchangeIDs) != ep.Metadata.HitCount {
		t.Errorf("len(ExampleExchangeIDs) = %d, want %d", len(ep.ExampleExchangeIDs), ep.Metadata.HitCount)
	}
	if ep.Metadata.FirstSeen.After(ep.Metadata.LastSeen) {
		t.Error("FirstSeen must not be after LastSeen")
	}
	if !ep.Metadata.FirstSeen.Equal(base) {
		t.Errorf("FirstSeen = %v, want %v", ep.Metadata.FirstSeen, base)
	}

	if len(ep.PathParameters) != 1 {
		t.Fatalf("got %d path parameters, want 1", len(ep.PathParameters))
	}
	p := ep.PathParameters[0]
	if p.Name != "itemId" || p.Type != model.TypeInteger {
		t.Errorf("path parameter = %s/%s, want itemId/integer", p.Name, p.Type)
	}
}

func TestExtractSeparatesMethods(t *testing.T) {
	base := time.Now()
	exchanges := []model.Exchange{
		jsonExchange("ex1", "GET", "https://example.com/api/items/1", 200, base),
		jsonExchange("ex2", "DELETE", "https://example.com/api/items/1", 204, base),
	}

	got := NewExtractor(nil).Extract(exchanges)
	if len(got) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Error("different methods must yield different endpoint ids")
	}
}

func TestExtractFilters(t *testing.T) {
	base := time.Now()
	exchanges := []model.Exchange{
		// Static asset on an api-looking path: excluded.
		{
			ID:        "css",
			StartedAt: base,
			Request:   model.Request{Method: "GET", URL: "https://example.com/api/theme.css"},
			Response:  &model.Response{Status: 200, Headers: map[string]string{"Content-Type": "text/css"}},
		},
		// Plain HTML GET outside api paths: excluded.
		{
			ID:        "page",
			StartedAt: base,
			Request:   model.Request{Method: "GET", URL: "https://example.com/about"},
			Response:  &model.Response{Status: 200, Headers: map[string]string{"Content-Type": "text/html"}},
		},
		// Mutating method is kept even without a JSON response.
		{
			ID:        "form",
			StartedAt: base,
			Request:   model.Request{Method: "POST", URL: "https://example.com/contact"},
			Response:  &model.Response{Status: 302, Headers: map[string]string{"Content-Type": "text/html"}},
		},
		// Malformed URL excludes only this exchange.
		{
			ID:        "bad",
			StartedAt: base,
			Request:   model.Request{Method: "GET", URL: "://not-a-url"},
		},
	}

	got := NewExtractor(nil).Extract(exchanges)
	if len(got) != 1 {
		t.Fatalf("got %d endpoints, want 1: %+v", len(got), got)
	}
	if got[0].PathTemplate != "/contact" || got[0].Method != "POST" {
		t.Errorf("kept endpoint = %s %s, want POST /contact", got[0].Method, got[0].PathTemplate)
	}
}

func TestExtractAverageLatency(t *testing.T) {
	base := time.Now()
	fast := jsonExchange("fast", "GET", "https://example.com/api/items/1", 200, base)
	fast.CompletedAt = base.Add(100 * time.Millisecond)
	slow := jsonExchange("slow", "GET", "https://example.com/api/items/2", 200, base)
	slow.CompletedAt = base.Add(300 * time.Millisecond)
	pending := jsonExchange("pending", "GET", "https://example.com/api/items/3", 200, base)
	pending.Response = nil

	got := NewExtractor(nil).Extract([]model.Exchange{fast, slow, pending})
	if len(got) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(got))
	}

	// Only completed exchanges count toward the average.
	if want := 200 * time.Millisecond; got[0].Metadata.AverageLatency != want {
		t.Errorf("AverageLatency = %v, want %v", got[0].Metadata.AverageLatency, want)
	}
	// The response-less exchange still counts as a hit and a non-success.
	if got[0].Metadata.HitCount != 3 {
		t.Errorf("HitCount = %d, want 3", got[0].Metadata.HitCount)
	}
	if want := 2.0 / 3.0; got[0].Metadata.SuccessRate != want {
		t.Errorf("SuccessRate = %v, want %v", got[0].Metadata.SuccessRate, want)
	}
}

func TestExtractAuthRequired(t *testing.T) {
	base := time.Now()
	ex := jsonExchange("ex1", "GET", "https://example.com/api/items/1", 200, base)
	ex.Request.Headers = map[string]string{"Authorization": "Bearer tok"}

	got := NewExtractor(nil).Extract([]model.Exchange{ex})
	if len(got) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(got))
	}
	if !got[0].AuthRequired {
		t.Error("AuthRequired should be true for Authorization-carrying traffic")
	}
}

func TestExtractRequestBodySchema(t *testing.T) {
	base := time.Now()
	ex := model.Exchange{
		ID:        "ex1",
		StartedAt: base,
		Request: model.Request{
			Method:  "POST",
			URL:     "https://example.com/api/users",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    `{"name":"alice","age":30,"score":1.5,"active":true,"roles":["a"],"meta":{}}`,
		},
		Response: &model.Response{Status: 201, Headers: map[string]string{"Content-Type": "application/json"}},
	}

	got := NewExtractor(nil).Extract([]model.Exchange{ex})
	if len(got) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(got))
	}

	body := got[0].RequestBody
	if body == nil {
		t.Fatal("RequestBody is nil")
	}
	wantFields := map[string]model.ParameterType{
		"name":   model.TypeString,
		"age":    model.TypeInteger,
		"score":  model.TypeNumber,
		"active": model.TypeBoolean,
		"roles":  model.TypeArray,
		"meta":   model.TypeObject,
	}
	for key, want := range wantFields {
		if body.Fields[key] != want {
			t.Errorf("Fields[%q] = %v, want %v", key, body.Fields[key], want)
		}
	}
	if len(body.Examples) != 1 {
		t.Errorf("got %d body examples, want 1", len(body.Examples))
	}
}

func TestEndpointIDDeterministic(t *testing.T) {
	a := EndpointID("GET", "example.com", "/api/items/{itemId}")
	b := EndpointID("GET", "example.com", "/api/items/{itemId}")
	if a != b {
		t.Errorf("same tuple produced different ids: %q vs %q", a, b)
	}
	if c := EndpointID("POST", "example.com", "/api/items/{itemId}"); c == a {
		t.Error("different methods produced the same id")
	}
}
