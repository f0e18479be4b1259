package capture

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

const sampleHAR = `{
  "log": {
    "entries": [
      {
        "startedDateTime": "2026-08-01T10:00:00Z",
        "time": 150,
        "request": {
          "method": "POST",
          "url": "https://example.com/api/login",
          "httpVersion": "HTTP/1.1",
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "postData": {"text": "{\"user\":\"alice\"}"}
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "content": {"text": "{\"token\":\"abc\"}"},
          "redirectURL": ""
        }
      },
      {
        "startedDateTime": "not-a-timestamp",
        "time": 10,
        "request": {"method": "GET", "url": "https://example.com/skip", "httpVersion": "HTTP/1.1", "headers": []},
        "response": {"status": 200, "headers": [], "content": {"text": ""}, "redirectURL": ""}
      },
      {
        "startedDateTime": "2026-08-01T10:00:05Z",
        "time": 30,
        "request": {"method": "GET", "url": "https://example.com/old", "httpVersion": "HTTP/1.1", "headers": []},
        "response": {"status": 301, "headers": [{"name": "Location", "value": "https://example.com/new"}], "content": {"text": ""}, "redirectURL": "https://example.com/new"}
      }
    ]
  }
}`

func TestReadHAR(t *testing.T) {
	got, err := ReadHAR(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("ReadHAR: %v", err)
	}

	// The unparseable-timestamp entry is skipped, not fatal.
	if len(got.Exchanges) != 2 {
		t.Fatalf("got %d exchanges, want 2", len(got.Exchanges))
	}

	login := got.Exchanges[0]
	if login.Request.Method != "POST" || login.Request.URL != "https://example.com/api/login" {
		t.Errorf("request = %+v", login.Request)
	}
	if login.Request.Body != `{"user":"alice"}` {
		t.Errorf("Body = %q", login.Request.Body)
	}
	if login.Request.Headers["Content-Type"] != "application/json" {
		t.Errorf("Headers = %v", login.Request.Headers)
	}
	if login.Response == nil || login.Response.Status != 200 {
		t.Fatalf("Response = %+v", login.Response)
	}
	if want := login.StartedAt.Add(150 * time.Millisecond); !login.CompletedAt.Equal(want) {
		t.Errorf("CompletedAt = %v, want %v", login.CompletedAt, want)
	}

	redirect := got.Exchanges[1]
	if redirect.Response.RedirectLocation != "https://example.com/new" {
		t.Errorf("RedirectLocation = %q", redirect.Response.RedirectLocation)
	}
}

func TestReadHARRejectsGarbage(t *testing.T) {
	if _, err := ReadHAR(strings.NewReader("{broken")); err == nil {
		t.Error("ReadHAR accepted malformed input")
	}
}

func TestWriteHARRoundTrip(t *testing.T) {
	original, err := ReadHAR(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("ReadHAR: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteHAR(&buf, original); err != nil {
		t.Fatalf("WriteHAR: %v", err)
	}

	again, err := ReadHAR(&buf)
	if err != nil {
		t.Fatalf("ReadHAR(rewritten): %v", err)
	}
	if len(again.Exchanges) != len(original.Exchanges) {
		t.Fatalf("got %d exchanges, want %d", len(again.Exchanges), len(original.Exchanges))
	}
	if again.Exchanges[0].Request.URL != original.Exchanges[0].Request.URL {
		t.Errorf("URL = %q, want %q", again.Exchanges[0].Request.URL, original.Exchanges[0].Request.URL)
	}
	if again.Exchanges[0].Response.Body != original.Exchanges[0].Response.Body {
		t.Errorf("Body = %q, want %q", again.Exchanges[0].Response.Body, original.Exchanges[0].Response.Body)
	}
}
